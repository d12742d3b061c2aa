package database

import (
	"time"
)

// Source is a source record in the database, synced from the registry on
// startup and updated after each successful scrape. Sources are never
// physically deleted by the pipeline; deactivation is an external action.
type Source struct {
	ID              int64
	Name            string
	URL             string
	SourceType      string
	Category        string
	Description     string
	IsActive        bool
	RefreshInterval int // seconds
	LastScrapedAt   *time.Time
	Metadata        map[string]string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Content is the canonical persisted unit derived from a feed entry after
// filtering and scoring. Unique per (source, url); (source, title) is the
// fallback identity when urls are absent or unstable.
type Content struct {
	ID               int64
	SourceID         int64
	Title            string
	Description      string
	URL              string
	ContentText      *string
	PublishedAt      *time.Time
	ThumbnailURL     string
	Author           string
	Tags             []string
	Engagement       map[string]any
	ExtractionStatus string // pending, success, failed, skipped
	ExtractedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ContentForExtraction is the slim projection used by the content-text
// enrichment task.
type ContentForExtraction struct {
	ID  int64
	URL string
}

// ContentQuery filters the API's content listing.
type ContentQuery struct {
	SourceName string
	Tag        string
	Search     string
	Limit      int
}

// Stats aggregates store counts for the stats endpoint.
type Stats struct {
	Sources       int
	ActiveSources int
	Contents      int
	Extracted     int
}
