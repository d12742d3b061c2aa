package database

import (
	"time"
)

// SourceRepository handles database operations for sources.
type SourceRepository interface {
	UpsertSource(source Source) (int64, error)
	GetSourceByName(name string) (*Source, error)
	GetActiveSources() ([]Source, error)
	GetSourceCount() (int, error)

	UpdateLastScraped(sourceID int64, ts time.Time) error
	SetSourceActive(sourceID int64, active bool) error
}

// ContentRepository handles database operations for content records.
// FindByURL/FindByTitle back the dedup gate; the unique index on
// (source_id, url) remains the final authority.
type ContentRepository interface {
	FindByURL(sourceID int64, url string) (*Content, error)
	FindByTitle(sourceID int64, title string) (*Content, error)
	InsertContent(content Content) (int64, error)

	GetContent(query ContentQuery) ([]Content, error)
	GetStats() (*Stats, error)

	GetContentForExtraction(sourceID int64, limit int) ([]ContentForExtraction, error)
	UpdateExtractedContent(contentID int64, text string, extractedAt time.Time) error
	UpdateExtractionStatus(contentID int64, status string, extractedAt *time.Time) error
}
