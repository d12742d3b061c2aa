package feed

import (
	"time"
)

// Entry is the in-memory representation of one syndicated item as parsed
// from a source's raw feed. Entries exist only for the duration of a single
// fetch cycle; they are never persisted directly.
type Entry struct {
	Title       string
	Link        string
	Description string // cleaned plain text, length-bounded
	Author      string
	PublishedAt *time.Time
	UpdatedAt   *time.Time

	// Raw timestamp strings as they appeared in the feed, kept for the
	// fallback tier when the parsed fields are absent
	RawPublished string
	RawUpdated   string

	Categories   []string
	ThumbnailURL string

	EnclosureURL    string // RSS enclosure URL
	EnclosureLength int64  // RSS enclosure length in bytes
	EnclosureType   string // RSS enclosure MIME type
}

// Metadata describes the feed itself rather than its entries.
type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
	ImageURL    string
}
