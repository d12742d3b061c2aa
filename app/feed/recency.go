package feed

import (
	"time"

	"github.com/araddon/dateparse"
)

// ResolveTimestamp walks the timestamp priority chain for an entry:
// parsed published, parsed updated, then the raw published/updated strings
// through a lenient date parser. Returns nil when every tier fails; a
// dateless entry is not an error.
func ResolveTimestamp(entry *Entry) *time.Time {
	if entry.PublishedAt != nil {
		return entry.PublishedAt
	}
	if entry.UpdatedAt != nil {
		return entry.UpdatedAt
	}

	for _, raw := range []string{entry.RawPublished, entry.RawUpdated} {
		if raw == "" {
			continue
		}
		if ts, err := dateparse.ParseAny(raw); err == nil {
			utc := ts.UTC()
			return &utc
		}
	}

	return nil
}

// ResolveRecency classifies an entry against a cutoff. Entries strictly
// older than the cutoff are rejected; dateless entries are admitted, since
// many feeds omit dates for current items.
func ResolveRecency(entry *Entry, cutoff time.Time) (bool, *time.Time) {
	ts := ResolveTimestamp(entry)
	if ts == nil {
		return true, nil
	}

	if ts.Before(cutoff) {
		return false, ts
	}

	return true, ts
}
