package tasks

import (
	"fmt"
	"sync"

	"github.com/mediapulse/mediapulse/app/database"
)

// DedupGate answers "has this entry been stored already?" for one scrape
// pass. Identity is (source, url), falling back to (source, title) when the
// url is empty. Lookups read through to the persisted store, so the gate is
// correct across restarts; positive answers are cached in memory to spare
// repeated queries within a pass. The unique index on contents remains the
// final authority for races the gate cannot see.
type DedupGate struct {
	contentRepo database.ContentRepository
	mu          sync.Mutex
	seen        map[string]struct{}
}

func NewDedupGate(contentRepo database.ContentRepository) *DedupGate {
	return &DedupGate{
		contentRepo: contentRepo,
		seen:        make(map[string]struct{}),
	}
}

// IsDuplicate reports whether a record with the same identity already
// exists, either stored earlier in this pass or persisted before it.
func (g *DedupGate) IsDuplicate(sourceID int64, url, title string) (bool, error) {
	key := identityKey(sourceID, url, title)

	g.mu.Lock()
	_, ok := g.seen[key]
	g.mu.Unlock()
	if ok {
		return true, nil
	}

	if url != "" {
		existing, err := g.contentRepo.FindByURL(sourceID, url)
		if err != nil {
			return false, fmt.Errorf("failed to check url duplicate: %w", err)
		}
		if existing != nil {
			g.remember(key)
			return true, nil
		}
		return false, nil
	}

	existing, err := g.contentRepo.FindByTitle(sourceID, title)
	if err != nil {
		return false, fmt.Errorf("failed to check title duplicate: %w", err)
	}
	if existing != nil {
		g.remember(key)
		return true, nil
	}

	return false, nil
}

// MarkStored records a successful insert so later entries in the same pass
// short-circuit without a query.
func (g *DedupGate) MarkStored(sourceID int64, url, title string) {
	g.remember(identityKey(sourceID, url, title))
}

func (g *DedupGate) remember(key string) {
	g.mu.Lock()
	g.seen[key] = struct{}{}
	g.mu.Unlock()
}

func identityKey(sourceID int64, url, title string) string {
	if url != "" {
		return fmt.Sprintf("%d|u|%s", sourceID, url)
	}
	return fmt.Sprintf("%d|t|%s", sourceID, title)
}
