package tasks

import (
	"testing"

	"github.com/mediapulse/mediapulse/app/database"
)

func TestDedupGateReadsThroughToStore(t *testing.T) {
	sourceRepo, contentRepo := newTestRepos(t)

	sourceID, err := sourceRepo.UpsertSource(database.Source{
		Name: "test", URL: "https://example.com/feed.xml", IsActive: true, RefreshInterval: 3600,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := contentRepo.InsertContent(database.Content{
		SourceID: sourceID,
		Title:    "Persisted Before Restart",
		URL:      "https://example.com/persisted",
	}); err != nil {
		t.Fatal(err)
	}

	// A fresh gate has no memory of the insert above
	gate := NewDedupGate(contentRepo)

	duplicate, err := gate.IsDuplicate(sourceID, "https://example.com/persisted", "Persisted Before Restart")
	if err != nil {
		t.Fatal(err)
	}
	if !duplicate {
		t.Error("Expected persisted record to be detected as duplicate")
	}

	duplicate, err = gate.IsDuplicate(sourceID, "https://example.com/new", "New Entry")
	if err != nil {
		t.Fatal(err)
	}
	if duplicate {
		t.Error("Expected unseen url to not be a duplicate")
	}
}

func TestDedupGateTitleFallback(t *testing.T) {
	sourceRepo, contentRepo := newTestRepos(t)

	sourceID, err := sourceRepo.UpsertSource(database.Source{
		Name: "test", URL: "https://example.com/feed.xml", IsActive: true, RefreshInterval: 3600,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := contentRepo.InsertContent(database.Content{
		SourceID: sourceID,
		Title:    "Linkless Record",
	}); err != nil {
		t.Fatal(err)
	}

	gate := NewDedupGate(contentRepo)

	duplicate, err := gate.IsDuplicate(sourceID, "", "Linkless Record")
	if err != nil {
		t.Fatal(err)
	}
	if !duplicate {
		t.Error("Expected title fallback to detect the duplicate")
	}

	duplicate, err = gate.IsDuplicate(sourceID, "", "Different Title")
	if err != nil {
		t.Fatal(err)
	}
	if duplicate {
		t.Error("Expected a new title to not be a duplicate")
	}
}

func TestDedupGateScopedPerSource(t *testing.T) {
	sourceRepo, contentRepo := newTestRepos(t)

	firstID, err := sourceRepo.UpsertSource(database.Source{
		Name: "first", URL: "https://example.com/a.xml", IsActive: true, RefreshInterval: 3600,
	})
	if err != nil {
		t.Fatal(err)
	}
	secondID, err := sourceRepo.UpsertSource(database.Source{
		Name: "second", URL: "https://example.com/b.xml", IsActive: true, RefreshInterval: 3600,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := contentRepo.InsertContent(database.Content{
		SourceID: firstID,
		Title:    "Shared Story",
		URL:      "https://example.com/shared",
	}); err != nil {
		t.Fatal(err)
	}

	gate := NewDedupGate(contentRepo)

	duplicate, err := gate.IsDuplicate(secondID, "https://example.com/shared", "Shared Story")
	if err != nil {
		t.Fatal(err)
	}
	if duplicate {
		t.Error("Expected identity to be scoped per source")
	}
}

func TestDedupGateMarkStored(t *testing.T) {
	_, contentRepo := newTestRepos(t)

	gate := NewDedupGate(contentRepo)

	gate.MarkStored(1, "https://example.com/just-stored", "Just Stored")

	duplicate, err := gate.IsDuplicate(1, "https://example.com/just-stored", "Just Stored")
	if err != nil {
		t.Fatal(err)
	}
	if !duplicate {
		t.Error("Expected marked entry to be reported as duplicate within the pass")
	}
}
