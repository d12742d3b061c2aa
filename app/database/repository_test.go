package database

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func seedSource(t *testing.T, repo SourceRepository, name string) int64 {
	t.Helper()

	id, err := repo.UpsertSource(Source{
		Name:            name,
		URL:             "https://example.com/" + name + ".xml",
		SourceType:      "blog",
		Category:        "tech_news",
		IsActive:        true,
		RefreshInterval: 3600,
	})
	if err != nil {
		t.Fatalf("Failed to seed source: %v", err)
	}
	return id
}

func TestUpsertSourceIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepository(db)

	first := seedSource(t, repo, "example")

	second, err := repo.UpsertSource(Source{
		Name:            "example",
		URL:             "https://example.com/updated.xml",
		SourceType:      "podcast",
		IsActive:        true,
		RefreshInterval: 1800,
	})
	if err != nil {
		t.Fatalf("Expected upsert to succeed, got: %v", err)
	}

	if first != second {
		t.Errorf("Expected same id on re-upsert, got: %d and %d", first, second)
	}

	source, err := repo.GetSourceByName("example")
	if err != nil {
		t.Fatal(err)
	}
	if source.URL != "https://example.com/updated.xml" {
		t.Errorf("Expected updated URL, got: %s", source.URL)
	}
	if source.SourceType != "podcast" {
		t.Errorf("Expected updated source type, got: %s", source.SourceType)
	}
}

func TestGetSourceByNameMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepository(db)

	source, err := repo.GetSourceByName("ghost")
	if err != nil {
		t.Fatalf("Expected no error for missing source, got: %v", err)
	}
	if source != nil {
		t.Errorf("Expected nil for missing source, got: %+v", source)
	}
}

func TestUpdateLastScraped(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepository(db)

	id := seedSource(t, repo, "example")

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.UpdateLastScraped(id, ts); err != nil {
		t.Fatalf("Expected update to succeed, got: %v", err)
	}

	source, err := repo.GetSourceByName("example")
	if err != nil {
		t.Fatal(err)
	}
	if source.LastScrapedAt == nil {
		t.Fatal("Expected last scraped time to be set")
	}
	if !source.LastScrapedAt.UTC().Equal(ts) {
		t.Errorf("Expected %v, got: %v", ts, source.LastScrapedAt)
	}
}

func TestInsertAndFindContent(t *testing.T) {
	db := newTestDB(t)
	sourceRepo := NewSourceRepository(db)
	contentRepo := NewContentRepository(db)

	sourceID := seedSource(t, sourceRepo, "example")
	published := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	id, err := contentRepo.InsertContent(Content{
		SourceID:    sourceID,
		Title:       "A Headline",
		Description: "Some text",
		URL:         "https://example.com/a",
		PublishedAt: &published,
		Author:      "Reporter",
		Tags:        []string{"tech_news", "ai_technology"},
		Engagement:  map[string]any{"relevance_score": 4.5},
	})
	if err != nil {
		t.Fatalf("Expected insert to succeed, got: %v", err)
	}
	if id == 0 {
		t.Error("Expected a non-zero content id")
	}

	found, err := contentRepo.FindByURL(sourceID, "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	if found == nil {
		t.Fatal("Expected content to be found by url")
	}
	if found.Title != "A Headline" {
		t.Errorf("Expected title 'A Headline', got: %s", found.Title)
	}
	if len(found.Tags) != 2 {
		t.Errorf("Expected 2 tags, got: %v", found.Tags)
	}
	if found.PublishedAt == nil || !found.PublishedAt.UTC().Equal(published) {
		t.Errorf("Expected published %v, got: %v", published, found.PublishedAt)
	}

	missing, err := contentRepo.FindByURL(sourceID, "https://example.com/other")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unknown url, got: %+v", missing)
	}
}

func TestFindByTitleFallback(t *testing.T) {
	db := newTestDB(t)
	sourceRepo := NewSourceRepository(db)
	contentRepo := NewContentRepository(db)

	sourceID := seedSource(t, sourceRepo, "example")

	_, err := contentRepo.InsertContent(Content{
		SourceID: sourceID,
		Title:    "Linkless Entry",
	})
	if err != nil {
		t.Fatalf("Expected insert without url to succeed, got: %v", err)
	}

	found, err := contentRepo.FindByTitle(sourceID, "Linkless Entry")
	if err != nil {
		t.Fatal(err)
	}
	if found == nil {
		t.Fatal("Expected content to be found by title")
	}
	if found.ExtractionStatus != "skipped" {
		t.Errorf("Expected url-less record to skip extraction, got: %s", found.ExtractionStatus)
	}
}

func TestDuplicateURLViolatesConstraint(t *testing.T) {
	db := newTestDB(t)
	sourceRepo := NewSourceRepository(db)
	contentRepo := NewContentRepository(db)

	sourceID := seedSource(t, sourceRepo, "example")

	content := Content{
		SourceID: sourceID,
		Title:    "First",
		URL:      "https://example.com/same",
	}
	if _, err := contentRepo.InsertContent(content); err != nil {
		t.Fatalf("Expected first insert to succeed, got: %v", err)
	}

	content.Title = "Second"
	_, err := contentRepo.InsertContent(content)
	if err == nil {
		t.Fatal("Expected duplicate url insert to fail")
	}
	if !IsConstraintViolation(err) {
		t.Errorf("Expected constraint violation, got: %v", err)
	}
}

func TestDatelessContentAllowed(t *testing.T) {
	db := newTestDB(t)
	sourceRepo := NewSourceRepository(db)
	contentRepo := NewContentRepository(db)

	sourceID := seedSource(t, sourceRepo, "example")

	_, err := contentRepo.InsertContent(Content{
		SourceID: sourceID,
		Title:    "No Date",
		URL:      "https://example.com/nodate",
	})
	if err != nil {
		t.Fatalf("Expected dateless insert to succeed, got: %v", err)
	}

	found, err := contentRepo.FindByURL(sourceID, "https://example.com/nodate")
	if err != nil {
		t.Fatal(err)
	}
	if found.PublishedAt != nil {
		t.Errorf("Expected nil published time, got: %v", found.PublishedAt)
	}
}

func TestGetContentFilters(t *testing.T) {
	db := newTestDB(t)
	sourceRepo := NewSourceRepository(db)
	contentRepo := NewContentRepository(db)

	sourceID := seedSource(t, sourceRepo, "example")
	otherID := seedSource(t, sourceRepo, "other")

	now := time.Now().UTC()
	records := []Content{
		{SourceID: sourceID, Title: "AI startup raises round", URL: "https://example.com/1", PublishedAt: &now, Tags: []string{"startup_funding"}},
		{SourceID: sourceID, Title: "Creator platform update", URL: "https://example.com/2", PublishedAt: &now, Tags: []string{"creator_economy"}},
		{SourceID: otherID, Title: "Unrelated note", URL: "https://other.com/1", PublishedAt: &now, Tags: []string{"market_trends"}},
	}
	for _, record := range records {
		if _, err := contentRepo.InsertContent(record); err != nil {
			t.Fatal(err)
		}
	}

	bySource, err := contentRepo.GetContent(ContentQuery{SourceName: "example"})
	if err != nil {
		t.Fatal(err)
	}
	if len(bySource) != 2 {
		t.Errorf("Expected 2 records for source filter, got: %d", len(bySource))
	}

	byTag, err := contentRepo.GetContent(ContentQuery{Tag: "creator_economy"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byTag) != 1 || byTag[0].Title != "Creator platform update" {
		t.Errorf("Expected tag filter to match one record, got: %v", byTag)
	}

	bySearch, err := contentRepo.GetContent(ContentQuery{Search: "startup"})
	if err != nil {
		t.Fatal(err)
	}
	if len(bySearch) != 1 || bySearch[0].Title != "AI startup raises round" {
		t.Errorf("Expected search to match one record, got: %v", bySearch)
	}

	limited, err := contentRepo.GetContent(ContentQuery{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected limit 1 to return one record, got: %d", len(limited))
	}
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)
	sourceRepo := NewSourceRepository(db)
	contentRepo := NewContentRepository(db)

	sourceID := seedSource(t, sourceRepo, "example")

	if _, err := contentRepo.InsertContent(Content{SourceID: sourceID, Title: "One", URL: "https://example.com/1"}); err != nil {
		t.Fatal(err)
	}

	stats, err := contentRepo.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sources != 1 || stats.ActiveSources != 1 {
		t.Errorf("Expected 1 active source, got: %+v", stats)
	}
	if stats.Contents != 1 {
		t.Errorf("Expected 1 content record, got: %d", stats.Contents)
	}
	if stats.Extracted != 0 {
		t.Errorf("Expected 0 extracted records, got: %d", stats.Extracted)
	}
}

func TestExtractionLifecycle(t *testing.T) {
	db := newTestDB(t)
	sourceRepo := NewSourceRepository(db)
	contentRepo := NewContentRepository(db)

	sourceID := seedSource(t, sourceRepo, "example")

	id, err := contentRepo.InsertContent(Content{
		SourceID: sourceID,
		Title:    "Pending Article",
		URL:      "https://example.com/article",
	})
	if err != nil {
		t.Fatal(err)
	}

	pending, err := contentRepo.GetContentForExtraction(sourceID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("Expected 1 pending record, got: %v", pending)
	}

	extractedAt := time.Now().UTC()
	if err := contentRepo.UpdateExtractedContent(id, "full article text", extractedAt); err != nil {
		t.Fatalf("Expected extraction update to succeed, got: %v", err)
	}

	record, err := contentRepo.FindByURL(sourceID, "https://example.com/article")
	if err != nil {
		t.Fatal(err)
	}
	if record.ExtractionStatus != "success" {
		t.Errorf("Expected extraction status 'success', got: %s", record.ExtractionStatus)
	}
	if record.ContentText == nil || *record.ContentText != "full article text" {
		t.Errorf("Expected stored content text, got: %v", record.ContentText)
	}

	remaining, err := contentRepo.GetContentForExtraction(sourceID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("Expected no pending records after extraction, got: %d", len(remaining))
	}
}
