package tasks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mediapulse/mediapulse/app/database"
	"github.com/mediapulse/mediapulse/app/feed"
	"github.com/mediapulse/mediapulse/app/fetch"
	"github.com/mediapulse/mediapulse/app/registry"
	"github.com/mediapulse/mediapulse/app/relevance"
)

// ProcessSourceTask runs the full ingestion pipeline for one source: fetch,
// parse, recency filter, relevance scoring, dedup, persist. The Outcome
// field carries the per-source result after Execute returns.
type ProcessSourceTask struct {
	Task
	Source      *registry.Source
	fetchClient *fetch.Client
	parser      *feed.Parser
	engine      *relevance.Engine
	dedup       *DedupGate
	sourceRepo  database.SourceRepository
	contentRepo database.ContentRepository
	windowDays  int

	Outcome  Outcome
	terminal bool
}

func NewProcessSourceTask(sourceName string, source *registry.Source, fetchClient *fetch.Client,
	parser *feed.Parser, engine *relevance.Engine, dedup *DedupGate,
	sourceRepo database.SourceRepository, contentRepo database.ContentRepository, windowDays int) *ProcessSourceTask {
	return &ProcessSourceTask{
		Task:        NewTask(TaskTypeProcessSource, sourceName),
		Source:      source,
		fetchClient: fetchClient,
		parser:      parser,
		engine:      engine,
		dedup:       dedup,
		sourceRepo:  sourceRepo,
		contentRepo: contentRepo,
		windowDays:  windowDays,
	}
}

func (t *ProcessSourceTask) Execute(ctx context.Context) error {
	t.Outcome = t.Run(ctx)

	if t.Outcome.Failed() && !t.terminal {
		return fmt.Errorf("source %s: %s: %s", t.SourceName, t.Outcome.Status, t.Outcome.Error)
	}

	return nil
}

// Run executes the pipeline and always returns an Outcome; it never panics
// outward and never lets one bad entry abort the pass.
func (t *ProcessSourceTask) Run(ctx context.Context) (outcome Outcome) {
	defer func() {
		outcome.Duration = t.GetDuration()
		if r := recover(); r != nil {
			slog.Error("Panic while processing source", "source", t.SourceName, "panic", r)
			outcome = Outcome{
				Status:   StatusStoreError,
				Error:    fmt.Sprintf("panic: %v", r),
				Duration: t.GetDuration(),
			}
		}
	}()

	select {
	case <-ctx.Done():
		return Outcome{Status: StatusTimeout, Error: ctx.Err().Error()}
	default:
	}

	if !t.Source.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return Outcome{Status: StatusNoEntries}
	}

	sourceID, err := t.resolveSourceID()
	if err != nil {
		return Outcome{Status: StatusStoreError, Error: err.Error()}
	}

	strategy := feed.SelectStrategy(t.Source)

	data, err := t.fetchClient.Fetch(ctx, t.Source.URL, fetch.RequestOptions{
		Timeout:     time.Duration(t.Source.Settings.Timeout) * time.Second,
		TLSInsecure: t.Source.Settings.TLSInsecure,
	})
	if err != nil {
		return t.classifyFetchFailure(err)
	}

	_, entries, err := t.parser.Run(data, strategy)
	if err != nil {
		var parseErr *feed.ParseError
		if errors.As(err, &parseErr) && parseErr.Kind == feed.ParseEmpty {
			slog.Info("Feed contains no entries", "source", t.SourceName)
			return Outcome{Status: StatusNoEntries}
		}
		t.terminal = true // malformed payloads do not fix themselves on retry
		return Outcome{Status: StatusParseError, Error: err.Error()}
	}

	outcome = t.storeEntries(sourceID, strategy, entries)

	if !outcome.Failed() {
		if err := t.sourceRepo.UpdateLastScraped(sourceID, time.Now().UTC()); err != nil {
			slog.Warn("Failed to update last scraped time", "source", t.SourceName, "error", err)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source", t.SourceName,
		"strategy", strategy.Name(),
		"duration", t.GetDuration(),
		"total", outcome.Total,
		"added", outcome.Added,
		"stale", outcome.Stale,
		"irrelevant", outcome.Irrelevant,
		"duplicates", outcome.Duplicates)

	return outcome
}

func (t *ProcessSourceTask) storeEntries(sourceID int64, strategy feed.Strategy, entries []feed.Entry) Outcome {
	outcome := Outcome{Status: StatusSuccess, Total: len(entries)}

	category := cmp.Or(t.Source.Category, strategy.DefaultCategory())
	cutoff := time.Now().UTC().AddDate(0, 0, -t.windowDays)

	maxItems := t.Source.Settings.MaxItems
	storeErrors := 0

	for i := range entries {
		if maxItems > 0 && outcome.Added >= maxItems {
			break
		}
		entry := &entries[i]

		recent, ts := feed.ResolveRecency(entry, cutoff)
		if !recent {
			outcome.Stale++
			continue
		}

		result := t.engine.Score(entry.Title, entry.Description, category)
		if !result.Relevant {
			outcome.Irrelevant++
			continue
		}

		duplicate, err := t.dedup.IsDuplicate(sourceID, entry.Link, entry.Title)
		if err != nil {
			slog.Error("Duplicate check failed, skipping entry", "source", t.SourceName, "url", entry.Link, "error", err)
			storeErrors++
			continue
		}
		if duplicate {
			outcome.Duplicates++
			continue
		}

		content := database.Content{
			SourceID:     sourceID,
			Title:        entry.Title,
			Description:  entry.Description,
			URL:          entry.Link,
			PublishedAt:  ts,
			ThumbnailURL: entry.ThumbnailURL,
			Author:       entry.Author,
			Tags:         result.Tags,
			Engagement:   buildEngagement(entry, result, category),
		}

		if _, err := t.contentRepo.InsertContent(content); err != nil {
			if database.IsConstraintViolation(err) {
				// Lost a race with a concurrent pass; the record exists
				outcome.Duplicates++
				t.dedup.MarkStored(sourceID, entry.Link, entry.Title)
				continue
			}
			slog.Error("Failed to store entry, skipping", "source", t.SourceName, "url", entry.Link, "error", err)
			storeErrors++
			continue
		}

		t.dedup.MarkStored(sourceID, entry.Link, entry.Title)
		outcome.Added++
	}

	if storeErrors > 0 && outcome.Added == 0 {
		outcome.Status = StatusStoreError
		outcome.Error = fmt.Sprintf("%d entries failed to store", storeErrors)
	}

	return outcome
}

func (t *ProcessSourceTask) resolveSourceID() (int64, error) {
	source, err := t.sourceRepo.GetSourceByName(t.SourceName)
	if err != nil {
		return 0, fmt.Errorf("failed to look up source: %w", err)
	}
	if source != nil {
		return source.ID, nil
	}

	// Registry sync normally runs at startup; cover sources added since
	id, err := t.sourceRepo.UpsertSource(database.Source{
		Name:            t.SourceName,
		URL:             t.Source.URL,
		SourceType:      t.Source.Type,
		Category:        t.Source.Category,
		Description:     t.Source.Description,
		IsActive:        t.Source.Settings.Enabled,
		RefreshInterval: t.Source.Settings.RefreshInterval,
		Metadata:        t.Source.Metadata,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to register source: %w", err)
	}

	return id, nil
}

func (t *ProcessSourceTask) classifyFetchFailure(err error) Outcome {
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		switch {
		case fetchErr.Forbidden():
			// Paywalled or bot-blocked; retrying only burns the budget
			t.terminal = true
			slog.Warn("Source access restricted", "source", t.SourceName, "url", fetchErr.URL)
			return Outcome{Status: StatusHTTPError, Error: fetchErr.Error()}
		case fetchErr.Kind == fetch.KindTimeout:
			return Outcome{Status: StatusTimeout, Error: fetchErr.Error()}
		default:
			return Outcome{Status: StatusHTTPError, Error: fetchErr.Error()}
		}
	}

	return Outcome{Status: StatusHTTPError, Error: err.Error()}
}

func buildEngagement(entry *feed.Entry, result relevance.Result, category string) map[string]any {
	engagement := map[string]any{
		"relevance_score":  result.Score,
		"matched_keywords": result.MatchedKeywords,
		"category":         category,
	}

	if entry.EnclosureURL != "" {
		engagement["enclosure_url"] = entry.EnclosureURL
		engagement["enclosure_type"] = entry.EnclosureType
		if entry.EnclosureLength > 0 {
			engagement["enclosure_length"] = entry.EnclosureLength
		}
	}

	return engagement
}
