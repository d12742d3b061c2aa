package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mediapulse/mediapulse/app/database"
	"github.com/mediapulse/mediapulse/app/feed"
	"github.com/mediapulse/mediapulse/app/fetch"
	"github.com/mediapulse/mediapulse/app/registry"
)

// After this many consecutive failures for one host, the rest of its pending
// items are marked skipped. A site that blocks article fetches blocks them
// all; hammering it further wastes the pass.
const maxHostFailures = 3

// ExtractContentTask enriches stored records with full article text. It only
// runs for sources that opt in via extract_content.
type ExtractContentTask struct {
	Task
	Source      *registry.Source
	fetchClient *fetch.Client
	extractor   *feed.ContentExtractor
	sourceRepo  database.SourceRepository
	contentRepo database.ContentRepository
}

func NewExtractContentTask(sourceName string, source *registry.Source, fetchClient *fetch.Client,
	extractor *feed.ContentExtractor, sourceRepo database.SourceRepository,
	contentRepo database.ContentRepository) *ExtractContentTask {
	return &ExtractContentTask{
		Task:        NewTask(TaskTypeExtractContent, sourceName),
		Source:      source,
		fetchClient: fetchClient,
		extractor:   extractor,
		sourceRepo:  sourceRepo,
		contentRepo: contentRepo,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Source.Settings.ExtractContent {
		slog.Debug("Content extraction disabled for source", "source", t.SourceName)
		return nil
	}

	source, err := t.sourceRepo.GetSourceByName(t.SourceName)
	if err != nil {
		return fmt.Errorf("failed to look up source: %w", err)
	}
	if source == nil {
		slog.Warn("Source not registered yet, skipping extraction", "source", t.SourceName)
		return nil
	}

	items, err := t.contentRepo.GetContentForExtraction(source.ID, t.Source.Settings.MaxItems)
	if err != nil {
		return fmt.Errorf("failed to get content for extraction: %w", err)
	}

	if len(items) == 0 {
		slog.Debug("No content needs extraction", "source", t.SourceName)
		return nil
	}

	successCount := 0
	errorCount := 0
	skippedCount := 0
	hostFailures := make(map[string]int)

	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		host := hostOf(item.URL)
		if hostFailures[host] >= maxHostFailures {
			skippedCount++
			now := time.Now().UTC()
			if err := t.contentRepo.UpdateExtractionStatus(item.ID, "skipped", &now); err != nil {
				slog.Error("Failed to mark extraction skipped", "content_id", item.ID, "error", err)
			}
			continue
		}

		if err := t.extractContentForItem(ctx, item); err != nil {
			slog.Error("Failed to extract content", "content_id", item.ID, "url", item.URL, "error", err)
			errorCount++
			hostFailures[host]++

			now := time.Now().UTC()
			if err := t.contentRepo.UpdateExtractionStatus(item.ID, "failed", &now); err != nil {
				slog.Error("Failed to update extraction status", "content_id", item.ID, "error", err)
			}
		} else {
			successCount++
			hostFailures[host] = 0
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount,
		"skipped", skippedCount)

	return nil
}

func (t *ExtractContentTask) extractContentForItem(ctx context.Context, item database.ContentForExtraction) error {
	if item.URL == "" {
		return fmt.Errorf("record has no url")
	}

	data, err := t.fetchClient.Fetch(ctx, item.URL, fetch.RequestOptions{
		Timeout:     time.Duration(t.Source.Settings.Timeout) * time.Second,
		TLSInsecure: t.Source.Settings.TLSInsecure,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch article: %w", err)
	}

	text, err := t.extractor.Run(data, item.URL)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	if err := t.contentRepo.UpdateExtractedContent(item.ID, text, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store extracted content: %w", err)
	}

	slog.Debug("Content extracted", "content_id", item.ID, "url", item.URL, "content_length", len(text))
	return nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
