package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mediapulse/mediapulse/app/database"
	"github.com/mediapulse/mediapulse/app/feed"
	"github.com/mediapulse/mediapulse/app/fetch"
	"github.com/mediapulse/mediapulse/app/registry"
	"github.com/mediapulse/mediapulse/app/relevance"
)

// Orchestrator runs a full scrape pass over a set of sources: fixed batches
// of concurrent sources with a pacing delay between batches. Sources inside
// a batch run in parallel; a failing source is isolated to its own Outcome
// and never affects its neighbors.
type Orchestrator struct {
	fetchClient *fetch.Client
	parser      *feed.Parser
	engine      *relevance.Engine
	sourceRepo  database.SourceRepository
	contentRepo database.ContentRepository
	batchSize   int
	pacing      time.Duration
}

func NewOrchestrator(fetchClient *fetch.Client, parser *feed.Parser, engine *relevance.Engine,
	sourceRepo database.SourceRepository, contentRepo database.ContentRepository,
	batchSize int, pacing time.Duration) *Orchestrator {
	if batchSize <= 0 {
		batchSize = 4
	}

	return &Orchestrator{
		fetchClient: fetchClient,
		parser:      parser,
		engine:      engine,
		sourceRepo:  sourceRepo,
		contentRepo: contentRepo,
		batchSize:   batchSize,
		pacing:      pacing,
	}
}

// Run processes every source and returns one Outcome per source name. The
// result always has an entry for each input source, including when ctx is
// cancelled mid-pass (remaining sources report a timeout outcome).
func (o *Orchestrator) Run(ctx context.Context, sources []*registry.Source, windowDays int) map[string]Outcome {
	outcomes := make(map[string]Outcome, len(sources))
	dedup := NewDedupGate(o.contentRepo)

	slog.Info("Scrape pass started", "sources", len(sources), "batch_size", o.batchSize, "window_days", windowDays)

	for start := 0; start < len(sources); start += o.batchSize {
		end := min(start+o.batchSize, len(sources))
		batch := sources[start:end]

		select {
		case <-ctx.Done():
			for _, source := range sources[start:] {
				outcomes[source.Name] = Outcome{Status: StatusTimeout, Error: ctx.Err().Error()}
			}
			return outcomes
		default:
		}

		o.runBatch(ctx, batch, dedup, windowDays, outcomes)

		if end < len(sources) && o.pacing > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.pacing):
			}
		}
	}

	var added, duplicates, stale, irrelevant, failed int
	for _, outcome := range outcomes {
		added += outcome.Added
		duplicates += outcome.Duplicates
		stale += outcome.Stale
		irrelevant += outcome.Irrelevant
		if outcome.Failed() {
			failed++
		}
	}
	slog.Info("Scrape pass completed", "sources", len(sources), "added", added,
		"duplicates", duplicates, "stale", stale, "irrelevant", irrelevant, "failed", failed)

	return outcomes
}

func (o *Orchestrator) runBatch(ctx context.Context, batch []*registry.Source, dedup *DedupGate,
	windowDays int, outcomes map[string]Outcome) {
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, source := range batch {
		wg.Add(1)
		go func(source *registry.Source) {
			defer wg.Done()

			task := NewProcessSourceTask(source.Name, source, o.fetchClient, o.parser, o.engine,
				dedup, o.sourceRepo, o.contentRepo, windowDays)
			task.Start()

			outcome := task.Run(ctx)

			mu.Lock()
			outcomes[source.Name] = outcome
			mu.Unlock()
		}(source)
	}

	wg.Wait()
}
