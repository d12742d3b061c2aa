package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mediapulse/mediapulse/app/cfg"
	"github.com/mediapulse/mediapulse/app/database"
	"github.com/mediapulse/mediapulse/app/feed"
	"github.com/mediapulse/mediapulse/app/fetch"
	"github.com/mediapulse/mediapulse/app/registry"
	"github.com/mediapulse/mediapulse/app/relevance"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	registryCache *registry.Cache
	sourceRepo    database.SourceRepository
	contentRepo   database.ContentRepository
	fetchClient   *fetch.Client
	parser        *feed.Parser
	engine        *relevance.Engine
	extractor     *feed.ContentExtractor
	windowDays    int
	interval      time.Duration
	workerCount   int
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan TaskInterface
}

func NewScheduler(registryCache *registry.Cache, sourceRepo database.SourceRepository,
	contentRepo database.ContentRepository, fetchClient *fetch.Client, parser *feed.Parser,
	engine *relevance.Engine, extractor *feed.ContentExtractor) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		registryCache: registryCache,
		sourceRepo:    sourceRepo,
		contentRepo:   contentRepo,
		fetchClient:   fetchClient,
		parser:        parser,
		engine:        engine,
		extractor:     extractor,
		windowDays:    cfg.WindowDays,
		interval:      time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:   cfg.WorkerCount,
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueDueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

// Stop cancels the workers and waits for them. The queue is deliberately
// never closed: retry goroutines scheduled before shutdown may still call
// EnqueueTask afterwards, and a send on a closed channel would panic.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueDueTasks finds sources whose refresh interval has elapsed since
// their last scrape and queues a pipeline task for each. Sources never
// scraped before are always due.
func (s *Scheduler) enqueueDueTasks() {
	sources := s.registryCache.GetEnabledSources()
	if len(sources) == 0 {
		slog.Debug("No enabled source definitions found")
		return
	}

	slog.Debug("Checking sources for scheduling", "count", len(sources))

	now := time.Now().UTC()

	for _, source := range sources {
		record, err := s.sourceRepo.GetSourceByName(source.Name)
		if err != nil {
			slog.Warn("Failed to get source from database, skipping", "source", source.Name, "error", err)
			continue
		}

		due := true
		if record != nil && record.LastScrapedAt != nil {
			nextDue := record.LastScrapedAt.Add(time.Duration(source.Settings.RefreshInterval) * time.Second)
			due = !nextDue.After(now)
		}

		if due {
			dedup := NewDedupGate(s.contentRepo)
			task := NewProcessSourceTask(source.Name, source, s.fetchClient, s.parser, s.engine,
				dedup, s.sourceRepo, s.contentRepo, s.windowDays)
			if err := s.EnqueueTask(task); err != nil {
				slog.Warn("Failed to enqueue ProcessSourceTask", "source", source.Name, "error", err)
			}
		} else {
			slog.Debug("Source not due for refresh yet", "source", source.Name)
		}

		if source.Settings.ExtractContent {
			extractTask := NewExtractContentTask(source.Name, source, s.fetchClient, s.extractor,
				s.sourceRepo, s.contentRepo)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractContentTask", "source", source.Name, "error", err)
			}
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
