package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediapulse/mediapulse/app/api"
	"github.com/mediapulse/mediapulse/app/cfg"
	"github.com/mediapulse/mediapulse/app/database"
	"github.com/mediapulse/mediapulse/app/feed"
	"github.com/mediapulse/mediapulse/app/fetch"
	"github.com/mediapulse/mediapulse/app/registry"
	"github.com/mediapulse/mediapulse/app/relevance"
	"github.com/mediapulse/mediapulse/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting MediaPulse", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	registryCache := registry.NewCache(appCfg.SourcesDir)
	if err := registryCache.Run(); err != nil {
		slog.Error("Failed to load source registry", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source registry loaded", "dir", appCfg.SourcesDir, "sources", len(registryCache.GetSources()))

	sourceRepo := database.NewSourceRepository(db)
	contentRepo := database.NewContentRepository(db)

	syncSources(registryCache, sourceRepo)

	fetchClient := fetch.NewClient(fetch.Options{
		Timeout:     time.Duration(appCfg.FetchTimeout) * time.Second,
		UserAgent:   appCfg.UserAgent,
		TLSInsecure: appCfg.TLSInsecure,
	})
	parser := feed.NewParser()
	engine := relevance.NewEngine()
	extractor := feed.NewContentExtractor()

	if appCfg.BackfillDays > 0 {
		runBackfill(appCfg, registryCache, fetchClient, parser, engine, sourceRepo, contentRepo)
		return
	}

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(registryCache, sourceRepo, contentRepo, fetchClient, parser, engine, extractor)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(registryCache, sourceRepo, contentRepo, fetchClient, parser, engine, scheduler, appCfg.WindowDays)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "api_enabled", appCfg.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// syncSources mirrors the registry into the database so scrape passes and
// the API see a consistent source table from the first request on.
func syncSources(registryCache *registry.Cache, sourceRepo database.SourceRepository) {
	registered := 0
	for _, source := range registryCache.GetSources() {
		_, err := sourceRepo.UpsertSource(database.Source{
			Name:            source.Name,
			URL:             source.URL,
			SourceType:      source.Type,
			Category:        source.Category,
			Description:     source.Description,
			IsActive:        source.Settings.Enabled,
			RefreshInterval: source.Settings.RefreshInterval,
			Metadata:        source.Metadata,
		})
		if err != nil {
			slog.Warn("Failed to register source", "source", source.Name, "error", err)
			continue
		}
		registered++
	}
	slog.Info("Sources registered", "registered", registered)
}

// runBackfill performs a one-shot historical pass over all enabled sources
// with a wide recency window, then exits. Intended for seeding a fresh
// database.
func runBackfill(appCfg *cfg.Cfg, registryCache *registry.Cache, fetchClient *fetch.Client,
	parser *feed.Parser, engine *relevance.Engine,
	sourceRepo database.SourceRepository, contentRepo database.ContentRepository) {
	sources := registryCache.GetEnabledSources()

	slog.Info("Running historical backfill", "sources", len(sources), "window_days", appCfg.BackfillDays)

	orchestrator := tasks.NewOrchestrator(fetchClient, parser, engine, sourceRepo, contentRepo,
		appCfg.BatchSize, time.Duration(appCfg.BatchPacing)*time.Second)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	outcomes := orchestrator.Run(ctx, sources, appCfg.BackfillDays)

	for name, outcome := range outcomes {
		if outcome.Failed() {
			slog.Warn("Source failed", "source", name, "status", string(outcome.Status), "error", outcome.Error)
		} else {
			slog.Info("Source processed", "source", name, "status", string(outcome.Status), "added", outcome.Added)
		}
	}
}
