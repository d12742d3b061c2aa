package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediapulse/mediapulse/app/database"
	"github.com/mediapulse/mediapulse/app/feed"
	"github.com/mediapulse/mediapulse/app/fetch"
	"github.com/mediapulse/mediapulse/app/registry"
	"github.com/mediapulse/mediapulse/app/relevance"
	"github.com/mediapulse/mediapulse/app/tasks"
)

func NewHandler(registryCache *registry.Cache, sourceRepo database.SourceRepository,
	contentRepo database.ContentRepository, fetchClient *fetch.Client, parser *feed.Parser,
	engine *relevance.Engine, scheduler tasks.TaskSchedulerInterface, windowDays int) *Handler {
	return &Handler{
		registryCache: registryCache,
		sourceRepo:    sourceRepo,
		contentRepo:   contentRepo,
		fetchClient:   fetchClient,
		parser:        parser,
		engine:        engine,
		scheduler:     scheduler,
		windowDays:    windowDays,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	health["loaded_definitions"] = len(h.registryCache.GetSources())

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.contentRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources":        stats.Sources,
		"active_sources": stats.ActiveSources,
		"contents":       stats.Contents,
		"extracted":      stats.Extracted,
	})
}

func (h *Handler) ListSources(c *gin.Context) {
	definitions := h.registryCache.GetSources()

	sources := make([]map[string]interface{}, 0, len(definitions))

	for _, definition := range definitions {
		sourceInfo := map[string]interface{}{
			"name":             definition.Name,
			"url":              definition.URL,
			"type":             definition.Type,
			"category":         definition.Category,
			"enabled":          definition.Settings.Enabled,
			"max_items":        definition.Settings.MaxItems,
			"refresh_interval": (time.Duration(definition.Settings.RefreshInterval) * time.Second).String(),
		}

		if record, err := h.sourceRepo.GetSourceByName(definition.Name); err == nil && record != nil {
			sourceInfo["last_scraped_at"] = record.LastScrapedAt
			sourceInfo["updated_at"] = record.UpdatedAt
		}

		sources = append(sources, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) GetContent(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	contents, err := h.contentRepo.GetContent(database.ContentQuery{
		SourceName: c.Query("source"),
		Tag:        c.Query("tag"),
		Search:     c.Query("q"),
		Limit:      limit,
	})
	if err != nil {
		slog.Error("Database error", "operation", "get_content", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(contents))
	for _, content := range contents {
		items = append(items, map[string]interface{}{
			"id":            content.ID,
			"title":         content.Title,
			"description":   content.Description,
			"url":           content.URL,
			"author":        content.Author,
			"published_at":  content.PublishedAt,
			"thumbnail_url": content.ThumbnailURL,
			"tags":          content.Tags,
			"engagement":    content.Engagement,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"contents": items,
		"total":    len(items),
	})
}

// APIRefresh enqueues a scrape task for one named source, or for every
// enabled source when no name is given. The work happens in the background;
// the response only confirms the queue accepted it.
func (h *Handler) APIRefresh(c *gin.Context) {
	name := c.Query("source")

	var sources []*registry.Source
	if name != "" {
		source, err := h.registryCache.GetSource(name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
			return
		}
		sources = []*registry.Source{source}
	} else {
		sources = h.registryCache.GetEnabledSources()
	}

	enqueued := make([]gin.H, 0, len(sources))
	for _, source := range sources {
		dedup := tasks.NewDedupGate(h.contentRepo)
		task := tasks.NewProcessSourceTask(source.Name, source, h.fetchClient, h.parser, h.engine,
			dedup, h.sourceRepo, h.contentRepo, h.windowDays)

		if err := h.scheduler.EnqueueTask(task); err != nil {
			slog.Error("Error enqueueing refresh task", "source", source.Name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to enqueue refresh task",
				"details": err.Error(),
			})
			return
		}

		enqueued = append(enqueued, gin.H{
			"id":     task.ID,
			"type":   task.Type,
			"source": source.Name,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Refresh tasks enqueued successfully",
		"tasks":   enqueued,
	})
}
