package api

import (
	"github.com/mediapulse/mediapulse/app/database"
	"github.com/mediapulse/mediapulse/app/feed"
	"github.com/mediapulse/mediapulse/app/fetch"
	"github.com/mediapulse/mediapulse/app/registry"
	"github.com/mediapulse/mediapulse/app/relevance"
	"github.com/mediapulse/mediapulse/app/tasks"
)

type Handler struct {
	registryCache *registry.Cache
	sourceRepo    database.SourceRepository
	contentRepo   database.ContentRepository
	fetchClient   *fetch.Client
	parser        *feed.Parser
	engine        *relevance.Engine
	scheduler     tasks.TaskSchedulerInterface
	windowDays    int
}
