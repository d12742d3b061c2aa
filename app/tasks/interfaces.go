package tasks

// TaskSchedulerInterface defines the interface for background task
// scheduling. The main application starts and stops it; the API enqueues
// on-demand refresh tasks through it.
// Example usage:
//
//	scheduler := NewScheduler(registryCache, sourceRepo, contentRepo, fetchClient, parser, engine, extractor)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewProcessSourceTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
