package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background task processing.
// The scheduler owns the worker pool, the periodic tickers for ingestion,
// edit scanning and dispatch, and the exclusion lock that keeps channel
// activity serialized.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
