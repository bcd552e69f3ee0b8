package core

import "context"

// JobDispatcher defines the contract for a system that can accept and queue
// generation runs for asynchronous processing. It decouples the CLI surface
// from the job execution mechanism.
type JobDispatcher interface {
	// Dispatch accepts a GenerationEvent and queues it for processing.
	// It returns an error if the job cannot be queued, for example, if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, event *GenerationEvent) error

	// Stop shuts the dispatcher down, waiting for in-flight jobs to finish.
	Stop()
}

// Job represents a single, executable unit of work processed by the
// dispatcher. Each job is triggered by a GenerationEvent.
type Job interface {
	// Run executes the job's logic and returns an error if the run failed.
	Run(ctx context.Context, event *GenerationEvent) error
}
