// Package jobs defines background tasks such as dataset-generation runs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sevigo/qa-forge/internal/core"
)

// dispatcher implements core.JobDispatcher and manages a pool of worker
// goroutines for processing generation events.
type dispatcher struct {
	generationJob core.Job                   // Job implementation executed by each worker.
	jobQueue      chan *core.GenerationEvent // Queue of incoming generation events.
	maxWorkers    int                        // Number of concurrent workers.
	wg            sync.WaitGroup             // Tracks active workers for graceful shutdown.
	stopOnce      sync.Once                  // Guards the queue close on repeated Stop calls.
	logger        *slog.Logger               // Logger instance for the dispatcher.
}

// NewDispatcher initializes a dispatcher with a worker pool.
// If maxWorkers is 0 or negative, it defaults to 1.
func NewDispatcher(generationJob core.Job, maxWorkers int, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	d := &dispatcher{
		generationJob: generationJob,
		maxWorkers:    maxWorkers,
		jobQueue:      make(chan *core.GenerationEvent, 16),
		logger:        logger,
	}
	d.startWorkers()
	return d
}

// startWorkers launches maxWorkers goroutines to process jobs from the queue.
func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes events from the queue until it's closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting generation worker", "id", workerID)

	for event := range d.jobQueue {
		d.processEvent(workerID, event)
	}

	d.logger.Info("shutting down generation worker", "id", workerID)
}

// processEvent logs and runs a generation job for an event.
func (d *dispatcher) processEvent(workerID int, event *core.GenerationEvent) {
	d.logger.Info("worker processing job",
		"worker_id", workerID,
		"repo", event.RepoName,
	)

	err := d.generationJob.Run(context.Background(), event)
	if err != nil {
		d.logger.Error("generation job failed",
			"repo", event.RepoName,
			"error", err,
		)
	}
}

// Dispatch queues a generation event for processing by a worker.
func (d *dispatcher) Dispatch(_ context.Context, event *core.GenerationEvent) error {
	d.logger.Info("queuing generation job", "repo", event.RepoName)

	select {
	case d.jobQueue <- event:
		return nil
	default:
		return fmt.Errorf("job queue is full, cannot accept new generation job")
	}
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to
// finish. Safe to call more than once.
func (d *dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("stopping dispatcher and waiting for jobs to finish")
		close(d.jobQueue)
	})
	d.wg.Wait()
	d.logger.Info("all generation jobs have finished")
}
