package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/qa-forge/internal/core"
)

// fakeJob records the events it was run with.
type fakeJob struct {
	mu     sync.Mutex
	events []*core.GenerationEvent
	done   chan struct{}
}

func newFakeJob(expected int) *fakeJob {
	return &fakeJob{done: make(chan struct{}, expected)}
}

func (f *fakeJob) Run(_ context.Context, event *core.GenerationEvent) error {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeJob) waitFor(t *testing.T, n int) {
	t.Helper()
	for range n {
		select {
		case <-f.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for dispatched jobs")
		}
	}
}

func TestDispatcherRunsQueuedJobs(t *testing.T) {
	job := newFakeJob(2)
	d := NewDispatcher(job, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, d.Dispatch(context.Background(), &core.GenerationEvent{RepoName: "first"}))
	require.NoError(t, d.Dispatch(context.Background(), &core.GenerationEvent{RepoName: "second"}))

	job.waitFor(t, 2)
	d.Stop()

	job.mu.Lock()
	defer job.mu.Unlock()
	assert.Len(t, job.events, 2)
}

func TestDispatcherStopIsIdempotent(t *testing.T) {
	job := newFakeJob(1)
	d := NewDispatcher(job, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, d.Dispatch(context.Background(), &core.GenerationEvent{RepoName: "once"}))
	job.waitFor(t, 1)

	d.Stop()
	d.Stop() // must not panic on the closed queue
}

func TestDispatcherStopWaitsForWorkers(t *testing.T) {
	job := newFakeJob(1)
	d := NewDispatcher(job, 0, slog.New(slog.NewTextHandler(io.Discard, nil))) // defaults to one worker

	require.NoError(t, d.Dispatch(context.Background(), &core.GenerationEvent{RepoName: "only"}))
	job.waitFor(t, 1)
	d.Stop()

	job.mu.Lock()
	defer job.mu.Unlock()
	assert.Len(t, job.events, 1)
}
