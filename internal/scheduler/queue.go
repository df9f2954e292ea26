package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueClosed is returned when enqueueing on a closed DispatchQueue.
var ErrQueueClosed = errors.New("dispatch queue is closed")

// DispatchQueue is a bounded buffer of due jobs waiting for a worker.
type DispatchQueue struct {
	jobs   chan Job
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewDispatchQueue creates a queue holding up to size jobs.
func NewDispatchQueue(size int, logger *slog.Logger) *DispatchQueue {
	if size <= 0 {
		size = 1
	}
	return &DispatchQueue{
		jobs:   make(chan Job, size),
		logger: logger,
	}
}

// Enqueue adds a job, waiting for room while the queue is full.
// It returns ctx.Err() if ctx ends first.
func (q *DispatchQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		q.logger.Debug("job dispatched",
			"task_id", job.TaskID,
			"queue_len", len(q.jobs),
			"queue_cap", cap(q.jobs))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close prevents further jobs from being enqueued. Only the producer may
// call it, after its last Enqueue has returned.
func (q *DispatchQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
		q.logger.Debug("dispatch queue closed")
	}
}

// Jobs returns the channel workers consume from.
func (q *DispatchQueue) Jobs() <-chan Job {
	return q.jobs
}
