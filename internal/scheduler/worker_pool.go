package scheduler

import (
	"context"
	"log/slog"
	"sync"
)

// WorkerPool runs a fixed number of goroutines that drain a DispatchQueue.
type WorkerPool struct {
	queue       *DispatchQueue
	workerCount int
	process     func(ctx context.Context, job Job, workerID int)
	logger      *slog.Logger
	wg          sync.WaitGroup
}

// NewWorkerPool creates a pool. A workerCount below one is raised to one.
func NewWorkerPool(
	queue *DispatchQueue,
	workerCount int,
	process func(ctx context.Context, job Job, workerID int),
	logger *slog.Logger,
) *WorkerPool {
	if workerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", workerCount,
			"default_count", 1)
		workerCount = 1
	}

	return &WorkerPool{
		queue:       queue,
		workerCount: workerCount,
		process:     process,
		logger:      logger,
	}
}

// Start launches the workers. They exit when ctx is cancelled or the queue
// is closed and drained.
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case job, ok := <-p.queue.Jobs():
			if !ok {
				p.logger.Debug("dispatch queue closed, stopping worker", "worker_id", id)
				return
			}
			p.process(ctx, job, id)
		}
	}
}
