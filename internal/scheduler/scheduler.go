package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds scheduler settings.
type Config struct {
	// WorkerCount is the number of goroutines running handlers.
	WorkerCount int

	// QueueSize bounds the number of due jobs waiting for a worker.
	QueueSize int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// Stats counts handler outcomes since the scheduler was created.
type Stats struct {
	Pending int    `json:"pending"`
	Fired   uint64 `json:"fired"`
	Failed  uint64 `json:"failed"`
}

// Scheduler fires registered jobs no earlier than their FireAt.
// All methods are safe for concurrent use.
type Scheduler struct {
	config Config
	logger *slog.Logger

	mu         sync.Mutex
	jobs       jobHeap
	index      map[string]*jobItem
	handler    Handler
	errHandler func(job Job, err error)
	started    bool
	stopped    bool

	wake   chan struct{}
	queue  *DispatchQueue
	pool   *WorkerPool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	fired  atomic.Uint64
	failed atomic.Uint64
}

// New creates a Scheduler. Jobs may be scheduled before Start; they fire
// once the scheduler is started.
func New(config Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")

	defaults := DefaultConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		config: config,
		logger: logger,
		index:  make(map[string]*jobItem),
		wake:   make(chan struct{}, 1),
		queue:  NewDispatchQueue(config.QueueSize, logger),
		ctx:    ctx,
		cancel: cancel,
	}
	s.pool = NewWorkerPool(s.queue, config.WorkerCount, s.execute, logger)

	return s
}

// SetHandler registers the function run for every due job.
func (s *Scheduler) SetHandler(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// SetErrorHandler registers a function called with a *CallbackError
// whenever a handler fails.
func (s *Scheduler) SetErrorHandler(fn func(job Job, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errHandler = fn
}

// Start launches the timer goroutine and the worker pool.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return errors.New("scheduler already started")
	}
	if s.handler == nil {
		return errors.New("scheduler has no handler")
	}
	s.started = true

	s.pool.Start(s.ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("scheduler started",
		"worker_count", s.pool.workerCount,
		"queue_size", s.config.QueueSize,
		"pending", s.jobs.Len())
	return nil
}

// Schedule registers job. Scheduling a job whose key is already pending is
// a no-op. A FireAt in the past makes the job due immediately.
func (s *Scheduler) Schedule(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}

	key := job.Key()
	if _, exists := s.index[key]; exists {
		s.logger.Debug("job already scheduled", "job_key", key)
		return nil
	}

	item := &jobItem{job: job, key: key}
	heap.Push(&s.jobs, item)
	s.index[key] = item

	s.logger.Debug("job scheduled",
		"task_id", job.TaskID,
		"fire_at", job.FireAt,
		"pending", s.jobs.Len())

	if s.jobs[0] == item {
		s.signal()
	}
	return nil
}

// Cancel removes every pending job for taskID and returns how many were
// removed. A job already handed to a worker is not affected.
func (s *Scheduler) Cancel(taskID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, item := range s.index {
		if item.job.TaskID != taskID {
			continue
		}
		heap.Remove(&s.jobs, item.index)
		delete(s.index, key)
		removed++
	}

	if removed > 0 {
		s.logger.Debug("jobs cancelled", "task_id", taskID, "count", removed)
		s.signal()
	}
	return removed
}

// Pending returns the jobs waiting to fire, earliest first.
func (s *Scheduler) Pending() []Job {
	s.mu.Lock()
	items := make(jobHeap, len(s.jobs))
	copy(items, s.jobs)
	s.mu.Unlock()

	jobs := make([]Job, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, item.job)
	}
	sortJobs(jobs)
	return jobs
}

// Stats returns handler counters and the number of pending jobs.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	pending := s.jobs.Len()
	s.mu.Unlock()

	return Stats{
		Pending: pending,
		Fired:   s.fired.Load(),
		Failed:  s.failed.Load(),
	}
}

// Stop stops firing jobs and cancels the context of running handlers. It
// waits for the scheduler goroutines to exit until ctx is done, then returns
// ctx's error. Pending jobs are dropped; they are rebuilt from storage on
// the next start.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	pending := s.jobs.Len()
	s.mu.Unlock()

	s.cancel()
	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		s.pool.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped", "abandoned_jobs", pending)
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out, abandoning running handlers",
			"abandoned_jobs", pending)
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// signal wakes the timer goroutine. Callers hold s.mu.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// popDue removes and returns the jobs due at now, and the delay until the
// next one. The delay is negative when nothing is pending.
func (s *Scheduler) popDue(now time.Time) ([]Job, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Job
	for s.jobs.Len() > 0 && !s.jobs[0].job.FireAt.After(now) {
		item := heap.Pop(&s.jobs).(*jobItem)
		delete(s.index, item.key)
		due = append(due, item.job)
	}

	if s.jobs.Len() == 0 {
		return due, -1
	}
	return due, s.jobs[0].job.FireAt.Sub(now)
}

// run is the timer goroutine. It is the only producer on s.queue.
func (s *Scheduler) run() {
	defer s.wg.Done()
	defer s.queue.Close()

	for {
		due, wait := s.popDue(time.Now())

		for _, job := range due {
			if err := s.queue.Enqueue(s.ctx, job); err != nil {
				return
			}
		}

		var timer *time.Timer
		var fire <-chan time.Time
		if wait >= 0 {
			timer = time.NewTimer(wait)
			fire = timer.C
		}

		select {
		case <-s.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-s.wake:
		case <-fire:
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

// execute runs the handler for one job on a worker goroutine.
func (s *Scheduler) execute(ctx context.Context, job Job, workerID int) {
	log := s.logger.With(
		"task_id", job.TaskID,
		"fire_at", job.FireAt,
		"worker_id", workerID,
	)

	s.mu.Lock()
	handler := s.handler
	errHandler := s.errHandler
	s.mu.Unlock()

	err := invoke(ctx, handler, job)
	if err == nil {
		s.fired.Add(1)
		log.Debug("scheduled job completed", "lateness", time.Since(job.FireAt))
		return
	}

	s.failed.Add(1)
	log.Error("scheduled job failed", "error", err)
	if errHandler != nil {
		errHandler(job, err)
	}
}

// invoke calls h and converts a returned error or a panic into a *CallbackError.
func invoke(ctx context.Context, h Handler, job Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &CallbackError{Job: job, Err: fmt.Errorf("%v", p), Panic: true}
		}
	}()

	if h == nil {
		return &CallbackError{Job: job, Err: errors.New("no handler registered")}
	}
	if herr := h(ctx, job); herr != nil {
		return &CallbackError{Job: job, Err: herr}
	}
	return nil
}
