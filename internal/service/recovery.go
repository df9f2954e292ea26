package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/taskdue/internal/domain"
	"github.com/phrazzld/taskdue/internal/events"
	"github.com/phrazzld/taskdue/internal/scheduler"
	"github.com/phrazzld/taskdue/internal/store"
)

// RecoveryReport summarises one recovery run.
type RecoveryReport struct {
	// Pending is the number of uncompleted tasks with a stored schedule.
	Pending int `json:"pending"`
	// Resolved counts tasks completed during recovery because their
	// scheduled completion had already passed.
	Resolved int `json:"resolved"`
	// Scheduled counts tasks handed back to the scheduler.
	Scheduled int `json:"scheduled"`
	// ParseFailures lists stored schedules that could not be parsed.
	ParseFailures []RecoveryParseFailure `json:"parse_failures"`
	// Failed counts tasks that could be neither completed nor scheduled.
	Failed int `json:"failed"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RecoveryOption configures optional RecoveryCoordinator behaviour.
type RecoveryOption func(*RecoveryCoordinator)

// WithRecoveryClock replaces time.Now, for tests.
func WithRecoveryClock(now func() time.Time) RecoveryOption {
	return func(r *RecoveryCoordinator) {
		r.now = now
	}
}

// RecoveryCoordinator rebuilds the scheduler's job set from storage at startup.
type RecoveryCoordinator struct {
	store     store.TaskStore
	tasks     TaskService
	scheduler Scheduler
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.RWMutex
	last *RecoveryReport
}

// NewRecoveryCoordinator creates a RecoveryCoordinator.
// It returns an error if any of the required dependencies are nil.
func NewRecoveryCoordinator(
	taskStore store.TaskStore,
	tasks TaskService,
	sched Scheduler,
	logger *slog.Logger,
	opts ...RecoveryOption,
) (*RecoveryCoordinator, error) {
	if taskStore == nil || tasks == nil || sched == nil {
		return nil, &TaskServiceError{
			Operation: "create_recovery",
			Message:   "taskStore, tasks and scheduler are required",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &RecoveryCoordinator{
		store:     taskStore,
		tasks:     tasks,
		scheduler: sched,
		logger:    logger.With("component", "recovery"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run completes every pending task whose scheduled completion has passed and
// schedules the rest. It is meant to run once, before the process accepts
// requests. Only a failure to read the store is returned as an error; per-task
// problems are logged and counted in the report.
func (r *RecoveryCoordinator) Run(ctx context.Context) (RecoveryReport, error) {
	report := RecoveryReport{
		StartedAt:     r.now(),
		ParseFailures: []RecoveryParseFailure{},
	}

	pending, err := r.store.ListPendingScheduled(ctx)
	if err != nil {
		r.logger.Error("failed to load pending scheduled tasks", "error", err)
		return report, fmt.Errorf("recovery: failed to load pending scheduled tasks: %w", err)
	}
	report.Pending = len(pending)

	ctx = ContextWithCompletionSource(ctx, events.SourceRecovery)
	now := r.now()

	for _, p := range pending {
		log := r.logger.With("task_id", p.TaskID)

		fireAt, err := domain.ParseDateTime(p.Raw)
		if err != nil {
			failure := RecoveryParseFailure{
				TaskID: p.TaskID,
				Raw:    p.Raw,
				Reason: fmt.Sprintf("expected %s", domain.DateTimeLayout),
				Err:    err,
			}
			log.Error("skipping task with unparseable scheduled completion",
				"raw", p.Raw,
				"error", &failure)
			report.ParseFailures = append(report.ParseFailures, failure)
			continue
		}

		if !fireAt.After(now) {
			if _, err := r.tasks.MarkComplete(ctx, p.TaskID); err != nil {
				log.Error("failed to complete past-due task", "error", err)
				report.Failed++
				continue
			}
			report.Resolved++
			continue
		}

		if err := r.scheduler.Schedule(scheduler.Job{TaskID: p.TaskID, FireAt: fireAt}); err != nil {
			log.Error("failed to re-arm scheduled completion", "error", err, "fire_at", fireAt)
			report.Failed++
			continue
		}
		report.Scheduled++
	}

	report.FinishedAt = r.now()
	r.mu.Lock()
	r.last = &report
	r.mu.Unlock()

	r.logger.Info("recovery finished",
		"pending", report.Pending,
		"resolved", report.Resolved,
		"scheduled", report.Scheduled,
		"parse_failures", len(report.ParseFailures),
		"failed", report.Failed)

	return report, nil
}

// LastReport returns the report of the most recent successful Run.
func (r *RecoveryCoordinator) LastReport() (RecoveryReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return RecoveryReport{}, false
	}
	return *r.last, true
}
