package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/taskdue/internal/domain"
	"github.com/phrazzld/taskdue/internal/events"
	"github.com/phrazzld/taskdue/internal/platform/logger"
	"github.com/phrazzld/taskdue/internal/scheduler"
	"github.com/phrazzld/taskdue/internal/store"
)

// Scheduler is the part of scheduler.Scheduler the service layer uses.
type Scheduler interface {
	Schedule(job scheduler.Job) error
	Cancel(taskID int64) int
}

// CreateTaskParams holds the raw input for a new task.
// ScheduledCompletion is optional and uses the dd/mm/yyyy HH:MM layout.
type CreateTaskParams struct {
	Title               string
	DueDate             string
	DueTime             string
	Status              string
	ScheduledCompletion string
}

// TaskService is the task lifecycle API used by the HTTP layer, the
// scheduler and recovery.
type TaskService interface {
	// CreateTask validates and stores a new task. A scheduled completion that
	// is already due is applied before returning; a future one is handed to
	// the scheduler.
	CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error)

	// MarkComplete marks a task completed. It reports false for an unknown id
	// and true for an existing one, including one that was already completed.
	MarkComplete(ctx context.Context, id int64) (bool, error)

	// DeleteTask removes a task and cancels its pending scheduled completion.
	DeleteTask(ctx context.Context, id int64) (bool, error)

	// GetTask returns ErrTaskNotFound for an unknown id.
	GetTask(ctx context.Context, id int64) (*domain.Task, error)

	// ListTasks returns all tasks ordered by due instant, then id.
	ListTasks(ctx context.Context) ([]*domain.Task, error)

	// HandleScheduledCompletion is registered as the scheduler's handler.
	HandleScheduledCompletion(ctx context.Context, job scheduler.Job) error
}

type sourceKey struct{}

// ContextWithCompletionSource records what triggered a completion, for the
// events MarkComplete emits. Without it the source is events.SourceManual.
func ContextWithCompletionSource(ctx context.Context, source events.Source) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

func completionSource(ctx context.Context) events.Source {
	if source, ok := ctx.Value(sourceKey{}).(events.Source); ok && source != "" {
		return source
	}
	return events.SourceManual
}

// TaskServiceOption configures optional TaskService behaviour.
type TaskServiceOption func(*taskServiceImpl)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.now = now
	}
}

type taskServiceImpl struct {
	store        store.TaskStore
	scheduler    Scheduler
	eventEmitter events.EventEmitter
	logger       *slog.Logger
	now          func() time.Time
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskStore store.TaskStore,
	sched Scheduler,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) (TaskService, error) {
	if taskStore == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "taskStore cannot be nil"}
	}
	if sched == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "scheduler cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		store:        taskStore,
		scheduler:    sched,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "task_service"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateTask implements TaskService.
func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(params.Title, params.DueDate, params.DueTime, params.Status, params.ScheduledCompletion)
	if err != nil {
		log.Debug("rejected invalid task", "error", err)
		return nil, err
	}

	if err := s.store.Create(ctx, task); err != nil {
		if !errors.Is(err, store.ErrSlotConflict) {
			log.Error("failed to store task", "error", err)
		}
		return nil, NewTaskServiceError("create_task", "failed to store task", err)
	}

	log = log.With("task_id", task.ID)
	log.Info("task created", "due_date", task.DueDate, "due_time", task.DueTime)
	s.emit(ctx, events.TypeTaskCreated, task.ID, "")

	if task.ScheduledCompletion == nil {
		return task, nil
	}

	if task.CompletionDue(s.now()) {
		completed, err := s.complete(ContextWithCompletionSource(ctx, events.SourceScheduler), task.ID)
		if err == nil {
			if completed {
				at := s.now()
				task.Completed = true
				task.CompletedAt = &at
			}
			return task, nil
		}
		// Fall back to the scheduler, which fires a past-due job at once.
		log.Warn("immediate completion failed, deferring to scheduler", "error", err)
	}

	job := scheduler.Job{TaskID: task.ID, FireAt: *task.ScheduledCompletion}
	if err := s.scheduler.Schedule(job); err != nil {
		// The schedule is stored with the task; recovery arms it at next start.
		log.Error("failed to schedule completion", "error", err, "fire_at", job.FireAt)
	}

	return task, nil
}

// MarkComplete implements TaskService.
func (s *taskServiceImpl) MarkComplete(ctx context.Context, id int64) (bool, error) {
	return s.complete(ctx, id)
}

func (s *taskServiceImpl) complete(ctx context.Context, id int64) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("task_id", id)
	source := completionSource(ctx)

	found, err := s.store.MarkCompleted(ctx, id, s.now().UTC())
	if err != nil {
		log.Error("failed to mark task completed", "error", err, "source", string(source))
		return false, NewTaskServiceError("mark_complete", "failed to update task", err)
	}
	if !found {
		log.Debug("no task to complete", "source", string(source))
		return false, nil
	}

	s.emit(ctx, events.TypeTaskCompleted, id, source)
	return true, nil
}

// DeleteTask implements TaskService.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, id int64) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("task_id", id)

	found, err := s.store.Delete(ctx, id)
	if err != nil {
		log.Error("failed to delete task", "error", err)
		return false, NewTaskServiceError("delete_task", "failed to delete task", err)
	}
	if !found {
		return false, nil
	}

	if cancelled := s.scheduler.Cancel(id); cancelled > 0 {
		log.Debug("cancelled scheduled completion", "count", cancelled)
	}
	s.emit(ctx, events.TypeTaskDeleted, id, completionSource(ctx))
	return true, nil
}

// GetTask implements TaskService.
func (s *taskServiceImpl) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("get_task", "failed to get task", err)
	}
	return task, nil
}

// ListTasks implements TaskService.
func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	tasks, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// HandleScheduledCompletion implements TaskService. A job for a task that
// has since been deleted is a no-op.
func (s *taskServiceImpl) HandleScheduledCompletion(ctx context.Context, job scheduler.Job) error {
	found, err := s.complete(ContextWithCompletionSource(ctx, events.SourceScheduler), job.TaskID)
	if err != nil {
		return err
	}
	if !found {
		s.logger.Info("scheduled completion for missing task ignored", "task_id", job.TaskID)
	}
	return nil
}

// emit publishes an event. Handler failures are logged by the emitter and
// never fail the operation.
func (s *taskServiceImpl) emit(ctx context.Context, eventType string, taskID int64, source events.Source) {
	_ = s.eventEmitter.EmitEvent(ctx, events.NewTaskEvent(eventType, taskID, source, s.now()))
}
