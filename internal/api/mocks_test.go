package api

import (
	"context"

	"github.com/phrazzld/taskdue/internal/domain"
	"github.com/phrazzld/taskdue/internal/scheduler"
	"github.com/phrazzld/taskdue/internal/service"
)

// mockTaskService implements service.TaskService with overridable functions.
type mockTaskService struct {
	CreateTaskFn   func(ctx context.Context, params service.CreateTaskParams) (*domain.Task, error)
	MarkCompleteFn func(ctx context.Context, id int64) (bool, error)
	DeleteTaskFn   func(ctx context.Context, id int64) (bool, error)
	GetTaskFn      func(ctx context.Context, id int64) (*domain.Task, error)
	ListTasksFn    func(ctx context.Context) ([]*domain.Task, error)
}

var _ service.TaskService = (*mockTaskService)(nil)

func (m *mockTaskService) CreateTask(ctx context.Context, params service.CreateTaskParams) (*domain.Task, error) {
	if m.CreateTaskFn != nil {
		return m.CreateTaskFn(ctx, params)
	}
	return domain.NewTask(params.Title, params.DueDate, params.DueTime, params.Status, params.ScheduledCompletion)
}

func (m *mockTaskService) MarkComplete(ctx context.Context, id int64) (bool, error) {
	if m.MarkCompleteFn != nil {
		return m.MarkCompleteFn(ctx, id)
	}
	return true, nil
}

func (m *mockTaskService) DeleteTask(ctx context.Context, id int64) (bool, error) {
	if m.DeleteTaskFn != nil {
		return m.DeleteTaskFn(ctx, id)
	}
	return true, nil
}

func (m *mockTaskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	if m.GetTaskFn != nil {
		return m.GetTaskFn(ctx, id)
	}
	return nil, service.ErrTaskNotFound
}

func (m *mockTaskService) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	if m.ListTasksFn != nil {
		return m.ListTasksFn(ctx)
	}
	return nil, nil
}

func (m *mockTaskService) HandleScheduledCompletion(ctx context.Context, job scheduler.Job) error {
	_, err := m.MarkComplete(ctx, job.TaskID)
	return err
}

type stubScheduler struct {
	pending []scheduler.Job
	stats   scheduler.Stats
}

func (s *stubScheduler) Pending() []scheduler.Job { return s.pending }
func (s *stubScheduler) Stats() scheduler.Stats   { return s.stats }

type stubRecovery struct {
	report *service.RecoveryReport
}

func (s *stubRecovery) LastReport() (service.RecoveryReport, bool) {
	if s.report == nil {
		return service.RecoveryReport{}, false
	}
	return *s.report, true
}
