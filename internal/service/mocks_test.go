package service

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/taskdue/internal/domain"
	"github.com/phrazzld/taskdue/internal/events"
	"github.com/phrazzld/taskdue/internal/scheduler"
	"github.com/phrazzld/taskdue/internal/store"
)

// MockTaskStore implements store.TaskStore with overridable functions.
// A nil function returns zero values.
type MockTaskStore struct {
	CreateFn               func(ctx context.Context, task *domain.Task) error
	GetFn                  func(ctx context.Context, id int64) (*domain.Task, error)
	ListAllFn              func(ctx context.Context) ([]*domain.Task, error)
	MarkCompletedFn        func(ctx context.Context, id int64, at time.Time) (bool, error)
	DeleteFn               func(ctx context.Context, id int64) (bool, error)
	ListPendingScheduledFn func(ctx context.Context) ([]store.PendingCompletion, error)
}

var _ store.TaskStore = (*MockTaskStore)(nil)

func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	task.ID = 1
	return nil
}

func (m *MockTaskStore) Get(ctx context.Context, id int64) (*domain.Task, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	return nil, store.ErrTaskNotFound
}

func (m *MockTaskStore) ListAll(ctx context.Context) ([]*domain.Task, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx)
	}
	return nil, nil
}

func (m *MockTaskStore) MarkCompleted(ctx context.Context, id int64, at time.Time) (bool, error) {
	if m.MarkCompletedFn != nil {
		return m.MarkCompletedFn(ctx, id, at)
	}
	return true, nil
}

func (m *MockTaskStore) Delete(ctx context.Context, id int64) (bool, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return true, nil
}

func (m *MockTaskStore) ListPendingScheduled(ctx context.Context) ([]store.PendingCompletion, error) {
	if m.ListPendingScheduledFn != nil {
		return m.ListPendingScheduledFn(ctx)
	}
	return nil, nil
}

// mockScheduler records Schedule and Cancel calls.
type mockScheduler struct {
	mu          sync.Mutex
	scheduled   []scheduler.Job
	cancelled   []int64
	scheduleErr error
}

func (m *mockScheduler) Schedule(job scheduler.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scheduleErr != nil {
		return m.scheduleErr
	}
	m.scheduled = append(m.scheduled, job)
	return nil
}

func (m *mockScheduler) Cancel(taskID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, taskID)
	return 1
}

func (m *mockScheduler) jobs() []scheduler.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]scheduler.Job(nil), m.scheduled...)
}

// eventRecorder collects emitted events.
type eventRecorder struct {
	mu     sync.Mutex
	events []*events.TaskEvent
}

func (r *eventRecorder) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) ofType(eventType string) []*events.TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*events.TaskEvent
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
