package store

import (
	"context"
	"time"

	"github.com/phrazzld/taskdue/internal/domain"
)

// PendingCompletion is an uncompleted task that carries a scheduled completion.
// Raw is the value exactly as stored, so that a malformed row can be reported
// instead of being dropped by the store.
type PendingCompletion struct {
	TaskID int64
	Raw    string
}

// TaskStore defines the interface for task data persistence.
// Every method touches at most one row and is atomic on its own.
// Implementations must be safe for concurrent use by request handlers and
// scheduler workers.
type TaskStore interface {
	// Create inserts a new task and sets its ID.
	// Returns ErrSlotConflict if an uncompleted task already occupies the
	// same due date and time.
	Create(ctx context.Context, task *domain.Task) error

	// Get retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Get(ctx context.Context, id int64) (*domain.Task, error)

	// ListAll returns every task ordered by due instant ascending, then by ID.
	ListAll(ctx context.Context) ([]*domain.Task, error)

	// MarkCompleted flags the task as completed. The first completion time
	// is kept on repeated calls. Returns false if no such task exists.
	MarkCompleted(ctx context.Context, id int64, at time.Time) (bool, error)

	// Delete removes a task. Returns false if no such task exists.
	Delete(ctx context.Context, id int64) (bool, error)

	// ListPendingScheduled returns every uncompleted task that has a
	// scheduled completion.
	ListPendingScheduled(ctx context.Context) ([]PendingCompletion, error)
}
