package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskdue/internal/domain"
	"github.com/phrazzld/taskdue/internal/store"
)

// Sentinel errors returned by TaskService. The API layer maps them to
// HTTP status codes.
var (
	// ErrTaskNotFound indicates that the task does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrSlotConflict indicates that an uncompleted task already has the
	// requested due date and time.
	// API layer should map this to HTTP 409 Conflict.
	ErrSlotConflict = errors.New("an active task already exists for this due date and time")
)

// TaskServiceError wraps unexpected errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "mark_complete")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
// Known conditions are returned as the service sentinel (or the validation
// error itself) instead of being wrapped.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, store.ErrNotFound):
		return ErrTaskNotFound
	case errors.Is(err, ErrSlotConflict), errors.Is(err, store.ErrSlotConflict):
		return ErrSlotConflict
	case domain.IsValidationError(err):
		return err
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// RecoveryParseFailure records a stored scheduled completion that could not
// be parsed during recovery. The task is left uncompleted and unscheduled.
type RecoveryParseFailure struct {
	TaskID int64  `json:"task_id"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Error implements the error interface.
func (e *RecoveryParseFailure) Error() string {
	return fmt.Sprintf("task %d: cannot parse scheduled completion %q: %s", e.TaskID, e.Raw, e.Reason)
}

// Unwrap returns the parse error.
func (e *RecoveryParseFailure) Unwrap() error {
	return e.Err
}
