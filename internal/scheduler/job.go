package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStopped is returned by Schedule once Stop has been called.
var ErrStopped = errors.New("scheduler is stopped")

// Job asks for a task to be completed at FireAt.
type Job struct {
	TaskID int64     `json:"task_id"`
	FireAt time.Time `json:"fire_at"`
}

// Key identifies a job. Two jobs with the same key are the same job.
func (j Job) Key() string {
	return fmt.Sprintf("complete_%d_%d", j.TaskID, j.FireAt.Unix())
}

// Handler runs a due job. The context is cancelled when the scheduler stops.
type Handler func(ctx context.Context, job Job) error

// CallbackError reports a Handler that returned an error or panicked.
type CallbackError struct {
	Job   Job
	Err   error
	Panic bool
}

func (e *CallbackError) Error() string {
	if e.Panic {
		return fmt.Sprintf("scheduled job %s panicked: %v", e.Job.Key(), e.Err)
	}
	return fmt.Sprintf("scheduled job %s failed: %v", e.Job.Key(), e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}
