package api

import (
	"time"

	"github.com/phrazzld/taskdue/internal/domain"
	"github.com/phrazzld/taskdue/internal/scheduler"
	"github.com/phrazzld/taskdue/internal/service"
)

// CreateTaskRequest defines the payload for POST /api/tasks.
type CreateTaskRequest struct {
	Title   string `json:"title"    validate:"required,max=200"`
	DueDate string `json:"due_date" validate:"required,datetime=02/01/2006"`
	DueTime string `json:"due_time" validate:"required,datetime=15:04"`
	Status  string `json:"status"   validate:"max=50"`

	// ScheduledCompletion is optional; when set the task completes itself at
	// that local date and time.
	ScheduledCompletion string `json:"scheduled_completion" validate:"omitempty,datetime=02/01/2006 15:04"`
}

// TaskResponse is the JSON representation of a task.
type TaskResponse struct {
	ID                  int64      `json:"id"`
	Title               string     `json:"title"`
	DueDate             string     `json:"due_date"`
	DueTime             string     `json:"due_time"`
	Status              string     `json:"status,omitempty"`
	Completed           bool       `json:"completed"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	ScheduledCompletion string     `json:"scheduled_completion,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// CompleteTaskResponse is returned by POST /api/tasks/{id}/complete.
type CompleteTaskResponse struct {
	ID        int64 `json:"id"`
	Completed bool  `json:"completed"`
}

// PendingJobResponse describes one armed scheduled completion.
type PendingJobResponse struct {
	Key    string    `json:"key"`
	TaskID int64     `json:"task_id"`
	FireAt time.Time `json:"fire_at"`
}

// SchedulerStatusResponse is returned by GET /api/scheduler.
type SchedulerStatusResponse struct {
	Pending  []PendingJobResponse    `json:"pending"`
	Stats    scheduler.Stats         `json:"stats"`
	Recovery *service.RecoveryReport `json:"recovery,omitempty"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		DueDate:     t.DueDate,
		DueTime:     t.DueTime,
		Status:      t.Status,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
	}
	if t.ScheduledCompletion != nil {
		resp.ScheduledCompletion = domain.FormatDateTime(*t.ScheduledCompletion)
	}
	return resp
}

func jobsToResponse(jobs []scheduler.Job) []PendingJobResponse {
	out := make([]PendingJobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, PendingJobResponse{
			Key:    job.Key(),
			TaskID: job.TaskID,
			FireAt: job.FireAt,
		})
	}
	return out
}
