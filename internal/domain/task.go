package domain

import (
	"strings"
	"time"
)

// Layouts of the textual date/time values accepted at the boundary.
const (
	DateLayout     = "02/01/2006"
	TimeLayout     = "15:04"
	DateTimeLayout = DateLayout + " " + TimeLayout
)

// Task is a to-do entry occupying a (due date, due time) slot. It can carry a
// scheduled completion instant at which it is marked completed automatically.
type Task struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
	DueTime string `json:"due_time"`
	Status  string `json:"status,omitempty"`

	// DueAt is DueDate and DueTime combined in local time; used for ordering.
	DueAt time.Time `json:"due_at"`

	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	ScheduledCompletion *time.Time `json:"scheduled_completion,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewTask validates the raw input and builds an uncompleted Task.
// scheduledCompletion may be empty, meaning no automatic completion.
// The returned Task has no ID; the store assigns one on insert.
func NewTask(title, dueDate, dueTime, status, scheduledCompletion string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, NewValidationError("title", "is required", ErrEmptyTitle)
	}

	dueDate = strings.TrimSpace(dueDate)
	dueTime = strings.TrimSpace(dueTime)
	dueAt, err := ParseSlot(dueDate, dueTime)
	if err != nil {
		return nil, err
	}

	task := &Task{
		Title:     title,
		DueDate:   dueDate,
		DueTime:   dueTime,
		Status:    strings.TrimSpace(status),
		DueAt:     dueAt,
		CreatedAt: time.Now().UTC(),
	}

	if raw := strings.TrimSpace(scheduledCompletion); raw != "" {
		when, err := ParseDateTime(raw)
		if err != nil {
			return nil, NewValidationError("scheduled_completion",
				"must use the dd/mm/yyyy HH:MM format", ErrInvalidFormat)
		}
		task.ScheduledCompletion = &when
	}

	return task, nil
}

// ParseSlot parses a dd/mm/yyyy date and an HH:MM time into a local instant.
func ParseSlot(dueDate, dueTime string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, dueDate, time.Local)
	if err != nil {
		return time.Time{}, NewValidationError("due_date", "must use the dd/mm/yyyy format", ErrInvalidFormat)
	}
	clock, err := time.ParseInLocation(TimeLayout, dueTime, time.Local)
	if err != nil {
		return time.Time{}, NewValidationError("due_time", "must use the HH:MM format", ErrInvalidFormat)
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, time.Local), nil
}

// ParseDateTime parses a combined "dd/mm/yyyy HH:MM" value in local time.
func ParseDateTime(raw string) (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, strings.TrimSpace(raw), time.Local)
}

// FormatDateTime renders t in the combined "dd/mm/yyyy HH:MM" layout.
func FormatDateTime(t time.Time) string {
	return t.In(time.Local).Format(DateTimeLayout)
}

// HasPendingSchedule reports whether the task still waits for an automatic completion.
func (t *Task) HasPendingSchedule() bool {
	return t.ScheduledCompletion != nil && !t.Completed
}

// CompletionDue reports whether the scheduled completion has been reached at now.
// It returns false when there is no scheduled completion.
func (t *Task) CompletionDue(now time.Time) bool {
	if t.ScheduledCompletion == nil {
		return false
	}
	return !t.ScheduledCompletion.After(now)
}
