package sqlite

import (
	"time"

	"github.com/phrazzld/taskdue/internal/domain"
)

// taskRecord is the gorm model for the tasks table.
// DueAt is stored in UTC so that text ordering matches instant ordering.
type taskRecord struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement"`
	Title               string    `gorm:"not null"`
	DueDate             string    `gorm:"not null"`
	DueTime             string    `gorm:"not null"`
	DueAt               time.Time `gorm:"not null;index:idx_tasks_due_at"`
	Status              string
	Completed           bool `gorm:"not null"`
	CompletedAt         *time.Time
	ScheduledCompletion *string
	CreatedAt           time.Time
}

// TableName returns the table name for taskRecord.
func (taskRecord) TableName() string {
	return "tasks"
}

func recordFromTask(t *domain.Task) *taskRecord {
	rec := &taskRecord{
		ID:          t.ID,
		Title:       t.Title,
		DueDate:     t.DueDate,
		DueTime:     t.DueTime,
		DueAt:       t.DueAt.UTC(),
		Status:      t.Status,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
	}
	if t.ScheduledCompletion != nil {
		raw := domain.FormatDateTime(*t.ScheduledCompletion)
		rec.ScheduledCompletion = &raw
	}
	return rec
}

// toTask converts a row to a domain.Task. A stored scheduled completion that
// does not parse is left nil; recovery reports such rows.
func (r *taskRecord) toTask() *domain.Task {
	t := &domain.Task{
		ID:        r.ID,
		Title:     r.Title,
		DueDate:   r.DueDate,
		DueTime:   r.DueTime,
		DueAt:     r.DueAt.In(time.Local),
		Status:    r.Status,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt,
	}
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		t.CompletedAt = &at
	}
	if r.ScheduledCompletion != nil {
		if when, err := domain.ParseDateTime(*r.ScheduledCompletion); err == nil {
			t.ScheduledCompletion = &when
		}
	}
	return t
}
