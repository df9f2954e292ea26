package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskdue/internal/domain"
	"github.com/phrazzld/taskdue/internal/platform/logger"
	"github.com/phrazzld/taskdue/internal/store"
	"gorm.io/gorm"
)

// SQLiteTaskStore implements store.TaskStore with gorm on SQLite.
type SQLiteTaskStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewSQLiteTaskStore creates a task store on an opened and migrated database.
// If logger is nil, the default logger is used.
func NewSQLiteTaskStore(db *gorm.DB, logger *slog.Logger) *SQLiteTaskStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*SQLiteTaskStore)(nil)

// Create implements store.TaskStore.Create.
func (s *SQLiteTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if task == nil {
		return fmt.Errorf("%w: nil task", store.ErrInvalidEntity)
	}

	rec := recordFromTask(task)
	rec.ID = 0
	rec.Completed = false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		err := tx.Model(&taskRecord{}).
			Where("due_date = ? AND due_time = ? AND completed = ?", rec.DueDate, rec.DueTime, false).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return store.ErrSlotConflict
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		if errors.Is(err, store.ErrSlotConflict) || errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn("due slot already taken",
				slog.String("due_date", task.DueDate),
				slog.String("due_time", task.DueTime))
			return store.ErrSlotConflict
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("title", task.Title))
		return store.NewStoreError("task", "create", "failed to insert task", err)
	}

	task.ID = rec.ID
	task.CreatedAt = rec.CreatedAt
	log.Debug("task created",
		slog.Int64("task_id", task.ID),
		slog.Bool("scheduled", task.ScheduledCompletion != nil))
	return nil
}

// Get implements store.TaskStore.Get.
func (s *SQLiteTaskStore) Get(ctx context.Context, id int64) (*domain.Task, error) {
	var rec taskRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return nil, store.NewStoreError("task", "get", "failed to query task", err)
	}
	return rec.toTask(), nil
}

// ListAll implements store.TaskStore.ListAll.
func (s *SQLiteTaskStore) ListAll(ctx context.Context) ([]*domain.Task, error) {
	var recs []taskRecord
	err := s.db.WithContext(ctx).
		Order("due_at ASC").
		Order("id ASC").
		Find(&recs).Error
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list", "failed to query tasks", err)
	}

	tasks := make([]*domain.Task, 0, len(recs))
	for i := range recs {
		tasks = append(tasks, recs[i].toTask())
	}
	return tasks, nil
}

// MarkCompleted implements store.TaskStore.MarkCompleted.
func (s *SQLiteTaskStore) MarkCompleted(ctx context.Context, id int64, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&taskRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"completed":    true,
			"completed_at": gorm.Expr("COALESCE(completed_at, ?)", at.UTC()),
		})
	if result.Error != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to mark task completed",
			slog.String("error", result.Error.Error()),
			slog.Int64("task_id", id))
		return false, store.NewStoreError("task", "mark_completed", "failed to update task", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete implements store.TaskStore.Delete.
func (s *SQLiteTaskStore) Delete(ctx context.Context, id int64) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&taskRecord{}, "id = ?", id)
	if result.Error != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("error", result.Error.Error()),
			slog.Int64("task_id", id))
		return false, store.NewStoreError("task", "delete", "failed to delete task", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListPendingScheduled implements store.TaskStore.ListPendingScheduled.
func (s *SQLiteTaskStore) ListPendingScheduled(ctx context.Context) ([]store.PendingCompletion, error) {
	var recs []taskRecord
	err := s.db.WithContext(ctx).
		Select("id", "scheduled_completion").
		Where("completed = ? AND scheduled_completion IS NOT NULL", false).
		Order("id ASC").
		Find(&recs).Error
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list pending scheduled tasks",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list_pending_scheduled", "failed to query tasks", err)
	}

	pending := make([]store.PendingCompletion, 0, len(recs))
	for _, rec := range recs {
		pending = append(pending, store.PendingCompletion{
			TaskID: rec.ID,
			Raw:    *rec.ScheduledCompletion,
		})
	}
	return pending, nil
}
