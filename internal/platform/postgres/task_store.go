package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskdue/internal/domain"
	"github.com/phrazzld/taskdue/internal/platform/logger"
	"github.com/phrazzld/taskdue/internal/store"
)

const taskColumns = `id, title, due_date, due_time, due_at, status, completed, completed_at, scheduled_completion, created_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTaskStore creates a PostgreSQL implementation of the TaskStore interface.
// If logger is nil, the default logger is used.
func NewPostgresTaskStore(db *sql.DB, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create.
// The slot check and the insert share one transaction. A concurrent insert
// that slips past the check is still rejected by tasks_active_slot_idx.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if task == nil {
		return fmt.Errorf("%w: nil task", store.ErrInvalidEntity)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		taken, err := slotTaken(ctx, tx, task.DueDate, task.DueTime)
		if err != nil {
			return err
		}
		if taken {
			return store.ErrSlotConflict
		}
		return insertTask(ctx, tx, task)
	})
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrSlotConflict) {
			log.Warn("due slot already taken",
				slog.String("due_date", task.DueDate),
				slog.String("due_time", task.DueTime))
			return store.ErrSlotConflict
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("title", task.Title))
		return store.NewStoreError("task", "create", "failed to insert task", mapped)
	}

	log.Debug("task created",
		slog.Int64("task_id", task.ID),
		slog.Bool("scheduled", task.ScheduledCompletion != nil))
	return nil
}

func slotTaken(ctx context.Context, db store.DBTX, dueDate, dueTime string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tasks
			WHERE due_date = $1 AND due_time = $2 AND completed = FALSE
		)
	`
	var taken bool
	if err := db.QueryRowContext(ctx, query, dueDate, dueTime).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

func insertTask(ctx context.Context, db store.DBTX, task *domain.Task) error {
	query := `
		INSERT INTO tasks (title, due_date, due_time, due_at, status, completed, scheduled_completion, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)
		RETURNING id
	`

	var scheduled sql.NullString
	if task.ScheduledCompletion != nil {
		scheduled = sql.NullString{String: domain.FormatDateTime(*task.ScheduledCompletion), Valid: true}
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	return db.QueryRowContext(ctx, query,
		task.Title,
		task.DueDate,
		task.DueTime,
		task.DueAt,
		task.Status,
		scheduled,
		task.CreatedAt,
	).Scan(&task.ID)
}

// Get implements store.TaskStore.Get.
func (s *PostgresTaskStore) Get(ctx context.Context, id int64) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.Int64("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return nil, store.NewStoreError("task", "get", "failed to query task", MapError(err))
	}

	return task, nil
}

// ListAll implements store.TaskStore.ListAll.
func (s *PostgresTaskStore) ListAll(ctx context.Context) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY due_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list", "failed to query tasks", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("task", "list", "failed to scan task row", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list", "error iterating task rows", err)
	}

	return tasks, nil
}

// MarkCompleted implements store.TaskStore.MarkCompleted.
func (s *PostgresTaskStore) MarkCompleted(ctx context.Context, id int64, at time.Time) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET completed = TRUE, completed_at = COALESCE(completed_at, $2)
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id, at.UTC())
	if err != nil {
		log.Error("failed to mark task completed",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return false, store.NewStoreError("task", "mark_completed", "failed to update task", MapError(err))
	}

	found, err := rowsAffected(result)
	if err != nil {
		return false, store.NewStoreError("task", "mark_completed", "failed to read result", err)
	}
	if !found {
		log.Debug("no task to mark completed", slog.Int64("task_id", id))
	}
	return found, nil
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, id int64) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return false, store.NewStoreError("task", "delete", "failed to delete task", MapError(err))
	}

	found, err := rowsAffected(result)
	if err != nil {
		return false, store.NewStoreError("task", "delete", "failed to read result", err)
	}
	return found, nil
}

// ListPendingScheduled implements store.TaskStore.ListPendingScheduled.
func (s *PostgresTaskStore) ListPendingScheduled(ctx context.Context) ([]store.PendingCompletion, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, scheduled_completion
		FROM tasks
		WHERE completed = FALSE AND scheduled_completion IS NOT NULL
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list pending scheduled tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list_pending_scheduled", "failed to query tasks", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var pending []store.PendingCompletion
	for rows.Next() {
		var p store.PendingCompletion
		if err := rows.Scan(&p.TaskID, &p.Raw); err != nil {
			return nil, store.NewStoreError("task", "list_pending_scheduled", "failed to scan row", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "list_pending_scheduled", "error iterating rows", err)
	}

	return pending, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one row selected with taskColumns. A stored scheduled
// completion that does not parse is left nil; recovery reports such rows.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		completedAt sql.NullTime
		scheduled   sql.NullString
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.DueDate,
		&task.DueTime,
		&task.DueAt,
		&task.Status,
		&task.Completed,
		&completedAt,
		&scheduled,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.DueAt = task.DueAt.In(time.Local)
	if completedAt.Valid {
		at := completedAt.Time
		task.CompletedAt = &at
	}
	if scheduled.Valid {
		if when, err := domain.ParseDateTime(scheduled.String); err == nil {
			task.ScheduledCompletion = &when
		}
	}

	return &task, nil
}
