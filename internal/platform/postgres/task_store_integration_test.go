package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/taskdue/internal/domain"
	"github.com/phrazzld/taskdue/internal/platform/postgres"
	"github.com/phrazzld/taskdue/internal/store"
	"github.com/phrazzld/taskdue/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTask(t *testing.T, title, date, clock, scheduled string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(title, date, clock, "", scheduled)
	require.NoError(t, err)
	return task
}

func TestPostgresTaskStore_Integration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	testdb.ResetTasks(t, db)
	s := postgres.NewPostgresTaskStore(db, nil)
	ctx := context.Background()

	later := mustTask(t, "later", "01/12/2030", "08:00", "")
	earlier := mustTask(t, "earlier", "02/01/2030", "08:00", "02/01/2030 09:00")
	require.NoError(t, s.Create(ctx, later))
	require.NoError(t, s.Create(ctx, earlier))
	assert.NotZero(t, later.ID)
	assert.NotEqual(t, later.ID, earlier.ID)

	t.Run("slot conflict while active", func(t *testing.T) {
		err := s.Create(ctx, mustTask(t, "clash", "01/12/2030", "08:00", ""))
		assert.ErrorIs(t, err, store.ErrSlotConflict)
	})

	t.Run("ordered by due instant", func(t *testing.T) {
		tasks, err := s.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, earlier.ID, tasks[0].ID)
		assert.Equal(t, later.ID, tasks[1].ID)
	})

	t.Run("pending scheduled", func(t *testing.T) {
		pending, err := s.ListPendingScheduled(ctx)
		require.NoError(t, err)
		assert.Equal(t, []store.PendingCompletion{{TaskID: earlier.ID, Raw: "02/01/2030 09:00"}}, pending)
	})

	t.Run("mark completed keeps first time and frees slot", func(t *testing.T) {
		first := time.Now().UTC().Truncate(time.Second)
		found, err := s.MarkCompleted(ctx, later.ID, first)
		require.NoError(t, err)
		assert.True(t, found)

		found, err = s.MarkCompleted(ctx, later.ID, first.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, found)

		got, err := s.Get(ctx, later.ID)
		require.NoError(t, err)
		assert.True(t, got.Completed)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, first.Equal(*got.CompletedAt))

		reuse := mustTask(t, "reuse", "01/12/2030", "08:00", "")
		assert.NoError(t, s.Create(ctx, reuse))
	})

	t.Run("unknown ids", func(t *testing.T) {
		found, err := s.MarkCompleted(ctx, 999999, time.Now())
		require.NoError(t, err)
		assert.False(t, found)

		deleted, err := s.Delete(ctx, 999999)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("delete", func(t *testing.T) {
		deleted, err := s.Delete(ctx, earlier.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = s.Get(ctx, earlier.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}
