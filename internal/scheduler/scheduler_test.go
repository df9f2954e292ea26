package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// firing records handler calls.
type firing struct {
	mu    sync.Mutex
	calls []Job
	at    []time.Time
	ch    chan Job
}

func newFiring() *firing {
	return &firing{ch: make(chan Job, 32)}
}

func (f *firing) handle(ctx context.Context, job Job) error {
	f.mu.Lock()
	f.calls = append(f.calls, job)
	f.at = append(f.at, time.Now())
	f.mu.Unlock()
	f.ch <- job
	return nil
}

func (f *firing) wait(t *testing.T, n int, timeout time.Duration) []Job {
	t.Helper()
	var got []Job
	deadline := time.After(timeout)
	for len(got) < n {
		select {
		case job := <-f.ch:
			got = append(got, job)
		case <-deadline:
			t.Fatalf("timed out waiting for %d jobs, got %d", n, len(got))
		}
	}
	return got
}

func newStarted(t *testing.T, cfg Config, h Handler) *Scheduler {
	t.Helper()
	s := New(cfg, setupTestLogger())
	s.SetHandler(h)
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func TestJobKey(t *testing.T) {
	t.Parallel()

	fireAt := time.Date(2030, 10, 20, 10, 0, 0, 0, time.UTC)
	job := Job{TaskID: 42, FireAt: fireAt}

	assert.Equal(t, "complete_42_1918720800", job.Key())
	assert.Equal(t, job.Key(), Job{TaskID: 42, FireAt: fireAt.In(time.Local)}.Key())
	assert.NotEqual(t, job.Key(), Job{TaskID: 42, FireAt: fireAt.Add(time.Minute)}.Key())
}

func TestScheduler_FiresNoEarlierThanFireAt(t *testing.T) {
	t.Parallel()
	f := newFiring()
	s := newStarted(t, DefaultConfig(), f.handle)

	fireAt := time.Now().Add(150 * time.Millisecond)
	require.NoError(t, s.Schedule(Job{TaskID: 1, FireAt: fireAt}))

	got := f.wait(t, 1, 2*time.Second)
	assert.Equal(t, int64(1), got[0].TaskID)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.False(t, f.at[0].Before(fireAt), "job fired %v before its fire time", fireAt.Sub(f.at[0]))
}

func TestScheduler_PastJobFiresImmediately(t *testing.T) {
	t.Parallel()
	f := newFiring()
	s := newStarted(t, DefaultConfig(), f.handle)

	require.NoError(t, s.Schedule(Job{TaskID: 7, FireAt: time.Now().Add(-time.Hour)}))
	f.wait(t, 1, time.Second)
}

func TestScheduler_JobsScheduledBeforeStart(t *testing.T) {
	t.Parallel()
	f := newFiring()
	s := New(DefaultConfig(), setupTestLogger())
	s.SetHandler(f.handle)

	require.NoError(t, s.Schedule(Job{TaskID: 3, FireAt: time.Now().Add(-time.Second)}))
	require.NoError(t, s.Schedule(Job{TaskID: 4, FireAt: time.Now().Add(50 * time.Millisecond)}))
	assert.Len(t, s.Pending(), 2)

	select {
	case <-f.ch:
		t.Fatal("job fired before Start")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, s.Start())
	defer func() { _ = s.Stop(context.Background()) }()

	f.wait(t, 2, 2*time.Second)
}

func TestScheduler_DuplicateKeyIsNoop(t *testing.T) {
	t.Parallel()
	f := newFiring()
	s := New(DefaultConfig(), setupTestLogger())
	s.SetHandler(f.handle)

	job := Job{TaskID: 5, FireAt: time.Now().Add(50 * time.Millisecond)}
	require.NoError(t, s.Schedule(job))
	require.NoError(t, s.Schedule(job))
	assert.Len(t, s.Pending(), 1)

	require.NoError(t, s.Start())
	defer func() { _ = s.Stop(context.Background()) }()

	f.wait(t, 1, 2*time.Second)
	select {
	case extra := <-f.ch:
		t.Fatalf("duplicate job fired: %+v", extra)
	case <-time.After(150 * time.Millisecond):
	}
	assert.Equal(t, uint64(1), s.Stats().Fired)
}

func TestScheduler_DispatchOrder(t *testing.T) {
	t.Parallel()
	f := newFiring()
	s := New(Config{WorkerCount: 1, QueueSize: 10}, setupTestLogger())
	s.SetHandler(f.handle)

	base := time.Now().Add(-time.Minute)
	require.NoError(t, s.Schedule(Job{TaskID: 30, FireAt: base.Add(3 * time.Second)}))
	require.NoError(t, s.Schedule(Job{TaskID: 10, FireAt: base.Add(1 * time.Second)}))
	require.NoError(t, s.Schedule(Job{TaskID: 21, FireAt: base.Add(2 * time.Second)}))
	require.NoError(t, s.Schedule(Job{TaskID: 20, FireAt: base.Add(2 * time.Second)}))

	pending := s.Pending()
	require.Len(t, pending, 4)
	assert.Equal(t, []int64{10, 20, 21, 30},
		[]int64{pending[0].TaskID, pending[1].TaskID, pending[2].TaskID, pending[3].TaskID})

	require.NoError(t, s.Start())
	defer func() { _ = s.Stop(context.Background()) }()

	got := f.wait(t, 4, 2*time.Second)
	assert.Equal(t, []int64{10, 20, 21, 30},
		[]int64{got[0].TaskID, got[1].TaskID, got[2].TaskID, got[3].TaskID})
}

func TestScheduler_EarlierJobWakesTimer(t *testing.T) {
	t.Parallel()
	f := newFiring()
	s := newStarted(t, DefaultConfig(), f.handle)

	require.NoError(t, s.Schedule(Job{TaskID: 1, FireAt: time.Now().Add(time.Hour)}))
	require.NoError(t, s.Schedule(Job{TaskID: 2, FireAt: time.Now().Add(50 * time.Millisecond)}))

	got := f.wait(t, 1, time.Second)
	assert.Equal(t, int64(2), got[0].TaskID)
	assert.Len(t, s.Pending(), 1)
}

func TestScheduler_Cancel(t *testing.T) {
	t.Parallel()
	f := newFiring()
	s := newStarted(t, DefaultConfig(), f.handle)

	soon := time.Now().Add(100 * time.Millisecond)
	require.NoError(t, s.Schedule(Job{TaskID: 1, FireAt: soon}))
	require.NoError(t, s.Schedule(Job{TaskID: 1, FireAt: soon.Add(time.Minute)}))
	require.NoError(t, s.Schedule(Job{TaskID: 2, FireAt: soon}))

	assert.Equal(t, 2, s.Cancel(1))
	assert.Equal(t, 0, s.Cancel(1))
	assert.Equal(t, 0, s.Cancel(99))

	got := f.wait(t, 1, time.Second)
	assert.Equal(t, int64(2), got[0].TaskID)

	select {
	case job := <-f.ch:
		t.Fatalf("cancelled job fired: %+v", job)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestScheduler_HandlerFailures(t *testing.T) {
	t.Parallel()

	ok := make(chan int64, 4)
	failures := make(chan error, 4)

	s := New(Config{WorkerCount: 1, QueueSize: 4}, setupTestLogger())
	s.SetHandler(func(ctx context.Context, job Job) error {
		switch job.TaskID {
		case 1:
			return errors.New("database is locked")
		case 2:
			panic("boom")
		default:
			ok <- job.TaskID
			return nil
		}
	})
	s.SetErrorHandler(func(job Job, err error) { failures <- err })
	require.NoError(t, s.Start())
	defer func() { _ = s.Stop(context.Background()) }()

	past := time.Now().Add(-time.Second)
	for id := int64(1); id <= 3; id++ {
		require.NoError(t, s.Schedule(Job{TaskID: id, FireAt: past.Add(time.Duration(id) * time.Millisecond)}))
	}

	var errs []error
	for i := 0; i < 2; i++ {
		select {
		case err := <-failures:
			errs = append(errs, err)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for failures")
		}
	}
	select {
	case id := <-ok:
		assert.Equal(t, int64(3), id, "later jobs still run after failures")
	case <-time.After(time.Second):
		t.Fatal("healthy job did not run")
	}

	var cbErr *CallbackError
	require.ErrorAs(t, errs[0], &cbErr)
	assert.Equal(t, int64(1), cbErr.Job.TaskID)
	assert.False(t, cbErr.Panic)
	assert.Contains(t, cbErr.Error(), "database is locked")

	require.ErrorAs(t, errs[1], &cbErr)
	assert.Equal(t, int64(2), cbErr.Job.TaskID)
	assert.True(t, cbErr.Panic)

	stats := s.Stats()
	assert.Equal(t, uint64(2), stats.Failed)
	assert.Equal(t, uint64(1), stats.Fired)
}

func TestScheduler_StartRequiresHandler(t *testing.T) {
	t.Parallel()
	s := New(DefaultConfig(), setupTestLogger())
	assert.Error(t, s.Start())
}

func TestScheduler_ScheduleAfterStop(t *testing.T) {
	t.Parallel()
	s := newStarted(t, DefaultConfig(), newFiring().handle)

	require.NoError(t, s.Stop(context.Background()))
	assert.ErrorIs(t, s.Schedule(Job{TaskID: 1, FireAt: time.Now()}), ErrStopped)
	assert.ErrorIs(t, s.Start(), ErrStopped)
	assert.NoError(t, s.Stop(context.Background()), "second stop is a no-op")
}

func TestScheduler_StopCancelsRunningHandler(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	s := newStarted(t, DefaultConfig(), func(ctx context.Context, job Job) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})

	require.NoError(t, s.Schedule(Job{TaskID: 1, FireAt: time.Now()}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case <-cancelled:
	default:
		t.Fatal("handler context was not cancelled")
	}
}

func TestScheduler_StopDoesNotWaitPastDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})

	s := New(DefaultConfig(), setupTestLogger())
	s.SetHandler(func(ctx context.Context, job Job) error {
		close(started)
		<-release // ignores ctx
		return nil
	})
	require.NoError(t, s.Start())
	require.NoError(t, s.Schedule(Job{TaskID: 1, FireAt: time.Now()}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	begin := time.Now()
	err := s.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(begin), time.Second)
}

func TestScheduler_StopBeforeStart(t *testing.T) {
	t.Parallel()
	s := New(DefaultConfig(), nil)
	require.NoError(t, s.Schedule(Job{TaskID: 1, FireAt: time.Now().Add(time.Hour)}))
	assert.NoError(t, s.Stop(context.Background()))
	assert.ErrorIs(t, s.Schedule(Job{TaskID: 2, FireAt: time.Now()}), ErrStopped)
}
