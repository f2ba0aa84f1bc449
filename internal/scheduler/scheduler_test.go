package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

type fakePruner struct {
	cutoff  time.Time
	deleted int64
	err     error
	calls   int
}

func (f *fakePruner) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return f.deleted, f.err
}

type fakeChecker struct {
	err error
}

func (f fakeChecker) HealthCheck(context.Context) error { return f.err }
func (f fakeChecker) Name() string                      { return "runs" }

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("0 0 3 * * *", &countingJob{}))
	assert.Equal(t, 1, s.Len())

	err := s.AddJob("not a schedule", &countingJob{})
	assert.ErrorContains(t, err, "failed to register job counting")
	assert.Equal(t, 1, s.Len())
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("ignored")}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestPruneRunsJob(t *testing.T) {
	now := time.Date(2024, 6, 30, 3, 0, 0, 0, time.UTC)

	t.Run("deletes before cutoff", func(t *testing.T) {
		pruner := &fakePruner{deleted: 4}
		job := NewPruneRunsJob(pruner, 30)
		job.SetLogger(zerolog.Nop())
		job.now = func() time.Time { return now }

		require.NoError(t, job.Run())
		assert.Equal(t, 1, pruner.calls)
		assert.True(t, pruner.cutoff.Equal(now.AddDate(0, 0, -30)))
		assert.Equal(t, "prune_analysis_runs", job.Name())
	})

	t.Run("disabled retention", func(t *testing.T) {
		pruner := &fakePruner{}
		job := NewPruneRunsJob(pruner, 0)

		require.NoError(t, job.Run())
		assert.Zero(t, pruner.calls)
	})

	t.Run("propagates errors", func(t *testing.T) {
		boom := errors.New("locked")
		job := NewPruneRunsJob(&fakePruner{err: boom}, 7)

		assert.ErrorIs(t, job.Run(), boom)
	})
}

func TestCheckDatabaseJob(t *testing.T) {
	job := NewCheckDatabaseJob(nil)
	assert.Equal(t, "check_database", job.Name())
	assert.NoError(t, job.Run(), "nil database is skipped")

	job = NewCheckDatabaseJob(fakeChecker{})
	assert.NoError(t, job.Run())

	corrupt := errors.New("malformed page")
	job = NewCheckDatabaseJob(fakeChecker{err: corrupt})
	job.SetLogger(zerolog.Nop())
	err := job.Run()
	assert.ErrorIs(t, err, corrupt)
	assert.ErrorContains(t, err, "database runs is corrupted")
}
