package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RunPruner deletes stored runs created before a cutoff
type RunPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneRunsJob removes analysis runs older than the retention window
type PruneRunsJob struct {
	log       zerolog.Logger
	runs      RunPruner
	retention time.Duration
	timeout   time.Duration
	now       func() time.Time
}

// NewPruneRunsJob creates a job keeping runs from the last retentionDays days
func NewPruneRunsJob(runs RunPruner, retentionDays int) *PruneRunsJob {
	return &PruneRunsJob{
		log:       zerolog.Nop(),
		runs:      runs,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		timeout:   time.Minute,
		now:       time.Now,
	}
}

// SetLogger sets the logger for the job
func (j *PruneRunsJob) SetLogger(log zerolog.Logger) {
	j.log = log.With().Str("job", j.Name()).Logger()
}

// Name returns the job name
func (j *PruneRunsJob) Name() string {
	return "prune_analysis_runs"
}

// Run deletes every run created before now minus the retention window
func (j *PruneRunsJob) Run() error {
	if j.retention <= 0 {
		j.log.Debug().Msg("Retention disabled, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	deleted, err := j.runs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune runs: %w", err)
	}

	j.log.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Pruned analysis runs")
	return nil
}
