package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker runs a full integrity check
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	Name() string
}

// CheckDatabaseJob verifies integrity of the run database
type CheckDatabaseJob struct {
	log zerolog.Logger
	db  HealthChecker
}

// NewCheckDatabaseJob creates a new CheckDatabaseJob. db may be nil.
func NewCheckDatabaseJob(db HealthChecker) *CheckDatabaseJob {
	return &CheckDatabaseJob{
		log: zerolog.Nop(),
		db:  db,
	}
}

// SetLogger sets the logger for the job
func (j *CheckDatabaseJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *CheckDatabaseJob) Name() string {
	return "check_database"
}

// Run executes PRAGMA integrity_check on the database
func (j *CheckDatabaseJob) Run() error {
	if j.db == nil {
		j.log.Warn().Msg("Database not initialized, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		j.log.Error().
			Err(err).
			Str("database", j.db.Name()).
			Msg("Database integrity check failed")
		return fmt.Errorf("database %s is corrupted: %w", j.db.Name(), err)
	}

	j.log.Debug().Str("database", j.db.Name()).Msg("Database integrity OK")
	return nil
}
