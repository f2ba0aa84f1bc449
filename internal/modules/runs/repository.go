// Package runs stores completed analysis runs so they can be listed and
// fetched later.
package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AlgoGators/algosystem/internal/database"
	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/internal/modules/drawdown"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned by Get when no run has the requested id.
var ErrNotFound = errors.New("analysis run not found")

// DefaultListLimit caps List when no positive limit is given.
const DefaultListLimit = 50

// Run is a stored analysis result
type Run struct {
	ID        uuid.UUID            `json:"id"`
	Name      string               `json:"name"`
	CreatedAt time.Time            `json:"created_at"`
	Metrics   domain.MetricsRecord `json:"metrics"`
	Episodes  []drawdown.Episode   `json:"episodes"`
}

// payload is the msgpack-encoded part of a run
type payload struct {
	Metrics  domain.MetricsRecord `msgpack:"metrics"`
	Episodes []drawdown.Episode   `msgpack:"episodes"`
}

// Repository persists runs in the analysis_runs table
//
// Database: runs.db (analysis_runs table)
type Repository struct {
	db  *database.DB
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a run repository. The schema must already be migrated.
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// Save stores run, assigning an id and creation time when they are unset.
// The stored run is returned.
func (r *Repository) Save(ctx context.Context, run Run) (Run, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = r.now()
	}
	run.CreatedAt = run.CreatedAt.UTC().Truncate(time.Millisecond)

	blob, err := msgpack.Marshal(payload{Metrics: run.Metrics, Episodes: run.Episodes})
	if err != nil {
		return Run{}, fmt.Errorf("failed to encode run payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, name, created_at, payload)
		VALUES (?, ?, ?, ?)
	`, run.ID.String(), run.Name, run.CreatedAt.UnixMilli(), blob)
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}

	r.log.Debug().
		Str("id", run.ID.String()).
		Str("name", run.Name).
		Msg("Saved analysis run")

	return run, nil
}

// Get returns the run with the given id, or ErrNotFound
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, payload
		FROM analysis_runs
		WHERE id = ?
	`, id.String())

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List returns up to limit runs, newest first
func (r *Repository) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at, payload
		FROM analysis_runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	out := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return out, nil
}

// DeleteOlderThan removes runs created strictly before cutoff and returns
// how many were deleted.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM analysis_runs WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted runs: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var (
		id        string
		run       Run
		createdAt int64
		blob      []byte
	)
	if err := s.Scan(&id, &run.Name, &createdAt, &blob); err != nil {
		return Run{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.ID = parsed
	run.CreatedAt = time.UnixMilli(createdAt).UTC()

	var p payload
	if err := msgpack.Unmarshal(blob, &p); err != nil {
		return Run{}, fmt.Errorf("failed to decode run payload: %w", err)
	}
	run.Metrics = p.Metrics
	run.Episodes = p.Episodes
	return run, nil
}
