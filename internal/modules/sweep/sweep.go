// Package sweep computes metrics for many series concurrently with a
// bounded worker pool.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/internal/modules/metrics"
)

// Job is one named series to evaluate.
type Job struct {
	Name      string
	Values    domain.ValueSeries
	Benchmark domain.ValueSeries
}

// Result is the outcome of one Job. Err is set when the series was invalid,
// the computation panicked or the sweep was cancelled first.
type Result struct {
	Name    string
	Metrics domain.MetricsRecord
	Err     error
}

// Runner dispatches jobs across a fixed number of workers.
type Runner struct {
	workers int
	opts    metrics.Options
	calc    *metrics.Calculator
	log     zerolog.Logger
}

// NewRunner creates a sweep runner. workers ≤ 0 uses GOMAXPROCS.
func NewRunner(workers int, opts metrics.Options, log zerolog.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		workers: workers,
		opts:    opts,
		calc:    metrics.NewCalculator(),
		log:     log.With().Str("component", "sweep").Logger(),
	}
}

// Run evaluates every job and returns one result per job, sorted by name.
// A failing job never affects its siblings.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Result {
	start := time.Now()
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, job := range jobs {
		results[i].Name = job.Name
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			// per-job errors stay in the slot so siblings keep running
			results[i] = r.evaluate(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.log.Info().
		Int("jobs", len(jobs)).
		Int("failed", failed).
		Int("workers", r.workers).
		Dur("duration", time.Since(start)).
		Msg("Sweep completed")

	sort.SliceStable(results, func(a, b int) bool { return results[a].Name < results[b].Name })
	return results
}

func (r *Runner) evaluate(ctx context.Context, job Job) (res Result) {
	res.Name = job.Name
	defer func() {
		if p := recover(); p != nil {
			res.Metrics = nil
			res.Err = fmt.Errorf("metrics for %q panicked: %v", job.Name, p)
			r.log.Error().Str("series", job.Name).Interface("panic", p).Msg("Sweep job panicked")
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if err := job.Values.Validate(); err != nil {
		res.Err = fmt.Errorf("series %q: %w", job.Name, err)
		r.log.Warn().Err(err).Str("series", job.Name).Msg("Skipping invalid series")
		return res
	}
	res.Metrics = r.calc.Compute(job.Values, job.Benchmark, r.opts)
	return res
}
