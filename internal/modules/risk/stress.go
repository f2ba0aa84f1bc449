package risk

import (
	"context"
	"fmt"

	"github.com/AlgoGators/algosystem/internal/domain"
)

// BaseCase is the result key of the unshocked run.
const BaseCase = "base_case"

// SeriesBuilder derives an equity curve from input data, for example by
// running a strategy over a price frame.
type SeriesBuilder interface {
	Build(ctx context.Context, data domain.Frame) (domain.ValueSeries, error)
}

// SeriesBuilderFunc adapts a function to SeriesBuilder.
type SeriesBuilderFunc func(ctx context.Context, data domain.Frame) (domain.ValueSeries, error)

// Build calls f(ctx, data).
func (f SeriesBuilderFunc) Build(ctx context.Context, data domain.Frame) (domain.ValueSeries, error) {
	return f(ctx, data)
}

// Scenario multiplies the first bar of each named column by its shock factor.
type Scenario struct {
	Name   string             `json:"name"`
	Shocks map[string]float64 `json:"shocks"`
}

// StressResult is the outcome of one scenario. Err is empty on success.
type StressResult struct {
	Metrics domain.MetricsRecord `json:"metrics,omitempty"`
	Err     string               `json:"error,omitempty"`
}

// Failed reports whether the scenario could not be evaluated.
func (r StressResult) Failed() bool { return r.Err != "" }

// StressTest re-derives the equity curve under every scenario and computes
// a fresh MetricsRecord for each. The result always holds BaseCase. A failing
// scenario records its error without stopping the others; a cancelled
// context marks the remaining scenarios as failed.
func (e *Engine) StressTest(ctx context.Context, builder SeriesBuilder, data domain.Frame, scenarios []Scenario) map[string]StressResult {
	results := make(map[string]StressResult, len(scenarios)+1)
	results[BaseCase] = e.evaluate(ctx, builder, data)

	for _, sc := range scenarios {
		if sc.Name == BaseCase {
			continue
		}
		if err := ctx.Err(); err != nil {
			results[sc.Name] = StressResult{Err: err.Error()}
			continue
		}
		shocked, err := applyShocks(data, sc.Shocks)
		if err != nil {
			results[sc.Name] = StressResult{Err: err.Error()}
			continue
		}
		results[sc.Name] = e.evaluate(ctx, builder, shocked)
	}
	return results
}

func (e *Engine) evaluate(ctx context.Context, builder SeriesBuilder, data domain.Frame) (res StressResult) {
	defer func() {
		if r := recover(); r != nil {
			res = StressResult{Err: fmt.Sprintf("builder panicked: %v", r)}
		}
	}()

	values, err := builder.Build(ctx, data)
	if err != nil {
		return StressResult{Err: err.Error()}
	}
	if err := values.Validate(); err != nil {
		return StressResult{Err: err.Error()}
	}
	return StressResult{Metrics: e.calc.Compute(values, nil, e.Options)}
}

func applyShocks(data domain.Frame, shocks map[string]float64) (domain.Frame, error) {
	shocked := data.Clone()
	for field, factor := range shocks {
		col, ok := shocked.Columns[field]
		if !ok {
			return domain.Frame{}, fmt.Errorf("%w: unknown field %q", domain.ErrInputShape, field)
		}
		if len(col) > 0 {
			col[0] *= factor
		}
	}
	return shocked, nil
}
