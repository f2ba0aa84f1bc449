// Package risk provides Value at Risk estimators, expected shortfall and
// scenario stress testing.
package risk

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/internal/modules/metrics"
	"github.com/AlgoGators/algosystem/pkg/formulas"
)

// Method selects the VaR estimator.
type Method string

const (
	MethodHistorical Method = "historical"
	MethodParametric Method = "parametric"
	MethodMonteCarlo Method = "monte_carlo"
)

const (
	// DefaultConfidence is the confidence level used when none is given.
	DefaultConfidence = 0.95
	// DefaultSamples is the Monte Carlo sample size.
	DefaultSamples = 10000
)

// ParseMethod maps a method name to a Method. An empty name is historical.
func ParseMethod(name string) (Method, error) {
	switch Method(name) {
	case "", MethodHistorical:
		return MethodHistorical, nil
	case MethodParametric:
		return MethodParametric, nil
	case MethodMonteCarlo:
		return MethodMonteCarlo, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedMethod, name)
	}
}

// Summary is the tail-risk report for one return series.
type Summary struct {
	VaR             float64 `json:"var"`
	CVaR            float64 `json:"cvar"`
	Method          Method  `json:"method"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// Engine evaluates risk measures. Seed fixes the Monte Carlo source; a zero
// seed draws from the wall clock, so monte_carlo results vary between calls.
type Engine struct {
	Samples int
	Seed    uint64
	Options metrics.Options

	calc *metrics.Calculator
}

// NewEngine creates a risk engine with the given Monte Carlo settings.
func NewEngine(samples int, seed uint64, opts metrics.Options) *Engine {
	if samples <= 0 {
		samples = DefaultSamples
	}
	return &Engine{
		Samples: samples,
		Seed:    seed,
		Options: opts,
		calc:    metrics.NewCalculator(),
	}
}

// VaR returns the Value at Risk of returns as a positive loss magnitude.
func (e *Engine) VaR(returns []float64, confidence float64, method Method) (float64, error) {
	if confidence <= 0 || confidence >= 1 {
		return 0, fmt.Errorf("%w: confidence must be in (0, 1), got %v", domain.ErrInputShape, confidence)
	}
	if len(returns) == 0 {
		return 0, nil
	}

	switch method {
	case "", MethodHistorical:
		return formulas.HistoricalVaR(returns, confidence), nil
	case MethodParametric:
		return parametricVaR(returns, confidence), nil
	case MethodMonteCarlo:
		return formulas.HistoricalVaR(e.simulate(returns), confidence), nil
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedMethod, method)
	}
}

// CVaR returns the historical expected shortfall beyond the VaR threshold.
func (e *Engine) CVaR(returns []float64, confidence float64) float64 {
	return formulas.HistoricalCVaR(returns, confidence)
}

// Summary bundles VaR under method with the historical CVaR.
func (e *Engine) Summary(returns []float64, confidence float64, method Method) (Summary, error) {
	if method == "" {
		method = MethodHistorical
	}
	v, err := e.VaR(returns, confidence, method)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		VaR:             v,
		CVaR:            e.CVaR(returns, confidence),
		Method:          method,
		ConfidenceLevel: confidence,
	}, nil
}

// Metrics computes the return-only risk and performance metrics of a pure
// return series.
func (e *Engine) Metrics(returns []float64, periodsPerYear int) domain.MetricsRecord {
	return metrics.FromReturns(returns, periodsPerYear)
}

func parametricVaR(returns []float64, confidence float64) float64 {
	z := distuv.UnitNormal.Quantile(1 - confidence)
	v := -(formulas.Mean(returns) + z*formulas.StdDev(returns))
	if v < 0 {
		return 0
	}
	return domain.Finite(v)
}

// simulate draws Samples returns from the normal fitted to returns.
func (e *Engine) simulate(returns []float64) []float64 {
	seed := e.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	dist := distuv.Normal{
		Mu:    formulas.Mean(returns),
		Sigma: formulas.StdDev(returns),
		Src:   rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}

	n := e.Samples
	if n <= 0 {
		n = DefaultSamples
	}
	sample := make([]float64, n)
	for i := range sample {
		sample[i] = dist.Rand()
	}
	return sample
}
