// Package metrics computes the scalar performance statistics of an equity
// curve, optionally relative to a benchmark.
package metrics

import (
	"math"

	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/internal/modules/drawdown"
	"github.com/AlgoGators/algosystem/pkg/formulas"
)

const (
	// DefaultPeriodsPerYear assumes daily bars on a trading calendar.
	DefaultPeriodsPerYear = 252
	// DefaultRiskFreeRate is the annual rate used in alpha.
	DefaultRiskFreeRate = 0.02
	// TailConfidence is the confidence level of var_95 and cvar_95.
	TailConfidence = 0.95
)

// Options controls annualisation and the benchmark-relative metrics.
type Options struct {
	PeriodsPerYear int
	RiskFreeRate   float64
}

// DefaultOptions returns daily-bar settings with a 2% risk-free rate.
func DefaultOptions() Options {
	return Options{PeriodsPerYear: DefaultPeriodsPerYear, RiskFreeRate: DefaultRiskFreeRate}
}

func (o Options) periods() int {
	if o.PeriodsPerYear <= 0 {
		return DefaultPeriodsPerYear
	}
	return o.PeriodsPerYear
}

// Calculator produces MetricsRecords. The zero value is ready to use.
type Calculator struct{}

// NewCalculator creates a metrics calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute derives every metric for values. benchmark may be nil; when it
// cannot be aligned onto the timestamps of values the benchmark metrics are
// left out. Fewer than two points yield an empty record.
func (c *Calculator) Compute(values, benchmark domain.ValueSeries, opts Options) domain.MetricsRecord {
	if len(values) < 2 {
		return domain.MetricsRecord{}
	}
	ppy := opts.periods()
	returns := values.Returns().Values()

	rec := FromReturns(returns, ppy)

	// rebuild the headline numbers from the endpoints rather than the
	// compounded product so total_return is exact
	total := values.Last().Value/values.First().Value - 1
	annual := formulas.GeometricAnnualReturn(total, len(returns), ppy)
	set(rec, domain.KeyTotalReturn, total)
	set(rec, domain.KeyAnnualReturn, annual)
	set(rec, domain.KeySharpeRatio, formulas.SafeDiv(annual, rec.Value(domain.KeyVolatility)))
	set(rec, domain.KeySortinoRatio, formulas.SafeDiv(annual, rec.Value(domain.KeyDownsideVolatility)))

	if len(benchmark) > 0 {
		rec.Merge(benchmarkMetrics(values, benchmark, returns, annual, ppy, opts.RiskFreeRate))
	}

	rec.Merge(drawdown.Analyze(values, drawdown.DefaultTopN).Records())
	return rec
}

// FromReturns computes the metrics that depend only on a return series:
// total and annual return, volatility, downside volatility, Sharpe, Sortino,
// max drawdown and the 95% tail risk.
func FromReturns(returns []float64, periodsPerYear int) domain.MetricsRecord {
	rec := domain.MetricsRecord{}
	if len(returns) == 0 {
		return rec
	}
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}

	growth := formulas.CumulativeGrowth(returns)
	total := growth[len(growth)-1] - 1
	annual := formulas.GeometricAnnualReturn(total, len(returns), periodsPerYear)
	vol := formulas.AnnualizedVolatility(returns, periodsPerYear)
	downsideVol := formulas.AnnualizedVolatility(negatives(returns), periodsPerYear)

	set(rec, domain.KeyTotalReturn, total)
	set(rec, domain.KeyAnnualReturn, annual)
	set(rec, domain.KeyVolatility, vol)
	set(rec, domain.KeyDownsideVolatility, downsideVol)
	set(rec, domain.KeySharpeRatio, formulas.SafeDiv(annual, vol))
	set(rec, domain.KeySortinoRatio, formulas.SafeDiv(annual, downsideVol))
	set(rec, domain.KeyMaxDrawdown, formulas.MaxDrawdown(returns))
	set(rec, domain.KeyVaR95, formulas.HistoricalVaR(returns, TailConfidence))
	set(rec, domain.KeyCVaR95, formulas.HistoricalCVaR(returns, TailConfidence))
	return rec
}

func benchmarkMetrics(values, benchmark domain.ValueSeries, returns []float64, annual float64, ppy int, rf float64) domain.MetricsRecord {
	rec := domain.MetricsRecord{}

	aligned := benchmark.ForwardFill(values.Times())
	if len(aligned) != len(values) {
		return rec
	}
	benchReturns := aligned.Returns().Values()

	benchTotal := aligned.Last().Value/aligned.First().Value - 1
	benchAnnual := formulas.GeometricAnnualReturn(benchTotal, len(benchReturns), ppy)
	beta := formulas.SafeDiv(formulas.Covariance(returns, benchReturns), formulas.Variance(benchReturns))

	active := make([]float64, len(returns))
	for i := range returns {
		active[i] = returns[i] - benchReturns[i]
	}
	trackingError := formulas.StdDev(active) * math.Sqrt(float64(ppy))

	set(rec, domain.KeyBeta, beta)
	set(rec, domain.KeyAlpha, annual-(rf+beta*(benchAnnual-rf)))
	set(rec, domain.KeyTrackingError, trackingError)
	set(rec, domain.KeyInformationRatio, formulas.SafeDiv(annual-benchAnnual, trackingError))
	set(rec, domain.KeyBenchmarkReturn, benchAnnual)
	return rec
}

func negatives(returns []float64) []float64 {
	out := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			out = append(out, r)
		}
	}
	return out
}

func set(rec domain.MetricsRecord, key string, v float64) {
	rec.Set(key, domain.Finite(v))
}
