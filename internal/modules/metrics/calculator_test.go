package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlgoGators/algosystem/internal/domain"
)

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func series(values ...float64) domain.ValueSeries {
	out := make(domain.ValueSeries, len(values))
	for i, v := range values {
		out[i] = domain.Point{Time: day(i), Value: v}
	}
	return out
}

func TestCompute_ScenarioSeries(t *testing.T) {
	rec := NewCalculator().Compute(series(100, 110, 99, 121), nil, DefaultOptions())

	assert.InDelta(t, 0.21, rec.Value(domain.KeyTotalReturn), 1e-12)
	assert.InDelta(t, math.Pow(1.21, 252.0/3.0)-1, rec.Value(domain.KeyAnnualReturn), 1e-3)
	assert.InDelta(t, -0.10, rec.Value(domain.KeyMaxDrawdown), 1e-12)
	assert.InDelta(t, 1.0, rec.Value(domain.KeyNumDrawdowns), 1e-12)

	returns := []float64{0.10, -0.10, 121.0/99.0 - 1}
	mean := (returns[0] + returns[1] + returns[2]) / 3
	ss := 0.0
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	expectedVol := math.Sqrt(ss/2) * math.Sqrt(252)
	assert.InDelta(t, expectedVol, rec.Value(domain.KeyVolatility), 1e-9)

	// single negative return has no dispersion, so Sortino is guarded to 0
	assert.Equal(t, 0.0, rec.Value(domain.KeyDownsideVolatility))
	assert.Equal(t, 0.0, rec.Value(domain.KeySortinoRatio))

	_, hasBeta := rec.Get(domain.KeyBeta)
	assert.False(t, hasBeta)
}

func TestCompute_ConstantSeries(t *testing.T) {
	rec := NewCalculator().Compute(series(100, 100, 100, 100, 100), nil, DefaultOptions())

	assert.Equal(t, 0.0, rec.Value(domain.KeyTotalReturn))
	assert.Equal(t, 0.0, rec.Value(domain.KeyVolatility))
	assert.Equal(t, 0.0, rec.Value(domain.KeyMaxDrawdown))
	assert.Equal(t, 0.0, rec.Value(domain.KeySharpeRatio))
	assert.Equal(t, 0.0, rec.Value(domain.KeyNumDrawdowns))

	for _, key := range rec.Keys() {
		v, ok := rec.Get(key)
		require.True(t, ok, key)
		assert.False(t, math.IsNaN(v), key)
	}
}

func TestCompute_ShortSeriesIsEmpty(t *testing.T) {
	calc := NewCalculator()
	assert.Empty(t, calc.Compute(nil, nil, DefaultOptions()))
	assert.Empty(t, calc.Compute(series(100), nil, DefaultOptions()))
}

func TestCompute_TwoPoints(t *testing.T) {
	rec := NewCalculator().Compute(series(80, 100), nil, DefaultOptions())
	assert.Equal(t, 100.0/80.0-1, rec.Value(domain.KeyTotalReturn))
}

func TestCompute_BenchmarkAgainstItself(t *testing.T) {
	values := series(100, 102, 101, 105, 103, 108)
	rec := NewCalculator().Compute(values, values, DefaultOptions())

	assert.InDelta(t, 1.0, rec.Value(domain.KeyBeta), 1e-9)
	assert.InDelta(t, 0.0, rec.Value(domain.KeyAlpha), 1e-9)
	assert.InDelta(t, 0.0, rec.Value(domain.KeyTrackingError), 1e-12)
	assert.Equal(t, 0.0, rec.Value(domain.KeyInformationRatio))
	assert.InDelta(t, rec.Value(domain.KeyAnnualReturn), rec.Value(domain.KeyBenchmarkReturn), 1e-12)
}

func TestCompute_BenchmarkForwardFilled(t *testing.T) {
	values := series(100, 102, 101, 105)
	// benchmark misses day 2; its day 1 level is carried forward
	bench := domain.ValueSeries{
		{Time: day(0), Value: 50},
		{Time: day(1), Value: 51},
		{Time: day(3), Value: 52},
	}
	rec := NewCalculator().Compute(values, bench, DefaultOptions())

	_, ok := rec.Get(domain.KeyBeta)
	assert.True(t, ok)
	assert.InDelta(t, math.Pow(52.0/50.0, 252.0/3.0)-1, rec.Value(domain.KeyBenchmarkReturn), 1e-6)
}

func TestCompute_BenchmarkUnalignedIsOmitted(t *testing.T) {
	values := series(100, 102, 101, 105)
	// starts after the strategy, so forward-fill cannot cover day 0
	bench := domain.ValueSeries{{Time: day(2), Value: 50}, {Time: day(3), Value: 51}}
	rec := NewCalculator().Compute(values, bench, DefaultOptions())

	_, ok := rec.Get(domain.KeyBeta)
	assert.False(t, ok)
	_, ok = rec.Get(domain.KeyTotalReturn)
	assert.True(t, ok)
}

func TestCompute_IsDeterministic(t *testing.T) {
	values := series(100, 97, 103, 99, 110, 108, 115)
	bench := series(50, 51, 50.5, 52, 53, 52, 54)
	calc := NewCalculator()

	first := calc.Compute(values, bench, DefaultOptions())
	second := calc.Compute(values, bench, DefaultOptions())
	assert.Equal(t, first, second)
}

func TestFromReturns(t *testing.T) {
	rec := FromReturns([]float64{0.01, -0.02, 0.015, -0.005, 0.02}, 0)

	for _, key := range []string{
		domain.KeyAnnualReturn, domain.KeyVolatility, domain.KeySharpeRatio,
		domain.KeySortinoRatio, domain.KeyMaxDrawdown, domain.KeyVaR95, domain.KeyCVaR95,
	} {
		_, ok := rec.Get(key)
		assert.True(t, ok, key)
	}
	assert.Greater(t, rec.Value(domain.KeyVolatility), 0.0)
	assert.LessOrEqual(t, rec.Value(domain.KeyMaxDrawdown), 0.0)
	assert.GreaterOrEqual(t, rec.Value(domain.KeyVaR95), 0.0)

	assert.Empty(t, FromReturns(nil, 252))
}
