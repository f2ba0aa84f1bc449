package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdDev(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		expected float64
	}{
		{name: "empty", data: []float64{}, expected: 0},
		{name: "single observation", data: []float64{0.05}, expected: 0},
		{name: "constant", data: []float64{0.01, 0.01, 0.01}, expected: 0},
		{name: "sample denominator", data: []float64{1, 2, 3, 4}, expected: math.Sqrt(5.0 / 3.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, StdDev(tt.data), 1e-12)
		})
	}
}

func TestCalculateReturns(t *testing.T) {
	returns := CalculateReturns([]float64{100, 110, 99, 121})

	assert.Len(t, returns, 3)
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)
	assert.InDelta(t, 0.2222222, returns[2], 1e-6)

	assert.Empty(t, CalculateReturns([]float64{100}))
}

func TestQuantile_LinearInterpolation(t *testing.T) {
	data := []float64{4, 1, 3, 2, 5}

	assert.Equal(t, 1.0, Quantile(data, 0))
	assert.Equal(t, 5.0, Quantile(data, 1))
	assert.InDelta(t, 3.0, Quantile(data, 0.5), 1e-12)
	// position 0.05*4 = 0.2 between 1 and 2
	assert.InDelta(t, 1.2, Quantile(data, 0.05), 1e-12)
	assert.Equal(t, 0.0, Quantile(nil, 0.5))

	// input is not reordered
	assert.Equal(t, []float64{4, 1, 3, 2, 5}, data)
}

func TestGeometricAnnualReturn(t *testing.T) {
	assert.InDelta(t, 0.21, GeometricAnnualReturn(0.21, 252, 252), 1e-12)
	assert.InDelta(t, math.Pow(1.21, 2)-1, GeometricAnnualReturn(0.21, 126, 252), 1e-12)
	assert.Equal(t, 0.0, GeometricAnnualReturn(0.5, 0, 252))
}

func TestCorrelation_ZeroVariance(t *testing.T) {
	assert.Equal(t, 0.0, Correlation([]float64{1, 1, 1}, []float64{1, 2, 3}))
	assert.InDelta(t, 1.0, Correlation([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
}

func TestSafeDiv(t *testing.T) {
	assert.Equal(t, 0.0, SafeDiv(1, 0))
	assert.Equal(t, 2.0, SafeDiv(4, 2))
}

func TestDrawdownPath(t *testing.T) {
	returns := CalculateReturns([]float64{100, 110, 99, 121})
	path := DrawdownPath(returns)

	assert.Len(t, path, 3)
	assert.InDelta(t, 0.0, path[0], 1e-12)
	assert.InDelta(t, -0.10, path[1], 1e-12)
	assert.InDelta(t, 0.0, path[2], 1e-12)
	assert.InDelta(t, -0.10, MaxDrawdown(returns), 1e-12)
}

func TestDrawdownPath_FirstPeriodLoss(t *testing.T) {
	path := DrawdownPath([]float64{-0.2})

	assert.InDelta(t, -0.2, path[0], 1e-12)
	assert.InDelta(t, -0.2, MaxDrawdown([]float64{-0.2}), 1e-12)
	assert.Equal(t, 0.0, MaxDrawdown([]float64{0.01, 0.02}))
}

func TestCumulativeGrowth(t *testing.T) {
	growth := CumulativeGrowth([]float64{0.1, -0.1, 0.2222222222222222})

	assert.InDelta(t, 1.10, growth[0], 1e-12)
	assert.InDelta(t, 0.99, growth[1], 1e-12)
	assert.InDelta(t, 1.21, growth[2], 1e-9)
}

func TestStdDev_ConstantSampleIsExactlyZero(t *testing.T) {
	data := []float64{0.01, 0.01, 0.01, 0.01, 0.01, 0.01, 0.01}

	assert.True(t, IsConstant(data))
	assert.Equal(t, 0.0, StdDev(data))
	assert.Equal(t, 0.0, Variance(data))
	assert.Equal(t, 0.0, Covariance(data, []float64{1, 2, 3, 4, 5, 6, 7}))
	assert.False(t, IsConstant([]float64{1, 2}))
}
