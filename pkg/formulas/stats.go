// Package formulas provides the statistical primitives shared by the
// analytics modules. Every function is pure and tolerates empty input.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (n-1 denominator).
// Fewer than two observations, or a constant sample, yield exactly 0.
func StdDev(data []float64) float64 {
	if len(data) < 2 || IsConstant(data) {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance (n-1 denominator).
func Variance(data []float64) float64 {
	if len(data) < 2 || IsConstant(data) {
		return 0
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the sample covariance between two datasets
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) || IsConstant(x) || IsConstant(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Correlation calculates the Pearson correlation coefficient between two datasets.
// Zero-variance inputs yield 0 instead of NaN.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) || IsConstant(x) || IsConstant(y) {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}

// IsConstant reports whether every element equals the first. Summation
// rounding would otherwise leave a constant sample with a tiny non-zero
// dispersion.
func IsConstant(data []float64) bool {
	for _, v := range data {
		if v != data[0] {
			return false
		}
	}
	return true
}

// Skewness calculates the bias-corrected sample skewness.
func Skewness(data []float64) float64 {
	if len(data) < 3 || IsConstant(data) {
		return 0
	}
	return finite(stat.Skew(data, nil))
}

// ExcessKurtosis calculates the bias-corrected sample excess kurtosis.
func ExcessKurtosis(data []float64) float64 {
	if len(data) < 4 || IsConstant(data) {
		return 0
	}
	return finite(stat.ExKurtosis(data, nil))
}

// AnnualizedVolatility annualizes the sample standard deviation of periodic returns.
// Formula: StdDev(returns) * sqrt(periodsPerYear)
func AnnualizedVolatility(returns []float64, periodsPerYear int) float64 {
	return StdDev(returns) * math.Sqrt(float64(periodsPerYear))
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// GeometricAnnualReturn annualizes a total return earned over numPeriods
// evenly spaced periods: (1+total)^(periodsPerYear/numPeriods) - 1.
func GeometricAnnualReturn(totalReturn float64, numPeriods, periodsPerYear int) float64 {
	if numPeriods <= 0 {
		return 0
	}
	return finite(math.Pow(1+totalReturn, float64(periodsPerYear)/float64(numPeriods)) - 1)
}

// Quantile returns the q-quantile (0 ≤ q ≤ 1) of data using linear
// interpolation between order statistics at position q*(n-1).
func Quantile(data []float64, q float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return QuantileSorted(sorted, q)
}

// QuantileSorted is Quantile for data already sorted ascending.
func QuantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	pos := q * float64(n-1)
	lower := int(math.Floor(pos))
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// SafeDiv returns num/den, or 0 when den is zero or the result is not finite.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return finite(num / den)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
