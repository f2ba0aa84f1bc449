package formulas

import "math"

// HistoricalVaR returns the empirical Value at Risk at the given confidence
// as a positive loss magnitude: max(0, -quantile_{1-confidence}(returns)).
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return math.Max(0, -Quantile(returns, 1-confidence))
}

// HistoricalCVaR returns the mean of the returns at or below the historical
// VaR threshold, as a positive magnitude. It is 0 when nothing breaches.
func HistoricalCVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	threshold := -HistoricalVaR(returns, confidence)

	sum, n := 0.0, 0
	for _, r := range returns {
		if r <= threshold {
			sum += r
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Max(0, -sum/float64(n))
}
