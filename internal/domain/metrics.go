package domain

import (
	"math"
	"sort"
)

// Metric keys used in MetricsRecord.
const (
	KeyTotalReturn         = "total_return"
	KeyAnnualReturn        = "annual_return"
	KeyVolatility          = "volatility"
	KeyDownsideVolatility  = "downside_volatility"
	KeySharpeRatio         = "sharpe_ratio"
	KeySortinoRatio        = "sortino_ratio"
	KeyMaxDrawdown         = "max_drawdown"
	KeyVaR95               = "var_95"
	KeyCVaR95              = "cvar_95"
	KeyBeta                = "beta"
	KeyAlpha               = "alpha"
	KeyInformationRatio    = "information_ratio"
	KeyTrackingError       = "tracking_error"
	KeyBenchmarkReturn     = "benchmark_return"
	KeyAvgDrawdown         = "avg_drawdown"
	KeyAvgDrawdownDuration = "avg_drawdown_duration"
	KeyNumDrawdowns        = "num_drawdowns"
	KeySkewness            = "skewness"
	KeyKurtosis            = "kurtosis"
	KeyJarqueBera          = "jarque_bera"
	KeyNormalityPValue     = "normality_pvalue"
)

// MetricsRecord maps a metric name to a scalar. A nil value is a null result.
type MetricsRecord map[string]*float64

// Set stores v under key.
func (m MetricsRecord) Set(key string, v float64) {
	m[key] = &v
}

// SetNull stores an explicit null under key.
func (m MetricsRecord) SetNull(key string) {
	m[key] = nil
}

// Get returns the value under key and whether it is present and non-null.
func (m MetricsRecord) Get(key string) (float64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Value returns the value under key, or 0 when absent or null.
func (m MetricsRecord) Value(key string) float64 {
	v, _ := m.Get(key)
	return v
}

// Merge copies every entry of other into m, overwriting existing keys.
func (m MetricsRecord) Merge(other MetricsRecord) {
	for k, v := range other {
		if v == nil {
			m[k] = nil
			continue
		}
		c := *v
		m[k] = &c
	}
}

// Keys returns the metric names in sorted order.
func (m MetricsRecord) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Finite returns 0 for NaN and ±Inf so that records never carry
// non-serialisable values.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
