// Package performance provides descriptive return statistics, calendar
// breakdowns and side-by-side strategy comparison.
package performance

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/pkg/formulas"
)

// ReturnsStats describes the distribution of a return series: total and
// annual return, volatility, Sharpe, skewness, excess kurtosis and the
// Jarque-Bera normality test. Non-finite results are reported as 0.
func ReturnsStats(returns []float64, periodsPerYear int) domain.MetricsRecord {
	rec := domain.MetricsRecord{}
	if len(returns) == 0 {
		return rec
	}
	if periodsPerYear <= 0 {
		periodsPerYear = 252
	}

	growth := formulas.CumulativeGrowth(returns)
	total := growth[len(growth)-1] - 1
	annual := formulas.GeometricAnnualReturn(total, len(returns), periodsPerYear)
	vol := formulas.AnnualizedVolatility(returns, periodsPerYear)
	skew := formulas.Skewness(returns)
	kurt := formulas.ExcessKurtosis(returns)
	jb, pvalue := JarqueBera(returns)

	set(rec, domain.KeyTotalReturn, total)
	set(rec, domain.KeyAnnualReturn, annual)
	set(rec, domain.KeyVolatility, vol)
	set(rec, domain.KeySharpeRatio, formulas.SafeDiv(annual, vol))
	set(rec, domain.KeySkewness, skew)
	set(rec, domain.KeyKurtosis, kurt)
	set(rec, domain.KeyJarqueBera, jb)
	set(rec, domain.KeyNormalityPValue, pvalue)
	return rec
}

// JarqueBera returns the statistic n/6·(S² + K²/4) and its p-value under a
// chi-squared distribution with two degrees of freedom.
func JarqueBera(returns []float64) (float64, float64) {
	n := float64(len(returns))
	if n < 4 || formulas.IsConstant(returns) {
		return 0, 1
	}
	s := formulas.Skewness(returns)
	k := formulas.ExcessKurtosis(returns)
	jb := domain.Finite(n / 6 * (s*s + k*k/4))
	return jb, domain.Finite(distuv.ChiSquared{K: 2}.Survival(jb))
}

func set(rec domain.MetricsRecord, key string, v float64) {
	rec.Set(key, domain.Finite(v))
}
