package performance

import (
	"math"
	"time"

	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/pkg/formulas"
)

// DailyStats summarises per-period returns.
type DailyStats struct {
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	PositivePct float64 `json:"positive_pct"`
	Best        float64 `json:"best"`
	Worst       float64 `json:"worst"`
}

// PeriodAnalysis breaks a return series down by calendar period. Compounded
// period returns are stamped with the last timestamp of their period.
type PeriodAnalysis struct {
	Daily     DailyStats          `json:"daily"`
	Monthly   domain.ReturnSeries `json:"monthly"`
	Quarterly domain.ReturnSeries `json:"quarterly"`
	Annual    domain.ReturnSeries `json:"annual"`
	Weekday   map[string]float64  `json:"day_of_week"`
}

// ByPeriod computes the calendar breakdown of returns.
func ByPeriod(returns domain.ReturnSeries) PeriodAnalysis {
	analysis := PeriodAnalysis{
		Monthly:   domain.ReturnSeries{},
		Quarterly: domain.ReturnSeries{},
		Annual:    domain.ReturnSeries{},
		Weekday:   map[string]float64{},
	}
	if len(returns) == 0 {
		return analysis
	}

	values := returns.Values()
	positive := 0
	best, worst := math.Inf(-1), math.Inf(1)
	for _, r := range values {
		if r > 0 {
			positive++
		}
		best = math.Max(best, r)
		worst = math.Min(worst, r)
	}
	analysis.Daily = DailyStats{
		Mean:        formulas.Mean(values),
		Std:         formulas.StdDev(values),
		PositivePct: float64(positive) / float64(len(values)),
		Best:        best,
		Worst:       worst,
	}

	analysis.Monthly = Compound(returns, monthKey)
	analysis.Quarterly = Compound(returns, quarterKey)
	analysis.Annual = Compound(returns, yearKey)

	sums := map[time.Weekday]float64{}
	counts := map[time.Weekday]int{}
	for _, p := range returns {
		wd := p.Time.Weekday()
		sums[wd] += p.Value
		counts[wd]++
	}
	for wd, n := range counts {
		analysis.Weekday[wd.String()] = sums[wd] / float64(n)
	}
	return analysis
}

// Compound groups consecutive returns sharing a period key and compounds
// each group into one return.
func Compound(returns domain.ReturnSeries, key func(time.Time) int) domain.ReturnSeries {
	out := domain.ReturnSeries{}
	if len(returns) == 0 {
		return out
	}

	current := key(returns[0].Time)
	growth := 1.0
	last := returns[0].Time
	for _, p := range returns {
		if k := key(p.Time); k != current {
			out = append(out, domain.Point{Time: last, Value: growth - 1})
			current, growth = k, 1.0
		}
		growth *= 1 + p.Value
		last = p.Time
	}
	return append(out, domain.Point{Time: last, Value: growth - 1})
}

// MonthlyReturns compounds returns by calendar month.
func MonthlyReturns(returns domain.ReturnSeries) domain.ReturnSeries {
	return Compound(returns, monthKey)
}

func monthKey(t time.Time) int   { return t.Year()*12 + int(t.Month()) - 1 }
func quarterKey(t time.Time) int { return t.Year()*4 + (int(t.Month())-1)/3 }
func yearKey(t time.Time) int    { return t.Year() }
