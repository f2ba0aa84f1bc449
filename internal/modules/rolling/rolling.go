// Package rolling computes trailing-window statistics of a return series for
// charting.
package rolling

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/pkg/formulas"
)

// Frame is a columnar table aligned with the input return timestamps. The
// first window-1 slots of every column are nil.
type Frame struct {
	Window      int         `json:"window"`
	Times       []time.Time `json:"times"`
	Return      []*float64  `json:"rolling_return"`
	Volatility  []*float64  `json:"rolling_volatility"`
	Sharpe      []*float64  `json:"rolling_sharpe"`
	MaxDrawdown []*float64  `json:"rolling_max_drawdown"`
}

// Len returns the number of rows.
func (f Frame) Len() int { return len(f.Times) }

func newFrame(times []time.Time, window int) Frame {
	n := len(times)
	return Frame{
		Window:      window,
		Times:       times,
		Return:      make([]*float64, n),
		Volatility:  make([]*float64, n),
		Sharpe:      make([]*float64, n),
		MaxDrawdown: make([]*float64, n),
	}
}

// Compute evaluates each statistic over the trailing window of returns. A
// window longer than the series, or below 1, produces an all-nil frame of
// the same length.
func Compute(returns domain.ReturnSeries, window, periodsPerYear int) Frame {
	frame := newFrame(returns.Times(), window)
	n := len(returns)
	if window < 1 || window > n {
		return frame
	}

	values := returns.Values()
	mean := values
	if window > 1 {
		mean = talib.Sma(values, window)
	}
	annualiser := math.Sqrt(float64(periodsPerYear))

	for t := window - 1; t < n; t++ {
		slice := values[t-window+1 : t+1]

		m := mean[t]
		vol := formulas.StdDev(slice) * annualiser
		sharpe := formulas.SafeDiv(m*float64(periodsPerYear), vol)
		mdd := formulas.MaxDrawdown(slice)

		frame.Return[t] = ptr(m)
		frame.Volatility[t] = ptr(vol)
		frame.Sharpe[t] = ptr(sharpe)
		frame.MaxDrawdown[t] = ptr(mdd)
	}
	return frame
}

// SharpeSeries returns the non-nil rolling Sharpe values as a series.
func (f Frame) SharpeSeries() domain.ReturnSeries {
	out := make(domain.ReturnSeries, 0, len(f.Times))
	for i, v := range f.Sharpe {
		if v != nil {
			out = append(out, domain.Point{Time: f.Times[i], Value: *v})
		}
	}
	return out
}

func ptr(v float64) *float64 {
	v = domain.Finite(v)
	return &v
}
