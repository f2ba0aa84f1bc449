package rolling

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlgoGators/algosystem/internal/domain"
)

func returnsOf(values ...float64) domain.ReturnSeries {
	out := make(domain.ReturnSeries, len(values))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		out[i] = domain.Point{Time: base.AddDate(0, 0, i+1), Value: v}
	}
	return out
}

func TestCompute_WindowLongerThanSeries(t *testing.T) {
	frame := Compute(returnsOf(0.01, 0.02, -0.01), 5, 252)

	require.Equal(t, 3, frame.Len())
	for i := 0; i < 3; i++ {
		assert.Nil(t, frame.Return[i])
		assert.Nil(t, frame.Volatility[i])
		assert.Nil(t, frame.Sharpe[i])
		assert.Nil(t, frame.MaxDrawdown[i])
	}
}

func TestCompute_LeftPaddedWithNil(t *testing.T) {
	returns := returnsOf(0.01, 0.02, -0.01, 0.03, -0.02)
	frame := Compute(returns, 3, 252)

	require.Len(t, frame.Return, 5)
	assert.Nil(t, frame.Return[0])
	assert.Nil(t, frame.Return[1])
	require.NotNil(t, frame.Return[2])

	assert.InDelta(t, (0.01+0.02-0.01)/3, *frame.Return[2], 1e-12)
	assert.InDelta(t, (0.02-0.01+0.03)/3, *frame.Return[3], 1e-12)
	assert.InDelta(t, (-0.01+0.03-0.02)/3, *frame.Return[4], 1e-12)
	assert.Equal(t, returns.Times(), frame.Times)
}

func TestCompute_VolatilityAndSharpe(t *testing.T) {
	frame := Compute(returnsOf(0.01, 0.03), 2, 252)

	// sample std of {0.01, 0.03} is sqrt(0.0002)
	expectedVol := math.Sqrt(0.0002) * math.Sqrt(252)
	require.NotNil(t, frame.Volatility[1])
	assert.InDelta(t, expectedVol, *frame.Volatility[1], 1e-12)
	assert.InDelta(t, 0.02*252/expectedVol, *frame.Sharpe[1], 1e-9)
}

func TestCompute_ZeroVolatilitySharpeIsZero(t *testing.T) {
	frame := Compute(returnsOf(0.01, 0.01, 0.01), 3, 252)

	require.NotNil(t, frame.Sharpe[2])
	assert.Equal(t, 0.0, *frame.Volatility[2])
	assert.Equal(t, 0.0, *frame.Sharpe[2])
}

func TestCompute_DrawdownResetsAtWindowStart(t *testing.T) {
	// a deep early loss must not leak into later windows
	frame := Compute(returnsOf(-0.5, 0.1, 0.1, -0.05, 0.1), 2, 252)

	assert.InDelta(t, -0.5, *frame.MaxDrawdown[1], 1e-12)
	assert.InDelta(t, 0.0, *frame.MaxDrawdown[2], 1e-12)
	assert.InDelta(t, -0.05, *frame.MaxDrawdown[3], 1e-12)
	assert.InDelta(t, -0.05, *frame.MaxDrawdown[4], 1e-12)
}

func TestCompute_WindowOfOne(t *testing.T) {
	frame := Compute(returnsOf(0.02, -0.01), 1, 252)

	assert.InDelta(t, 0.02, *frame.Return[0], 1e-12)
	assert.InDelta(t, -0.01, *frame.MaxDrawdown[1], 1e-12)
	assert.Len(t, frame.SharpeSeries(), 2)
}
