package drawdown

import (
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

func TestAnalyze_SingleEpisode(t *testing.T) {
	a := Analyze(series(100, 110, 99, 121), 0)

	require.Equal(t, 1, a.Count)
	ep := a.Episodes[0]
	assert.Equal(t, day(2), ep.Start)
	assert.Equal(t, day(3), ep.End)
	require.NotNil(t, ep.Recovery)
	assert.Equal(t, day(3), *ep.Recovery)
	assert.InDelta(t, -0.10, ep.Depth, 1e-12)
	assert.Equal(t, 1, ep.Duration)
	assert.InDelta(t, -0.10, a.AvgDepth, 1e-12)
	assert.InDelta(t, 1.0, a.AvgDuration, 1e-12)
}

func TestAnalyze_TwoPoints(t *testing.T) {
	tests := []struct {
		name     string
		v0, v1   float64
		episodes int
	}{
		{name: "gain", v0: 100, v1: 105, episodes: 0},
		{name: "flat", v0: 100, v1: 100, episodes: 0},
		{name: "loss", v0: 100, v1: 80, episodes: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Analyze(series(tt.v0, tt.v1), 3)
			require.Equal(t, tt.episodes, a.Count)
			if tt.episodes == 1 {
				assert.InDelta(t, tt.v1/tt.v0-1, a.Episodes[0].Depth, 1e-12)
				assert.Equal(t, 1, a.Episodes[0].Duration)
				assert.False(t, a.Episodes[0].Recovered())
				assert.Equal(t, day(1), a.Episodes[0].End)
			}
		})
	}
}

func TestAnalyze_OpenEpisodeClosesAtLastTimestamp(t *testing.T) {
	a := Analyze(series(100, 120, 110, 100, 105), 3)

	require.Equal(t, 1, a.Count)
	ep := a.Episodes[0]
	assert.Equal(t, day(2), ep.Start)
	assert.Equal(t, day(4), ep.End)
	assert.Nil(t, ep.Recovery)
	assert.Equal(t, 3, ep.Duration)
	assert.InDelta(t, 100.0/120.0-1, ep.Depth, 1e-12)
}

func TestAnalyze_RankingIsStableAndSliced(t *testing.T) {
	// episodes of -50%, -75%, -50%, then a shallow -12.5%
	a := Analyze(series(64, 32, 128, 32, 256, 128, 512, 448, 1024), 2)

	require.Equal(t, 4, a.Count)
	require.Len(t, a.Top, 2)
	assert.Equal(t, -0.75, a.Top[0].Depth)
	assert.Equal(t, -0.5, a.Top[1].Depth)
	// tie between the two -50% episodes keeps chronological order
	assert.Equal(t, day(1), a.Top[1].Start)

	// chronological listing is untouched by ranking
	assert.Equal(t, day(1), a.Episodes[0].Start)
	assert.Equal(t, day(3), a.Episodes[1].Start)
}

func TestAnalyze_NoEpisodes(t *testing.T) {
	a := Analyze(series(100, 101, 102), 3)

	assert.Equal(t, 0, a.Count)
	assert.Empty(t, a.Episodes)
	assert.Empty(t, a.Top)
	assert.Equal(t, 0.0, a.AvgDepth)
	assert.Equal(t, 0.0, a.AvgDuration)

	empty := Analyze(nil, 3)
	assert.Equal(t, 0, empty.Count)
}

func TestEpisodes_MatchBruteForceScan(t *testing.T) {
	values := series(100, 95, 97, 101, 99, 98, 102, 90, 91, 89)
	path := Path(values)
	episodes := Episodes(path)

	underwater := 0
	for _, p := range path {
		if p.Value < 0 {
			underwater++
		}
	}
	total := 0
	for _, e := range episodes {
		total += e.Duration
	}
	assert.Equal(t, underwater, total)

	// consecutive episodes never overlap
	for i := 1; i < len(episodes); i++ {
		assert.False(t, episodes[i].Start.Before(episodes[i-1].End))
	}
}

func TestRecords(t *testing.T) {
	rec := Analyze(series(100, 110, 99, 121), 3).Records()

	assert.InDelta(t, -0.10, rec.Value(domain.KeyAvgDrawdown), 1e-12)
	assert.InDelta(t, 1.0, rec.Value(domain.KeyAvgDrawdownDuration), 1e-12)
	assert.InDelta(t, 1.0, rec.Value(domain.KeyNumDrawdowns), 1e-12)
}
