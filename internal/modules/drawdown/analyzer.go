// Package drawdown segments an equity curve into drawdown episodes and
// reports aggregate drawdown statistics.
package drawdown

import (
	"sort"
	"time"

	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/pkg/formulas"
)

// DefaultTopN is the number of deepest episodes reported by default.
const DefaultTopN = 3

// Episode is a maximal run of periods spent strictly below the running peak.
type Episode struct {
	Start time.Time `json:"start" msgpack:"start"`
	// End is the recovery timestamp, or the final timestamp for an open episode.
	End      time.Time  `json:"end" msgpack:"end"`
	Recovery *time.Time `json:"recovery,omitempty" msgpack:"recovery,omitempty"`
	Depth    float64    `json:"depth" msgpack:"depth"`
	Duration int        `json:"duration" msgpack:"duration"`
}

// Recovered reports whether the curve climbed back to its peak.
func (e Episode) Recovered() bool { return e.Recovery != nil }

// Analysis is the result of Analyze.
type Analysis struct {
	Episodes    []Episode `json:"episodes"`
	Top         []Episode `json:"top"`
	AvgDepth    float64   `json:"avg_depth"`
	AvgDuration float64   `json:"avg_duration"`
	Count       int       `json:"count"`
}

// Records exports the aggregate statistics under their metric names.
func (a Analysis) Records() domain.MetricsRecord {
	rec := domain.MetricsRecord{}
	rec.Set(domain.KeyAvgDrawdown, a.AvgDepth)
	rec.Set(domain.KeyAvgDrawdownDuration, a.AvgDuration)
	rec.Set(domain.KeyNumDrawdowns, float64(a.Count))
	return rec
}

// Path returns the drawdown path d_t indexed by the return timestamps of values.
func Path(values domain.ValueSeries) domain.ReturnSeries {
	returns := values.Returns()
	path := formulas.DrawdownPath(returns.Values())
	out := make(domain.ReturnSeries, len(returns))
	for i, p := range returns {
		out[i] = domain.Point{Time: p.Time, Value: path[i]}
	}
	return out
}

// Analyze detects every drawdown episode in values. Episodes are listed in
// chronological order; Top holds the topN deepest (topN ≤ 0 means DefaultTopN).
func Analyze(values domain.ValueSeries, topN int) Analysis {
	if topN <= 0 {
		topN = DefaultTopN
	}

	episodes := Episodes(Path(values))

	ranked := make([]Episode, len(episodes))
	copy(ranked, episodes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Depth < ranked[j].Depth
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	analysis := Analysis{
		Episodes: episodes,
		Top:      ranked,
		Count:    len(episodes),
	}
	if len(episodes) > 0 {
		var depth, duration float64
		for _, e := range episodes {
			depth += e.Depth
			duration += float64(e.Duration)
		}
		analysis.AvgDepth = depth / float64(len(episodes))
		analysis.AvgDuration = duration / float64(len(episodes))
	}
	return analysis
}

// Episodes scans a drawdown path for underwater runs.
func Episodes(path domain.ReturnSeries) []Episode {
	episodes := []Episode{}
	var current *Episode

	for _, p := range path {
		if p.Value < 0 {
			if current == nil {
				current = &Episode{Start: p.Time, Depth: p.Value}
			}
			if p.Value < current.Depth {
				current.Depth = p.Value
			}
			current.Duration++
			continue
		}
		if current != nil {
			recovery := p.Time
			current.End = recovery
			current.Recovery = &recovery
			episodes = append(episodes, *current)
			current = nil
		}
	}

	if current != nil {
		current.End = path[len(path)-1].Time
		episodes = append(episodes, *current)
	}
	return episodes
}
