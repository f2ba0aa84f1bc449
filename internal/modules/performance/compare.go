package performance

import (
	"sort"

	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/internal/modules/metrics"
	"github.com/AlgoGators/algosystem/pkg/formulas"
)

// Comparison lines several strategies up against each other.
type Comparison struct {
	Names   []string                        `json:"names"`
	Metrics map[string]domain.MetricsRecord `json:"metrics"`
	// Correlation[i][j] is the return correlation of Names[i] and Names[j]
	// over the timestamps every strategy shares.
	Correlation [][]float64 `json:"correlation"`
}

// Compare computes per-strategy metrics and the pairwise return correlation.
func Compare(strategies map[string]domain.ValueSeries, opts metrics.Options) Comparison {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	calc := metrics.NewCalculator()
	cmp := Comparison{
		Names:       names,
		Metrics:     make(map[string]domain.MetricsRecord, len(names)),
		Correlation: make([][]float64, len(names)),
	}
	for _, name := range names {
		cmp.Metrics[name] = calc.Compute(strategies[name], nil, opts)
	}

	aligned := commonReturns(names, strategies)
	for i := range names {
		cmp.Correlation[i] = make([]float64, len(names))
		for j := range names {
			if i == j {
				cmp.Correlation[i][j] = 1
				continue
			}
			cmp.Correlation[i][j] = formulas.Correlation(aligned[i], aligned[j])
		}
	}
	return cmp
}

// commonReturns returns, per strategy, the returns at the timestamps present
// in every strategy's return series.
func commonReturns(names []string, strategies map[string]domain.ValueSeries) [][]float64 {
	counts := map[int64]int{}
	byName := make([]map[int64]float64, len(names))
	for i, name := range names {
		byName[i] = map[int64]float64{}
		for _, p := range strategies[name].Returns() {
			key := p.Time.UnixNano()
			byName[i][key] = p.Value
			counts[key]++
		}
	}

	shared := make([]int64, 0, len(counts))
	for key, n := range counts {
		if n == len(names) {
			shared = append(shared, key)
		}
	}
	sort.Slice(shared, func(a, b int) bool { return shared[a] < shared[b] })

	out := make([][]float64, len(names))
	for i := range names {
		out[i] = make([]float64, len(shared))
		for k, key := range shared {
			out[i][k] = byName[i][key]
		}
	}
	return out
}
