// Package series turns a raw price or capital series into the equity curve
// the analytics modules consume.
package series

import (
	"fmt"
	"time"

	"github.com/AlgoGators/algosystem/internal/domain"
)

// Options restricts and rebases a raw series. Nil fields fall back to the
// series' own bounds and first value.
type Options struct {
	Start          *time.Time
	End            *time.Time
	InitialCapital *float64
}

// Normalize filters raw to [Start, End] inclusive and rebases it so that the
// first retained point equals InitialCapital:
//
//	out_t = initial_capital * raw_t / raw_0
//
// raw is never modified.
func Normalize(raw domain.ValueSeries, opts Options) (domain.ValueSeries, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	filtered := make(domain.ValueSeries, 0, len(raw))
	for _, p := range raw {
		if opts.Start != nil && p.Time.Before(*opts.Start) {
			continue
		}
		if opts.End != nil && p.Time.After(*opts.End) {
			continue
		}
		filtered = append(filtered, p)
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w: no observations between %s and %s", domain.ErrEmptyRange, bound(opts.Start), bound(opts.End))
	}

	if opts.InitialCapital == nil {
		return filtered, nil
	}
	capital := *opts.InitialCapital
	if !(capital > 0) {
		return nil, fmt.Errorf("%w: initial capital must be positive, got %v", domain.ErrInputShape, capital)
	}

	base := filtered[0].Value
	out := make(domain.ValueSeries, len(filtered))
	for i, p := range filtered {
		out[i] = domain.Point{Time: p.Time, Value: capital * p.Value / base}
	}
	return out, nil
}

func bound(t *time.Time) string {
	if t == nil {
		return "open"
	}
	return t.Format(time.RFC3339)
}
