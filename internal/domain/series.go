// Package domain holds the value types shared by the analytics modules.
package domain

import (
	"fmt"
	"time"
)

// Point is a single timestamped observation.
type Point struct {
	Time  time.Time `json:"time" msgpack:"time"`
	Value float64   `json:"value" msgpack:"value"`
}

// ValueSeries is an ordered sequence of portfolio values or price levels.
// Timestamps are strictly increasing and values are positive.
type ValueSeries []Point

// ReturnSeries holds fractional period returns. It is always derived from a
// ValueSeries and is one element shorter than its source.
type ReturnSeries []Point

// NewValueSeries zips timestamps and values into a series.
func NewValueSeries(times []time.Time, values []float64) (ValueSeries, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps for %d values", ErrInputShape, len(times), len(values))
	}
	out := make(ValueSeries, len(times))
	for i := range times {
		out[i] = Point{Time: times[i], Value: values[i]}
	}
	return out, nil
}

// Validate checks the ordering and positivity contract.
func (s ValueSeries) Validate() error {
	for i, p := range s {
		if !(p.Value > 0) {
			return fmt.Errorf("%w: non-positive value %v at %s", ErrInputShape, p.Value, p.Time.Format(time.RFC3339))
		}
		if i > 0 && !p.Time.After(s[i-1].Time) {
			return fmt.Errorf("%w: timestamps not strictly increasing at index %d", ErrInputShape, i)
		}
	}
	return nil
}

// Values returns a copy of the series values.
func (s ValueSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Times returns a copy of the series timestamps.
func (s ValueSeries) Times() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Time
	}
	return out
}

// First returns the first point. The series must not be empty.
func (s ValueSeries) First() Point { return s[0] }

// Last returns the last point. The series must not be empty.
func (s ValueSeries) Last() Point { return s[len(s)-1] }

// Returns derives r_t = v_t/v_{t-1} - 1, stamped with the later timestamp.
func (s ValueSeries) Returns() ReturnSeries {
	if len(s) < 2 {
		return ReturnSeries{}
	}
	out := make(ReturnSeries, len(s)-1)
	for i := 1; i < len(s); i++ {
		r := 0.0
		if s[i-1].Value != 0 {
			r = s[i].Value/s[i-1].Value - 1
		}
		out[i-1] = Point{Time: s[i].Time, Value: r}
	}
	return out
}

// Values returns a copy of the returns.
func (r ReturnSeries) Values() []float64 {
	out := make([]float64, len(r))
	for i, p := range r {
		out[i] = p.Value
	}
	return out
}

// Times returns a copy of the return timestamps.
func (r ReturnSeries) Times() []time.Time {
	out := make([]time.Time, len(r))
	for i, p := range r {
		out[i] = p.Time
	}
	return out
}

// ForwardFill aligns s onto the given timestamps, carrying the last known
// value forward. Timestamps before the first observation of s are dropped
// from the result, matching a pandas reindex(method="ffill") followed by
// dropna.
func (s ValueSeries) ForwardFill(times []time.Time) ValueSeries {
	out := make(ValueSeries, 0, len(times))
	j := -1
	for _, t := range times {
		for j+1 < len(s) && !s[j+1].Time.After(t) {
			j++
		}
		if j < 0 {
			continue
		}
		out = append(out, Point{Time: t, Value: s[j].Value})
	}
	return out
}
