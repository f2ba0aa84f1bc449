package domain

import (
	"fmt"
	"sort"
	"time"
)

// Frame is a set of named numeric columns sharing one timestamp index, such
// as the open/high/low/close fields of a price history.
type Frame struct {
	Times   []time.Time          `json:"times"`
	Columns map[string][]float64 `json:"columns"`
}

// Validate checks that every column matches the index length.
func (f Frame) Validate() error {
	for name, col := range f.Columns {
		if len(col) != len(f.Times) {
			return fmt.Errorf("%w: column %q has %d rows, index has %d", ErrInputShape, name, len(col), len(f.Times))
		}
	}
	return nil
}

// Names lists the column names in sorted order.
func (f Frame) Names() []string {
	names := make([]string, 0, len(f.Columns))
	for name := range f.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Column returns the named column.
func (f Frame) Column(name string) ([]float64, bool) {
	col, ok := f.Columns[name]
	return col, ok
}

// Clone deep-copies the frame so a caller can modify columns freely.
func (f Frame) Clone() Frame {
	out := Frame{
		Times:   append([]time.Time(nil), f.Times...),
		Columns: make(map[string][]float64, len(f.Columns)),
	}
	for name, col := range f.Columns {
		out.Columns[name] = append([]float64(nil), col...)
	}
	return out
}

// Series extracts one column as a ValueSeries.
func (f Frame) Series(column string) (ValueSeries, error) {
	col, ok := f.Columns[column]
	if !ok {
		return nil, fmt.Errorf("%w: unknown column %q", ErrInputShape, column)
	}
	return NewValueSeries(f.Times, col)
}
