package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestValueSeries_Returns(t *testing.T) {
	s, err := NewValueSeries([]time.Time{day(0), day(1), day(2), day(3)}, []float64{100, 110, 99, 121})
	require.NoError(t, err)

	r := s.Returns()
	require.Len(t, r, 3)
	assert.InDelta(t, 0.10, r[0].Value, 1e-12)
	assert.InDelta(t, -0.10, r[1].Value, 1e-12)
	assert.InDelta(t, 121.0/99.0-1, r[2].Value, 1e-12)
	assert.Equal(t, day(1), r[0].Time)
	assert.Equal(t, day(3), r[2].Time)
}

func TestValueSeries_ReturnsShortSeries(t *testing.T) {
	assert.Empty(t, ValueSeries{}.Returns())
	assert.Empty(t, ValueSeries{{Time: day(0), Value: 1}}.Returns())
}

func TestNewValueSeries_LengthMismatch(t *testing.T) {
	_, err := NewValueSeries([]time.Time{day(0)}, []float64{1, 2})
	assert.True(t, errors.Is(err, ErrInputShape))
}

func TestValueSeries_Validate(t *testing.T) {
	tests := []struct {
		name    string
		series  ValueSeries
		wantErr bool
	}{
		{"valid", ValueSeries{{day(0), 1}, {day(1), 2}}, false},
		{"empty", ValueSeries{}, false},
		{"duplicate timestamp", ValueSeries{{day(0), 1}, {day(0), 2}}, true},
		{"unsorted", ValueSeries{{day(1), 1}, {day(0), 2}}, true},
		{"zero value", ValueSeries{{day(0), 0}}, true},
		{"negative value", ValueSeries{{day(0), -5}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInputShape))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValueSeries_ForwardFill(t *testing.T) {
	bench := ValueSeries{{day(1), 10}, {day(3), 12}}

	filled := bench.ForwardFill([]time.Time{day(0), day(1), day(2), day(3), day(4)})

	require.Len(t, filled, 4)
	assert.Equal(t, day(1), filled[0].Time)
	assert.Equal(t, 10.0, filled[1].Value)
	assert.Equal(t, 12.0, filled[2].Value)
	assert.Equal(t, 12.0, filled[3].Value)
}

func TestMetricsRecord_NullsAndMerge(t *testing.T) {
	m := MetricsRecord{}
	m.Set(KeyBeta, 1.2)
	m.SetNull(KeyAlpha)

	v, ok := m.Get(KeyBeta)
	assert.True(t, ok)
	assert.Equal(t, 1.2, v)

	_, ok = m.Get(KeyAlpha)
	assert.False(t, ok)
	assert.Contains(t, m, KeyAlpha)

	other := MetricsRecord{}
	other.Set(KeyBeta, 0.5)
	m.Merge(other)
	*other[KeyBeta] = 9
	assert.Equal(t, 0.5, m.Value(KeyBeta))
	assert.Equal(t, []string{KeyAlpha, KeyBeta}, m.Keys())
}

func TestFrame_CloneAndSeries(t *testing.T) {
	frame := Frame{
		Times:   []time.Time{day(0), day(1)},
		Columns: map[string][]float64{"price": {10, 11}, "volume": {5, 6}},
	}
	require.NoError(t, frame.Validate())
	assert.Equal(t, []string{"price", "volume"}, frame.Names())

	clone := frame.Clone()
	clone.Columns["price"][0] = 99
	assert.Equal(t, 10.0, frame.Columns["price"][0])

	s, err := frame.Series("price")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11}, s.Values())

	_, err = frame.Series("missing")
	assert.ErrorIs(t, err, ErrInputShape)

	frame.Columns["bad"] = []float64{1}
	assert.ErrorIs(t, frame.Validate(), ErrInputShape)
}
