package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMA(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		period   int
		expected float64
		ok       bool
	}{
		{
			name:   "insufficient data",
			values: []float64{1, 2, 3},
			period: 5,
			ok:     false,
		},
		{
			name:     "exactly period values returns seed mean",
			values:   []float64{1, 2, 3, 4, 5},
			period:   5,
			expected: 3,
			ok:       true,
		},
		{
			name:     "one value past the seed",
			values:   []float64{1, 2, 3, 4, 5, 6},
			period:   5,
			expected: 4, // 3 + (2/6)*(6-3)
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EMA(tt.values, tt.period)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.expected, got, 1e-9)
			}
		})
	}
}

func TestEMASeriesAlignment(t *testing.T) {
	series, start, ok := EMASeries([]float64{1, 2, 3, 4, 5}, 3)
	require.True(t, ok)
	assert.Equal(t, 2, start)
	assert.Len(t, series, 5)
	assert.InDelta(t, 2.0, series[2], 1e-9) // mean of first three
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		period   int
		expected float64
		ok       bool
	}{
		{
			name:   "insufficient data",
			values: []float64{100, 101, 102},
			period: 14,
			ok:     false,
		},
		{
			name:     "wilder smoothing reference case",
			values:   []float64{100, 102, 101, 103, 102, 104},
			period:   3,
			expected: 77.272727,
			ok:       true,
		},
		{
			name:     "all gains hits the zero-loss edge case",
			values:   []float64{100, 101, 102, 103, 104},
			period:   3,
			expected: 100,
			ok:       true,
		},
		{
			name:     "all losses",
			values:   []float64{104, 103, 102, 101, 100},
			period:   3,
			expected: 0,
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RSI(tt.values, tt.period)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.expected, got, 1e-4)
			}
		})
	}
}

func TestRSIBounded(t *testing.T) {
	// Pseudo-random walk; RSI must stay inside [0,100] for any input.
	values := make([]float64, 120)
	values[0] = 100
	for i := 1; i < len(values); i++ {
		step := float64((i*7919)%13) - 6
		values[i] = values[i-1] + step/10
	}
	got, ok := RSI(values, 14)
	require.True(t, ok)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 100.0)
}

func TestMACD(t *testing.T) {
	t.Run("insufficient data", func(t *testing.T) {
		values := make([]float64, 30)
		_, _, ok := MACD(values, 12, 26, 9)
		assert.False(t, ok)
	})

	t.Run("steady uptrend puts the line above the signal", func(t *testing.T) {
		values := make([]float64, 60)
		for i := range values {
			values[i] = 1.1000 + float64(i)*0.0008
		}
		line, signal, ok := MACD(values, 12, 26, 9)
		require.True(t, ok)
		assert.Greater(t, line, signal)
		assert.Greater(t, line, 0.0)
	})
}

func TestATR(t *testing.T) {
	t.Run("flat series has zero range", func(t *testing.T) {
		flat := make([]float64, 30)
		for i := range flat {
			flat[i] = 1.2345
		}
		got, ok := ATR(flat, flat, flat, 14)
		require.True(t, ok)
		assert.InDelta(t, 0.0, got, 1e-12)
	})

	t.Run("constant true range", func(t *testing.T) {
		highs := []float64{11, 12, 13}
		lows := []float64{9, 10, 11}
		closes := []float64{10, 11, 12}
		got, ok := ATR(highs, lows, closes, 2)
		require.True(t, ok)
		assert.InDelta(t, 2.0, got, 1e-9)
	})

	t.Run("insufficient data", func(t *testing.T) {
		_, ok := ATR([]float64{1, 2}, []float64{1, 2}, []float64{1, 2}, 14)
		assert.False(t, ok)
	})
}

func TestDeterminism(t *testing.T) {
	values := make([]float64, 80)
	for i := range values {
		values[i] = 1.1 + float64(i%17)*0.003
	}
	e1, _ := EMA(values, 20)
	e2, _ := EMA(values, 20)
	assert.Equal(t, e1, e2)

	r1, _ := RSI(values, 14)
	r2, _ := RSI(values, 14)
	assert.Equal(t, r1, r2)

	a1, _ := ATR(values, values, values, 14)
	a2, _ := ATR(values, values, values, 14)
	assert.Equal(t, a1, a2)
}
