package ta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	assert.InDelta(t, 4.0, SMA([]float64{1, 2, 3, 4, 5}, 3), 1e-12)
	assert.True(t, math.IsNaN(SMA([]float64{1, 2}, 3)))
}

func TestSMASeriesMatchesSMA(t *testing.T) {
	vals := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}
	s := SMASeries(vals, 4)
	require.Len(t, s, len(vals))
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(s[i]))
	}
	for i := 3; i < len(vals); i++ {
		assert.InDelta(t, SMA(vals[:i+1], 4), s[i], 1e-12)
	}
}

func TestEMASeries(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	s := EMASeries(vals, 3)
	assert.True(t, math.IsNaN(s[0]))
	assert.True(t, math.IsNaN(s[1]))
	// alpha 0.5: 1, 1.5, 2.25, 3.125, 4.0625
	assert.InDelta(t, 2.25, s[2], 1e-12)
	assert.InDelta(t, 4.0625, s[4], 1e-12)
	assert.InDelta(t, 4.0625, EMA(vals, 3), 1e-12)
	assert.True(t, math.IsNaN(EMA(nil, 3)))
}

func TestVWAPSeries(t *testing.T) {
	highs := []float64{3, 6, 9}
	lows := []float64{3, 6, 9}
	closes := []float64{3, 6, 9}
	vols := []float64{1, 1, 2}

	s := VWAPSeries(highs, lows, closes, vols, 2)
	assert.True(t, math.IsNaN(s[0]))
	assert.InDelta(t, 4.5, s[1], 1e-12)
	assert.InDelta(t, 8.0, s[2], 1e-12)

	bad := VWAPSeries(highs, lows, closes, vols[:2], 2)
	assert.True(t, math.IsNaN(bad[2]))
}

func TestBollingerSeries(t *testing.T) {
	closes := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	up, low := BollingerSeries(closes, 8, 2)
	// population sd of the set is 2, mean 5
	assert.InDelta(t, 9.0, up[7], 1e-12)
	assert.InDelta(t, 1.0, low[7], 1e-12)
	assert.True(t, math.IsNaN(up[6]))
}

func TestRSIAllGains(t *testing.T) {
	assert.Equal(t, 100.0, RSI([]float64{1, 2, 3, 4, 5}, 4))
}

func TestATR(t *testing.T) {
	highs := []float64{10, 11, 12}
	lows := []float64{9, 10, 11}
	closes := []float64{9.5, 10.5, 11.5}
	assert.InDelta(t, 1.5, ATR(highs, lows, closes, 2), 1e-12)
	assert.True(t, math.IsNaN(ATR(highs, lows, closes[:2], 2)))
}

func TestRSISeriesWarmup(t *testing.T) {
	out := RSISeries([]float64{1, 2, 3, 2, 3}, 2)
	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, 100.0, out[2])
	assert.InDelta(t, 50.0, out[3], 1e-12)
}

func TestATRSeriesMatchesATR(t *testing.T) {
	highs := []float64{10, 11, 12, 13}
	lows := []float64{9, 10, 11, 12}
	closes := []float64{9.5, 10.5, 11.5, 12.5}
	out := ATRSeries(highs, lows, closes, 2)
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, ATR(highs, lows, closes, 2), out[3], 1e-12)
}
