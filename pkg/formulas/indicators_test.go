package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	sma := SMA(closes, 3)

	require.Len(t, sma, 5)
	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	assert.InDelta(t, 2.0, sma[2], 1e-12)
	assert.InDelta(t, 3.0, sma[3], 1e-12)
	assert.InDelta(t, 4.0, sma[4], 1e-12)
}

func TestSMA_ShorterThanWindow(t *testing.T) {
	sma := SMA([]float64{1, 2}, 20)
	require.Len(t, sma, 2)
	for _, v := range sma {
		assert.True(t, math.IsNaN(v))
	}
	assert.Empty(t, SMA(nil, 5))
}

func TestRollingRSI_Bounds(t *testing.T) {
	seed := uint64(7)
	closes := make([]float64, 200)
	price := 100.0
	for i := range closes {
		seed = seed*6364136223846793005 + 1442695040888963407
		price *= 1 + float64(int64(seed>>33)%2000-1000)/40000
		closes[i] = price
	}

	rsi := RollingRSI(closes, DefaultRSIPeriod)
	require.Len(t, rsi, len(closes))
	for i, v := range rsi {
		if i < DefaultRSIPeriod {
			assert.True(t, math.IsNaN(v), "index %d should be undefined", i)
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestRollingRSI_Extremes(t *testing.T) {
	up, ok := Last(RollingRSI(ramp(30, 10, 1), 14))
	require.True(t, ok)
	assert.Equal(t, 100.0, up)

	down, ok := Last(RollingRSI(ramp(30, 100, -1), 14))
	require.True(t, ok)
	assert.InDelta(t, 0.0, down, 1e-9)

	flat, ok := Last(RollingRSI(ramp(30, 50, 0), 14))
	require.True(t, ok)
	assert.Equal(t, 50.0, flat)
}

func TestRollingRSI_SimpleAverage(t *testing.T) {
	// changes: +2, -1, +2, -1 → avg gain 1, avg loss 0.5 over 4 periods
	closes := []float64{10, 12, 11, 13, 12}
	rsi := RollingRSI(closes, 4)
	assert.InDelta(t, 100-100/(1+2.0), rsi[4], 1e-9)
}

func TestRollingRSI_TooShort(t *testing.T) {
	rsi := RollingRSI(ramp(14, 1, 1), 14)
	for _, v := range rsi {
		assert.True(t, math.IsNaN(v))
	}
}

func TestMACDHistogram(t *testing.T) {
	closes := ramp(60, 100, 0)
	hist := MACDHistogram(closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	require.Len(t, hist, 60)

	lookback := (DefaultMACDSlow - 1) + (DefaultMACDSignal - 1)
	for i := 0; i < lookback; i++ {
		assert.True(t, math.IsNaN(hist[i]))
	}
	for i := lookback; i < len(hist); i++ {
		assert.InDelta(t, 0.0, hist[i], 1e-9, "flat series has no divergence")
	}
}

func TestMACDHistogram_TooShort(t *testing.T) {
	hist := MACDHistogram(ramp(20, 1, 1), 12, 26, 9)
	_, ok := Last(hist)
	assert.False(t, ok)
}

func TestMACDHistogram_RisingTrendTurnsPositive(t *testing.T) {
	closes := append(ramp(60, 100, 0), ramp(30, 100, 2)...)
	last, ok := Last(MACDHistogram(closes, 12, 26, 9))
	require.True(t, ok)
	assert.Greater(t, last, 0.0)
}
