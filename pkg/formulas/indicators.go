package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// Default indicator periods.
const (
	DefaultRSIPeriod  = 14
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// SMA calculates the simple moving average of closes over window days.
//
// The result has the same length as closes. The first window−1 entries are
// NaN because the average is undefined there; a series shorter than window
// is NaN throughout.
func SMA(closes []float64, window int) []float64 {
	out := nanSeries(len(closes))
	if window <= 0 || len(closes) < window {
		return out
	}
	if window == 1 {
		copy(out, closes)
		return out
	}

	sma := talib.Sma(closes, window)
	for i := window - 1; i < len(closes); i++ {
		out[i] = sma[i]
	}
	return out
}

// RollingRSI calculates the Relative Strength Index with a simple rolling
// mean of gains and losses.
//
// RSI Formula:
//
//	RS  = SMA(gains, period) / SMA(losses, period)
//	RSI = 100 − 100 / (1 + RS)
//
// This is not Wilder's smoothed RSI (talib.Rsi); values differ from the
// textbook oscillator on the same input. The first period entries are NaN.
// A window with no losses reads 100, a window with neither gains nor losses
// reads 50.
func RollingRSI(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	avgGain := SMA(gains, period)
	avgLoss := SMA(losses, period)

	for i := period - 1; i < len(gains); i++ {
		// rolling sums can leave a tiny negative residue
		g := math.Max(0, avgGain[i])
		l := math.Max(0, avgLoss[i])

		var rsi float64
		switch {
		case l == 0 && g == 0:
			rsi = 50
		case l == 0:
			rsi = 100
		default:
			rsi = 100 - 100/(1+g/l)
		}
		out[i+1] = Clamp(rsi, 0, 100)
	}
	return out
}

// MACDHistogram calculates the MACD histogram:
//
//	MACD   = EMA(fast) − EMA(slow)
//	Signal = EMA(MACD, signal)
//	Hist   = MACD − Signal
//
// Only the histogram is returned. Entries inside the indicator lookback
// ((slow−1)+(signal−1)) are NaN, as is the whole series when it is not
// longer than the lookback.
func MACDHistogram(closes []float64, fast, slow, signal int) []float64 {
	out := nanSeries(len(closes))
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return out
	}
	if slow < fast {
		fast, slow = slow, fast
	}

	lookback := (slow - 1) + (signal - 1)
	if len(closes) <= lookback {
		return out
	}

	_, _, hist := talib.Macd(closes, fast, slow, signal)
	for i := lookback; i < len(closes); i++ {
		out[i] = hist[i]
	}
	return out
}

// Last returns the final finite value of series and whether one exists.
func Last(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
