// Package technical computes indicator series (moving averages, RSI, MACD)
// over daily price bars.
package technical

import (
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// Moving-average windows reported by the engine.
const (
	ShortSMAWindow = 20
	LongSMAWindow  = 50
)

// Indicators holds one value per bar for every series. Points where an
// indicator is undefined (inside its lookback) are nil and serialise as null.
type Indicators struct {
	Dates    []string   `json:"dates"`
	Closes   []float64  `json:"closes"`
	SMA20    []*float64 `json:"sma_20"`
	SMA50    []*float64 `json:"sma_50"`
	RSI14    []*float64 `json:"rsi_14"`
	MACDHist []*float64 `json:"macd_histogram"`
}

// Latest is the last defined value of each indicator.
type Latest struct {
	Close    float64
	SMA20    float64
	SMA50    float64
	RSI      float64
	MACDHist float64
	// HasSMA20 etc. report whether the series reached its first defined value.
	HasSMA20, HasSMA50, HasRSI, HasMACD bool
}

// Series is the raw float form of Indicators, NaN where undefined.
type Series struct {
	Closes   []float64
	SMA20    []float64
	SMA50    []float64
	RSI14    []float64
	MACDHist []float64
}

// Engine computes indicator series. It is stateless.
type Engine struct{}

// NewEngine creates an indicator engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Series computes every indicator over closes.
func (e *Engine) Series(closes []float64) Series {
	return Series{
		Closes:   closes,
		SMA20:    formulas.SMA(closes, ShortSMAWindow),
		SMA50:    formulas.SMA(closes, LongSMAWindow),
		RSI14:    formulas.RollingRSI(closes, formulas.DefaultRSIPeriod),
		MACDHist: formulas.MACDHistogram(closes, formulas.DefaultMACDFast, formulas.DefaultMACDSlow, formulas.DefaultMACDSignal),
	}
}

// Compute returns the indicator series for bars, which must be date-ordered.
func (e *Engine) Compute(bars []domain.PriceBar) Indicators {
	s := e.Series(domain.Closes(bars))

	dates := make([]string, len(bars))
	for i, b := range bars {
		dates[i] = b.DayKey()
	}

	closes := make([]float64, len(s.Closes))
	for i, c := range s.Closes {
		closes[i] = formulas.Finite(c)
	}

	return Indicators{
		Dates:    dates,
		Closes:   closes,
		SMA20:    nullable(s.SMA20),
		SMA50:    nullable(s.SMA50),
		RSI14:    nullable(s.RSI14),
		MACDHist: nullable(s.MACDHist),
	}
}

// Latest returns the last value of each series in s.
func (s Series) Latest() Latest {
	var l Latest
	l.Close, _ = formulas.Last(s.Closes)
	l.SMA20, l.HasSMA20 = formulas.Last(s.SMA20)
	l.SMA50, l.HasSMA50 = formulas.Last(s.SMA50)
	l.RSI, l.HasRSI = formulas.Last(s.RSI14)
	l.MACDHist, l.HasMACD = formulas.Last(s.MACDHist)
	return l
}

func nullable(series []float64) []*float64 {
	out := make([]*float64, len(series))
	for i, v := range series {
		out[i] = formulas.Nullable(v)
	}
	return out
}
