// Package domain provides core domain models and types.
package domain

import (
	"sort"
	"time"
)

// DateLayout is the calendar-day key used for alignment and on the wire.
const DateLayout = "2006-01-02"

// PriceBar is one trading day of price and volume data for a symbol.
type PriceBar struct {
	Date   time.Time `json:"date" msgpack:"d"`
	Open   float64   `json:"open" msgpack:"o"`
	High   float64   `json:"high" msgpack:"h"`
	Low    float64   `json:"low" msgpack:"l"`
	Close  float64   `json:"close" msgpack:"c"`
	Volume int64     `json:"volume" msgpack:"v"`
}

// DayKey returns the bar's calendar date as YYYY-MM-DD.
func (b PriceBar) DayKey() string {
	return b.Date.Format(DateLayout)
}

// Closes extracts the closing prices of bars in order.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the traded volumes of bars as floats, in order.
func Volumes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = float64(b.Volume)
	}
	return out
}

// NormalizeBars sorts bars by date and keeps the last bar seen for each
// calendar day. The input slice is not modified.
func NormalizeBars(bars []PriceBar) []PriceBar {
	if len(bars) == 0 {
		return []PriceBar{}
	}

	byDay := make(map[string]PriceBar, len(bars))
	for _, b := range bars {
		byDay[b.DayKey()] = b
	}

	out := make([]PriceBar, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
