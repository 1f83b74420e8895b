package testing

import (
	"time"

	"github.com/aristath/advisor/internal/domain"
)

// FixtureStart is the first trading day used by generated fixtures.
var FixtureStart = time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)

// BarsFromCloses builds consecutive daily bars starting at start, one per close.
// Weekends are not skipped; alignment only cares about shared calendar days.
func BarsFromCloses(start time.Time, closes []float64) []domain.PriceBar {
	return BarsWithVolume(start, closes, nil)
}

// BarsWithVolume is BarsFromCloses with explicit volumes. A nil volumes slice
// uses a constant 1,000,000.
func BarsWithVolume(start time.Time, closes []float64, volumes []int64) []domain.PriceBar {
	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		vol := int64(1_000_000)
		if volumes != nil {
			vol = volumes[i]
		}
		bars[i] = domain.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: vol,
		}
	}
	return bars
}

// FlatCloses returns n copies of price.
func FlatCloses(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

// TrendCloses returns a straight line from start with the given daily step.
func TrendCloses(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// NoisyCloses returns a deterministic random walk around start.
func NoisyCloses(n int, start float64, seed uint64) []float64 {
	out := make([]float64, n)
	price := start
	for i := range out {
		seed = seed*6364136223846793005 + 1442695040888963407
		price *= 1 + float64(int64(seed>>33)%2000-1000)/50000
		out[i] = price
	}
	return out
}
