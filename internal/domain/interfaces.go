package domain

import (
	"context"
	"time"
)

// TimeSeriesProvider supplies daily price history for a symbol.
//
// GetHistory returns bars ordered by date within [start, end]. An unknown
// symbol or an empty window is an empty slice with a nil error; errors are
// reserved for transport and decoding failures.
type TimeSeriesProvider interface {
	GetHistory(ctx context.Context, symbol string, start, end time.Time) ([]PriceBar, error)
}

// TimeSeriesProviderFunc adapts a function to TimeSeriesProvider.
type TimeSeriesProviderFunc func(ctx context.Context, symbol string, start, end time.Time) ([]PriceBar, error)

// GetHistory calls f.
func (f TimeSeriesProviderFunc) GetHistory(ctx context.Context, symbol string, start, end time.Time) ([]PriceBar, error) {
	return f(ctx, symbol, start, end)
}
