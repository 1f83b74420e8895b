package clientdata

import "time"

// TTL defaults, added to time.Now() when storing to calculate expires_at.
const (
	// DefaultPriceHistoryTTL keeps daily bars while the current session may still print.
	DefaultPriceHistoryTTL = 5 * time.Minute
	// HistoricalWindowTTL applies to windows that end before today; their bars no longer change.
	HistoricalWindowTTL = 7 * 24 * time.Hour
)
