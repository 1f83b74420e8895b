package clientdata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
)

// CachedProvider decorates a TimeSeriesProvider with the price history cache.
//
// Fresh entries are served without an upstream call. On upstream failure a
// stale entry is returned instead (stale data > no data); with no entry the
// upstream error is returned unchanged.
type CachedProvider struct {
	upstream domain.TimeSeriesProvider
	repo     *Repository
	ttl      time.Duration
	log      zerolog.Logger
}

// NewCachedProvider wraps upstream. A non-positive ttl uses DefaultPriceHistoryTTL.
func NewCachedProvider(upstream domain.TimeSeriesProvider, repo *Repository, ttl time.Duration, log zerolog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultPriceHistoryTTL
	}
	return &CachedProvider{
		upstream: upstream,
		repo:     repo,
		ttl:      ttl,
		log:      log.With().Str("component", "price_cache").Logger(),
	}
}

// cacheKey identifies a request by symbol and calendar window.
func cacheKey(symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%s", symbol, start.UTC().Format(domain.DateLayout), end.UTC().Format(domain.DateLayout))
}

// GetHistory implements domain.TimeSeriesProvider.
func (p *CachedProvider) GetHistory(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	key := cacheKey(symbol, start, end)

	entry, err := p.repo.Get(ctx, TablePriceHistory, key)
	if err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		entry = nil
	}

	if entry != nil && entry.Fresh(p.repo.now()) {
		if bars, err := decodeBars(entry); err == nil {
			p.log.Debug().Str("key", key).Int("bars", len(bars)).Msg("Cache hit")
			return bars, nil
		}
		p.log.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
		entry = nil
	}

	bars, err := p.upstream.GetHistory(ctx, symbol, start, end)
	if err != nil {
		if entry != nil {
			if stale, decodeErr := decodeBars(entry); decodeErr == nil {
				p.log.Warn().
					Err(err).
					Str("symbol", symbol).
					Time("fetched_at", entry.FetchedAt).
					Msg("Upstream failed, using stale cached history")
				return stale, nil
			}
		}
		return nil, err
	}

	if storeErr := p.repo.Store(ctx, TablePriceHistory, key, symbol, bars, p.ttlFor(end)); storeErr != nil {
		p.log.Warn().Err(storeErr).Str("key", key).Msg("Cache write failed")
	}
	return bars, nil
}

// Invalidate drops every cached window for symbol.
func (p *CachedProvider) Invalidate(ctx context.Context, symbol string) (int64, error) {
	return p.repo.DeleteSymbol(ctx, TablePriceHistory, symbol)
}

// ttlFor keeps closed historical windows longer than windows reaching today.
func (p *CachedProvider) ttlFor(end time.Time) time.Duration {
	today := p.repo.now().UTC().Format(domain.DateLayout)
	if end.UTC().Format(domain.DateLayout) < today && HistoricalWindowTTL > p.ttl {
		return HistoricalWindowTTL
	}
	return p.ttl
}

// decodeBars decodes a cached bar slice. msgpack restores times in the local
// zone; bars are keyed by their UTC calendar day.
func decodeBars(entry *Entry) ([]domain.PriceBar, error) {
	var bars []domain.PriceBar
	if err := entry.Decode(&bars); err != nil {
		return nil, err
	}
	if bars == nil {
		bars = []domain.PriceBar{}
	}
	for i := range bars {
		bars[i].Date = bars[i].Date.UTC()
	}
	return bars, nil
}
