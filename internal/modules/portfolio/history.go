package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/advisor/internal/domain"
)

// DefaultProviderTimeout bounds one batch of history fetches.
const DefaultProviderTimeout = 10 * time.Second

// maxConcurrentFetches limits simultaneous provider calls per batch.
const maxConcurrentFetches = 8

var errNoData = errors.New("no price data returned")

// FetchFailure records a symbol whose history could not be used.
type FetchFailure struct {
	Symbol string
	Err    error
}

// HistoryFetcher loads price histories for a set of symbols concurrently
// under a single deadline.
type HistoryFetcher struct {
	provider domain.TimeSeriesProvider
	timeout  time.Duration
	log      zerolog.Logger
}

// NewHistoryFetcher creates a fetcher. A non-positive timeout uses DefaultProviderTimeout.
func NewHistoryFetcher(provider domain.TimeSeriesProvider, timeout time.Duration, log zerolog.Logger) *HistoryFetcher {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &HistoryFetcher{
		provider: provider,
		timeout:  timeout,
		log:      log.With().Str("component", "history_fetcher").Logger(),
	}
}

// FetchAll fetches every symbol's bars in [start, end].
//
// Provider errors and empty results never abort the batch: each is returned
// as a FetchFailure, in the order of symbols. The caller decides whether a
// failure is fatal.
func (f *HistoryFetcher) FetchAll(ctx context.Context, symbols []string, start, end time.Time) (map[string][]domain.PriceBar, []FetchFailure) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var mu sync.Mutex
	histories := make(map[string][]domain.PriceBar, len(symbols))
	failed := make(map[string]error)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, symbol := range symbols {
		g.Go(func() error {
			bars, err := f.provider.GetHistory(gctx, symbol, start, end)
			if err == nil && len(bars) == 0 {
				err = errNoData
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[symbol] = err
				return nil
			}
			histories[symbol] = domain.NormalizeBars(bars)
			return nil
		})
	}
	_ = g.Wait()

	failures := make([]FetchFailure, 0, len(failed))
	for _, symbol := range symbols {
		if err, ok := failed[symbol]; ok {
			failures = append(failures, FetchFailure{Symbol: symbol, Err: err})
			f.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to fetch price history")
		}
	}

	f.log.Debug().
		Int("requested", len(symbols)).
		Int("fetched", len(histories)).
		Int("failed", len(failures)).
		Msg("Fetched price histories")

	return histories, failures
}

// MissingSymbolsError reports every failed symbol as one DataUnavailable error.
func MissingSymbolsError(failures []FetchFailure) error {
	names := make([]string, len(failures))
	for i, f := range failures {
		names[i] = f.Symbol
	}
	return domain.DataUnavailable("no price history for %s", strings.Join(names, ", ")).
		Wrap(failures[0].Err)
}

// TimeSeriesData holds close prices aligned on the dates shared by every symbol.
type TimeSeriesData struct {
	Symbols []string    // column order
	Dates   []string    // YYYY-MM-DD ascending
	Closes  [][]float64 // Closes[i] belongs to Symbols[i], len(Dates) each
}

// AlignCloses inner-joins the histories of symbols on calendar date.
// Symbols without an entry in histories are skipped.
func AlignCloses(symbols []string, histories map[string][]domain.PriceBar) TimeSeriesData {
	byDay := make([]map[string]float64, 0, len(symbols))
	present := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		bars, ok := histories[symbol]
		if !ok {
			continue
		}
		m := make(map[string]float64, len(bars))
		for _, b := range bars {
			m[b.DayKey()] = b.Close
		}
		byDay = append(byDay, m)
		present = append(present, symbol)
	}

	data := TimeSeriesData{Symbols: present, Dates: []string{}, Closes: make([][]float64, len(present))}
	if len(present) == 0 {
		return data
	}

	for day := range byDay[0] {
		shared := true
		for _, m := range byDay[1:] {
			if _, ok := m[day]; !ok {
				shared = false
				break
			}
		}
		if shared {
			data.Dates = append(data.Dates, day)
		}
	}
	sort.Strings(data.Dates)

	for i, m := range byDay {
		closes := make([]float64, len(data.Dates))
		for j, day := range data.Dates {
			closes[j] = m[day]
		}
		data.Closes[i] = closes
	}
	return data
}

// ReturnMatrix builds the T×N matrix of daily returns, one column per symbol,
// where T = len(Dates)−1. Returns nil when fewer than two dates are aligned.
func (d TimeSeriesData) ReturnMatrix() *mat.Dense {
	t := len(d.Dates) - 1
	n := len(d.Symbols)
	if t < 1 || n == 0 {
		return nil
	}

	m := mat.NewDense(t, n, nil)
	for j, closes := range d.Closes {
		for i := 1; i < len(closes); i++ {
			r := 0.0
			if closes[i-1] != 0 {
				r = (closes[i] - closes[i-1]) / closes[i-1]
			}
			m.Set(i-1, j, r)
		}
	}
	return m
}

// WeightedReturns returns Σ_j w_j·r_ij for every row of returns.
func WeightedReturns(returns *mat.Dense, weights []float64) ([]float64, error) {
	if returns == nil {
		return []float64{}, nil
	}
	rows, cols := returns.Dims()
	if cols != len(weights) {
		return nil, fmt.Errorf("weight vector has %d entries for %d return columns", len(weights), cols)
	}

	var out mat.VecDense
	out.MulVec(returns, mat.NewVecDense(len(weights), weights))

	series := make([]float64, rows)
	for i := range series {
		series[i] = out.AtVec(i)
	}
	return series, nil
}
