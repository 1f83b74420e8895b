package technical

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/utils"
)

// DefaultLookback is the window used when a request names no start date.
const DefaultLookback = 365 * 24 * time.Hour

// SymbolIndicators is the indicator response for one symbol.
type SymbolIndicators struct {
	Symbol    string `json:"symbol"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Indicators
}

// Service loads a symbol's history and computes its indicators.
type Service struct {
	provider domain.TimeSeriesProvider
	engine   *Engine
	timeout  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewService creates an indicator service.
func NewService(provider domain.TimeSeriesProvider, engine *Engine, timeout time.Duration, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		engine:   engine,
		timeout:  timeout,
		now:      time.Now,
		log:      log.With().Str("service", "technical").Logger(),
	}
}

// GetIndicators computes indicator series for symbol over [start, end].
// A nil end means now; a nil start means DefaultLookback before end.
func (s *Service) GetIndicators(ctx context.Context, symbol string, start, end *time.Time) (*SymbolIndicators, error) {
	if symbol == "" {
		return nil, domain.InvalidRequest("symbol is required")
	}

	e := s.now()
	if end != nil && !end.IsZero() {
		e = *end
	}
	st := e.Add(-DefaultLookback)
	if start != nil && !start.IsZero() {
		st = *start
	}
	if !st.Before(e) {
		return nil, domain.InvalidRequest("start date %s is not before end date %s",
			st.Format(domain.DateLayout), e.Format(domain.DateLayout))
	}

	defer utils.OperationTimer("technical_indicators", s.log)()

	bars, err := s.fetch(ctx, symbol, st, e)
	if err != nil {
		return nil, err
	}

	return &SymbolIndicators{
		Symbol:     symbol,
		StartDate:  bars[0].DayKey(),
		EndDate:    bars[len(bars)-1].DayKey(),
		Indicators: s.engine.Compute(bars),
	}, nil
}

func (s *Service) fetch(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	bars, err := s.provider.GetHistory(ctx, symbol, start, end)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to fetch price history")
		return nil, fmt.Errorf("failed to load %s: %w", symbol, domain.DataUnavailable("no price history for %s", symbol).Wrap(err))
	}
	bars = domain.NormalizeBars(bars)
	if len(bars) == 0 {
		return nil, domain.DataUnavailable("no price history for %s", symbol)
	}
	return bars, nil
}
