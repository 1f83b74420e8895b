// Package portfolio simulates weighted portfolios over historical prices and
// summarises their risk and return.
package portfolio

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/utils"
	"github.com/aristath/advisor/pkg/formulas"
)

// WeightSumTolerance is how far Σ weights may drift from 1.
const WeightSumTolerance = 1e-6

// DefaultInitialInvestment is used when a request does not name one.
const DefaultInitialInvestment = 10_000_000

// SimulationRequest describes one buy-and-hold portfolio backtest.
type SimulationRequest struct {
	Symbols           []string
	Weights           []float64
	StartDate         time.Time
	EndDate           *time.Time // nil means today
	InitialInvestment float64    // <= 0 means the service default
}

// ValuePoint is the portfolio value at the close of one trading day.
type ValuePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// SimulatedPortfolio is the immutable result of one simulation.
type SimulatedPortfolio struct {
	Symbols           []string           `json:"symbols"`
	Weights           map[string]float64 `json:"weights"`
	StartDate         string             `json:"start_date"`
	EndDate           string             `json:"end_date"`
	TradingDays       int                `json:"trading_days"`
	InitialInvestment float64            `json:"initial_investment"`
	FinalValue        float64            `json:"final_value"`
	Metrics           Metrics            `json:"metrics"`
	ValueCurve        []ValuePoint       `json:"value_curve"`
}

func newSimulatedPortfolio(symbols []string, weights []float64, data TimeSeriesData, initial float64, metrics Metrics, returns []float64) *SimulatedPortfolio {
	weightMap := make(map[string]float64, len(symbols))
	for i, s := range symbols {
		weightMap[s] = formulas.Finite(weights[i])
	}

	curve := make([]ValuePoint, len(returns))
	for i, g := range formulas.CumulativeGrowth(returns) {
		curve[i] = ValuePoint{Date: data.Dates[i+1], Value: formulas.Finite(initial * g)}
	}

	finalValue := initial
	if len(curve) > 0 {
		finalValue = curve[len(curve)-1].Value
	}

	return &SimulatedPortfolio{
		Symbols:           append([]string(nil), symbols...),
		Weights:           weightMap,
		StartDate:         data.Dates[0],
		EndDate:           data.Dates[len(data.Dates)-1],
		TradingDays:       len(data.Dates),
		InitialInvestment: initial,
		FinalValue:        finalValue,
		Metrics:           metrics,
		ValueCurve:        curve,
	}
}

// PortfolioService runs portfolio simulations against a TimeSeriesProvider.
//
// Dependencies:
//   - HistoryFetcher: concurrent, deadline-bounded price history access
//   - MetricsCalculator: risk/return statistics
type PortfolioService struct {
	fetcher           *HistoryFetcher
	calculator        *MetricsCalculator
	defaultInvestment float64
	now               func() time.Time
	log               zerolog.Logger
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(fetcher *HistoryFetcher, calculator *MetricsCalculator, defaultInvestment float64, log zerolog.Logger) *PortfolioService {
	if defaultInvestment <= 0 {
		defaultInvestment = DefaultInitialInvestment
	}
	return &PortfolioService{
		fetcher:           fetcher,
		calculator:        calculator,
		defaultInvestment: defaultInvestment,
		now:               time.Now,
		log:               log.With().Str("service", "portfolio").Logger(),
	}
}

// ValidateWeights checks that weights pair one-to-one with distinct symbols
// and sum to 1 within WeightSumTolerance.
func ValidateWeights(symbols []string, weights []float64) error {
	if len(symbols) == 0 {
		return domain.InvalidRequest("at least one symbol is required")
	}
	if len(weights) != len(symbols) {
		return domain.InvalidWeights("got %d weights for %d symbols", len(weights), len(symbols))
	}

	seen := make(map[string]bool, len(symbols))
	sum := 0.0
	for i, s := range symbols {
		if s == "" {
			return domain.InvalidRequest("symbol %d is empty", i+1)
		}
		if seen[s] {
			return domain.InvalidWeights("symbol %s appears more than once", s)
		}
		seen[s] = true

		w := weights[i]
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return domain.InvalidWeights("weight for %s is not a finite number", s)
		}
		sum += w
	}

	if math.Abs(sum-1) > WeightSumTolerance {
		return domain.InvalidWeights("weights sum to %.6f, expected 1", sum)
	}
	return nil
}

// ValidateSymbols checks that symbols is non-empty with distinct, non-empty entries.
func ValidateSymbols(symbols []string) error {
	if len(symbols) == 0 {
		return domain.InvalidRequest("at least one symbol is required")
	}
	seen := make(map[string]bool, len(symbols))
	for i, s := range symbols {
		if s == "" {
			return domain.InvalidRequest("symbol %d is empty", i+1)
		}
		if seen[s] {
			return domain.InvalidRequest("symbol %s appears more than once", s)
		}
		seen[s] = true
	}
	return nil
}

// ResolveWindow applies the end-date default (now) and checks that start
// precedes end.
func ResolveWindow(start time.Time, end *time.Time, now time.Time) (time.Time, time.Time, error) {
	if start.IsZero() {
		return time.Time{}, time.Time{}, domain.InvalidRequest("start date is required")
	}
	e := now
	if end != nil && !end.IsZero() {
		e = *end
	}
	if !start.Before(e) {
		return time.Time{}, time.Time{}, domain.InvalidRequest("start date %s is not before end date %s",
			start.Format(domain.DateLayout), e.Format(domain.DateLayout))
	}
	return start, e, nil
}

// Simulate backtests a fixed-weight portfolio.
//
// Weights are validated before any provider call. Every symbol must have
// history: a weighted sum cannot drop a term, so one missing symbol fails the
// whole simulation with DataUnavailable. Series are inner-joined on date and
// the portfolio's daily return is the weighted sum of the symbols' returns.
func (s *PortfolioService) Simulate(ctx context.Context, req SimulationRequest) (*SimulatedPortfolio, error) {
	if err := ValidateWeights(req.Symbols, req.Weights); err != nil {
		return nil, err
	}
	start, end, err := ResolveWindow(req.StartDate, req.EndDate, s.now())
	if err != nil {
		return nil, err
	}

	initial := req.InitialInvestment
	if initial <= 0 || math.IsNaN(initial) || math.IsInf(initial, 0) {
		s.log.Debug().Float64("default", s.defaultInvestment).Msg("Using default initial investment")
		initial = s.defaultInvestment
	}

	defer utils.OperationTimer("portfolio_simulate", s.log)()

	histories, failures := s.fetcher.FetchAll(ctx, req.Symbols, start, end)
	if len(failures) > 0 {
		return nil, fmt.Errorf("failed to simulate portfolio: %w", MissingSymbolsError(failures))
	}

	data := AlignCloses(req.Symbols, histories)
	if len(data.Dates) == 0 {
		return nil, domain.DataUnavailable("price histories of %d symbols share no trading dates", len(req.Symbols))
	}

	returns, err := WeightedReturns(data.ReturnMatrix(), req.Weights)
	if err != nil {
		return nil, fmt.Errorf("failed to combine returns: %w", err)
	}

	metrics := s.calculator.Calculate(returns)

	s.log.Info().
		Strs("symbols", req.Symbols).
		Int("trading_days", len(data.Dates)).
		Float64("total_return", metrics.TotalReturn).
		Msg("Portfolio simulated")

	return newSimulatedPortfolio(req.Symbols, req.Weights, data, initial, metrics, returns), nil
}
