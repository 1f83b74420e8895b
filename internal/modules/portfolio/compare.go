package portfolio

import (
	"context"
	"fmt"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// ComparisonRow is the headline metrics of one portfolio in a comparison.
type ComparisonRow struct {
	Name         string             `json:"name"`
	Symbols      []string           `json:"symbols"`
	Weights      map[string]float64 `json:"weights"`
	TotalReturn  float64            `json:"total_return"`
	AnnualReturn float64            `json:"annual_return"`
	Volatility   float64            `json:"volatility"`
	SharpeRatio  float64            `json:"sharpe_ratio"`
	MaxDrawdown  float64            `json:"max_drawdown"`
}

// ComparisonSummary aggregates total return and Sharpe across portfolios.
type ComparisonSummary struct {
	BestReturn  float64 `json:"best_return"`
	WorstReturn float64 `json:"worst_return"`
	AvgReturn   float64 `json:"avg_return"`
	BestSharpe  float64 `json:"best_sharpe"`
	WorstSharpe float64 `json:"worst_sharpe"`
	AvgSharpe   float64 `json:"avg_sharpe"`
}

// ComparisonFailure is a portfolio that could not be simulated.
type ComparisonFailure struct {
	Name    string           `json:"name"`
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// Comparison ranks several simulated portfolios side by side.
type Comparison struct {
	Portfolios []ComparisonRow     `json:"portfolios"`
	Summary    ComparisonSummary   `json:"summary"`
	Failures   []ComparisonFailure `json:"failures"`
}

func portfolioName(i int) string {
	return fmt.Sprintf("Portfolio %d", i+1)
}

// Compare summarises already simulated portfolios. Nil entries are skipped
// but keep their position in the naming. An empty input yields an empty
// comparison with a zero summary.
func Compare(portfolios []*SimulatedPortfolio) Comparison {
	c := Comparison{Portfolios: []ComparisonRow{}, Failures: []ComparisonFailure{}}

	returns := make([]float64, 0, len(portfolios))
	sharpes := make([]float64, 0, len(portfolios))

	for i, p := range portfolios {
		if p == nil {
			continue
		}
		c.Portfolios = append(c.Portfolios, ComparisonRow{
			Name:         portfolioName(i),
			Symbols:      p.Symbols,
			Weights:      p.Weights,
			TotalReturn:  p.Metrics.TotalReturn,
			AnnualReturn: p.Metrics.AnnualReturn,
			Volatility:   p.Metrics.Volatility,
			SharpeRatio:  p.Metrics.SharpeRatio,
			MaxDrawdown:  p.Metrics.MaxDrawdown,
		})
		returns = append(returns, p.Metrics.TotalReturn)
		sharpes = append(sharpes, p.Metrics.SharpeRatio)
	}

	if len(returns) == 0 {
		return c
	}

	bestR, worstR := minMax(returns)
	bestS, worstS := minMax(sharpes)
	c.Summary = ComparisonSummary{
		BestReturn:  bestR,
		WorstReturn: worstR,
		AvgReturn:   formulas.Mean(returns),
		BestSharpe:  bestS,
		WorstSharpe: worstS,
		AvgSharpe:   formulas.Mean(sharpes),
	}
	return c
}

// minMax returns (max, min) of a non-empty slice.
func minMax(values []float64) (float64, float64) {
	hi, lo := values[0], values[0]
	for _, v := range values[1:] {
		if v > hi {
			hi = v
		}
		if v < lo {
			lo = v
		}
	}
	return hi, lo
}

// CompareRequests simulates each request and compares the successful ones.
// A failed simulation is reported in Failures instead of aborting the
// comparison; cancellation of ctx is returned as an error.
func (s *PortfolioService) CompareRequests(ctx context.Context, reqs []SimulationRequest) (Comparison, error) {
	results := make([]*SimulatedPortfolio, len(reqs))
	var failures []ComparisonFailure

	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return Comparison{}, err
		}
		p, err := s.Simulate(ctx, req)
		if err != nil {
			s.log.Warn().Err(err).Int("portfolio", i+1).Msg("Portfolio excluded from comparison")
			failures = append(failures, ComparisonFailure{
				Name:    portfolioName(i),
				Kind:    domain.KindOf(err),
				Message: domain.PublicMessage(err),
			})
			continue
		}
		results[i] = p
	}

	c := Compare(results)
	if failures != nil {
		c.Failures = failures
	}
	return c, nil
}
