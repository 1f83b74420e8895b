package portfolio

import (
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// DefaultRiskFreeRate is the annual risk-free rate used when none is configured.
const DefaultRiskFreeRate = 0.02

// Metrics is the risk/return summary of one daily return series.
// Every field is a plain finite float64.
type Metrics struct {
	TotalReturn  float64 `json:"total_return"`
	AnnualReturn float64 `json:"annual_return"`
	Volatility   float64 `json:"volatility"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	VaR95        float64 `json:"var_95"`
	CalmarRatio  float64 `json:"calmar_ratio"`
}

func newMetrics(total, annual, volatility, sharpe, maxDrawdown, var95, calmar float64) Metrics {
	return Metrics{
		TotalReturn:  formulas.Finite(total),
		AnnualReturn: formulas.Finite(annual),
		Volatility:   formulas.Finite(volatility),
		SharpeRatio:  formulas.Finite(sharpe),
		MaxDrawdown:  formulas.Finite(maxDrawdown),
		VaR95:        formulas.Finite(var95),
		CalmarRatio:  formulas.Finite(calmar),
	}
}

// MetricsCalculator turns daily return series into Metrics.
// It holds configuration only and is safe for concurrent use.
type MetricsCalculator struct {
	riskFreeRate float64
	log          zerolog.Logger
}

// NewMetricsCalculator creates a calculator using the given annual risk-free rate.
func NewMetricsCalculator(riskFreeRate float64, log zerolog.Logger) *MetricsCalculator {
	return &MetricsCalculator{
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("component", "metrics_calculator").Logger(),
	}
}

// Sharpe returns the annualized Sharpe ratio of daily returns.
// A constant or too-short series is a computation error.
func (c *MetricsCalculator) Sharpe(returns []float64) (float64, error) {
	sharpe, err := formulas.SharpeRatio(returns, c.riskFreeRate, formulas.TradingDaysPerYear)
	if err != nil {
		return 0, domain.Computation(err, "sharpe ratio undefined")
	}
	return sharpe, nil
}

// Calculate computes the metrics of a daily return series.
//
// Fewer than two returns yield all-zero metrics. A zero-volatility series
// reports a Sharpe ratio of 0, and a series without drawdown a Calmar
// ratio of 0.
func (c *MetricsCalculator) Calculate(returns []float64) Metrics {
	n := len(returns)
	if n < 2 {
		return Metrics{}
	}

	total := formulas.CompoundReturn(returns)
	annual := formulas.AnnualizeReturn(total, n)
	volatility := formulas.AnnualizedVolatility(returns)

	sharpe, err := c.Sharpe(returns)
	if err != nil {
		if !errors.Is(err, formulas.ErrZeroVolatility) {
			c.log.Warn().Err(err).Int("observations", n).Msg("Unexpected Sharpe failure, using 0")
		} else {
			c.log.Debug().Int("observations", n).Msg("Zero volatility, Sharpe ratio set to 0")
		}
		sharpe = 0
	}

	maxDrawdown := formulas.MaxDrawdown(returns)
	var95 := formulas.Percentile(returns, 0.05)

	calmar := 0.0
	if maxDrawdown != 0 {
		calmar = annual / math.Abs(maxDrawdown)
	}

	return newMetrics(total, annual, volatility, sharpe, maxDrawdown, var95, calmar)
}
