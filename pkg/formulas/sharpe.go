package formulas

import (
	"errors"
	"math"
)

// ErrZeroVolatility is returned by ratio calculations whose denominator is
// the standard deviation of a constant series.
var ErrZeroVolatility = errors.New("standard deviation of returns is zero")

// ErrInsufficientData is returned when a series is too short for the statistic.
var ErrInsufficientData = errors.New("insufficient data")

// SharpeRatio calculates the annualized Sharpe ratio of a periodic return series.
//
// Formula:
//
//	Sharpe = mean(r − rf/periodsPerYear) / stdev(r) × sqrt(periodsPerYear)
//
// Args:
//
//	returns: periodic returns (daily for periodsPerYear = 252)
//	riskFreeRate: annual risk-free rate as a decimal (0.02 = 2%)
//
// Returns ErrZeroVolatility when stdev(r) == 0 and ErrInsufficientData for
// fewer than two returns. The caller decides which sentinel value to use.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) (float64, error) {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return 0, ErrInsufficientData
	}

	stdDev := StdDev(returns)
	if stdDev == 0 || math.IsNaN(stdDev) {
		return 0, ErrZeroVolatility
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	excess := Mean(returns) - periodicRiskFree

	return excess / stdDev * math.Sqrt(float64(periodsPerYear)), nil
}
