package portfolio

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/domain"
)

func newTestCalculator() *MetricsCalculator {
	return NewMetricsCalculator(DefaultRiskFreeRate, zerolog.Nop())
}

func TestCalculate_TooShortIsAllZero(t *testing.T) {
	calc := newTestCalculator()

	assert.Equal(t, Metrics{}, calc.Calculate(nil))
	assert.Equal(t, Metrics{}, calc.Calculate([]float64{}))
	assert.Equal(t, Metrics{}, calc.Calculate([]float64{0.05}))
}

func TestCalculate_KnownSeries(t *testing.T) {
	calc := newTestCalculator()
	returns := []float64{0.01, -0.02, 0.015, 0.005, -0.01}

	m := calc.Calculate(returns)

	total := 1.01*0.98*1.015*1.005*0.99 - 1
	assert.InDelta(t, total, m.TotalReturn, 1e-12)
	assert.InDelta(t, math.Pow(1+total, 252.0/5)-1, m.AnnualReturn, 1e-9)

	mean := (0.01 - 0.02 + 0.015 + 0.005 - 0.01) / 5
	ss := 0.0
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	std := math.Sqrt(ss / 4)
	assert.InDelta(t, std*math.Sqrt(252), m.Volatility, 1e-12)
	assert.InDelta(t, (mean-0.02/252)/std*math.Sqrt(252), m.SharpeRatio, 1e-9)

	// curve 1.01, 0.9898, ... peak 1.01 → trough 0.9898
	assert.InDelta(t, 0.98-1, m.MaxDrawdown, 1e-12)

	// sorted: -0.02, -0.01, 0.005, 0.01, 0.015; h = 0.2
	assert.InDelta(t, -0.02+0.2*0.01, m.VaR95, 1e-12)
	assert.InDelta(t, m.AnnualReturn/0.02, m.CalmarRatio, 1e-9)
}

func TestCalculate_ZeroVolatility(t *testing.T) {
	calc := newTestCalculator()

	m := calc.Calculate([]float64{0.0078125, 0.0078125, 0.0078125, 0.0078125})

	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.Volatility)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.CalmarRatio, "no drawdown means no Calmar ratio")
	assert.Greater(t, m.TotalReturn, 0.0)
}

func TestSharpe_ZeroVolatilityIsComputationError(t *testing.T) {
	calc := newTestCalculator()

	_, err := calc.Sharpe([]float64{0.25, 0.25, 0.25, 0.25})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrComputation)
}

func TestCalculate_AllFieldsFinite(t *testing.T) {
	calc := newTestCalculator()
	seed := uint64(99)

	for trial := 0; trial < 25; trial++ {
		returns := make([]float64, 60)
		for i := range returns {
			seed = seed*6364136223846793005 + 1442695040888963407
			returns[i] = float64(int64(seed>>33)%2000-1000) / 20000
		}
		m := calc.Calculate(returns)
		for _, v := range []float64{m.TotalReturn, m.AnnualReturn, m.Volatility, m.SharpeRatio, m.MaxDrawdown, m.VaR95, m.CalmarRatio} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
		assert.LessOrEqual(t, m.MaxDrawdown, 0.0)
	}
}
