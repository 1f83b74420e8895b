package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitLinearTrend(t *testing.T) {
	trend := FitLinearTrend([]float64{1, 3, 5, 7})
	assert.InDelta(t, 2.0, trend.Slope, 1e-12)
	assert.InDelta(t, 1.0, trend.Intercept, 1e-12)
	assert.InDelta(t, 1.0, trend.RSquared, 1e-12)
}

func TestFitLinearTrend_Flat(t *testing.T) {
	trend := FitLinearTrend([]float64{5, 5, 5, 5, 5})
	assert.Equal(t, 0.0, trend.Slope)
	assert.Equal(t, 0.0, trend.RSquared)
}

func TestFitLinearTrend_Short(t *testing.T) {
	assert.Equal(t, LinearTrend{}, FitLinearTrend([]float64{3}))
}

func TestFitLinearTrend_Noisy(t *testing.T) {
	trend := FitLinearTrend([]float64{1, 4, 2, 5, 3, 6})
	assert.Greater(t, trend.Slope, 0.0)
	assert.Greater(t, trend.RSquared, 0.0)
	assert.Less(t, trend.RSquared, 1.0)
}
