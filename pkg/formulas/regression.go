package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// LinearTrend is a least-squares fit of y against the index 0..N−1.
type LinearTrend struct {
	Intercept float64
	Slope     float64
	RSquared  float64
}

// FitLinearTrend regresses values on their position.
//
// RSquared is 0 when values have zero variance (the fit explains nothing)
// and is clamped to [0, 1]. Fewer than two points yield a zero trend.
func FitLinearTrend(values []float64) LinearTrend {
	if len(values) < 2 {
		return LinearTrend{}
	}

	x := make([]float64, len(values))
	for i := range x {
		x[i] = float64(i)
	}

	alpha, beta := stat.LinearRegression(x, values, nil, false)

	r2 := 0.0
	if Variance(values) > 0 {
		r2 = stat.RSquared(x, values, nil, alpha, beta)
		if math.IsNaN(r2) {
			r2 = 0
		}
	}

	return LinearTrend{
		Intercept: Finite(alpha),
		Slope:     Finite(beta),
		RSquared:  Clamp(r2, 0, 1),
	}
}
