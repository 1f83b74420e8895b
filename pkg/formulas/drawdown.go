package formulas

// MaxDrawdown returns the deepest peak-to-trough decline of the cumulative
// growth curve built from returns, as a non-positive fraction
// (−0.25 = 25% below the running peak).
//
// Formula:
//
//	cum_t = Π_{i≤t}(1+r_i)
//	MaxDrawdown = min_t(cum_t / max_{s≤t}(cum_s) − 1)
//
// The running peak starts at the first point of the curve, not at 1.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	curve := CumulativeGrowth(returns)
	peak := curve[0]
	worst := 0.0

	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := v/peak - 1; dd < worst {
				worst = dd
			}
		}
	}

	return worst
}
