package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		returns  []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"only gains", []float64{0.1, 0.05}, 0},
		{"peak then trough", []float64{0.1, -0.5, 0.2}, -0.5},
		// the curve starts at 0.9, so the first loss is not a drawdown
		{"leading loss", []float64{-0.1, 0.0}, 0},
		{"two legs", []float64{0.0, -0.1, 0.5, -0.2}, -0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.returns)
			assert.InDelta(t, tt.expected, got, 1e-12)
			assert.LessOrEqual(t, got, 0.0)
		})
	}
}
