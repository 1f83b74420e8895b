package portfolio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/domain"
	testingpkg "github.com/aristath/advisor/internal/testing"
)

func TestCompare_Summary(t *testing.T) {
	portfolios := []*SimulatedPortfolio{
		{Symbols: []string{"A"}, Metrics: Metrics{TotalReturn: 0.10, SharpeRatio: 1.0}},
		nil,
		{Symbols: []string{"B"}, Metrics: Metrics{TotalReturn: -0.05, SharpeRatio: 0.2}},
	}

	c := Compare(portfolios)

	require.Len(t, c.Portfolios, 2)
	assert.Equal(t, "Portfolio 1", c.Portfolios[0].Name)
	assert.Equal(t, "Portfolio 3", c.Portfolios[1].Name)
	assert.Equal(t, 0.10, c.Summary.BestReturn)
	assert.Equal(t, -0.05, c.Summary.WorstReturn)
	assert.InDelta(t, 0.025, c.Summary.AvgReturn, 1e-12)
	assert.Equal(t, 1.0, c.Summary.BestSharpe)
	assert.Equal(t, 0.2, c.Summary.WorstSharpe)
	assert.InDelta(t, 0.6, c.Summary.AvgSharpe, 1e-12)
}

func TestCompare_Empty(t *testing.T) {
	c := Compare(nil)
	assert.Empty(t, c.Portfolios)
	assert.Equal(t, ComparisonSummary{}, c.Summary)
}

func TestCompareRequests_ReportsFailures(t *testing.T) {
	provider := testingpkg.NewMockTimeSeriesProvider()
	provider.SetBars("A", testingpkg.BarsFromCloses(testingpkg.FixtureStart, []float64{10, 11, 12}))
	service := newTestService(provider)

	start, end := window()
	c, err := service.CompareRequests(context.Background(), []SimulationRequest{
		{Symbols: []string{"A"}, Weights: []float64{1}, StartDate: start, EndDate: end},
		{Symbols: []string{"A"}, Weights: []float64{0.5}, StartDate: start, EndDate: end},
	})
	require.NoError(t, err)

	require.Len(t, c.Portfolios, 1)
	require.Len(t, c.Failures, 1)
	assert.Equal(t, "Portfolio 2", c.Failures[0].Name)
	assert.Equal(t, domain.KindInvalidWeights, c.Failures[0].Kind)
	assert.InDelta(t, 0.2, c.Summary.BestReturn, 1e-12)
}
