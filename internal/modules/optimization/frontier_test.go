package optimization

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/evaluation/workers"
	"github.com/aristath/advisor/internal/modules/portfolio"
	testingpkg "github.com/aristath/advisor/internal/testing"
)

func newTestGenerator(provider domain.TimeSeriesProvider, seed uint64) *FrontierGenerator {
	log := zerolog.Nop()
	return NewFrontierGenerator(
		portfolio.NewHistoryFetcher(provider, time.Second, log),
		portfolio.NewMetricsCalculator(portfolio.DefaultRiskFreeRate, log),
		workers.NewWorkerPool(4),
		seed,
		log,
	)
}

func threeSymbolProvider() *testingpkg.MockTimeSeriesProvider {
	provider := testingpkg.NewMockTimeSeriesProvider()
	provider.SetBars("AAA", testingpkg.BarsFromCloses(testingpkg.FixtureStart, testingpkg.NoisyCloses(80, 100, 1)))
	provider.SetBars("BBB", testingpkg.BarsFromCloses(testingpkg.FixtureStart, testingpkg.NoisyCloses(80, 50, 2)))
	provider.SetBars("CCC", testingpkg.BarsFromCloses(testingpkg.FixtureStart, testingpkg.NoisyCloses(80, 20, 3)))
	return provider
}

func frontierRequest(symbols []string, n int) FrontierRequest {
	end := testingpkg.FixtureStart.AddDate(0, 0, 120)
	return FrontierRequest{
		Symbols:       symbols,
		StartDate:     testingpkg.FixtureStart.AddDate(0, 0, -1),
		EndDate:       &end,
		NumPortfolios: n,
	}
}

func TestCreate_ZeroPortfolios(t *testing.T) {
	provider := &testingpkg.MockProvider{}
	gen := newTestGenerator(provider, 1)

	result, err := gen.Create(context.Background(), frontierRequest([]string{"AAA"}, 0))

	require.NoError(t, err)
	assert.Empty(t, result.Samples)
	assert.Empty(t, result.Frontier)
	assert.NotNil(t, result.Samples, "serialises as [] not null")
	assert.NotNil(t, result.Frontier)
	provider.AssertNotCalled(t, "GetHistory")
}

func TestCreate_WeightsSumToOne(t *testing.T) {
	gen := newTestGenerator(threeSymbolProvider(), 42)

	result, err := gen.Create(context.Background(), frontierRequest([]string{"AAA", "BBB", "CCC"}, 300))
	require.NoError(t, err)
	require.Len(t, result.Samples, 300)

	for _, s := range result.Samples {
		sum := 0.0
		for _, w := range s.Weights {
			assert.GreaterOrEqual(t, w, 0.0)
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.False(t, math.IsNaN(s.SharpeRatio))
	}
}

func TestCreate_FrontierSharpeIncreasesWithReturn(t *testing.T) {
	gen := newTestGenerator(threeSymbolProvider(), 7)

	result, err := gen.Create(context.Background(), frontierRequest([]string{"AAA", "BBB", "CCC"}, 500))
	require.NoError(t, err)
	require.NotEmpty(t, result.Frontier)

	for i := 1; i < len(result.Frontier); i++ {
		assert.GreaterOrEqual(t, result.Frontier[i].Return, result.Frontier[i-1].Return)
		assert.Greater(t, result.Frontier[i].SharpeRatio, result.Frontier[i-1].SharpeRatio)
	}

	require.NotNil(t, result.MaxSharpe)
	assert.Equal(t, result.MaxSharpe.SharpeRatio, result.Frontier[len(result.Frontier)-1].SharpeRatio)
	require.NotNil(t, result.MinVolatility)
	for _, s := range result.Samples {
		assert.GreaterOrEqual(t, s.Volatility, result.MinVolatility.Volatility)
	}
}

func TestCreate_DeterministicForSeed(t *testing.T) {
	req := frontierRequest([]string{"AAA", "BBB"}, 50)

	first, err := newTestGenerator(threeSymbolProvider(), 99).Create(context.Background(), req)
	require.NoError(t, err)
	second, err := newTestGenerator(threeSymbolProvider(), 99).Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Samples, second.Samples)
}

func TestCreate_FetchesEachSymbolOnce(t *testing.T) {
	provider := threeSymbolProvider()
	gen := newTestGenerator(provider, 3)

	_, err := gen.Create(context.Background(), frontierRequest([]string{"AAA", "BBB", "CCC"}, 200))
	require.NoError(t, err)

	assert.Equal(t, 1, provider.Calls("AAA"))
	assert.Equal(t, 1, provider.Calls("BBB"))
	assert.Equal(t, 1, provider.Calls("CCC"))
}

func TestCreate_ToleratesFailedSymbols(t *testing.T) {
	provider := threeSymbolProvider()
	provider.SetError("BBB", errors.New("rate limited"))
	gen := newTestGenerator(provider, 5)

	result, err := gen.Create(context.Background(), frontierRequest([]string{"AAA", "BBB", "CCC", "ZZZ"}, 20))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "CCC"}, result.Symbols)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "BBB")
	assert.Contains(t, result.Warnings[1], "ZZZ")
	for _, s := range result.Samples {
		assert.Len(t, s.Weights, 2)
	}
}

func TestCreate_AllSymbolsFailed(t *testing.T) {
	gen := newTestGenerator(testingpkg.NewMockTimeSeriesProvider(), 5)

	_, err := gen.Create(context.Background(), frontierRequest([]string{"X", "Y"}, 20))
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestCreate_RejectsOversizedRequest(t *testing.T) {
	gen := newTestGenerator(threeSymbolProvider(), 5)

	_, err := gen.Create(context.Background(), frontierRequest([]string{"AAA"}, MaxNumPortfolios+1))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCreateWithProgress(t *testing.T) {
	gen := newTestGenerator(threeSymbolProvider(), 11)

	var last, total int
	_, err := gen.CreateWithProgress(context.Background(), frontierRequest([]string{"AAA", "BBB"}, 40), func(current, n int, _ string) {
		last, total = current, n
	})
	require.NoError(t, err)
	assert.Equal(t, 40, last)
	assert.Equal(t, 40, total)
}

func TestExtractFrontier(t *testing.T) {
	samples := []Sample{
		{Return: 0.10, SharpeRatio: 0.5},
		{Return: 0.02, SharpeRatio: 0.8},
		{Return: 0.05, SharpeRatio: 0.6}, // dominated by the 0.02 sample's Sharpe
		{Return: 0.12, SharpeRatio: 1.1},
		{Return: 0.08, SharpeRatio: 0.8}, // ties the running max, not strictly greater
	}

	frontier := ExtractFrontier(samples)

	require.Len(t, frontier, 2)
	assert.Equal(t, 0.02, frontier[0].Return)
	assert.Equal(t, 0.12, frontier[1].Return)
	assert.Empty(t, ExtractFrontier(nil))
}
