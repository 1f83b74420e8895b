package prediction

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
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/modules/technical"
	testingpkg "github.com/aristath/advisor/internal/testing"
)

const fixtureBars = 60

func newTestPredictor(provider domain.TimeSeriesProvider) *Predictor {
	log := zerolog.Nop()
	p := NewPredictor(portfolio.NewHistoryFetcher(provider, time.Second, log), technical.NewEngine(), log)
	p.now = func() time.Time { return testingpkg.FixtureStart.AddDate(0, 0, fixtureBars-1) }
	return p
}

func providerWith(symbol string, closes []float64) *testingpkg.MockTimeSeriesProvider {
	provider := testingpkg.NewMockTimeSeriesProvider()
	provider.SetBars(symbol, testingpkg.BarsFromCloses(testingpkg.FixtureStart, closes))
	return provider
}

func TestPredict_FlatSeries(t *testing.T) {
	p := newTestPredictor(providerWith("FLAT", testingpkg.FlatCloses(fixtureBars, 100)))

	result, err := p.Predict(context.Background(), "FLAT", 30, 0.95)

	require.NoError(t, err)
	assert.Equal(t, DirectionFlat, result.Direction)
	assert.Equal(t, 0.0, result.Strength)
	assert.Equal(t, 0.0, result.Volatility)
	assert.Equal(t, 0.0, result.ExpectedChangePercent)
	assert.Equal(t, 1.0, result.VolumeAnalysis.VolumeRatio)
	assert.Equal(t, SignalNeutral, result.TechnicalSignals.RSI)
	assert.InDelta(t, 50.0, result.TechnicalSignals.RSIValue, 1e-9)
	// flat histogram votes bearish and price == SMA20 == SMA50 reads weak-down
	assert.Equal(t, SignalBearish, result.TechnicalSignals.MACD)
	assert.Equal(t, MAWeakDown, result.TechnicalSignals.MovingAverages)
	assert.Equal(t, SignalBearish, result.TechnicalSignals.Overall)
	// baseline + normal volume + bearish majority + low volatility
	assert.InDelta(t, 0.75, result.Confidence, 1e-9)
	assert.Equal(t, RiskLow, result.RiskLevel)
	assert.Equal(t, RecommendHold, result.Recommendation)
	assert.Equal(t, 100.0, result.CurrentPrice)
}

func TestPredict_Uptrend(t *testing.T) {
	p := newTestPredictor(providerWith("UP", testingpkg.TrendCloses(fixtureBars, 100, 1)))

	result, err := p.Predict(context.Background(), "UP", 10, 0.9)

	require.NoError(t, err)
	assert.Equal(t, DirectionUp, result.Direction)
	assert.InDelta(t, 1.0, result.Strength, 1e-9)
	// slope 1 over 30 bars on a last close of 159
	assert.InDelta(t, 30.0/159.0*100, result.ExpectedChangePercent, 1e-6)
	assert.Equal(t, SignalOverbought, result.TechnicalSignals.RSI)
	assert.Equal(t, MAStrongUp, result.TechnicalSignals.MovingAverages)
	assert.Equal(t, SignalBullish, result.TechnicalSignals.Overall)
	assert.Equal(t, maxConfidence, result.Confidence)
	assert.Equal(t, RiskLow, result.RiskLevel)
	assert.Equal(t, RecommendStrongBuy, result.Recommendation)
	assert.Equal(t, "2024-03-01", result.AsOf)
}

func TestPredict_ShortHistoryDoesNotInventSignals(t *testing.T) {
	// 30 bars: SMA50 and the MACD histogram are still undefined
	p := newTestPredictor(providerWith("SHORT", testingpkg.TrendCloses(30, 100, 1)))
	p.now = func() time.Time { return testingpkg.FixtureStart.AddDate(0, 0, 29) }

	result, err := p.Predict(context.Background(), "SHORT", 30, 0.8)

	require.NoError(t, err)
	assert.Equal(t, DirectionUp, result.Direction)
	assert.Equal(t, SignalOverbought, result.TechnicalSignals.RSI)
	assert.Equal(t, SignalNeutral, result.TechnicalSignals.MACD)
	assert.Equal(t, 0.0, result.TechnicalSignals.MACDHistogram)
	assert.Equal(t, MAWeakDown, result.TechnicalSignals.MovingAverages)
	assert.Equal(t, SignalNeutral, result.TechnicalSignals.Overall)
	// strength 1, normal volume, low volatility, no signal bonus
	assert.InDelta(t, 0.85, result.Confidence, 1e-9)
	assert.Equal(t, RecommendConsiderBuy, result.Recommendation)
}

func TestPredict_Downtrend(t *testing.T) {
	p := newTestPredictor(providerWith("DOWN", testingpkg.TrendCloses(fixtureBars, 200, -1)))

	result, err := p.Predict(context.Background(), "DOWN", 10, 0.9)

	require.NoError(t, err)
	assert.Equal(t, DirectionDown, result.Direction)
	assert.Less(t, result.ExpectedChangePercent, 0.0)
	assert.Equal(t, SignalOversold, result.TechnicalSignals.RSI)
	assert.Equal(t, MAStrongDown, result.TechnicalSignals.MovingAverages)
	assert.Equal(t, SignalBearish, result.TechnicalSignals.Overall)
	assert.Equal(t, RecommendSell, result.Recommendation)
}

func TestPredict_EchoesRequestParameters(t *testing.T) {
	p := newTestPredictor(providerWith("UP", testingpkg.TrendCloses(fixtureBars, 100, 1)))

	short, err := p.Predict(context.Background(), "UP", 5, 0.8)
	require.NoError(t, err)
	long, err := p.Predict(context.Background(), "UP", 90, 0.99)
	require.NoError(t, err)

	assert.Equal(t, 5, short.PredictionDays)
	assert.Equal(t, 0.8, short.ConfidenceLevel)
	assert.Equal(t, 90, long.PredictionDays)
	assert.Equal(t, short.ExpectedChangePercent, long.ExpectedChangePercent, "horizon is fixed")
	assert.Equal(t, short.Confidence, long.Confidence)
}

func TestPredict_Validation(t *testing.T) {
	testCases := []struct {
		name       string
		symbol     string
		days       int
		confidence float64
	}{
		{"empty symbol", "", 30, 0.95},
		{"zero days", "AAA", 0, 0.95},
		{"negative days", "AAA", -3, 0.95},
		{"confidence zero", "AAA", 30, 0},
		{"confidence one", "AAA", 30, 1},
		{"confidence NaN", "AAA", 30, math.NaN()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &testingpkg.MockProvider{}
			p := newTestPredictor(provider)

			_, err := p.Predict(context.Background(), tc.symbol, tc.days, tc.confidence)

			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
			provider.AssertNotCalled(t, "GetHistory")
		})
	}
}

func TestPredict_DataUnavailable(t *testing.T) {
	provider := testingpkg.NewMockTimeSeriesProvider()
	provider.SetError("ERR", errors.New("upstream timeout"))
	provider.SetBars("ONE", testingpkg.BarsFromCloses(testingpkg.FixtureStart.AddDate(0, 0, fixtureBars-1), []float64{10}))
	p := newTestPredictor(provider)

	for _, symbol := range []string{"NONE", "ERR", "ONE"} {
		_, err := p.Predict(context.Background(), symbol, 30, 0.95)
		assert.ErrorIs(t, err, domain.ErrDataUnavailable, symbol)
	}
}

func TestPredict_ConfidenceAlwaysBounded(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		p := newTestPredictor(providerWith("RND", testingpkg.NoisyCloses(fixtureBars, 50, seed)))

		result, err := p.Predict(context.Background(), "RND", 30, 0.95)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Confidence, minConfidence)
		assert.LessOrEqual(t, result.Confidence, maxConfidence)
		assert.GreaterOrEqual(t, result.Strength, 0.0)
		assert.LessOrEqual(t, result.Strength, 1.0)
	}
}

func TestAnalyzeVolume(t *testing.T) {
	volumes := make([]float64, 30)
	for i := range volumes {
		volumes[i] = 1_000_000
	}
	volumes[29] = 3_000_000
	closes := testingpkg.FlatCloses(30, 10)

	va := AnalyzeVolume(closes, volumes)

	assert.InDelta(t, 1_100_000, va.AverageVolume, 1e-6)
	assert.InDelta(t, 3.0/1.1, va.VolumeRatio, 1e-9)
	assert.Equal(t, VolumeHigh, va.VolumeTrend)
}

func TestAnalyzeVolume_ShortWindow(t *testing.T) {
	va := AnalyzeVolume(testingpkg.FlatCloses(10, 10), testingpkg.FlatCloses(10, 500))

	assert.Equal(t, 1.0, va.VolumeRatio)
	assert.Equal(t, VolumeLow, va.VolumeTrend)
}

func TestAnalyzeVolume_Correlation(t *testing.T) {
	closes := make([]float64, 30)
	volumes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i%2)
		volumes[i] = 1_000_000 * float64(1+i%2)
	}

	va := AnalyzeVolume(closes, volumes)

	assert.InDelta(t, 1.0, va.PriceVolumeCorrelation, 1e-9)
}

func TestAnalyzeSignals(t *testing.T) {
	testCases := []struct {
		name    string
		latest  technical.Latest
		rsi     string
		macd    string
		ma      string
		overall string
	}{
		{
			name:    "overbought counts bullish",
			latest:  technical.Latest{Close: 110, SMA20: 105, SMA50: 100, RSI: 80, MACDHist: 1, HasSMA20: true, HasSMA50: true, HasRSI: true, HasMACD: true},
			rsi:     SignalOverbought,
			macd:    SignalBullish,
			ma:      MAStrongUp,
			overall: SignalBullish,
		},
		{
			name:    "oversold counts bearish",
			latest:  technical.Latest{Close: 90, SMA20: 95, SMA50: 100, RSI: 20, MACDHist: -1, HasSMA20: true, HasSMA50: true, HasRSI: true, HasMACD: true},
			rsi:     SignalOversold,
			macd:    SignalBearish,
			ma:      MAStrongDown,
			overall: SignalBearish,
		},
		{
			name:    "tie is neutral",
			latest:  technical.Latest{Close: 101, SMA20: 100, SMA50: 102, RSI: 50, MACDHist: -0.5, HasSMA20: true, HasSMA50: true, HasRSI: true, HasMACD: true},
			rsi:     SignalNeutral,
			macd:    SignalBearish,
			ma:      MAWeakUp,
			overall: SignalNeutral,
		},
		{
			name:    "undefined SMA50 reads weak-down",
			latest:  technical.Latest{Close: 130, SMA20: 120, RSI: 80, MACDHist: 2, HasSMA20: true, HasRSI: true, HasMACD: true},
			rsi:     SignalOverbought,
			macd:    SignalBullish,
			ma:      MAWeakDown,
			overall: SignalBullish,
		},
		{
			name:    "undefined SMA20 reads weak-down",
			latest:  technical.Latest{Close: 130, SMA50: 120, RSI: 50, HasSMA50: true, HasRSI: true},
			rsi:     SignalNeutral,
			macd:    SignalNeutral,
			ma:      MAWeakDown,
			overall: SignalBearish,
		},
		{
			name:    "undefined MACD abstains",
			latest:  technical.Latest{Close: 110, SMA20: 105, SMA50: 100, RSI: 50, HasSMA20: true, HasSMA50: true, HasRSI: true},
			rsi:     SignalNeutral,
			macd:    SignalNeutral,
			ma:      MAStrongUp,
			overall: SignalBullish,
		},
		{
			name:    "undefined indicators",
			latest:  technical.Latest{Close: 10},
			rsi:     SignalNeutral,
			macd:    SignalNeutral,
			ma:      MAWeakDown,
			overall: SignalBearish,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := AnalyzeSignals(tc.latest)

			assert.Equal(t, tc.rsi, s.RSI)
			assert.Equal(t, tc.macd, s.MACD)
			assert.Equal(t, tc.ma, s.MovingAverages)
			assert.Equal(t, tc.overall, s.Overall)
		})
	}
}

func TestConfidence(t *testing.T) {
	neutral := TechnicalSignals{Overall: SignalNeutral}
	bullish := TechnicalSignals{Overall: SignalBullish}

	testCases := []struct {
		name     string
		trend    PriceTrend
		ratio    float64
		signals  TechnicalSignals
		expected float64
	}{
		{"baseline", PriceTrend{Volatility: 0.03}, 1.3, neutral, 0.5},
		{"normal volume", PriceTrend{Volatility: 0.03}, 1.0, neutral, 0.6},
		{"high volume", PriceTrend{Volatility: 0.03}, 2.0, neutral, 0.65},
		{"volatile", PriceTrend{Volatility: 0.08}, 1.3, neutral, 0.4},
		{"capped", PriceTrend{Strength: 1, Volatility: 0.01}, 2.0, bullish, maxConfidence},
		{"non-finite floors", PriceTrend{Strength: math.NaN()}, 1.0, neutral, minConfidence},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Confidence(tc.trend, VolumeAnalysis{VolumeRatio: tc.ratio}, tc.signals)
			assert.InDelta(t, tc.expected, got, 1e-9)
		})
	}
}

func TestAssessRisk(t *testing.T) {
	assert.Equal(t, RiskHigh, AssessRisk(0.25, 0.01))
	assert.Equal(t, RiskHigh, AssessRisk(0.9, 0.06))
	assert.Equal(t, RiskMedium, AssessRisk(0.5, 0.01))
	assert.Equal(t, RiskMedium, AssessRisk(0.9, 0.04))
	assert.Equal(t, RiskLow, AssessRisk(0.7, 0.02))
}

func TestRecommend(t *testing.T) {
	up := PriceTrend{Direction: DirectionUp, Strength: 0.8}
	down := PriceTrend{Direction: DirectionDown, Strength: 0.8}
	weakUp := PriceTrend{Direction: DirectionUp, Strength: 0.2}

	bullish := TechnicalSignals{Overall: SignalBullish}
	bearish := TechnicalSignals{Overall: SignalBearish}

	assert.Equal(t, RecommendInsufficientConfidence, Recommend(up, 0.39, bullish))
	assert.Equal(t, RecommendStrongBuy, Recommend(up, 0.8, bullish))
	assert.Equal(t, RecommendConsiderBuy, Recommend(up, 0.8, bearish))
	assert.Equal(t, RecommendSell, Recommend(down, 0.8, bearish))
	assert.Equal(t, RecommendConsiderSell, Recommend(down, 0.8, bullish))
	assert.Equal(t, RecommendHold, Recommend(weakUp, 0.8, bullish))
	assert.Equal(t, RecommendHold, Recommend(PriceTrend{Direction: DirectionFlat}, 0.9, bullish))
}
