package prediction

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/modules/technical"
	"github.com/aristath/advisor/internal/utils"
	"github.com/aristath/advisor/pkg/formulas"
)

const (
	// lookbackDays is the calendar span of history loaded per prediction.
	lookbackDays = 365
	// analysisWindow is how many of the latest bars feed the trend and volume analysis.
	analysisWindow = 30
	// volumeAverageWindow is the span of the volume mean.
	volumeAverageWindow = 20
	// expectedChangeHorizonDays projects the slope regardless of the requested days.
	expectedChangeHorizonDays = 30
	// flatSlopeTolerance scales the mean price into the slope treated as flat.
	flatSlopeTolerance = 1e-9

	minConfidence = 0.1
	maxConfidence = 0.95
)

// Predictor scores the trend of one symbol.
type Predictor struct {
	fetcher *portfolio.HistoryFetcher
	engine  *technical.Engine
	now     func() time.Time
	log     zerolog.Logger
}

// NewPredictor creates a trend predictor.
func NewPredictor(fetcher *portfolio.HistoryFetcher, engine *technical.Engine, log zerolog.Logger) *Predictor {
	return &Predictor{
		fetcher: fetcher,
		engine:  engine,
		now:     time.Now,
		log:     log.With().Str("service", "prediction").Logger(),
	}
}

// Predict loads a year of history for symbol and scores its trend.
//
// days and confidenceLevel are validated and echoed back; the projection
// horizon is fixed at expectedChangeHorizonDays and the confidence score does
// not depend on the requested level.
func (p *Predictor) Predict(ctx context.Context, symbol string, days int, confidenceLevel float64) (*TrendPrediction, error) {
	if symbol == "" {
		return nil, domain.InvalidRequest("symbol is required")
	}
	if days <= 0 {
		return nil, domain.InvalidRequest("days must be positive, got %d", days)
	}
	if !(confidenceLevel > 0 && confidenceLevel < 1) {
		return nil, domain.InvalidRequest("confidence_level must be in (0, 1), got %v", confidenceLevel)
	}

	defer utils.OperationTimer("trend_predict", p.log)()

	end := p.now()
	start := end.AddDate(0, 0, -lookbackDays)

	histories, failures := p.fetcher.FetchAll(ctx, []string{symbol}, start, end)
	if len(failures) > 0 {
		return nil, fmt.Errorf("failed to predict %s: %w", symbol, portfolio.MissingSymbolsError(failures))
	}
	bars := histories[symbol]
	if len(bars) < 2 {
		return nil, domain.DataUnavailable("not enough price history for %s: %d bars", symbol, len(bars))
	}

	closes := domain.Closes(bars)
	latest := p.engine.Series(closes).Latest()

	window := bars
	if len(window) > analysisWindow {
		window = window[len(window)-analysisWindow:]
	}

	trend := AnalyzePriceTrend(domain.Closes(window))
	volume := AnalyzeVolume(domain.Closes(window), domain.Volumes(window))
	signals := AnalyzeSignals(latest)
	confidence := Confidence(trend, volume, signals)

	prediction := newTrendPrediction(symbol, bars[len(bars)-1], days, confidenceLevel, trend, volume, signals, confidence)

	p.log.Info().
		Str("symbol", symbol).
		Str("direction", string(prediction.Direction)).
		Float64("confidence", prediction.Confidence).
		Str("recommendation", string(prediction.Recommendation)).
		Msg("Trend predicted")

	return prediction, nil
}

func newTrendPrediction(symbol string, last domain.PriceBar, days int, level float64, trend PriceTrend, volume VolumeAnalysis, signals TechnicalSignals, confidence float64) *TrendPrediction {
	f := formulas.Finite
	volume = VolumeAnalysis{
		CurrentVolume:          f(volume.CurrentVolume),
		AverageVolume:          f(volume.AverageVolume),
		VolumeRatio:            f(volume.VolumeRatio),
		VolumeTrend:            volume.VolumeTrend,
		PriceVolumeCorrelation: f(volume.PriceVolumeCorrelation),
	}
	signals.RSIValue = f(signals.RSIValue)
	signals.MACDHistogram = f(signals.MACDHistogram)

	return &TrendPrediction{
		Symbol:                symbol,
		AsOf:                  last.DayKey(),
		CurrentPrice:          f(last.Close),
		PredictionDays:        days,
		ConfidenceLevel:       level,
		Direction:             trend.Direction,
		Strength:              f(trend.Strength),
		Volatility:            f(trend.Volatility),
		ExpectedChangePercent: f(trend.ExpectedChangePercent),
		Confidence:            confidence,
		RiskLevel:             AssessRisk(confidence, trend.Volatility),
		TechnicalSignals:      signals,
		VolumeAnalysis:        volume,
		Recommendation:        Recommend(trend, confidence, signals),
	}
}

// AnalyzePriceTrend fits a least-squares line to closes.
//
// The trend is flat when |slope| ≤ 1e-9 × mean price. The expected change
// projects the slope expectedChangeHorizonDays bars ahead as a percentage of
// the last close.
func AnalyzePriceTrend(closes []float64) PriceTrend {
	fit := formulas.FitLinearTrend(closes)

	direction := DirectionFlat
	tolerance := flatSlopeTolerance * math.Abs(formulas.Mean(closes))
	switch {
	case fit.Slope > tolerance:
		direction = DirectionUp
	case fit.Slope < -tolerance:
		direction = DirectionDown
	}

	expected := 0.0
	if len(closes) > 0 && closes[len(closes)-1] != 0 {
		expected = fit.Slope * expectedChangeHorizonDays / closes[len(closes)-1] * 100
	}

	return PriceTrend{
		Direction:             direction,
		Strength:              fit.RSquared,
		Slope:                 fit.Slope,
		Volatility:            formulas.StdDev(formulas.CalculateReturns(closes)),
		ExpectedChangePercent: formulas.Finite(expected),
	}
}

// AnalyzeVolume compares the latest volume with the mean of the last 20.
// With fewer than 20 bars, or a zero mean, the ratio is 1.
func AnalyzeVolume(closes, volumes []float64) VolumeAnalysis {
	va := VolumeAnalysis{VolumeRatio: 1}
	if len(volumes) == 0 {
		va.VolumeTrend = volumeLabel(va.VolumeRatio)
		return va
	}

	va.CurrentVolume = volumes[len(volumes)-1]
	if len(volumes) >= volumeAverageWindow {
		va.AverageVolume = formulas.Mean(volumes[len(volumes)-volumeAverageWindow:])
		if va.AverageVolume > 0 {
			va.VolumeRatio = va.CurrentVolume / va.AverageVolume
		}
	}
	va.VolumeTrend = volumeLabel(va.VolumeRatio)
	va.PriceVolumeCorrelation = changeCorrelation(closes, volumes)
	return va
}

func volumeLabel(ratio float64) string {
	switch {
	case ratio > 1.5:
		return VolumeHigh
	case ratio > 1:
		return VolumeNormal
	default:
		return VolumeLow
	}
}

// changeCorrelation is the Pearson correlation of daily % changes in a and b,
// skipping steps where either change is undefined.
func changeCorrelation(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 3 {
		return 0
	}
	var x, y []float64
	for i := 1; i < len(a); i++ {
		if a[i-1] == 0 || b[i-1] == 0 {
			continue
		}
		x = append(x, (a[i]-a[i-1])/a[i-1])
		y = append(y, (b[i]-b[i-1])/b[i-1])
	}
	return formulas.Correlation(x, y)
}

// AnalyzeSignals labels the latest indicator values and takes a majority vote.
//
// An undefined RSI reads neutral and an undefined MACD histogram abstains
// (neutral). When either moving average is undefined the ordering cannot hold
// and the reading is weak-down. Overbought counts as a bullish vote and
// oversold as a bearish one, a momentum reading.
func AnalyzeSignals(l technical.Latest) TechnicalSignals {
	s := TechnicalSignals{
		RSIValue:      l.RSI,
		MACDHistogram: l.MACDHist,
	}

	switch {
	case !l.HasRSI:
		s.RSI = SignalNeutral
	case l.RSI > 70:
		s.RSI = SignalOverbought
	case l.RSI < 30:
		s.RSI = SignalOversold
	default:
		s.RSI = SignalNeutral
	}

	switch {
	case !l.HasMACD:
		s.MACD = SignalNeutral
	case l.MACDHist > 0:
		s.MACD = SignalBullish
	default:
		s.MACD = SignalBearish
	}

	price, sma20, sma50 := l.Close, l.SMA20, l.SMA50
	switch {
	case !l.HasSMA20 || !l.HasSMA50:
		s.MovingAverages = MAWeakDown
	case price > sma20 && sma20 > sma50:
		s.MovingAverages = MAStrongUp
	case price > sma20 && sma20 < sma50:
		s.MovingAverages = MAWeakUp
	case price < sma20 && sma20 < sma50:
		s.MovingAverages = MAStrongDown
	default:
		s.MovingAverages = MAWeakDown
	}

	bullish, bearish := 0, 0
	for _, label := range []string{s.RSI, s.MACD, s.MovingAverages} {
		switch label {
		case SignalOverbought, SignalBullish, MAStrongUp, MAWeakUp:
			bullish++
		case SignalOversold, SignalBearish, MAStrongDown, MAWeakDown:
			bearish++
		}
	}

	switch {
	case bullish > bearish:
		s.Overall = SignalBullish
	case bearish > bullish:
		s.Overall = SignalBearish
	default:
		s.Overall = SignalNeutral
	}
	return s
}

// Confidence scores how much the readings agree, in [0.1, 0.95].
//
//	0.5
//	+ 0.2 × strength
//	+ 0.1 if volume ratio ∈ [0.8, 1.2], + 0.15 if ratio > 1.5
//	+ 0.1 if the overall signal is not neutral
//	+ 0.05 if volatility < 0.02, − 0.1 if volatility > 0.05
func Confidence(trend PriceTrend, volume VolumeAnalysis, signals TechnicalSignals) float64 {
	c := 0.5
	c += trend.Strength * 0.2

	switch ratio := volume.VolumeRatio; {
	case ratio >= 0.8 && ratio <= 1.2:
		c += 0.1
	case ratio > 1.5:
		c += 0.15
	}

	if signals.Overall != SignalNeutral {
		c += 0.1
	}

	switch {
	case trend.Volatility < 0.02:
		c += 0.05
	case trend.Volatility > 0.05:
		c -= 0.1
	}

	return formulas.Clamp(formulas.Finite(c), minConfidence, maxConfidence)
}

// AssessRisk tiers a prediction by confidence and daily volatility.
func AssessRisk(confidence, volatility float64) RiskLevel {
	switch {
	case confidence < 0.3 || volatility > 0.05:
		return RiskHigh
	case confidence < 0.6 || volatility > 0.03:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Recommend maps the trend, confidence and overall signal to an advice code.
// Confidence below 0.4 overrides everything else.
func Recommend(trend PriceTrend, confidence float64, signals TechnicalSignals) Recommendation {
	if confidence < 0.4 {
		return RecommendInsufficientConfidence
	}

	switch {
	case trend.Direction == DirectionUp && trend.Strength > 0.3:
		if signals.Overall == SignalBullish {
			return RecommendStrongBuy
		}
		return RecommendConsiderBuy
	case trend.Direction == DirectionDown && trend.Strength > 0.3:
		if signals.Overall == SignalBearish {
			return RecommendSell
		}
		return RecommendConsiderSell
	default:
		return RecommendHold
	}
}
