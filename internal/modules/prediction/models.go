// Package prediction scores the short-term trend of a single symbol from its
// price regression, volume behaviour and technical indicators.
package prediction

// Direction of the fitted price trend.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Signal labels. RSI reads overbought/oversold/neutral, MACD bullish/bearish,
// moving averages one of the four MA* labels, overall bullish/bearish/neutral.
const (
	SignalOverbought = "overbought"
	SignalOversold   = "oversold"
	SignalNeutral    = "neutral"
	SignalBullish    = "bullish"
	SignalBearish    = "bearish"

	MAStrongUp   = "strong-up"
	MAWeakUp     = "weak-up"
	MAStrongDown = "strong-down"
	MAWeakDown   = "weak-down"
)

// RiskLevel tiers.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Recommendation is a closed set of advice codes.
type Recommendation string

const (
	RecommendInsufficientConfidence Recommendation = "insufficient-confidence"
	RecommendStrongBuy              Recommendation = "strong-buy"
	RecommendConsiderBuy            Recommendation = "consider-buy"
	RecommendSell                   Recommendation = "sell"
	RecommendConsiderSell           Recommendation = "consider-sell"
	RecommendHold                   Recommendation = "hold"
)

// Volume labels.
const (
	VolumeHigh   = "high"
	VolumeNormal = "normal"
	VolumeLow    = "low"
)

// PriceTrend is the regression over the analysis window.
type PriceTrend struct {
	Direction             Direction
	Strength              float64 // R², [0, 1]
	Slope                 float64 // price units per bar
	Volatility            float64 // sample stdev of daily % changes
	ExpectedChangePercent float64
}

// VolumeAnalysis compares the latest volume with its recent mean.
type VolumeAnalysis struct {
	CurrentVolume          float64 `json:"current_volume"`
	AverageVolume          float64 `json:"average_volume"`
	VolumeRatio            float64 `json:"volume_ratio"`
	VolumeTrend            string  `json:"volume_trend"`
	PriceVolumeCorrelation float64 `json:"price_volume_correlation"`
}

// TechnicalSignals are the discrete readings of the latest indicator values.
type TechnicalSignals struct {
	RSI            string  `json:"rsi"`
	RSIValue       float64 `json:"rsi_value"`
	MACD           string  `json:"macd"`
	MACDHistogram  float64 `json:"macd_histogram"`
	MovingAverages string  `json:"moving_averages"`
	Overall        string  `json:"overall"`
}

// TrendPrediction is the result of one prediction call.
type TrendPrediction struct {
	Symbol                string           `json:"symbol"`
	AsOf                  string           `json:"as_of"`
	CurrentPrice          float64          `json:"current_price"`
	PredictionDays        int              `json:"prediction_days"`
	ConfidenceLevel       float64          `json:"confidence_level"`
	Direction             Direction        `json:"direction"`
	Strength              float64          `json:"strength"`
	Volatility            float64          `json:"volatility"`
	ExpectedChangePercent float64          `json:"expected_change_percent"`
	Confidence            float64          `json:"confidence"`
	RiskLevel             RiskLevel        `json:"risk_level"`
	TechnicalSignals      TechnicalSignals `json:"technical_signals"`
	VolumeAnalysis        VolumeAnalysis   `json:"volume_analysis"`
	Recommendation        Recommendation   `json:"recommendation"`
}
