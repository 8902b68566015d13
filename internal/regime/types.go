package regime

import "time"

// Trend labels the directional state of the market.
type Trend string

const (
	StrongUptrend   Trend = "STRONG_UPTREND"
	WeakUptrend     Trend = "WEAK_UPTREND"
	Ranging         Trend = "RANGING"
	WeakDowntrend   Trend = "WEAK_DOWNTREND"
	StrongDowntrend Trend = "STRONG_DOWNTREND"
)

// Volatility labels the ATR state relative to its recent mean.
type Volatility string

const (
	LowVol    Volatility = "LOW_VOLATILITY"
	NormalVol Volatility = "NORMAL_VOLATILITY"
	HighVol   Volatility = "HIGH_VOLATILITY"
)

// Liquidity labels the volume state relative to its recent mean.
type Liquidity string

const (
	LowLiquidity    Liquidity = "LOW_LIQUIDITY"
	NormalLiquidity Liquidity = "NORMAL_LIQUIDITY"
	HighLiquidity   Liquidity = "HIGH_LIQUIDITY"
)

// IsUptrend reports whether the trend is any uptrend.
func (t Trend) IsUptrend() bool {
	return t == StrongUptrend || t == WeakUptrend
}

// IsDowntrend reports whether the trend is any downtrend.
func (t Trend) IsDowntrend() bool {
	return t == StrongDowntrend || t == WeakDowntrend
}

// Regime is the market-state label attached to one bar.
type Regime struct {
	Timestamp   time.Time  `json:"timestamp"`
	Trend       Trend      `json:"trend"`
	Volatility  Volatility `json:"volatility"`
	Liquidity   Liquidity  `json:"liquidity"`
	ADX         float64    `json:"adx"`
	EMASlopePct float64    `json:"ema_slope_pct"`
	ATRRatio    float64    `json:"atr_ratio"`
	VolumeRatio float64    `json:"volume_ratio"`
	Price       float64    `json:"price"`
	EMA9        float64    `json:"ema_9"`
	EMA21       float64    `json:"ema_21"`
	EMA50       float64    `json:"ema_50"`
}

// Config holds the classification thresholds.
type Config struct {
	ADXStrongTrend   float64 `json:"adx_strong_trend"`   // above: trending market
	ADXRanging       float64 `json:"adx_ranging"`        // below: ranging market
	SlopeStrong      float64 `json:"slope_strong"`       // pct slope for strong trends
	SlopeWeak        float64 `json:"slope_weak"`         // pct slope for weak trends
	EMASlopePeriod   int     `json:"ema_slope_period"`   // bars back for the EMA21 slope
	RatioWindow      int     `json:"ratio_window"`       // mean window for ATR and volume ratios
	HighRatio        float64 `json:"high_ratio"`         // ratio above: high vol/liquidity
	LowRatio         float64 `json:"low_ratio"`          // ratio below: low vol/liquidity
	MinHistory       int     `json:"min_history"`        // first classifiable bar index
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		ADXStrongTrend: 25,
		ADXRanging:     20,
		SlopeStrong:    0.5,
		SlopeWeak:      0.2,
		EMASlopePeriod: 5,
		RatioWindow:    20,
		HighRatio:      1.5,
		LowRatio:       0.7,
		MinHistory:     30,
	}
}
