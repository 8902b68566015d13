package patterns

import (
	"time"

	"github.com/ducminhle1904/gold-intel-bot/internal/indicators"
	"github.com/ducminhle1904/gold-intel-bot/internal/regime"
)

// EMACrossState describes the EMA9/EMA21 relationship at one bar.
type EMACrossState string

const (
	BullishCross   EMACrossState = "BULLISH_CROSS"
	BearishCross   EMACrossState = "BEARISH_CROSS"
	BullishAligned EMACrossState = "BULLISH_ALIGNED"
	BearishAligned EMACrossState = "BEARISH_ALIGNED"
)

// StochLevel bands the smoothed %K.
type StochLevel string

const (
	StochOversold   StochLevel = "OVERSOLD"   // < 20
	StochLow        StochLevel = "LOW"        // 20-40
	StochNeutral    StochLevel = "NEUTRAL"    // 40-60
	StochHigh       StochLevel = "HIGH"       // 60-80
	StochOverbought StochLevel = "OVERBOUGHT" // > 80
)

// RSILevel bands the RSI.
type RSILevel string

const (
	RSIOversold   RSILevel = "OVERSOLD"   // < 30
	RSILow        RSILevel = "LOW"        // 30-45
	RSINeutral    RSILevel = "NEUTRAL"    // 45-55
	RSIHigh       RSILevel = "HIGH"       // 55-70
	RSIOverbought RSILevel = "OVERBOUGHT" // > 70
)

// Setup is the 6-field discrete fingerprint of a bar, used as the
// similarity key for pattern matching. Raw values ride along for
// inspection but do not participate in similarity.
type Setup struct {
	Timestamp  time.Time         `json:"timestamp"`
	Trend      regime.Trend      `json:"trend"`
	Volatility regime.Volatility `json:"volatility"`
	Liquidity  regime.Liquidity  `json:"liquidity"`
	EMACross   EMACrossState     `json:"ema_cross"`
	StochLevel StochLevel        `json:"stoch_level"`
	RSILevel   RSILevel          `json:"rsi_level"`

	Price  float64 `json:"price"`
	RSI    float64 `json:"rsi"`
	StochK float64 `json:"stoch_k"`
	ADX    float64 `json:"adx"`
	ATR    float64 `json:"atr"`
}

// Features returns the discrete fields in canonical order.
func (s Setup) Features() [6]string {
	return [6]string{
		string(s.Trend),
		string(s.Volatility),
		string(s.Liquidity),
		string(s.EMACross),
		string(s.StochLevel),
		string(s.RSILevel),
	}
}

// ClassifyStoch bands a %K value.
func ClassifyStoch(k float64) StochLevel {
	switch {
	case k < 20:
		return StochOversold
	case k < 40:
		return StochLow
	case k < 60:
		return StochNeutral
	case k < 80:
		return StochHigh
	default:
		return StochOverbought
	}
}

// ClassifyRSI bands an RSI value.
func ClassifyRSI(rsi float64) RSILevel {
	switch {
	case rsi < 30:
		return RSIOversold
	case rsi < 45:
		return RSILow
	case rsi < 55:
		return RSINeutral
	case rsi < 70:
		return RSIHigh
	default:
		return RSIOverbought
	}
}

// DetectEMACross compares the current and previous rows. With no previous
// bar or missing EMAs the state defaults to bullish-aligned.
func DetectEMACross(rows []indicators.Row, idx int) EMACrossState {
	if idx < 1 {
		return BullishAligned
	}
	ema9Now, ok1 := rows[idx].Get(indicators.KeyEMA9)
	ema21Now, ok2 := rows[idx].Get(indicators.KeyEMA21)
	ema9Prev, ok3 := rows[idx-1].Get(indicators.KeyEMA9)
	ema21Prev, ok4 := rows[idx-1].Get(indicators.KeyEMA21)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return BullishAligned
	}

	switch {
	case ema9Prev <= ema21Prev && ema9Now > ema21Now:
		return BullishCross
	case ema9Prev >= ema21Prev && ema9Now < ema21Now:
		return BearishCross
	case ema9Now > ema21Now:
		return BullishAligned
	default:
		return BearishAligned
	}
}

// BuildSetup assembles the fingerprint for one bar from its indicator row
// and regime label.
func BuildSetup(rows []indicators.Row, idx int, r regime.Regime) Setup {
	row := rows[idx]
	return Setup{
		Timestamp:  r.Timestamp,
		Trend:      r.Trend,
		Volatility: r.Volatility,
		Liquidity:  r.Liquidity,
		EMACross:   DetectEMACross(rows, idx),
		StochLevel: ClassifyStoch(row.Value(indicators.KeyStochK, 50)),
		RSILevel:   ClassifyRSI(row.Value(indicators.KeyRSI, 50)),
		Price:      r.Price,
		RSI:        row.Value(indicators.KeyRSI, 50),
		StochK:     row.Value(indicators.KeyStochK, 50),
		ADX:        row.Value(indicators.KeyADX, 0),
		ATR:        row.Value(indicators.KeyATR, 0),
	}
}
