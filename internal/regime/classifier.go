package regime

import (
	"errors"
	"math"

	"github.com/ducminhle1904/gold-intel-bot/internal/indicators"
	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// ErrInsufficientHistory is returned when a bar index is requested before
// the classifier's minimum history.
var ErrInsufficientHistory = errors.New("insufficient history for regime classification")

// Classifier labels bars with (trend, volatility, liquidity). Trend comes
// from ADX strength combined with the EMA21 slope and EMA alignment;
// volatility and liquidity compare the current bar against a rolling mean.
type Classifier struct {
	cfg Config
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(cfg Config) *Classifier {
	if cfg.RatioWindow == 0 {
		cfg = DefaultConfig()
	}
	return &Classifier{cfg: cfg}
}

// ClassifySeries labels every bar from MinHistory on. The returned slice is
// parallel to the input; entries before MinHistory are zero values.
func (c *Classifier) ClassifySeries(bars []types.OHLCV, rows []indicators.Row) []Regime {
	out := make([]Regime, len(bars))
	for i := c.cfg.MinHistory; i < len(bars); i++ {
		r, err := c.Classify(bars, rows, i)
		if err != nil {
			continue
		}
		out[i] = r
	}
	return out
}

// Classify labels the bar at index i. Only bars at or before i are consulted.
func (c *Classifier) Classify(bars []types.OHLCV, rows []indicators.Row, i int) (Regime, error) {
	if i < c.cfg.MinHistory || i >= len(bars) || len(rows) != len(bars) {
		return Regime{}, ErrInsufficientHistory
	}

	row := rows[i]
	price := bars[i].Close
	ema9 := row.Value(indicators.KeyEMA9, price)
	ema21 := row.Value(indicators.KeyEMA21, price)
	ema50 := row.Value(indicators.KeyEMA50, price)
	adx := row.Value(indicators.KeyADX, 0)

	slope := c.emaSlopePct(rows, i)
	trend := c.classifyTrend(adx, slope, price, ema9, ema21, ema50)
	volatility, atrRatio := c.classifyVolatility(rows, i)
	liquidity, volRatio := c.classifyLiquidity(bars, i)

	return Regime{
		Timestamp:   bars[i].Timestamp,
		Trend:       trend,
		Volatility:  volatility,
		Liquidity:   liquidity,
		ADX:         adx,
		EMASlopePct: slope,
		ATRRatio:    atrRatio,
		VolumeRatio: volRatio,
		Price:       price,
		EMA9:        ema9,
		EMA21:       ema21,
		EMA50:       ema50,
	}, nil
}

func (c *Classifier) emaSlopePct(rows []indicators.Row, i int) float64 {
	back := i - c.cfg.EMASlopePeriod
	if back < 0 {
		return 0
	}
	current, ok1 := rows[i].Get(indicators.KeyEMA21)
	prev, ok2 := rows[back].Get(indicators.KeyEMA21)
	if !ok1 || !ok2 || prev == 0 {
		return 0
	}
	return (current - prev) / prev * 100
}

func (c *Classifier) classifyTrend(adx, slope, price, ema9, ema21, ema50 float64) Trend {
	bullish := price > ema9 && ema9 > ema21 && ema21 > ema50
	bearish := price < ema9 && ema9 < ema21 && ema21 < ema50

	switch {
	case adx > c.cfg.ADXStrongTrend:
		if slope > c.cfg.SlopeStrong || bullish {
			return StrongUptrend
		}
		if slope < -c.cfg.SlopeStrong || bearish {
			return StrongDowntrend
		}
		if slope > 0 {
			return WeakUptrend
		}
		return WeakDowntrend
	case adx < c.cfg.ADXRanging:
		return Ranging
	default:
		if slope > c.cfg.SlopeWeak {
			return WeakUptrend
		}
		if slope < -c.cfg.SlopeWeak {
			return WeakDowntrend
		}
		return Ranging
	}
}

func (c *Classifier) classifyVolatility(rows []indicators.Row, i int) (Volatility, float64) {
	current, ok := rows[i].Get(indicators.KeyATR)
	if !ok {
		return NormalVol, 1.0
	}
	mean := 0.0
	count := 0
	for j := max(0, i-c.cfg.RatioWindow+1); j <= i; j++ {
		if v, ok := rows[j].Get(indicators.KeyATR); ok && !math.IsNaN(v) {
			mean += v
			count++
		}
	}
	if count == 0 || mean == 0 {
		return NormalVol, 1.0
	}
	ratio := current / (mean / float64(count))
	switch {
	case ratio > c.cfg.HighRatio:
		return HighVol, ratio
	case ratio < c.cfg.LowRatio:
		return LowVol, ratio
	default:
		return NormalVol, ratio
	}
}

func (c *Classifier) classifyLiquidity(bars []types.OHLCV, i int) (Liquidity, float64) {
	current := bars[i].Volume
	if current <= 0 {
		return NormalLiquidity, 1.0
	}
	mean := 0.0
	count := 0
	for j := max(0, i-c.cfg.RatioWindow+1); j <= i; j++ {
		if bars[j].Volume > 0 {
			mean += bars[j].Volume
			count++
		}
	}
	if count == 0 || mean == 0 {
		return NormalLiquidity, 1.0
	}
	ratio := current / (mean / float64(count))
	switch {
	case ratio > c.cfg.HighRatio:
		return HighLiquidity, ratio
	case ratio < c.cfg.LowRatio:
		return LowLiquidity, ratio
	default:
		return NormalLiquidity, ratio
	}
}
