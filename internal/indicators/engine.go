package indicators

import (
	"math"
	"sort"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// Row field names. These match the name column of the indicator store.
const (
	KeyEMA9       = "ema_9"
	KeyEMA21      = "ema_21"
	KeyEMA50      = "ema_50"
	KeyEMA200     = "ema_200"
	KeySMA20      = "sma_20"
	KeyRSI        = "rsi"
	KeyMACD       = "macd"
	KeyMACDSignal = "macd_signal"
	KeyMACDHist   = "macd_hist"
	KeyBBUpper    = "bb_upper"
	KeyBBMiddle   = "bb_middle"
	KeyBBLower    = "bb_lower"
	KeyATR        = "atr"
	KeyADX        = "adx"
	KeyPlusDI     = "plus_di"
	KeyMinusDI    = "minus_di"
	KeyStochK     = "stoch_k"
	KeyStochD     = "stoch_d"
)

// Row holds the indicator values for one bar. A missing key means the
// indicator's warm-up window was not satisfied at that index.
type Row map[string]float64

// Get returns a value and whether it is present.
func (r Row) Get(name string) (float64, bool) {
	v, ok := r[name]
	return v, ok
}

// Value returns the field or def when absent.
func (r Row) Value(name string, def float64) float64 {
	if v, ok := r[name]; ok {
		return v
	}
	return def
}

// Config holds the indicator periods. Defaults mirror the production
// configuration for gold futures.
type Config struct {
	EMAPeriods   []int   `yaml:"ema_periods" json:"ema_periods"`
	RSIPeriod    int     `yaml:"rsi_period" json:"rsi_period"`
	MACDFast     int     `yaml:"macd_fast" json:"macd_fast"`
	MACDSlow     int     `yaml:"macd_slow" json:"macd_slow"`
	MACDSignal   int     `yaml:"macd_signal" json:"macd_signal"`
	BBPeriod     int     `yaml:"bb_period" json:"bb_period"`
	BBMultiplier float64 `yaml:"bb_multiplier" json:"bb_multiplier"`
	ATRPeriod    int     `yaml:"atr_period" json:"atr_period"`
	ADXPeriod    int     `yaml:"adx_period" json:"adx_period"`
	StochK       int     `yaml:"stoch_k" json:"stoch_k"`
	StochSmooth  int     `yaml:"stoch_smooth" json:"stoch_smooth"`
	StochD       int     `yaml:"stoch_d" json:"stoch_d"`
}

// DefaultConfig returns the standard periods.
func DefaultConfig() Config {
	return Config{
		EMAPeriods:   []int{9, 21, 50, 200},
		RSIPeriod:    14,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		BBPeriod:     20,
		BBMultiplier: 2.0,
		ATRPeriod:    14,
		ADXPeriod:    14,
		StochK:       14,
		StochSmooth:  3,
		StochD:       3,
	}
}

// Engine computes a full indicator series from a bar window. All output is
// a deterministic function of the input; no state survives between calls.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given config.
func NewEngine(cfg Config) *Engine {
	if len(cfg.EMAPeriods) == 0 {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

// ComputeSeries returns one Row per bar, parallel to the input.
func (e *Engine) ComputeSeries(data []types.OHLCV) []Row {
	n := len(data)
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{}
	}
	if n == 0 {
		return rows
	}

	cls := closes(data)

	emaKeys := map[int]string{9: KeyEMA9, 21: KeyEMA21, 50: KeyEMA50, 200: KeyEMA200}
	for _, p := range e.cfg.EMAPeriods {
		key, ok := emaKeys[p]
		if !ok {
			continue
		}
		series := EMASeries(cls, p)
		for i := 0; i < n; i++ {
			rows[i][key] = series[i]
		}
	}

	setSeries(rows, KeySMA20, SMASeries(cls, e.cfg.BBPeriod))
	setSeries(rows, KeyRSI, RSISeries(cls, e.cfg.RSIPeriod))

	line, signal, hist := MACDSeries(cls, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	setSeries(rows, KeyMACD, line)
	setSeries(rows, KeyMACDSignal, signal)
	setSeries(rows, KeyMACDHist, hist)

	upper, middle, lower := BollingerSeries(cls, e.cfg.BBPeriod, e.cfg.BBMultiplier)
	setSeries(rows, KeyBBUpper, upper)
	setSeries(rows, KeyBBMiddle, middle)
	setSeries(rows, KeyBBLower, lower)

	setSeries(rows, KeyATR, ATRSeries(data, e.cfg.ATRPeriod))

	adx, plusDI, minusDI := ADXSeries(data, e.cfg.ADXPeriod)
	setSeries(rows, KeyADX, adx)
	setSeries(rows, KeyPlusDI, plusDI)
	setSeries(rows, KeyMinusDI, minusDI)

	k, d := StochasticSeries(data, e.cfg.StochK, e.cfg.StochSmooth, e.cfg.StochD)
	setSeries(rows, KeyStochK, k)
	setSeries(rows, KeyStochD, d)

	return rows
}

// setSeries copies defined values into the rows, skipping NaN warm-up slots.
func setSeries(rows []Row, key string, series []float64) {
	for i, v := range series {
		if math.IsNaN(v) {
			continue
		}
		rows[i][key] = v
	}
}

// ATRPercentile returns the percentile rank (0-100) of the value at index
// within the defined portion of the ATR series up to and including index.
func ATRPercentile(atr []float64, index int) float64 {
	if index < 0 || index >= len(atr) {
		return 50
	}
	var window []float64
	for i := 0; i <= index; i++ {
		if !math.IsNaN(atr[i]) {
			window = append(window, atr[i])
		}
	}
	if len(window) < 2 {
		return 50
	}
	current := atr[index]
	sort.Float64s(window)
	below := 0
	for _, v := range window {
		if v < current {
			below++
		}
	}
	return float64(below) / float64(len(window)-1) * 100
}
