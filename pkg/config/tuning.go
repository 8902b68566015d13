package config

// TuningConfig holds the evolvable scalar thresholds consumed by the
// signal scorer and optimized by the auto-tuner. Regime and session maps
// hold per-context overrides keyed by regime/session label, each mapping a
// parameter name to its override value.
type TuningConfig struct {
	StochOversold   int     `json:"stoch_oversold" yaml:"stoch_oversold"`
	StochOverbought int     `json:"stoch_overbought" yaml:"stoch_overbought"`
	RSIOversold     int     `json:"rsi_oversold" yaml:"rsi_oversold"`
	RSIOverbought   int     `json:"rsi_overbought" yaml:"rsi_overbought"`
	MinScoreLong    int     `json:"min_score_long" yaml:"min_score_long"`
	MinScoreShort   int     `json:"min_score_short" yaml:"min_score_short"`
	ATRStopMult     float64 `json:"atr_stop_mult" yaml:"atr_stop_mult"`
	ATRTPMult       float64 `json:"atr_tp_mult" yaml:"atr_tp_mult"`
	ADXMinTrend     int     `json:"adx_min_trend" yaml:"adx_min_trend"`

	RegimeAdjustments  map[string]map[string]float64 `json:"regime_adjustments" yaml:"regime_adjustments"`
	SessionAdjustments map[string]map[string]float64 `json:"session_adjustments" yaml:"session_adjustments"`
}

// DefaultTuningConfig returns the baseline thresholds.
func DefaultTuningConfig() TuningConfig {
	return TuningConfig{
		StochOversold:      20,
		StochOverbought:    80,
		RSIOversold:        30,
		RSIOverbought:      70,
		MinScoreLong:       60,
		MinScoreShort:      60,
		ATRStopMult:        2.0,
		ATRTPMult:          3.0,
		ADXMinTrend:        25,
		RegimeAdjustments:  map[string]map[string]float64{},
		SessionAdjustments: map[string]map[string]float64{},
	}
}

// Param returns the named scalar, honoring regime then session overrides.
func (c TuningConfig) Param(name, regime, session string) float64 {
	if regime != "" {
		if m, ok := c.RegimeAdjustments[regime]; ok {
			if v, ok := m[name]; ok {
				return v
			}
		}
	}
	if session != "" {
		if m, ok := c.SessionAdjustments[session]; ok {
			if v, ok := m[name]; ok {
				return v
			}
		}
	}
	return c.baseParam(name)
}

func (c TuningConfig) baseParam(name string) float64 {
	switch name {
	case "stoch_oversold":
		return float64(c.StochOversold)
	case "stoch_overbought":
		return float64(c.StochOverbought)
	case "rsi_oversold":
		return float64(c.RSIOversold)
	case "rsi_overbought":
		return float64(c.RSIOverbought)
	case "min_score_long":
		return float64(c.MinScoreLong)
	case "min_score_short":
		return float64(c.MinScoreShort)
	case "atr_stop_mult":
		return c.ATRStopMult
	case "atr_tp_mult":
		return c.ATRTPMult
	case "adx_min_trend":
		return float64(c.ADXMinTrend)
	default:
		return 0
	}
}

// SetParam writes the named base scalar. Unknown names are ignored.
func (c *TuningConfig) SetParam(name string, value float64) {
	switch name {
	case "stoch_oversold":
		c.StochOversold = int(value)
	case "stoch_overbought":
		c.StochOverbought = int(value)
	case "rsi_oversold":
		c.RSIOversold = int(value)
	case "rsi_overbought":
		c.RSIOverbought = int(value)
	case "min_score_long":
		c.MinScoreLong = int(value)
	case "min_score_short":
		c.MinScoreShort = int(value)
	case "atr_stop_mult":
		c.ATRStopMult = value
	case "atr_tp_mult":
		c.ATRTPMult = value
	case "adx_min_trend":
		c.ADXMinTrend = int(value)
	}
}
