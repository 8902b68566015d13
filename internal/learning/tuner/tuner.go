package tuner

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
	"github.com/ducminhle1904/gold-intel-bot/pkg/config"
)

// Evaluation is the score of one candidate config on one data slice.
type Evaluation struct {
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	Trades       int     `json:"trades"`
	Fitness      float64 `json:"fitness"`
}

// Result is the outcome of one parameter's grid search.
type Result struct {
	Parameter    string  `json:"parameter_name"`
	OptimalValue float64 `json:"optimal_value"`
	Improvement  float64 `json:"improvement"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	SampleSize   int     `json:"sample_size"`
	Regime       string  `json:"regime"`
	Session      string  `json:"session"`
}

// HistoryEntry records one full optimization run.
type HistoryEntry struct {
	Timestamp            time.Time `json:"timestamp"`
	DataPoints           int       `json:"data_points"`
	GlobalImprovements   int       `json:"global_improvements"`
	RegimeOptimizations  int       `json:"regime_optimizations"`
	SessionOptimizations int       `json:"session_optimizations"`
}

// Improvement thresholds, in percent over baseline fitness. The global
// one is deliberately stricter than the contextual ones.
const (
	globalApplyThreshold     = 10.0
	contextualApplyThreshold = 5.0
	minSliceRows             = 20
	minCountedTrades         = 10
	minContextRows           = 50
)

var paramGrids = map[string][]float64{
	"stoch_oversold":   {10, 15, 20, 25, 30},
	"stoch_overbought": {65, 70, 75, 80, 85, 90},
	"rsi_oversold":     {20, 25, 30, 35},
	"rsi_overbought":   {60, 65, 70, 75},
	"min_score_long":   {50, 55, 60, 65, 70, 75},
	"min_score_short":  {50, 55, 60, 65, 70, 75},
	"atr_stop_mult":    {1.5, 2.0, 2.5, 3.0},
	"atr_tp_mult":      {2.0, 2.5, 3.0, 3.5, 4.0},
	"adx_min_trend":    {15, 20, 25, 30, 35},
}

// paramOrder fixes grid search iteration for reproducible runs.
var paramOrder = []string{
	"stoch_oversold", "stoch_overbought", "rsi_oversold", "rsi_overbought",
	"min_score_long", "min_score_short", "atr_stop_mult", "atr_tp_mult",
	"adx_min_trend",
}

var regimeContexts = []string{
	"STRONG_UPTREND", "WEAK_UPTREND", "RANGING", "WEAK_DOWNTREND", "STRONG_DOWNTREND",
}

var sessionContexts = []string{"asia", "london", "newyork", "overlap"}

var regimeParams = []string{"stoch_oversold", "stoch_overbought", "min_score_long", "adx_min_trend"}
var sessionParams = []string{"stoch_oversold", "stoch_overbought", "min_score_long"}

// Tuner grid-searches the scorer thresholds against trade history.
type Tuner struct {
	current config.TuningConfig
	history []HistoryEntry
	log     zerolog.Logger
}

// New starts from the given baseline config.
func New(base config.TuningConfig, log zerolog.Logger) *Tuner {
	if base.RegimeAdjustments == nil {
		base.RegimeAdjustments = map[string]map[string]float64{}
	}
	if base.SessionAdjustments == nil {
		base.SessionAdjustments = map[string]map[string]float64{}
	}
	return &Tuner{
		current: base,
		log:     log.With().Str("component", "auto-tuner").Logger(),
	}
}

// Current returns the config as tuned so far.
func (t *Tuner) Current() config.TuningConfig {
	return t.current
}

// EvaluateConfig scores a candidate on the slice selected by the
// direction/regime/session filters. Slices with too little history score
// zero across the board.
func (t *Tuner) EvaluateConfig(cfg config.TuningConfig, data []learning.TradeOutcome, direction, regime, session string) Evaluation {
	var filtered []learning.TradeOutcome
	for _, o := range data {
		if regime != "" && o.Regime != regime {
			continue
		}
		if session != "" && o.Session != session {
			continue
		}
		if direction != "" && o.Direction != direction {
			continue
		}
		filtered = append(filtered, o)
	}
	if len(filtered) < minSliceRows {
		return Evaluation{}
	}

	var wins, losses int
	var totalProfit, totalLoss float64
	for _, o := range filtered {
		stoch := o.Value("stoch_k")
		rsi := o.Value("rsi")
		adx := o.Value("adx")

		var stochOK, rsiOK bool
		if direction == "LONG" {
			stochOK = stoch < cfg.Param("stoch_oversold", regime, session)
			rsiOK = rsi < cfg.Param("rsi_overbought", regime, session)
		} else {
			stochOK = stoch > cfg.Param("stoch_overbought", regime, session)
			rsiOK = rsi > cfg.Param("rsi_oversold", regime, session)
		}
		adxOK := adx >= cfg.Param("adx_min_trend", regime, session)

		if !stochOK && !rsiOK && !adxOK {
			continue
		}
		if o.IsWin() {
			wins++
			totalProfit += math.Abs(o.PnL)
		} else {
			losses++
			totalLoss += math.Abs(o.PnL)
		}
	}

	trades := wins + losses
	if trades < minCountedTrades {
		return Evaluation{}
	}

	winRate := float64(wins) / float64(trades) * 100
	var profitFactor float64
	if totalLoss > 0 {
		profitFactor = totalProfit / totalLoss
	}
	return Evaluation{
		WinRate:      winRate,
		ProfitFactor: profitFactor,
		Trades:       trades,
		Fitness:      (winRate-50)*2 + (profitFactor-1)*15 + min(float64(trades)/5, 20),
	}
}

// OptimizeParameter grid-searches one parameter on the given slice.
// Improvement is relative to the current config's fitness and zero when
// the baseline fitness is not positive.
func (t *Tuner) OptimizeParameter(param string, data []learning.TradeOutcome, direction, regime, session string) (Result, bool) {
	grid, ok := paramGrids[param]
	if !ok {
		return Result{}, false
	}

	baseFitness := t.EvaluateConfig(t.current, data, direction, regime, session).Fitness

	bestFitness := math.Inf(-1)
	var bestValue float64
	var bestEval Evaluation
	for _, value := range grid {
		candidate := t.current
		candidate.SetParam(param, value)

		eval := t.EvaluateConfig(candidate, data, direction, regime, session)
		if eval.Fitness > bestFitness {
			bestFitness = eval.Fitness
			bestValue = value
			bestEval = eval
		}
	}

	var improvement float64
	if baseFitness > 0 {
		improvement = (bestFitness - baseFitness) / baseFitness * 100
	}

	labelOr := func(s string) string {
		if s == "" {
			return "ALL"
		}
		return s
	}
	return Result{
		Parameter:    param,
		OptimalValue: bestValue,
		Improvement:  improvement,
		WinRate:      bestEval.WinRate,
		ProfitFactor: bestEval.ProfitFactor,
		SampleSize:   bestEval.Trades,
		Regime:       labelOr(regime),
		Session:      labelOr(session),
	}, true
}

// Optimize runs the full pass: global parameters first, then per-regime
// and per-session overrides. With no new outcomes a second run is a
// no-op, since every applied value becomes its own baseline.
func (t *Tuner) Optimize(data []learning.TradeOutcome) config.TuningConfig {
	applied := 0
	for _, param := range paramOrder {
		for _, direction := range []string{"LONG", "SHORT"} {
			result, ok := t.OptimizeParameter(param, data, direction, "", "")
			if !ok || result.Improvement <= globalApplyThreshold {
				continue
			}
			t.current.SetParam(param, result.OptimalValue)
			applied++
			t.log.Info().
				Str("param", param).
				Str("direction", direction).
				Float64("value", result.OptimalValue).
				Float64("improvement_pct", result.Improvement).
				Msg("applied global override")
		}
	}

	regimeApplied := t.optimizeContexts(data, regimeContexts, regimeParams, func(o learning.TradeOutcome) string { return o.Regime }, t.current.RegimeAdjustments)
	sessionApplied := t.optimizeContexts(data, sessionContexts, sessionParams, func(o learning.TradeOutcome) string { return o.Session }, t.current.SessionAdjustments)

	t.history = append(t.history, HistoryEntry{
		Timestamp:            time.Now().UTC(),
		DataPoints:           len(data),
		GlobalImprovements:   applied,
		RegimeOptimizations:  regimeApplied,
		SessionOptimizations: sessionApplied,
	})
	return t.current
}

// optimizeContexts tunes the per-context parameter subset, writing only
// the parameters that actually cleared the improvement bar.
func (t *Tuner) optimizeContexts(data []learning.TradeOutcome, contexts, params []string, key func(learning.TradeOutcome) string, adjustments map[string]map[string]float64) int {
	applied := 0
	for _, ctx := range contexts {
		var slice []learning.TradeOutcome
		for _, o := range data {
			if key(o) == ctx {
				slice = append(slice, o)
			}
		}
		if len(slice) < minContextRows {
			continue
		}

		overrides := map[string]float64{}
		for _, param := range params {
			result, ok := t.OptimizeParameter(param, slice, "", "", "")
			if !ok || result.Improvement <= contextualApplyThreshold {
				continue
			}
			overrides[param] = result.OptimalValue
		}
		if len(overrides) > 0 {
			adjustments[ctx] = overrides
			applied++
		}
	}
	return applied
}

// optimizedArtifact is the optimized_config.json document.
type optimizedArtifact struct {
	Timestamp time.Time           `json:"timestamp"`
	Config    config.TuningConfig `json:"config"`
	History   []HistoryEntry      `json:"history"`
}

// ExportConfig writes the tuned config with its run history.
func (t *Tuner) ExportConfig(path string) error {
	return writeJSON(path, optimizedArtifact{
		Timestamp: time.Now().UTC(),
		Config:    t.current,
		History:   t.history,
	})
}

// ExportFirebase writes the flat scalar document consumed by the mobile
// dashboard.
func (t *Tuner) ExportFirebase(path string) error {
	doc := map[string]any{
		"stochOversold":   t.current.StochOversold,
		"stochOverbought": t.current.StochOverbought,
		"rsiOversold":     t.current.RSIOversold,
		"rsiOverbought":   t.current.RSIOverbought,
		"minScoreLong":    t.current.MinScoreLong,
		"minScoreShort":   t.current.MinScoreShort,
		"atrStopMult":     t.current.ATRStopMult,
		"atrTpMult":       t.current.ATRTPMult,
		"adxMinTrend":     t.current.ADXMinTrend,
		"lastUpdated":     time.Now().UTC().Format(time.RFC3339),
		"version":         len(t.history),
	}
	return writeJSON(path, doc)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
