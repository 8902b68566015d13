package miner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
)

// Pattern is a validated, profitable setup discovered in the trade history.
type Pattern struct {
	ID           string               `json:"pattern_id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Conditions   []learning.Condition `json:"conditions"`
	Direction    string               `json:"direction"`
	WinRate      float64              `json:"win_rate"`
	ProfitFactor float64              `json:"profit_factor"`
	SampleSize   int                  `json:"sample_size"`
	AvgProfit    float64              `json:"avg_profit"`
	MaxDrawdown  float64              `json:"max_drawdown"`
	BestRegime   string               `json:"best_regime"`
	BestSession  string               `json:"best_session"`
	Confidence   float64              `json:"confidence"`
	Optimal      map[string]float64   `json:"optimal,omitempty"`
	DiscoveredAt time.Time            `json:"discovered_at"`
}

// Rule converts the pattern into a trading rule seed. Patterns without
// concrete threshold conditions (pure regime reads) do not convert.
func (p Pattern) Rule() (learning.Rule, bool) {
	if len(p.Conditions) == 0 {
		return learning.Rule{}, false
	}
	r := learning.Rule{
		ID:         p.ID,
		Conditions: append([]learning.Condition(nil), p.Conditions...),
		Direction:  p.Direction,
		Weight:     learning.ClampWeight(int(p.Confidence / 10)),
	}
	if p.BestRegime != "ALL" {
		r.RegimeFilter = p.BestRegime
	}
	if p.BestSession != "ALL" {
		r.SessionFilter = p.BestSession
	}
	return r, true
}

// Config gates which candidate patterns survive mining.
type Config struct {
	MinSampleSize   int     `json:"min_sample_size"`
	MinWinRate      float64 `json:"min_win_rate"`
	MinProfitFactor float64 `json:"min_profit_factor"`

	// AllowSynthetic substitutes generated data when the history is
	// empty. Off unless explicitly requested.
	AllowSynthetic bool `json:"allow_synthetic"`
	SyntheticSeed  int64 `json:"synthetic_seed"`
}

// DefaultConfig returns the standard validation gates.
func DefaultConfig() Config {
	return Config{
		MinSampleSize:   30,
		MinWinRate:      55.0,
		MinProfitFactor: 1.3,
		SyntheticSeed:   42,
	}
}

var indicatorThresholds = map[string][]float64{
	"rsi":            {20, 25, 30, 35, 40, 60, 65, 70, 75, 80},
	"stoch_k":        {15, 20, 25, 30, 70, 75, 80, 85},
	"adx":            {15, 20, 25, 30, 35, 40},
	"atr_percentile": {20, 30, 40, 60, 70, 80},
}

type comboSpec struct {
	name       string
	conditions []learning.Condition
	direction  string
}

var comboCatalog = []comboSpec{
	{
		name: "Oversold Stoch + Bullish RSI",
		conditions: []learning.Condition{
			{Indicator: "stoch_k", Op: learning.OpLess, Value: 25},
			{Indicator: "rsi", Op: learning.OpGreater, Value: 45},
		},
		direction: "LONG",
	},
	{
		name: "Overbought Stoch + Bearish RSI",
		conditions: []learning.Condition{
			{Indicator: "stoch_k", Op: learning.OpGreater, Value: 75},
			{Indicator: "rsi", Op: learning.OpLess, Value: 55},
		},
		direction: "SHORT",
	},
	{
		name: "Strong Trend + RSI Momentum Long",
		conditions: []learning.Condition{
			{Indicator: "adx", Op: learning.OpGreater, Value: 30},
			{Indicator: "rsi", Op: learning.OpGreater, Value: 55},
		},
		direction: "LONG",
	},
	{
		name: "Strong Trend + RSI Momentum Short",
		conditions: []learning.Condition{
			{Indicator: "adx", Op: learning.OpGreater, Value: 30},
			{Indicator: "rsi", Op: learning.OpLess, Value: 45},
		},
		direction: "SHORT",
	},
	{
		name: "Extreme Oversold",
		conditions: []learning.Condition{
			{Indicator: "stoch_k", Op: learning.OpLess, Value: 20},
			{Indicator: "rsi", Op: learning.OpLess, Value: 30},
		},
		direction: "LONG",
	},
	{
		name: "Extreme Overbought",
		conditions: []learning.Condition{
			{Indicator: "stoch_k", Op: learning.OpGreater, Value: 80},
			{Indicator: "rsi", Op: learning.OpGreater, Value: 70},
		},
		direction: "SHORT",
	},
}

var minedRegimes = []string{
	"STRONG_UPTREND", "WEAK_UPTREND", "RANGING", "WEAK_DOWNTREND", "STRONG_DOWNTREND",
}

var minedSessions = []string{"asia", "london", "newyork", "overlap"}

// Miner scans completed trades for setups worth seeding into the evolver.
type Miner struct {
	cfg Config
	log zerolog.Logger
	now func() time.Time
}

// New creates a miner with the given gates.
func New(cfg Config, log zerolog.Logger) *Miner {
	return &Miner{
		cfg: cfg,
		log: log.With().Str("component", "pattern-miner").Logger(),
		now: time.Now,
	}
}

// Mine runs all four pattern families and returns the survivors sorted by
// confidence, highest first.
func (m *Miner) Mine(outcomes []learning.TradeOutcome) []Pattern {
	if len(outcomes) == 0 && m.cfg.AllowSynthetic {
		m.log.Warn().Msg("no trade history, mining synthetic data")
		outcomes = SyntheticOutcomes(1000, m.cfg.SyntheticSeed)
	}

	var all []Pattern
	all = append(all, m.mineSingleIndicator(outcomes)...)
	all = append(all, m.mineCombos(outcomes)...)
	all = append(all, m.mineRegimes(outcomes)...)
	all = append(all, m.mineSessions(outcomes)...)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Confidence > all[j].Confidence
	})

	m.log.Info().Int("patterns", len(all)).Int("trades", len(outcomes)).Msg("mining complete")
	return all
}

func (m *Miner) mineSingleIndicator(outcomes []learning.TradeOutcome) []Pattern {
	var patterns []Pattern

	indicators := make([]string, 0, len(indicatorThresholds))
	for name := range indicatorThresholds {
		indicators = append(indicators, name)
	}
	sort.Strings(indicators)

	for _, indicator := range indicators {
		for _, threshold := range indicatorThresholds[indicator] {
			for _, direction := range []string{"LONG", "SHORT"} {
				for _, op := range []learning.Op{learning.OpLess, learning.OpGreater} {
					cond := learning.Condition{Indicator: indicator, Op: op, Value: threshold}
					group := filter(outcomes, direction, cond)

					stats, ok := m.validate(group)
					if !ok {
						continue
					}

					patterns = append(patterns, Pattern{
						ID:           fmt.Sprintf("P_%s_%s_%g_%s", indicator, op, threshold, direction),
						Name:         fmt.Sprintf("%s %s %g -> %s", strings.ToUpper(indicator), op, threshold, direction),
						Description:  fmt.Sprintf("When %s is %s %g, go %s", indicator, op, threshold, direction),
						Conditions:   []learning.Condition{cond},
						Direction:    direction,
						WinRate:      stats.winRate,
						ProfitFactor: stats.profitFactor,
						SampleSize:   len(group),
						AvgProfit:    stats.avgProfit,
						MaxDrawdown:  stats.maxDrawdown,
						BestRegime:   bestGroup(group, func(o learning.TradeOutcome) string { return o.Regime }),
						BestSession:  bestGroup(group, func(o learning.TradeOutcome) string { return o.Session }),
						Confidence:   confidence(stats.winRate, stats.profitFactor, len(group), 0),
						DiscoveredAt: m.now().UTC(),
					})
				}
			}
		}
	}
	return patterns
}

func (m *Miner) mineCombos(outcomes []learning.TradeOutcome) []Pattern {
	var patterns []Pattern

	for _, combo := range comboCatalog {
		group := filter(outcomes, combo.direction, combo.conditions...)

		stats, ok := m.validate(group)
		if !ok {
			continue
		}

		patterns = append(patterns, Pattern{
			ID:           fmt.Sprintf("COMBO_%s_%s", strings.ReplaceAll(combo.name, " ", "_"), combo.direction),
			Name:         combo.name,
			Description:  fmt.Sprintf("Combo pattern: %s -> %s", combo.name, combo.direction),
			Conditions:   append([]learning.Condition(nil), combo.conditions...),
			Direction:    combo.direction,
			WinRate:      stats.winRate,
			ProfitFactor: stats.profitFactor,
			SampleSize:   len(group),
			AvgProfit:    stats.avgProfit,
			MaxDrawdown:  stats.maxDrawdown,
			BestRegime:   bestGroup(group, func(o learning.TradeOutcome) string { return o.Regime }),
			BestSession:  bestGroup(group, func(o learning.TradeOutcome) string { return o.Session }),
			Confidence:   confidence(stats.winRate, stats.profitFactor, len(group), 10),
			DiscoveredAt: m.now().UTC(),
		})
	}
	return patterns
}

func (m *Miner) mineRegimes(outcomes []learning.TradeOutcome) []Pattern {
	var patterns []Pattern

	for _, regime := range minedRegimes {
		var regimeData []learning.TradeOutcome
		for _, o := range outcomes {
			if o.Regime == regime {
				regimeData = append(regimeData, o)
			}
		}
		if len(regimeData) < m.cfg.MinSampleSize {
			continue
		}

		for _, direction := range []string{"LONG", "SHORT"} {
			var group []learning.TradeOutcome
			for _, o := range regimeData {
				if o.Direction == direction {
					group = append(group, o)
				}
			}
			if len(group) < m.cfg.MinSampleSize/2 {
				continue
			}

			stats, ok := m.validateGroup(group)
			if !ok {
				continue
			}

			patterns = append(patterns, Pattern{
				ID:          fmt.Sprintf("REGIME_%s_%s", regime, direction),
				Name:        fmt.Sprintf("%s -> %s", regime, direction),
				Description: fmt.Sprintf("In %s regime, %s trades perform well", regime, direction),
				Direction:   direction,
				Optimal: map[string]float64{
					"rsi":     avgWinning(group, "rsi"),
					"stoch_k": avgWinning(group, "stoch_k"),
					"adx":     avgWinning(group, "adx"),
				},
				WinRate:      stats.winRate,
				ProfitFactor: stats.profitFactor,
				SampleSize:   len(group),
				AvgProfit:    stats.avgProfit,
				MaxDrawdown:  stats.maxDrawdown,
				BestRegime:   regime,
				BestSession:  "ALL",
				Confidence:   confidence(stats.winRate, stats.profitFactor, len(group), 0),
				DiscoveredAt: m.now().UTC(),
			})
		}
	}
	return patterns
}

func (m *Miner) mineSessions(outcomes []learning.TradeOutcome) []Pattern {
	var patterns []Pattern

	for _, session := range minedSessions {
		var sessionData []learning.TradeOutcome
		for _, o := range outcomes {
			if o.Session == session {
				sessionData = append(sessionData, o)
			}
		}
		if len(sessionData) < m.cfg.MinSampleSize {
			continue
		}

		for _, direction := range []string{"LONG", "SHORT"} {
			var group []learning.TradeOutcome
			for _, o := range sessionData {
				if o.Direction == direction {
					group = append(group, o)
				}
			}
			if len(group) < m.cfg.MinSampleSize/2 {
				continue
			}

			stats, ok := m.validateGroup(group)
			if !ok {
				continue
			}

			adxFloor := avgWinning(group, "adx") - 5

			patterns = append(patterns, Pattern{
				ID:          fmt.Sprintf("SESSION_%s_%s", session, direction),
				Name:        fmt.Sprintf("%s Session -> %s", strings.ToUpper(session), direction),
				Description: fmt.Sprintf("During %s session, %s trades with ADX > %.0f", session, direction, adxFloor+5),
				Conditions: []learning.Condition{
					{Indicator: "adx", Op: learning.OpGreater, Value: adxFloor},
				},
				Direction:    direction,
				WinRate:      stats.winRate,
				ProfitFactor: stats.profitFactor,
				SampleSize:   len(group),
				AvgProfit:    stats.avgProfit,
				MaxDrawdown:  stats.maxDrawdown,
				BestRegime:   "ALL",
				BestSession:  session,
				Confidence:   confidence(stats.winRate, stats.profitFactor, len(group), 0),
				DiscoveredAt: m.now().UTC(),
			})
		}
	}
	return patterns
}

type groupStats struct {
	winRate      float64
	profitFactor float64
	avgProfit    float64
	maxDrawdown  float64
}

// validate checks the full gate set including the sample minimum.
func (m *Miner) validate(group []learning.TradeOutcome) (groupStats, bool) {
	if len(group) < m.cfg.MinSampleSize {
		return groupStats{}, false
	}
	return m.validateGroup(group)
}

// validateGroup checks the win rate and profit factor gates only; the
// caller applies its own sample minimum.
func (m *Miner) validateGroup(group []learning.TradeOutcome) (groupStats, bool) {
	stats := groupStats{
		winRate:      learning.WinRate(group),
		profitFactor: learning.ProfitFactor(group, 0.01),
	}
	if stats.winRate < m.cfg.MinWinRate || stats.profitFactor < m.cfg.MinProfitFactor {
		return groupStats{}, false
	}

	var total float64
	stats.maxDrawdown = group[0].PnL
	for _, o := range group {
		total += o.PnL
		if o.PnL < stats.maxDrawdown {
			stats.maxDrawdown = o.PnL
		}
	}
	stats.avgProfit = total / float64(len(group))
	return stats, true
}

// confidence scores a validated pattern on [0, 100].
func confidence(winRate, profitFactor float64, sampleSize int, bonus float64) float64 {
	c := (winRate-50)*2 + (profitFactor-1)*20 + min(float64(sampleSize)/10, 30) + bonus
	return max(0, min(100, c))
}

func filter(outcomes []learning.TradeOutcome, direction string, conditions ...learning.Condition) []learning.TradeOutcome {
	var out []learning.TradeOutcome
outer:
	for _, o := range outcomes {
		if o.Direction != direction {
			continue
		}
		for _, c := range conditions {
			if !c.Holds(o) {
				continue outer
			}
		}
		out = append(out, o)
	}
	return out
}

// bestGroup returns the key with the highest win rate among the trades,
// or "ALL" when no key is present. Ties resolve alphabetically.
func bestGroup(group []learning.TradeOutcome, key func(learning.TradeOutcome) string) string {
	buckets := make(map[string][]learning.TradeOutcome)
	for _, o := range group {
		if k := key(o); k != "" {
			buckets[k] = append(buckets[k], o)
		}
	}
	if len(buckets) == 0 {
		return "ALL"
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := keys[0]
	bestRate := learning.WinRate(buckets[best])
	for _, k := range keys[1:] {
		if rate := learning.WinRate(buckets[k]); rate > bestRate {
			best, bestRate = k, rate
		}
	}
	return best
}

func avgWinning(group []learning.TradeOutcome, indicator string) float64 {
	var sum float64
	var n int
	for _, o := range group {
		if o.IsWin() {
			sum += o.Value(indicator)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Export writes the discovered pattern set to a JSON artifact.
func Export(patterns []Pattern, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create pattern directory: %w", err)
	}
	data, err := json.MarshalIndent(patterns, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode patterns: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write patterns: %w", err)
	}
	return nil
}
