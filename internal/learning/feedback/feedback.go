package feedback

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/internal/autolog"
	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
)

// Metrics summarizes completed trades inside one look-back window.
type Metrics struct {
	WindowDays     int     `json:"window_days"`
	TotalSignals   int     `json:"total_signals"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	LargestWin     float64 `json:"largest_win"`
	LargestLoss    float64 `json:"largest_loss"`
	AvgHoldMinutes float64 `json:"avg_hold_minutes"`
	BestRegime     string  `json:"best_regime"`
	WorstRegime    string  `json:"worst_regime"`
	BestSession    string  `json:"best_session"`
	WorstSession   string  `json:"worst_session"`
}

// Trigger records one degradation event and why it fired.
type Trigger struct {
	FiredAt    time.Time `json:"fired_at"`
	Reasons    []string  `json:"reasons"`
	Recent     Metrics   `json:"recent"`
	Historical Metrics   `json:"historical"`
}

// Degradation thresholds. Recent performance is the 7-day window,
// historical the 30-day one.
const (
	winRateDropPP    = 10.0
	minProfitFactor  = 1.2
	minWinRate       = 50.0
	minRecentSignals = 10
)

// Compute derives window metrics over outcomes no older than days before
// now.
func Compute(outcomes []learning.TradeOutcome, now time.Time, days int) Metrics {
	cutoff := now.AddDate(0, 0, -days)

	var window []learning.TradeOutcome
	for _, o := range outcomes {
		if !o.Timestamp.Before(cutoff) {
			window = append(window, o)
		}
	}

	m := Metrics{
		WindowDays:   days,
		TotalSignals: len(window),
		WinRate:      learning.WinRate(window),
		ProfitFactor: learning.ProfitFactor(window, 0.01),
	}

	var sumWin, sumLoss, sumHold float64
	for _, o := range window {
		sumHold += o.HoldMinutes
		if o.PnL > 0 {
			m.Wins++
			sumWin += o.PnL
			if o.PnL > m.LargestWin {
				m.LargestWin = o.PnL
			}
		} else if o.PnL < 0 {
			m.Losses++
			sumLoss += -o.PnL
			if o.PnL < m.LargestLoss {
				m.LargestLoss = o.PnL
			}
		}
	}
	if m.Wins > 0 {
		m.AvgWin = sumWin / float64(m.Wins)
	}
	if m.Losses > 0 {
		m.AvgLoss = sumLoss / float64(m.Losses)
	}
	if len(window) > 0 {
		m.AvgHoldMinutes = sumHold / float64(len(window))
	}

	m.BestRegime, m.WorstRegime = extremeGroups(window, func(o learning.TradeOutcome) string { return o.Regime })
	m.BestSession, m.WorstSession = extremeGroups(window, func(o learning.TradeOutcome) string { return o.Session })
	return m
}

// extremeGroups returns the keys with the highest and lowest win rate.
// Ties resolve alphabetically so reports are stable.
func extremeGroups(outcomes []learning.TradeOutcome, key func(learning.TradeOutcome) string) (best, worst string) {
	buckets := map[string][]learning.TradeOutcome{}
	for _, o := range outcomes {
		if k := key(o); k != "" {
			buckets[k] = append(buckets[k], o)
		}
	}
	if len(buckets) == 0 {
		return "", ""
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, worst = keys[0], keys[0]
	bestRate := learning.WinRate(buckets[best])
	worstRate := bestRate
	for _, k := range keys[1:] {
		rate := learning.WinRate(buckets[k])
		if rate > bestRate {
			best, bestRate = k, rate
		}
		if rate < worstRate {
			worst, worstRate = k, rate
		}
	}
	return best, worst
}

// Check compares recent performance against the historical baseline and
// reports whether re-optimization should run. Windows with fewer than
// minRecentSignals trades never trigger.
func Check(recent, historical Metrics) (Trigger, bool) {
	if recent.TotalSignals < minRecentSignals {
		return Trigger{}, false
	}

	var reasons []string
	if historical.TotalSignals > 0 && recent.WinRate < historical.WinRate-winRateDropPP {
		reasons = append(reasons, fmt.Sprintf(
			"win rate degraded: %.1f%% over %dd vs %.1f%% over %dd",
			recent.WinRate, recent.WindowDays, historical.WinRate, historical.WindowDays))
	}
	if recent.ProfitFactor < minProfitFactor {
		reasons = append(reasons, fmt.Sprintf("profit factor %.2f below %.1f", recent.ProfitFactor, minProfitFactor))
	}
	if recent.WinRate < minWinRate {
		reasons = append(reasons, fmt.Sprintf("win rate %.1f%% below %.0f%%", recent.WinRate, minWinRate))
	}
	if len(reasons) == 0 {
		return Trigger{}, false
	}
	return Trigger{Reasons: reasons, Recent: recent, Historical: historical}, true
}

// Loop watches completed paper trades and asks for a new learning
// iteration when performance degrades.
type Loop struct {
	triggerPath string
	triggers    []Trigger
	request     func(reason string) error
	log         zerolog.Logger
	now         func() time.Time
}

// NewLoop wires the monitor to its trigger artifact and the factory
// callback invoked when a trigger fires.
func NewLoop(triggerPath string, request func(reason string) error, log zerolog.Logger) *Loop {
	l := &Loop{
		triggerPath: triggerPath,
		request:     request,
		log:         log.With().Str("component", "feedback-loop").Logger(),
		now:         time.Now,
	}
	l.loadTriggers()
	return l
}

// Triggers returns the persisted trigger history.
func (l *Loop) Triggers() []Trigger {
	return l.triggers
}

// Evaluate computes both windows, checks the degradation rules, and on a
// trigger persists it and requests a factory iteration. Returns the
// trigger and whether it fired.
func (l *Loop) Evaluate(outcomes []learning.TradeOutcome) (Trigger, bool, error) {
	now := l.now().UTC()
	recent := Compute(outcomes, now, 7)
	historical := Compute(outcomes, now, 30)

	trigger, fired := Check(recent, historical)
	if !fired {
		return Trigger{}, false, nil
	}
	trigger.FiredAt = now

	l.triggers = append(l.triggers, trigger)
	if err := l.saveTriggers(); err != nil {
		return trigger, true, err
	}

	for _, reason := range trigger.Reasons {
		l.log.Warn().Str("reason", reason).Msg("re-optimization trigger")
	}
	if l.request != nil {
		if err := l.request(trigger.Reasons[0]); err != nil {
			return trigger, true, fmt.Errorf("failed to request re-optimization: %w", err)
		}
	}
	return trigger, true, nil
}

func (l *Loop) loadTriggers() {
	raw, err := os.ReadFile(l.triggerPath)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, &l.triggers)
}

func (l *Loop) saveTriggers() error {
	if err := os.MkdirAll(filepath.Dir(l.triggerPath), 0o755); err != nil {
		return fmt.Errorf("failed to create trigger directory: %w", err)
	}
	data, err := json.MarshalIndent(l.triggers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode triggers: %w", err)
	}
	if err := os.WriteFile(l.triggerPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write triggers: %w", err)
	}
	return nil
}

// FromPaperTrades flattens closed paper trades into the outcome shape the
// learning pipeline consumes. Open trades are skipped; expired trades keep
// their realized PnL.
func FromPaperTrades(trades []*autolog.PaperTrade) []learning.TradeOutcome {
	out := make([]learning.TradeOutcome, 0, len(trades))
	for _, t := range trades {
		if t.Status == autolog.TradeOpen || t.PnL == nil {
			continue
		}

		result := "LOSS"
		switch {
		case t.Status == autolog.TradeWin:
			result = "WIN"
		case t.Status == autolog.TradeExpired && *t.PnL > 0:
			result = "WIN"
		case *t.PnL == 0:
			result = "BREAKEVEN"
		}

		var holdMinutes float64
		if t.ExitTime != nil {
			holdMinutes = t.ExitTime.Sub(t.OpenTime).Minutes()
		}

		score := math.Max(t.ScoreLong, t.ScoreShort)
		out = append(out, learning.TradeOutcome{
			SignalID:    t.SignalID,
			Timestamp:   t.OpenTime,
			Direction:   string(t.Direction),
			Result:      result,
			PnL:         *t.PnL,
			Score:       score,
			Regime:      t.Regime,
			Session:     t.Session,
			HoldMinutes: holdMinutes,
			MaxDrawdown: t.MaxLoss,
			Indicators: map[string]float64{
				"rsi":     t.RSI,
				"stoch_k": t.Stoch,
				"atr":     t.ATR,
			},
		})
	}
	return out
}

// WindowSince filters outcomes to the trailing window, oldest first, for
// handing to the miner and evolver.
func WindowSince(outcomes []learning.TradeOutcome, now time.Time, days int) []learning.TradeOutcome {
	cutoff := now.AddDate(0, 0, -days)
	var out []learning.TradeOutcome
	for _, o := range outcomes {
		if !o.Timestamp.Before(cutoff) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}
