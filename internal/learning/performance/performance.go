package performance

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
)

// OverallMetrics summarizes every completed trade.
type OverallMetrics struct {
	Total           int     `json:"total"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	Breakeven       int     `json:"breakeven"`
	WinRate         float64 `json:"win_rate"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
	LargestWin      float64 `json:"largest_win"`
	LargestLoss     float64 `json:"largest_loss"`
	ProfitFactor    float64 `json:"profit_factor"`
	ExpectedValue   float64 `json:"expected_value"`
	AvgTimeToTarget float64 `json:"avg_time_to_target_min"`
	AvgMaxDrawdown  float64 `json:"avg_max_drawdown"`
}

// GroupMetrics summarizes one slice of trades (a regime, session, score
// band or direction).
type GroupMetrics struct {
	Total        int     `json:"total"`
	Wins         int     `json:"wins"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	AvgPnL       float64 `json:"avg_pnl"`
}

// RegimeMetrics adds the recommended score multiplier for a regime.
type RegimeMetrics struct {
	GroupMetrics
	RecommendedMultiplier float64 `json:"recommended_multiplier"`
}

// ScoreBand is one row of the score accuracy table.
type ScoreBand struct {
	Label   string  `json:"label"`
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	Total   int     `json:"total"`
	WinRate float64 `json:"win_rate"`
}

// Report is the full performance breakdown.
type Report struct {
	Overall       OverallMetrics           `json:"overall"`
	ByRegime      map[string]RegimeMetrics `json:"by_regime"`
	BySession     map[string]GroupMetrics  `json:"by_session"`
	BestSession   string                   `json:"best_session"`
	ScoreAccuracy []ScoreBand              `json:"score_accuracy"`
	ByDirection   map[string]GroupMetrics  `json:"by_direction"`
	RollingWinRate float64                 `json:"rolling_win_rate"`
}

// RollingWindow is the trade count the rolling win rate looks back over.
const RollingWindow = 50

var scoreBands = []ScoreBand{
	{Label: "80-100", Low: 80, High: 100},
	{Label: "70-79", Low: 70, High: 79},
	{Label: "60-69", Low: 60, High: 69},
	{Label: "50-59", Low: 50, High: 59},
	{Label: "0-49", Low: 0, High: 49},
}

// Analyze builds the full report from completed trades.
func Analyze(outcomes []learning.TradeOutcome) Report {
	return Report{
		Overall:        analyzeOverall(outcomes),
		ByRegime:       analyzeRegimes(outcomes),
		BySession:      groupBy(outcomes, func(o learning.TradeOutcome) string { return o.Session }),
		BestSession:    bestSession(outcomes),
		ScoreAccuracy:  analyzeScoreBands(outcomes),
		ByDirection:    groupBy(outcomes, func(o learning.TradeOutcome) string { return o.Direction }),
		RollingWinRate: rollingWinRate(outcomes, RollingWindow),
	}
}

func analyzeOverall(outcomes []learning.TradeOutcome) OverallMetrics {
	m := OverallMetrics{Total: len(outcomes)}
	var sumWin, sumLoss, sumDrawdown float64
	var sumTTT float64
	var nTTT int

	for _, o := range outcomes {
		switch {
		case o.IsWin():
			m.Wins++
			sumWin += o.PnL
			if o.PnL > m.LargestWin {
				m.LargestWin = o.PnL
			}
		case o.IsLoss():
			m.Losses++
			sumLoss += -o.PnL
			if -o.PnL > m.LargestLoss {
				m.LargestLoss = -o.PnL
			}
		default:
			m.Breakeven++
		}
		sumDrawdown += o.MaxDrawdown
		if minutes, ok := parseMinutes(o.TimeToTarget); ok {
			sumTTT += minutes
			nTTT++
		}
	}

	if m.Total > 0 {
		m.WinRate = float64(m.Wins) / float64(m.Total) * 100
		m.AvgMaxDrawdown = sumDrawdown / float64(m.Total)
	}
	if m.Wins > 0 {
		m.AvgWin = sumWin / float64(m.Wins)
	}
	if m.Losses > 0 {
		m.AvgLoss = sumLoss / float64(m.Losses)
	}
	if sumLoss > 0 {
		m.ProfitFactor = sumWin / sumLoss
	} else {
		m.ProfitFactor = sumWin
	}
	m.ExpectedValue = (m.WinRate/100)*m.AvgWin - ((100-m.WinRate)/100)*m.AvgLoss
	if nTTT > 0 {
		m.AvgTimeToTarget = sumTTT / float64(nTTT)
	}
	return m
}

func analyzeRegimes(outcomes []learning.TradeOutcome) map[string]RegimeMetrics {
	groups := groupBy(outcomes, func(o learning.TradeOutcome) string { return o.Regime })
	out := make(map[string]RegimeMetrics, len(groups))
	for regime, g := range groups {
		out[regime] = RegimeMetrics{
			GroupMetrics:          g,
			RecommendedMultiplier: RecommendedMultiplier(g.WinRate),
		}
	}
	return out
}

// RecommendedMultiplier maps a regime's win rate to the score multiplier
// the scorer should apply when that regime is active.
func RecommendedMultiplier(winRate float64) float64 {
	switch {
	case winRate > 75:
		return 1.30
	case winRate > 65:
		return 1.20
	case winRate > 55:
		return 1.10
	case winRate > 45:
		return 1.00
	case winRate > 35:
		return 0.90
	default:
		return 0.70
	}
}

func groupBy(outcomes []learning.TradeOutcome, key func(learning.TradeOutcome) string) map[string]GroupMetrics {
	buckets := make(map[string][]learning.TradeOutcome)
	for _, o := range outcomes {
		k := key(o)
		if k == "" {
			continue
		}
		buckets[k] = append(buckets[k], o)
	}

	out := make(map[string]GroupMetrics, len(buckets))
	for k, group := range buckets {
		out[k] = summarize(group)
	}
	return out
}

func summarize(group []learning.TradeOutcome) GroupMetrics {
	m := GroupMetrics{Total: len(group)}
	var totalPnL float64
	for _, o := range group {
		if o.IsWin() {
			m.Wins++
		}
		totalPnL += o.PnL
	}
	if m.Total > 0 {
		m.WinRate = float64(m.Wins) / float64(m.Total) * 100
		m.AvgPnL = totalPnL / float64(m.Total)
	}
	m.ProfitFactor = learning.ProfitFactor(group, 1)
	return m
}

func bestSession(outcomes []learning.TradeOutcome) string {
	sessions := groupBy(outcomes, func(o learning.TradeOutcome) string { return o.Session })
	names := make([]string, 0, len(sessions))
	for name := range sessions {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	bestRate := -1.0
	for _, name := range names {
		if sessions[name].WinRate > bestRate {
			best = name
			bestRate = sessions[name].WinRate
		}
	}
	return best
}

func analyzeScoreBands(outcomes []learning.TradeOutcome) []ScoreBand {
	out := make([]ScoreBand, len(scoreBands))
	copy(out, scoreBands)
	for i := range out {
		var group []learning.TradeOutcome
		for _, o := range outcomes {
			if o.Score >= out[i].Low && o.Score <= out[i].High {
				group = append(group, o)
			}
		}
		out[i].Total = len(group)
		out[i].WinRate = learning.WinRate(group)
	}
	return out
}

func rollingWinRate(outcomes []learning.TradeOutcome, window int) float64 {
	if len(outcomes) > window {
		outcomes = outcomes[len(outcomes)-window:]
	}
	return learning.WinRate(outcomes)
}

// parseMinutes reads hold durations recorded as strings like "45min".
func parseMinutes(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.TrimSuffix(s, "min")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
