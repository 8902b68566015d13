package performance

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
)

func outcome(result string, pnl float64) learning.TradeOutcome {
	return learning.TradeOutcome{
		Timestamp: time.Now().UTC(),
		Direction: "LONG",
		Result:    result,
		PnL:       pnl,
	}
}

func TestAnalyzeOverall(t *testing.T) {
	outcomes := []learning.TradeOutcome{
		outcome("WIN", 8),
		outcome("WIN", 12),
		outcome("LOSS", -4),
		outcome("BREAKEVEN", 0),
	}
	outcomes[0].TimeToTarget = "30min"
	outcomes[1].TimeToTarget = "60min"
	outcomes[0].MaxDrawdown = -2
	outcomes[2].MaxDrawdown = -4

	m := Analyze(outcomes).Overall

	assert.Equal(t, 4, m.Total)
	assert.Equal(t, 2, m.Wins)
	assert.Equal(t, 1, m.Losses)
	assert.Equal(t, 1, m.Breakeven)
	assert.Equal(t, 50.0, m.WinRate)
	assert.Equal(t, 10.0, m.AvgWin)
	assert.Equal(t, 4.0, m.AvgLoss)
	assert.Equal(t, 12.0, m.LargestWin)
	assert.Equal(t, 4.0, m.LargestLoss)
	assert.InDelta(t, 5.0, m.ProfitFactor, 1e-9)
	// EV = 0.5*10 - 0.5*4 = 3
	assert.InDelta(t, 3.0, m.ExpectedValue, 1e-9)
	assert.InDelta(t, 45.0, m.AvgTimeToTarget, 1e-9)
	assert.InDelta(t, -1.5, m.AvgMaxDrawdown, 1e-9)
}

func TestAnalyzeOverall_NoLossesProfitFactor(t *testing.T) {
	m := Analyze([]learning.TradeOutcome{outcome("WIN", 8)}).Overall
	assert.Equal(t, 8.0, m.ProfitFactor)
}

func TestRecommendedMultiplier(t *testing.T) {
	tests := []struct {
		winRate float64
		want    float64
	}{
		{80, 1.30}, {75, 1.20}, {70, 1.20}, {60, 1.10},
		{50, 1.00}, {40, 0.90}, {35, 0.70}, {10, 0.70},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RecommendedMultiplier(tt.winRate), "win_rate=%.0f", tt.winRate)
	}
}

func TestAnalyze_ByRegimeCarriesMultiplier(t *testing.T) {
	var outcomes []learning.TradeOutcome
	for i := 0; i < 8; i++ {
		o := outcome("WIN", 5)
		o.Regime = "STRONG_UPTREND"
		outcomes = append(outcomes, o)
	}
	for i := 0; i < 2; i++ {
		o := outcome("LOSS", -5)
		o.Regime = "STRONG_UPTREND"
		outcomes = append(outcomes, o)
	}

	report := Analyze(outcomes)
	rm, ok := report.ByRegime["STRONG_UPTREND"]
	require.True(t, ok)
	assert.Equal(t, 10, rm.Total)
	assert.Equal(t, 80.0, rm.WinRate)
	assert.Equal(t, 1.30, rm.RecommendedMultiplier)
}

func TestAnalyze_BestSession(t *testing.T) {
	var outcomes []learning.TradeOutcome
	add := func(session, result string, pnl float64) {
		o := outcome(result, pnl)
		o.Session = session
		outcomes = append(outcomes, o)
	}
	add("ASIA", "LOSS", -4)
	add("ASIA", "WIN", 8)
	add("OVERLAP", "WIN", 8)
	add("OVERLAP", "WIN", 8)

	report := Analyze(outcomes)
	assert.Equal(t, "OVERLAP", report.BestSession)
	assert.Equal(t, 50.0, report.BySession["ASIA"].WinRate)
	assert.Equal(t, 100.0, report.BySession["OVERLAP"].WinRate)
}

func TestAnalyze_ScoreBands(t *testing.T) {
	var outcomes []learning.TradeOutcome
	add := func(score float64, result string, pnl float64) {
		o := outcome(result, pnl)
		o.Score = score
		outcomes = append(outcomes, o)
	}
	add(85, "WIN", 8)
	add(92, "WIN", 8)
	add(72, "LOSS", -4)
	add(45, "LOSS", -4)

	bands := Analyze(outcomes).ScoreAccuracy
	require.Len(t, bands, 5)
	byLabel := map[string]ScoreBand{}
	for _, b := range bands {
		byLabel[b.Label] = b
	}
	assert.Equal(t, 2, byLabel["80-100"].Total)
	assert.Equal(t, 100.0, byLabel["80-100"].WinRate)
	assert.Equal(t, 1, byLabel["70-79"].Total)
	assert.Equal(t, 0.0, byLabel["70-79"].WinRate)
	assert.Equal(t, 1, byLabel["0-49"].Total)
	assert.Equal(t, 0, byLabel["60-69"].Total)
}

func TestRollingWinRate_WindowsLastFifty(t *testing.T) {
	// 60 losses followed by 50 wins: the window sees only wins.
	var outcomes []learning.TradeOutcome
	for i := 0; i < 60; i++ {
		outcomes = append(outcomes, outcome("LOSS", -1))
	}
	for i := 0; i < 50; i++ {
		outcomes = append(outcomes, outcome("WIN", 1))
	}
	assert.Equal(t, 100.0, Analyze(outcomes).RollingWinRate)
}

func TestParseMinutes(t *testing.T) {
	for input, want := range map[string]float64{"45min": 45, " 30min ": 30, "5 min": 5} {
		got, ok := parseMinutes(input)
		require.True(t, ok, fmt.Sprintf("input=%q", input))
		assert.Equal(t, want, got)
	}
	_, ok := parseMinutes("")
	assert.False(t, ok)
	_, ok = parseMinutes("soon")
	assert.False(t, ok)
}
