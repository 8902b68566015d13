package feedback

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/gold-intel-bot/internal/autolog"
	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
	"github.com/ducminhle1904/gold-intel-bot/internal/logger"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// window builds n outcomes with the given win rate, daysAgo before testNow.
func window(n int, winRatePct float64, daysAgo int, pnl float64) []learning.TradeOutcome {
	wins := int(float64(n) * winRatePct / 100)
	out := make([]learning.TradeOutcome, 0, n)
	for i := 0; i < n; i++ {
		o := learning.TradeOutcome{
			Timestamp: testNow.AddDate(0, 0, -daysAgo).Add(time.Duration(i) * time.Minute),
			Direction: "LONG",
			Regime:    "STRONG_UPTREND",
			Session:   "london",
		}
		if i < wins {
			o.Result = "WIN"
			o.PnL = pnl
		} else {
			o.Result = "LOSS"
			o.PnL = -pnl
		}
		out = append(out, o)
	}
	return out
}

func TestComputeWindows(t *testing.T) {
	// 20 older trades at 70% plus 20 recent at 50%.
	outcomes := append(window(20, 70, 20, 8), window(20, 50, 3, 8)...)

	recent := Compute(outcomes, testNow, 7)
	historical := Compute(outcomes, testNow, 30)

	assert.Equal(t, 20, recent.TotalSignals)
	assert.InDelta(t, 50.0, recent.WinRate, 1e-9)
	assert.Equal(t, 40, historical.TotalSignals)
	assert.InDelta(t, 60.0, historical.WinRate, 1e-9)
	assert.Equal(t, "STRONG_UPTREND", recent.BestRegime)
	assert.Equal(t, "london", recent.BestSession)
}

func TestCheckTriggers(t *testing.T) {
	tests := []struct {
		name       string
		recent     Metrics
		historical Metrics
		want       bool
	}{
		{
			name:       "win rate degradation",
			recent:     Metrics{WindowDays: 7, TotalSignals: 20, WinRate: 50, ProfitFactor: 1.5},
			historical: Metrics{WindowDays: 30, TotalSignals: 60, WinRate: 62, ProfitFactor: 1.5},
			want:       true,
		},
		{
			name:       "low profit factor",
			recent:     Metrics{WindowDays: 7, TotalSignals: 20, WinRate: 55, ProfitFactor: 1.1},
			historical: Metrics{WindowDays: 30, TotalSignals: 60, WinRate: 58, ProfitFactor: 1.5},
			want:       true,
		},
		{
			name:       "healthy",
			recent:     Metrics{WindowDays: 7, TotalSignals: 20, WinRate: 60, ProfitFactor: 1.4},
			historical: Metrics{WindowDays: 30, TotalSignals: 60, WinRate: 62, ProfitFactor: 1.5},
			want:       false,
		},
		{
			name:       "too few recent trades",
			recent:     Metrics{WindowDays: 7, TotalSignals: 5, WinRate: 20, ProfitFactor: 0.5},
			historical: Metrics{WindowDays: 30, TotalSignals: 60, WinRate: 62, ProfitFactor: 1.5},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, fired := Check(tt.recent, tt.historical)
			assert.Equal(t, tt.want, fired)
			if fired {
				assert.NotEmpty(t, trigger.Reasons)
			}
		})
	}
}

func TestLoopEvaluateRequestsIteration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triggers.json")

	var requested []string
	loop := NewLoop(path, func(reason string) error {
		requested = append(requested, reason)
		return nil
	}, logger.Discard())
	loop.now = func() time.Time { return testNow }

	outcomes := append(window(40, 65, 20, 8), window(20, 45, 3, 8)...)
	trigger, fired, err := loop.Evaluate(outcomes)
	require.NoError(t, err)
	require.True(t, fired)
	assert.NotEmpty(t, trigger.Reasons)
	assert.Len(t, requested, 1)

	// Trigger history survives a reload.
	reloaded := NewLoop(path, nil, logger.Discard())
	assert.Len(t, reloaded.Triggers(), 1)
}

func TestFromPaperTrades(t *testing.T) {
	pnlWin, pnlOpen := 8.0, 0.0
	exit := testNow.Add(45 * time.Minute)
	trades := []*autolog.PaperTrade{
		{
			SignalID: "auto_1", OpenTime: testNow, Direction: autolog.DirLong,
			Status: autolog.TradeWin, PnL: &pnlWin, ExitTime: &exit,
			ScoreLong: 75, ScoreShort: 20, Regime: "STRONG_UPTREND", Session: "london",
			RSI: 42, Stoch: 18, ATR: 9,
		},
		{SignalID: "auto_2", OpenTime: testNow, Direction: autolog.DirLong, Status: autolog.TradeOpen, PnL: &pnlOpen},
	}

	outcomes := FromPaperTrades(trades)
	require.Len(t, outcomes, 1)
	o := outcomes[0]
	assert.Equal(t, "WIN", o.Result)
	assert.InDelta(t, 45.0, o.HoldMinutes, 1e-9)
	assert.InDelta(t, 75.0, o.Score, 1e-9)
	assert.InDelta(t, 18.0, o.Value("stoch_k"), 1e-9)
}
