package signal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ducminhle1904/gold-intel-bot/internal/patterns"
	"github.com/ducminhle1904/gold-intel-bot/internal/regime"
	"github.com/ducminhle1904/gold-intel-bot/internal/sentiment"
	"github.com/ducminhle1904/gold-intel-bot/pkg/config"
)

func strongLongContext() Context {
	return Context{
		Regime:    regime.Regime{Trend: regime.StrongUptrend},
		Analysis:  patterns.Analysis{BullishSuccessRate: 72, BearishSuccessRate: 28},
		Sentiment: sentiment.Report{Sentiment: sentiment.RiskOn},
		EMACross:  patterns.BullishCross,
		StochK:    25,
		ATR:       10,
		Price:     2000,
		Timestamp: time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC),
	}
}

func TestScore_AllCriteriaLong(t *testing.T) {
	sig := NewScorer(config.DefaultTuningConfig()).Score(strongLongContext())

	assert.Equal(t, Long, sig.Type)
	assert.Equal(t, StrengthStrong, sig.Strength)
	assert.Equal(t, 5, sig.CriteriaMet)
	assert.Equal(t, 5, sig.CriteriaTotal)
	assert.Len(t, sig.Reasons, 5)

	// ATR 10, entry 2000, mults (2, 3).
	assert.InDelta(t, 1980.0, sig.StopLoss, 1e-9)
	assert.InDelta(t, 2030.0, sig.TakeProfit, 1e-9)
	assert.InDelta(t, 1.5, sig.RRRatio, 1e-9)
	assert.True(t, strings.HasPrefix(sig.ID, "sig_20250602_143000_"))
}

func TestScore_HalfPointsFloorBeforeStrength(t *testing.T) {
	ctx := strongLongContext()
	ctx.Regime.Trend = regime.WeakUptrend          // 0.5
	ctx.EMACross = patterns.BullishAligned         // 0.5
	ctx.StochK = 45                                // 0.5
	ctx.Analysis.BullishSuccessRate = 55           // 0
	ctx.Sentiment.Sentiment = sentiment.Neutral    // 0.5

	sig := NewScorer(config.DefaultTuningConfig()).Score(ctx)

	// 2.0 raw floors to 2: WEAK, not MEDIUM.
	assert.Equal(t, 2, sig.CriteriaMet)
	assert.Equal(t, StrengthWeak, sig.Strength)
	assert.Equal(t, Long, sig.Type)
}

func TestScore_ShortDirection(t *testing.T) {
	ctx := Context{
		Regime:    regime.Regime{Trend: regime.StrongDowntrend},
		Analysis:  patterns.Analysis{BullishSuccessRate: 30, BearishSuccessRate: 70},
		Sentiment: sentiment.Report{Sentiment: sentiment.RiskOff},
		EMACross:  patterns.BearishCross,
		StochK:    80,
		ATR:       8,
		Price:     2000,
		Timestamp: time.Now().UTC(),
	}
	sig := NewScorer(config.DefaultTuningConfig()).Score(ctx)

	assert.Equal(t, Short, sig.Type)
	assert.Equal(t, StrengthStrong, sig.Strength)
	// SHORT: TP below entry, SL above.
	assert.Less(t, sig.TakeProfit, sig.EntryPrice)
	assert.Greater(t, sig.StopLoss, sig.EntryPrice)
	assert.Equal(t, 70.0, sig.PatternSuccessRate)
}

func TestScore_NoneWhenNothingFires(t *testing.T) {
	ctx := Context{
		Regime:    regime.Regime{Trend: regime.Ranging},
		Analysis:  patterns.Analysis{BullishSuccessRate: 50, BearishSuccessRate: 50},
		Sentiment: sentiment.Report{Sentiment: sentiment.Uncertain},
		EMACross:  patterns.BullishAligned,
		StochK:    55,
		ATR:       10,
		Price:     2000,
		Timestamp: time.Now().UTC(),
	}
	sig := NewScorer(config.DefaultTuningConfig()).Score(ctx)

	assert.Equal(t, None, sig.Type)
	assert.Equal(t, StrengthNone, sig.Strength)
	assert.Zero(t, sig.StopLoss)
	assert.Zero(t, sig.TakeProfit)
}

func TestScore_TieGoesLong(t *testing.T) {
	// Neutral sentiment gives 0.5 to both sides; everything else is flat.
	ctx := Context{
		Regime:    regime.Regime{Trend: regime.Ranging},
		Analysis:  patterns.Analysis{BullishSuccessRate: 50, BearishSuccessRate: 50},
		Sentiment: sentiment.Report{Sentiment: sentiment.Neutral},
		EMACross:  patterns.BullishCross, // long 1.0... breaks tie; use aligned instead
		StochK:    55,
		ATR:       10,
		Price:     2000,
		Timestamp: time.Now().UTC(),
	}
	ctx.EMACross = patterns.BullishAligned
	// long: 0.5 (aligned) + 0.5 (neutral) = 1.0; short: 0.5 (stoch 55) + 0.5 = 1.0
	sig := NewScorer(config.DefaultTuningConfig()).Score(ctx)
	assert.Equal(t, None, sig.Type, "both sides floor below WEAK")
	assert.Equal(t, 1, sig.CriteriaMet)
}

func TestScore_StrengthMonotoneInCriteria(t *testing.T) {
	order := map[Strength]int{StrengthNone: 0, StrengthWeak: 1, StrengthMedium: 2, StrengthStrong: 3}
	prev := StrengthNone
	for met := 0; met <= 5; met++ {
		s := classifyStrength(met)
		assert.GreaterOrEqual(t, order[s], order[prev], "criteria_met=%d", met)
		prev = s
	}
}

func TestSession_Boundaries(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, "ASIA"}, {6, "ASIA"},
		{7, "LONDON_OPEN"},
		{8, "LONDON"}, {12, "LONDON"},
		{13, "NY_OPEN"},
		{14, "OVERLAP"}, {16, "OVERLAP"},
		{17, "NY"}, {20, "NY"},
		{21, "NY_CLOSE"}, {23, "NY_CLOSE"},
	}
	for _, tt := range tests {
		ts := time.Date(2025, 3, 10, tt.hour, 0, 0, 0, time.UTC)
		assert.Equal(t, tt.want, Session(ts), "hour=%d", tt.hour)
	}
}

func TestCoarseSession_Buckets(t *testing.T) {
	assert.Equal(t, "asia", CoarseSession(time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)))
	assert.Equal(t, "london", CoarseSession(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "newyork", CoarseSession(time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "overlap", CoarseSession(time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)))
}
