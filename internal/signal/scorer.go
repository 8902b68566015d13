package signal

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ducminhle1904/gold-intel-bot/internal/patterns"
	"github.com/ducminhle1904/gold-intel-bot/internal/regime"
	"github.com/ducminhle1904/gold-intel-bot/internal/sentiment"
	"github.com/ducminhle1904/gold-intel-bot/pkg/config"
)

// Scorer turns a labeled bar into a long/short/none decision by walking a
// five-criterion checklist per side. Criteria contribute 1.0 when firing
// strictly and 0.5 when firing weakly; the sum is floored before the
// strength classification.
type Scorer struct {
	tuning config.TuningConfig
}

// NewScorer creates a scorer with the active tuning config.
func NewScorer(tuning config.TuningConfig) *Scorer {
	return &Scorer{tuning: tuning}
}

type sideScore struct {
	points  float64
	reasons []string
}

func (s *sideScore) add(points float64, reason string) {
	if points <= 0 {
		return
	}
	s.points += points
	s.reasons = append(s.reasons, reason)
}

// Score evaluates both directions and emits the stronger one. A tie goes
// long. Both sides below WEAK yields a NONE signal with no risk levels.
func (s *Scorer) Score(ctx Context) Signal {
	long := s.scoreLong(ctx)
	short := s.scoreShort(ctx)

	sig := Signal{
		ID:            newSignalID(ctx.Timestamp),
		Timestamp:     ctx.Timestamp,
		Type:          None,
		Strength:      StrengthNone,
		EntryPrice:    ctx.Price,
		Regime:        string(ctx.Regime.Trend),
		Sentiment:     string(ctx.Sentiment.Sentiment),
		CriteriaTotal: 5,
	}

	side := long
	sig.Type = Long
	sig.PatternSuccessRate = ctx.Analysis.BullishSuccessRate
	if short.points > long.points {
		side = short
		sig.Type = Short
		sig.PatternSuccessRate = ctx.Analysis.BearishSuccessRate
	}

	sig.CriteriaMet = int(math.Floor(side.points))
	sig.Strength = classifyStrength(sig.CriteriaMet)
	sig.Reasons = side.reasons

	if sig.Strength == StrengthNone {
		sig.Type = None
		return sig
	}

	stopDistance := s.tuning.ATRStopMult * ctx.ATR
	targetDistance := s.tuning.ATRTPMult * ctx.ATR
	if sig.Type == Long {
		sig.StopLoss = ctx.Price - stopDistance
		sig.TakeProfit = ctx.Price + targetDistance
	} else {
		sig.StopLoss = ctx.Price + stopDistance
		sig.TakeProfit = ctx.Price - targetDistance
	}
	if stopDistance > 0 {
		sig.RRRatio = targetDistance / stopDistance
	}
	return sig
}

func (s *Scorer) scoreLong(ctx Context) sideScore {
	var score sideScore

	switch ctx.Regime.Trend {
	case regime.StrongUptrend:
		score.add(1.0, "strong uptrend")
	case regime.WeakUptrend:
		score.add(0.5, "weak uptrend")
	}

	switch ctx.EMACross {
	case patterns.BullishCross:
		score.add(1.0, "EMA9 crossed above EMA21")
	case patterns.BullishAligned:
		score.add(0.5, "EMA9 above EMA21")
	}

	if ctx.StochK < 30 {
		score.add(1.0, fmt.Sprintf("stochastic oversold (%.1f)", ctx.StochK))
	} else if ctx.StochK < 50 {
		score.add(0.5, fmt.Sprintf("stochastic low (%.1f)", ctx.StochK))
	}

	if ctx.Analysis.BullishSuccessRate > 60 {
		score.add(1.0, fmt.Sprintf("pattern history %.0f%% bullish", ctx.Analysis.BullishSuccessRate))
	}

	switch ctx.Sentiment.Sentiment {
	case sentiment.RiskOn:
		score.add(1.0, "risk-on sentiment")
	case sentiment.Neutral:
		score.add(0.5, "neutral sentiment")
	}

	return score
}

func (s *Scorer) scoreShort(ctx Context) sideScore {
	var score sideScore

	switch ctx.Regime.Trend {
	case regime.StrongDowntrend:
		score.add(1.0, "strong downtrend")
	case regime.WeakDowntrend:
		score.add(0.5, "weak downtrend")
	}

	switch ctx.EMACross {
	case patterns.BearishCross:
		score.add(1.0, "EMA9 crossed below EMA21")
	case patterns.BearishAligned:
		score.add(0.5, "EMA9 below EMA21")
	}

	if ctx.StochK > 70 {
		score.add(1.0, fmt.Sprintf("stochastic overbought (%.1f)", ctx.StochK))
	} else if ctx.StochK > 50 {
		score.add(0.5, fmt.Sprintf("stochastic high (%.1f)", ctx.StochK))
	}

	if ctx.Analysis.BearishSuccessRate > 60 {
		score.add(1.0, fmt.Sprintf("pattern history %.0f%% bearish", ctx.Analysis.BearishSuccessRate))
	}

	switch ctx.Sentiment.Sentiment {
	case sentiment.RiskOff:
		score.add(1.0, "risk-off sentiment")
	case sentiment.Neutral:
		score.add(0.5, "neutral sentiment")
	}

	return score
}

func classifyStrength(criteriaMet int) Strength {
	switch {
	case criteriaMet >= 4:
		return StrengthStrong
	case criteriaMet >= 3:
		return StrengthMedium
	case criteriaMet >= 2:
		return StrengthWeak
	default:
		return StrengthNone
	}
}

// newSignalID builds ids of the form sig_YYYYMMDD_HHMMSS_xxxxxx. The
// suffix keeps ids unique within one second.
func newSignalID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("sig_%s_%s", t.UTC().Format("20060102_150405"), suffix)
}
