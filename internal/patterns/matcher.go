package patterns

import (
	"math"

	"github.com/ducminhle1904/gold-intel-bot/internal/indicators"
	"github.com/ducminhle1904/gold-intel-bot/internal/regime"
	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// Prediction is the aggregate directional read from historical analogues.
type Prediction string

const (
	PredictBullish Prediction = "BULLISH"
	PredictBearish Prediction = "BEARISH"
	PredictNeutral Prediction = "NEUTRAL"
)

// Match is one historical analogue of the reference setup with its forward
// outcomes. Outcomes are pct close-to-close changes; a nil outcome means
// the horizon ran past the available history.
type Match struct {
	Setup      Setup    `json:"setup"`
	Similarity float64  `json:"similarity"`
	Outcome1   *float64 `json:"outcome_1b"`
	Outcome4   *float64 `json:"outcome_4b"`
	Outcome24  *float64 `json:"outcome_24b"`
}

// Analysis aggregates all matches for the current setup.
type Analysis struct {
	Matches             []Match    `json:"matches"`
	TotalMatches        int        `json:"total_matches"`
	BullishSuccessRate  float64    `json:"bullish_success_rate"`
	BearishSuccessRate  float64    `json:"bearish_success_rate"`
	AvgOutcome24        float64    `json:"avg_outcome_24b"`
	Prediction          Prediction `json:"prediction"`
	PredictionConfidence float64   `json:"prediction_confidence"`
}

// Matcher finds historical analogues of a reference setup.
type Matcher struct {
	threshold  float64
	minHistory int
	horizonMax int
}

// NewMatcher creates a matcher with the default 0.7 similarity threshold.
func NewMatcher() *Matcher {
	return &Matcher{threshold: 0.7, minHistory: 30, horizonMax: 24}
}

// NewMatcherWithThreshold overrides the similarity threshold.
func NewMatcherWithThreshold(threshold float64) *Matcher {
	m := NewMatcher()
	m.threshold = threshold
	return m
}

// Similarity is the fraction of equal discrete feature fields.
func Similarity(a, b Setup) float64 {
	fa := a.Features()
	fb := b.Features()
	matches := 0
	for i := range fa {
		if fa[i] == fb[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(fa))
}

// Scan walks the history, builds the setup at each index in
// [minHistory, len-horizonMax) and collects those meeting the similarity
// threshold against the reference, with forward outcomes at +1/+4/+24 bars.
func (m *Matcher) Scan(bars []types.OHLCV, rows []indicators.Row, regimes []regime.Regime, reference Setup) []Match {
	var out []Match
	end := len(bars) - m.horizonMax
	for i := m.minHistory; i < end; i++ {
		candidate := BuildSetup(rows, i, regimes[i])
		sim := Similarity(reference, candidate)
		if sim < m.threshold {
			continue
		}
		out = append(out, Match{
			Setup:      candidate,
			Similarity: sim,
			Outcome1:   forwardOutcome(bars, i, 1),
			Outcome4:   forwardOutcome(bars, i, 4),
			Outcome24:  forwardOutcome(bars, i, 24),
		})
	}
	return out
}

// Analyze scans and aggregates. With no matches the result is the neutral
// default: 50/50 success rates and zero confidence.
func (m *Matcher) Analyze(bars []types.OHLCV, rows []indicators.Row, regimes []regime.Regime, reference Setup) Analysis {
	matches := m.Scan(bars, rows, regimes, reference)
	return Aggregate(matches)
}

// Aggregate computes success rates and the directional prediction over
// matches that have a +24 bar outcome.
func Aggregate(matches []Match) Analysis {
	analysis := Analysis{
		Matches:            matches,
		TotalMatches:       len(matches),
		BullishSuccessRate: 50,
		BearishSuccessRate: 50,
		Prediction:         PredictNeutral,
	}

	var withOutcome, bullish, bearish int
	var sum float64
	for _, match := range matches {
		if match.Outcome24 == nil {
			continue
		}
		withOutcome++
		sum += *match.Outcome24
		if *match.Outcome24 > 0 {
			bullish++
		} else if *match.Outcome24 < 0 {
			bearish++
		}
	}
	if withOutcome == 0 {
		return analysis
	}

	analysis.BullishSuccessRate = float64(bullish) / float64(withOutcome) * 100
	analysis.BearishSuccessRate = float64(bearish) / float64(withOutcome) * 100
	analysis.AvgOutcome24 = sum / float64(withOutcome)

	var rate float64
	switch {
	case analysis.BullishSuccessRate > 60:
		analysis.Prediction = PredictBullish
		rate = analysis.BullishSuccessRate
	case analysis.BearishSuccessRate > 60:
		analysis.Prediction = PredictBearish
		rate = analysis.BearishSuccessRate
	default:
		return analysis
	}

	confidence := math.Max(0, math.Min(1, (rate-50)/50))
	// Thin evidence scales the confidence down.
	if len(matches) < 5 {
		confidence *= 0.5
	} else if len(matches) < 10 {
		confidence *= 0.75
	}
	analysis.PredictionConfidence = confidence
	return analysis
}

func forwardOutcome(bars []types.OHLCV, idx, horizon int) *float64 {
	target := idx + horizon
	if target >= len(bars) || bars[idx].Close == 0 {
		return nil
	}
	v := (bars[target].Close - bars[idx].Close) / bars[idx].Close * 100
	return &v
}
