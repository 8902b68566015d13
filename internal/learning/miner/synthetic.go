package miner

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
)

// SyntheticOutcomes generates a plausible trade history with a few
// embedded profitable setups, for exercising the pipeline before real
// trades accumulate. Deterministic for a given seed.
func SyntheticOutcomes(n int, seed int64) []learning.TradeOutcome {
	rng := rand.New(rand.NewSource(seed))
	base := time.Now().UTC().AddDate(0, 0, -100)

	out := make([]learning.TradeOutcome, 0, n)
	for i := 0; i < n; i++ {
		rsi := clampf(rng.NormFloat64()*15+50, 10, 90)
		stochK := clampf(rng.NormFloat64()*20+50, 5, 95)
		adx := clampf(rng.NormFloat64()*10+25, 10, 60)
		atr := clampf(rng.NormFloat64()*5+15, 5, 40)

		regime := syntheticRegime(rsi, adx)
		session := syntheticSession(i)
		winProb, direction := syntheticEdge(rng, rsi, stochK, adx, regime, session)

		isWin := rng.Float64() < winProb
		var pnl float64
		var result string
		if isWin {
			pnl = 3 + rng.Float64()*5
			result = "WIN"
		} else {
			pnl = -(2 + rng.Float64()*3)
			result = "LOSS"
		}

		out = append(out, learning.TradeOutcome{
			SignalID:  fmt.Sprintf("synthetic_%04d", i),
			Timestamp: base.Add(time.Duration(i) * 4 * time.Hour),
			Direction: direction,
			Result:    result,
			PnL:       math.Round(pnl*100) / 100,
			Regime:    regime,
			Session:   session,
			Indicators: map[string]float64{
				"rsi":     math.Round(rsi*10) / 10,
				"stoch_k": math.Round(stochK*10) / 10,
				"stoch_d": math.Round((stochK+rng.NormFloat64()*3)*10) / 10,
				"adx":     math.Round(adx*10) / 10,
				"atr":     math.Round(atr*100) / 100,
			},
		})
	}
	return out
}

func syntheticRegime(rsi, adx float64) string {
	switch {
	case rsi > 60 && adx > 25:
		return "STRONG_UPTREND"
	case rsi > 50:
		return "WEAK_UPTREND"
	case rsi < 40 && adx > 25:
		return "STRONG_DOWNTREND"
	case rsi < 50:
		return "WEAK_DOWNTREND"
	default:
		return "RANGING"
	}
}

func syntheticSession(i int) string {
	hour := (i * 4) % 24
	switch {
	case hour < 8:
		return "asia"
	case hour < 14:
		return "london"
	case hour < 21:
		return "newyork"
	default:
		return "overlap"
	}
}

// syntheticEdge plants the setups the miner is expected to recover.
func syntheticEdge(rng *rand.Rand, rsi, stochK, adx float64, regime, session string) (float64, string) {
	switch {
	case stochK < 25 && (regime == "STRONG_UPTREND" || regime == "WEAK_UPTREND"):
		return 0.70, "LONG"
	case stochK > 75 && (regime == "STRONG_DOWNTREND" || regime == "WEAK_DOWNTREND"):
		return 0.68, "SHORT"
	case adx > 35 && math.Abs(rsi-50) > 15:
		return 0.65, directionFromRSI(rsi)
	case session == "london" && adx > 25:
		return 0.62, directionFromRSI(rsi)
	case rsi < 25:
		return 0.60, "LONG"
	case rsi > 75:
		return 0.58, "SHORT"
	default:
		if rng.Float64() > 0.5 {
			return 0.48, "LONG"
		}
		return 0.48, "SHORT"
	}
}

func directionFromRSI(rsi float64) string {
	if rsi > 50 {
		return "LONG"
	}
	return "SHORT"
}

func clampf(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
