package sentiment

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// Analyzer classifies risk-on/risk-off sentiment from gold and a fixed
// basket of correlated markets.
type Analyzer struct {
	rollingWindow      int
	lookback           int
	deadbandPct        float64
	divergenceAbs      float64
	fallbackConfidence float64
}

// NewAnalyzer creates an analyzer with the production thresholds.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		rollingWindow: 20,
		lookback:      5,
		deadbandPct:   0.3,
		divergenceAbs: 0.3,
	}
}

// Analyze builds a sentiment report. gold is the primary bar series; basket
// maps basket symbols to their bar series. An empty basket yields NEUTRAL
// at 0.5 confidence.
func (a *Analyzer) Analyze(gold []types.OHLCV, basket map[string][]types.OHLCV) Report {
	report := Report{
		GeneratedAt:  time.Now().UTC(),
		Sentiment:    Neutral,
		Confidence:   0.5,
		Correlations: map[string]SymbolCorrelation{},
	}
	if len(gold) < a.lookback+1 || len(basket) == 0 {
		report.Reasons = append(report.Reasons, "insufficient market data, defaulting to neutral")
		return report
	}

	goldReturns := returnsByDay(gold)
	for symbol, bars := range basket {
		report.Correlations[symbol] = a.correlate(symbol, goldReturns, returnsByDay(bars))
	}

	report.GoldMove = lookbackMove(gold, a.lookback)
	report.EquityMove = lookbackMove(basket[SymbolEquity], a.lookback)
	report.DollarMove = lookbackMove(basket[SymbolDollar], a.lookback)
	report.YieldsMove = lookbackMove(basket[SymbolYields], a.lookback)

	a.classify(&report)
	return report
}

// correlate computes full-overlap and rolling correlations of one basket
// member against gold, flagging divergence when the rolling correlation has
// shifted by more than the threshold over one window.
func (a *Analyzer) correlate(symbol string, gold, other map[int64]float64) SymbolCorrelation {
	keys := sharedKeys(gold, other)
	sc := SymbolCorrelation{Symbol: symbol, Samples: len(keys)}
	if len(keys) < 2 {
		return sc
	}

	gs := make([]float64, len(keys))
	os := make([]float64, len(keys))
	for i, k := range keys {
		gs[i] = gold[k]
		os[i] = other[k]
	}
	sc.Correlation = pearson(gs, os)

	w := a.rollingWindow
	if len(keys) >= w {
		sc.Rolling = pearson(gs[len(gs)-w:], os[len(os)-w:])
	} else {
		sc.Rolling = sc.Correlation
	}
	if len(keys) >= 2*w {
		prev := pearson(gs[len(gs)-2*w:len(gs)-w], os[len(os)-2*w:len(os)-w])
		sc.Change = sc.Rolling - prev
		sc.Diverging = math.Abs(sc.Change) > a.divergenceAbs
	}
	return sc
}

// classify applies the deadband decision table.
func (a *Analyzer) classify(r *Report) {
	equityUp := r.EquityMove > a.deadbandPct
	equityDown := r.EquityMove < -a.deadbandPct
	dollarUp := r.DollarMove > a.deadbandPct
	dollarDown := r.DollarMove < -a.deadbandPct
	goldUp := r.GoldMove > a.deadbandPct
	goldDown := r.GoldMove < -a.deadbandPct

	fullConfidence := func() float64 {
		sum := math.Abs(r.EquityMove) + math.Abs(r.DollarMove) + math.Abs(r.GoldMove)
		return math.Min(sum, 3) / 3
	}

	switch {
	case equityUp && dollarDown && goldUp:
		r.Sentiment = RiskOn
		r.Confidence = fullConfidence()
		r.Reasons = append(r.Reasons, "equities up, dollar down, gold up")
	case equityDown && dollarUp && goldUp:
		r.Sentiment = RiskOff
		r.Confidence = fullConfidence()
		r.Reasons = append(r.Reasons, "equities down, dollar up, gold bid as haven")
	case equityDown && goldUp:
		r.Sentiment = RiskOff
		r.Confidence = fullConfidence() * 0.7
		r.Reasons = append(r.Reasons, "equities down while gold holds up")
	case equityUp && goldUp:
		r.Sentiment = RiskOn
		r.Confidence = fullConfidence() * 0.7
		r.Reasons = append(r.Reasons, "equities and gold both rising")
	case (equityUp && dollarUp && goldUp) || (equityDown && dollarDown && goldDown):
		r.Sentiment = Uncertain
		r.Confidence = 0.3
		r.Reasons = append(r.Reasons, "all markets moving together, unclear driver")
	default:
		r.Sentiment = Neutral
		r.Confidence = 0.5
		r.Reasons = append(r.Reasons, fmt.Sprintf("no decisive cross-market move (gold %.2f%%)", r.GoldMove))
	}
}

// returnsByDay computes close-to-close pct returns keyed by day so series
// with different calendars can be aligned.
func returnsByDay(bars []types.OHLCV) map[int64]float64 {
	out := make(map[int64]float64)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			continue
		}
		day := bars[i].Timestamp.Truncate(24 * time.Hour).Unix()
		out[day] = (bars[i].Close - prev) / prev * 100
	}
	return out
}

// lookbackMove is the pct change over the last n bars of the series.
func lookbackMove(bars []types.OHLCV, n int) float64 {
	if len(bars) < n+1 {
		return 0
	}
	prev := bars[len(bars)-1-n].Close
	if prev == 0 {
		return 0
	}
	return (bars[len(bars)-1].Close - prev) / prev * 100
}

func sharedKeys(a, b map[int64]float64) []int64 {
	var keys []int64
	for k := range a {
		if _, ok := b[k]; ok {
			keys = append(keys, k)
		}
	}
	// Ascending for deterministic windows.
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// pearson computes the correlation coefficient of two equal-length series.
func pearson(a, b []float64) float64 {
	n := float64(len(a))
	if n < 2 {
		return 0
	}
	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / n
	meanB := sumB / n

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}
