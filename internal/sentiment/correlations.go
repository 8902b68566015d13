package sentiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// CorrelationStrength bands an absolute correlation coefficient.
type CorrelationStrength string

const (
	StrongCorrelation   CorrelationStrength = "STRONG"
	ModerateCorrelation CorrelationStrength = "MODERATE"
	WeakCorrelation     CorrelationStrength = "WEAK"
	NoCorrelation       CorrelationStrength = "NONE"
)

// ClassifyCorrelation bands |r| at 0.7 / 0.4 / 0.2.
func ClassifyCorrelation(r float64) CorrelationStrength {
	abs := math.Abs(r)
	switch {
	case abs > 0.7:
		return StrongCorrelation
	case abs > 0.4:
		return ModerateCorrelation
	case abs > 0.2:
		return WeakCorrelation
	default:
		return NoCorrelation
	}
}

// MatrixEntry is one cell of the cross-market correlation matrix.
type MatrixEntry struct {
	Base     string              `json:"base"`
	Other    string              `json:"other"`
	Value    float64             `json:"value"`
	Strength CorrelationStrength `json:"strength"`
	Window   int                 `json:"window"`
	Samples  int                 `json:"samples"`
}

// Tracker builds correlation matrices and divergence insights over the
// full basket, for persistence into the correlations table.
type Tracker struct {
	window int
}

// NewTracker creates a tracker with a rolling window of 30 bars.
func NewTracker() *Tracker {
	return &Tracker{window: 30}
}

// Matrix computes pairwise correlations of all series against the base
// symbol over aligned daily returns.
func (t *Tracker) Matrix(base string, series map[string][]types.OHLCV) []MatrixEntry {
	baseBars, ok := series[base]
	if !ok {
		return nil
	}
	baseReturns := returnsByDay(baseBars)

	// Symbol order fixed so exported reports are stable run to run.
	symbols := make([]string, 0, len(series))
	for symbol := range series {
		if symbol != base {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)

	var entries []MatrixEntry
	for _, symbol := range symbols {
		otherReturns := returnsByDay(series[symbol])
		keys := sharedKeys(baseReturns, otherReturns)
		if len(keys) < 2 {
			continue
		}
		// Restrict to the rolling window when enough overlap exists.
		if len(keys) > t.window {
			keys = keys[len(keys)-t.window:]
		}
		a := make([]float64, len(keys))
		b := make([]float64, len(keys))
		for i, k := range keys {
			a[i] = baseReturns[k]
			b[i] = otherReturns[k]
		}
		r := pearson(a, b)
		entries = append(entries, MatrixEntry{
			Base:     base,
			Other:    symbol,
			Value:    r,
			Strength: ClassifyCorrelation(r),
			Window:   t.window,
			Samples:  len(keys),
		})
	}
	return entries
}

// Insights renders human-readable notes for unusual correlation states.
func (t *Tracker) Insights(entries []MatrixEntry) []string {
	var notes []string
	for _, e := range entries {
		switch {
		case e.Strength == StrongCorrelation && e.Value < 0:
			notes = append(notes, fmt.Sprintf("%s strongly inverse to %s (%.2f)", e.Other, e.Base, e.Value))
		case e.Strength == StrongCorrelation:
			notes = append(notes, fmt.Sprintf("%s tracking %s closely (%.2f)", e.Other, e.Base, e.Value))
		case e.Strength == NoCorrelation:
			notes = append(notes, fmt.Sprintf("%s decoupled from %s (%.2f)", e.Other, e.Base, e.Value))
		}
	}
	return notes
}
