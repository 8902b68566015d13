package learning

import (
	"time"
)

// TradeOutcome is one completed trade as consumed by the learning
// pipeline. It is a flattened view of a closed paper trade or a
// completed signal record.
type TradeOutcome struct {
	SignalID    string             `json:"signal_id"`
	Timestamp   time.Time          `json:"timestamp"`
	Direction   string             `json:"direction"`
	Result      string             `json:"result"`
	PnL         float64            `json:"pnl"`
	Score       float64            `json:"score"`
	Regime      string             `json:"regime"`
	Session     string             `json:"session"`
	HoldMinutes float64            `json:"hold_minutes"`
	MaxDrawdown float64            `json:"max_drawdown"`
	TimeToTarget string            `json:"time_to_target,omitempty"`
	Indicators  map[string]float64 `json:"indicators"`
}

// indicatorDefaults fill in values for trades logged before an indicator
// was captured.
var indicatorDefaults = map[string]float64{
	"rsi":     50,
	"stoch_k": 50,
	"stoch_d": 50,
	"adx":     25,
	"atr":     10,
}

// Value returns the named indicator at trade time, falling back to its
// neutral default (50 for unknown names) when absent.
func (o TradeOutcome) Value(name string) float64 {
	if v, ok := o.Indicators[name]; ok {
		return v
	}
	if d, ok := indicatorDefaults[name]; ok {
		return d
	}
	return 50
}

// IsWin reports whether the trade closed profitably.
func (o TradeOutcome) IsWin() bool {
	if o.Result == "WIN" {
		return true
	}
	return o.Result == "" && o.PnL > 0
}

// IsLoss reports whether the trade closed at a loss.
func (o TradeOutcome) IsLoss() bool {
	if o.Result == "LOSS" {
		return true
	}
	return o.Result == "" && o.PnL < 0
}

// WinRate over the slice, in percent. Breakeven trades count against.
func WinRate(outcomes []TradeOutcome) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	wins := 0
	for _, o := range outcomes {
		if o.IsWin() {
			wins++
		}
	}
	return float64(wins) / float64(len(outcomes)) * 100
}

// ProfitFactor over the slice. lossDenom substitutes for the gross loss
// when there are no losing trades.
func ProfitFactor(outcomes []TradeOutcome, lossDenom float64) float64 {
	var grossWin, grossLoss float64
	for _, o := range outcomes {
		if o.PnL > 0 {
			grossWin += o.PnL
		} else if o.PnL < 0 {
			grossLoss += -o.PnL
		}
	}
	if grossLoss == 0 {
		grossLoss = lossDenom
	}
	return grossWin / grossLoss
}
