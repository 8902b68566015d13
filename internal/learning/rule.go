package learning

import "fmt"

// Op is a threshold comparison inside a rule condition.
type Op string

const (
	OpLess    Op = "<"
	OpGreater Op = ">"
)

// Flip returns the opposite comparison.
func (op Op) Flip() Op {
	if op == OpLess {
		return OpGreater
	}
	return OpLess
}

// Condition is one indicator threshold, e.g. "rsi < 30".
type Condition struct {
	Indicator string  `json:"indicator"`
	Op        Op      `json:"op"`
	Value     float64 `json:"value"`
}

// Holds evaluates the condition against a trade's indicator snapshot.
func (c Condition) Holds(o TradeOutcome) bool {
	v := o.Value(c.Indicator)
	if c.Op == OpLess {
		return v < c.Value
	}
	return v > c.Value
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %.1f", c.Indicator, c.Op, c.Value)
}

// Rule is a conjunctive trading rule with optional regime and session
// filters. Weight is its vote strength in [1, 10].
type Rule struct {
	ID            string      `json:"rule_id"`
	Conditions    []Condition `json:"conditions"`
	RegimeFilter  string      `json:"regime_filter,omitempty"`
	SessionFilter string      `json:"session_filter,omitempty"`
	Direction     string      `json:"direction"`
	Weight        int         `json:"weight"`
}

// Matches reports whether the rule would have fired on this trade: same
// direction, filters pass, every condition holds.
func (r Rule) Matches(o TradeOutcome) bool {
	if r.Direction != "" && o.Direction != r.Direction {
		return false
	}
	if r.RegimeFilter != "" && o.Regime != r.RegimeFilter {
		return false
	}
	if r.SessionFilter != "" && o.Session != r.SessionFilter {
		return false
	}
	if len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		if !c.Holds(o) {
			return false
		}
	}
	return true
}

// ClampWeight bounds a rule weight to its valid range.
func ClampWeight(w int) int {
	if w < 1 {
		return 1
	}
	if w > 10 {
		return 10
	}
	return w
}
