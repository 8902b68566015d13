package evolver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RulesArtifact is the evolved_rules.json document.
type RulesArtifact struct {
	Generation int               `json:"generation"`
	Seed       int64             `json:"seed"`
	Timestamp  time.Time         `json:"timestamp"`
	Rules      []*EvolvedRule    `json:"rules"`
	History    []GenerationStats `json:"evolution_history"`
}

// PineRule renders one rule for TradingView consumption: each condition
// as a Pine-style expression string plus the structured form.
type PineRule struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Direction  string              `json:"direction"`
	Weight     int                 `json:"weight"`
	Expression string              `json:"expression"`
	Conditions map[string]PineCond `json:"conditions"`
	Regime     string              `json:"regime,omitempty"`
	Session    string              `json:"session,omitempty"`
}

// PineCond is a single comparison in Pine export form.
type PineCond struct {
	Op  string  `json:"op"`
	Val float64 `json:"val"`
}

// ExportRules writes the top 20 rules with the evolution history.
func (e *Evolver) ExportRules(path string) error {
	artifact := RulesArtifact{
		Generation: e.generation,
		Seed:       e.seed,
		Timestamp:  time.Now().UTC(),
		Rules:      e.TopRules(20),
		History:    e.history,
	}
	return writeJSON(path, artifact)
}

// ExportPine writes the top 15 rules in Pine-compatible form.
func (e *Evolver) ExportPine(path string) error {
	top := e.TopRules(15)
	pine := make([]PineRule, 0, len(top))
	for _, r := range top {
		pr := PineRule{
			ID:         r.ID,
			Name:       r.Name,
			Direction:  r.Direction,
			Weight:     r.Weight,
			Conditions: make(map[string]PineCond, len(r.Conditions)),
			Regime:     r.RegimeFilter,
			Session:    r.SessionFilter,
		}
		expr := ""
		for i, c := range r.Conditions {
			if i > 0 {
				expr += " and "
			}
			expr += fmt.Sprintf("%s %s %g", c.Indicator, c.Op, c.Value)
			pr.Conditions[c.Indicator] = PineCond{Op: string(c.Op), Val: c.Value}
		}
		pr.Expression = expr
		pine = append(pine, pr)
	}
	return writeJSON(path, pine)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
