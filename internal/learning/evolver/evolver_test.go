package evolver

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
	"github.com/ducminhle1904/gold-intel-bot/internal/learning/miner"
)

func newTestEvolver(seed int64) *Evolver {
	return New(DefaultConfig(), seed, zerolog.Nop())
}

// edgeHistory is a history where "stoch_k < 25 -> LONG" has a strong
// edge over background noise.
func edgeHistory() []learning.TradeOutcome {
	rng := rand.New(rand.NewSource(7))
	var out []learning.TradeOutcome
	for i := 0; i < 400; i++ {
		o := learning.TradeOutcome{
			Direction: "LONG",
			Indicators: map[string]float64{
				"rsi":     float64(rng.Intn(80) + 10),
				"stoch_k": float64(rng.Intn(90) + 5),
				"adx":     float64(rng.Intn(50) + 10),
			},
		}
		winProb := 0.45
		if o.Indicators["stoch_k"] < 25 {
			winProb = 0.75
		}
		if rng.Float64() < winProb {
			o.Result = "WIN"
			o.PnL = 6
		} else {
			o.Result = "LOSS"
			o.PnL = -4
		}
		out = append(out, o)
	}
	return out
}

func TestEvaluateFitness_TooFewMatchesIsZero(t *testing.T) {
	rule := &EvolvedRule{Rule: learning.Rule{
		ID:         "r1",
		Conditions: []learning.Condition{{Indicator: "rsi", Op: learning.OpLess, Value: 30}},
		Direction:  "LONG",
		Weight:     5,
	}}

	var data []learning.TradeOutcome
	for i := 0; i < 9; i++ {
		data = append(data, learning.TradeOutcome{
			Direction: "LONG", Result: "WIN", PnL: 5,
			Indicators: map[string]float64{"rsi": 20},
		})
	}
	assert.Zero(t, EvaluateFitness(rule, data))
	assert.Equal(t, 9, rule.TotalTrades)
}

func TestEvaluateFitness_SmallSamplePenalty(t *testing.T) {
	rule := func() *EvolvedRule {
		return &EvolvedRule{Rule: learning.Rule{
			ID:         "r1",
			Conditions: []learning.Condition{{Indicator: "rsi", Op: learning.OpLess, Value: 30}},
			Direction:  "LONG",
			Weight:     5,
		}}
	}

	mk := func(n int) []learning.TradeOutcome {
		var data []learning.TradeOutcome
		for i := 0; i < n; i++ {
			result, pnl := "WIN", 5.0
			if i%4 == 3 {
				result, pnl = "LOSS", -5.0
			}
			data = append(data, learning.TradeOutcome{
				Direction: "LONG", Result: result, PnL: pnl,
				Indicators: map[string]float64{"rsi": 20},
			})
		}
		return data
	}

	// 16 matches: wr 75, pf 3, base = 50 + 40 + 3.2 = 93.2, halved.
	small := rule()
	EvaluateFitness(small, mk(16))
	assert.InDelta(t, 46.6, small.Fitness, 1e-9)

	// 40 matches: wr 75, pf 3, fitness = 50 + 40 + 8 = 98, no penalty.
	large := rule()
	EvaluateFitness(large, mk(40))
	assert.InDelta(t, 98.0, large.Fitness, 1e-9)
}

func TestEvaluateFitness_OrderInvariant(t *testing.T) {
	data := edgeHistory()
	shuffled := append([]learning.TradeOutcome(nil), data...)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	mk := func() *EvolvedRule {
		return &EvolvedRule{Rule: learning.Rule{
			ID:         "r1",
			Conditions: []learning.Condition{{Indicator: "stoch_k", Op: learning.OpLess, Value: 25}},
			Direction:  "LONG",
			Weight:     5,
		}}
	}
	a, b := mk(), mk()
	assert.Equal(t, EvaluateFitness(a, data), EvaluateFitness(b, shuffled))
	assert.Equal(t, a.WinRate, b.WinRate)
	assert.Equal(t, a.TotalTrades, b.TotalTrades)
}

func TestRun_DeterministicForSeed(t *testing.T) {
	data := edgeHistory()

	run := func() []string {
		e := newTestEvolver(99)
		e.InitializeFromPatterns(nil)
		top := e.Run(data)
		ids := make([]string, len(top))
		for i, r := range top {
			ids[i] = r.ID
		}
		return ids
	}
	assert.Equal(t, run(), run())
}

func TestRun_FindsTheEdge(t *testing.T) {
	e := newTestEvolver(42)
	e.InitializeFromPatterns(nil)
	top := e.Run(edgeHistory())

	require.NotEmpty(t, top)
	best := top[0]
	assert.Greater(t, best.Fitness, 0.0)
	assert.Greater(t, best.WinRate, 55.0)
	assert.Equal(t, 15, e.Generation())
}

func TestInitializeFromPatterns_SeedsThenFills(t *testing.T) {
	patterns := []miner.Pattern{
		{
			ID:          "P_rsi_<_30_LONG",
			Name:        "RSI < 30 -> LONG",
			Conditions:  []learning.Condition{{Indicator: "rsi", Op: learning.OpLess, Value: 30}},
			Direction:   "LONG",
			BestRegime:  "ALL",
			BestSession: "ALL",
			Confidence:  80,
		},
		// No threshold conditions: must be skipped, not seeded.
		{ID: "REGIME_RANGING_LONG", Direction: "LONG", Confidence: 60},
	}

	e := newTestEvolver(1)
	e.InitializeFromPatterns(patterns)

	require.Len(t, e.population, DefaultConfig().PopulationSize)
	assert.Equal(t, "P_rsi_<_30_LONG", e.population[0].ID)
	assert.Equal(t, 8, e.population[0].Weight)
	for _, r := range e.population[1:] {
		assert.NotEqual(t, "REGIME_RANGING_LONG", r.ID)
	}
}

func TestCrossover_SharedConditionAveraged(t *testing.T) {
	e := newTestEvolver(3)
	p1 := &EvolvedRule{Rule: learning.Rule{
		ID:         "p1",
		Conditions: []learning.Condition{{Indicator: "rsi", Op: learning.OpLess, Value: 30}},
		Direction:  "LONG",
		Weight:     4,
	}, Fitness: 10}
	p2 := &EvolvedRule{Rule: learning.Rule{
		ID: "p2",
		Conditions: []learning.Condition{
			{Indicator: "rsi", Op: learning.OpGreater, Value: 41},
			{Indicator: "adx", Op: learning.OpGreater, Value: 25},
		},
		Direction: "SHORT",
		Weight:    8,
	}, Fitness: 5}

	child := e.crossover(p1, p2)

	m := conditionMap(child.Conditions)
	require.Contains(t, m, "rsi")
	require.Contains(t, m, "adx")
	// Averaged and truncated: (30 + 41) / 2 = 35.
	assert.Equal(t, 35.0, m["rsi"].Value)
	// Exclusive condition inherited untouched.
	assert.Equal(t, 25.0, m["adx"].Value)
	// Direction from the fitter parent, weight floor-averaged.
	assert.Equal(t, "LONG", child.Direction)
	assert.Equal(t, 6, child.Weight)
	assert.Equal(t, []string{"p1", "p2"}, child.ParentIDs)
}

func TestMutate_StaysInBounds(t *testing.T) {
	e := newTestEvolver(5)
	parent := &EvolvedRule{Rule: learning.Rule{
		ID:         "p",
		Conditions: []learning.Condition{{Indicator: "rsi", Op: learning.OpLess, Value: 12}},
		Direction:  "LONG",
		Weight:     1,
	}}

	for i := 0; i < 200; i++ {
		m := e.mutate(parent)
		for _, c := range m.Conditions {
			bounds := indicatorRanges[c.Indicator]
			assert.GreaterOrEqual(t, c.Value, bounds[0])
			assert.LessOrEqual(t, c.Value, bounds[1])
		}
		assert.GreaterOrEqual(t, m.Weight, 1)
		assert.LessOrEqual(t, m.Weight, 10)
		// The parent must not be modified in place.
		assert.Equal(t, 12.0, parent.Conditions[0].Value)
	}
}

func TestExportArtifacts(t *testing.T) {
	dir := t.TempDir()
	e := newTestEvolver(42)
	e.InitializeFromPatterns(nil)
	e.Run(edgeHistory())

	rulesPath := filepath.Join(dir, "evolved_rules.json")
	require.NoError(t, e.ExportRules(rulesPath))

	data, err := os.ReadFile(rulesPath)
	require.NoError(t, err)
	var artifact RulesArtifact
	require.NoError(t, json.Unmarshal(data, &artifact))
	assert.Equal(t, int64(42), artifact.Seed)
	assert.Equal(t, 15, artifact.Generation)
	assert.Len(t, artifact.Rules, 20)
	assert.Len(t, artifact.History, 15)

	pinePath := filepath.Join(dir, "pine_rules.json")
	require.NoError(t, e.ExportPine(pinePath))
	data, err = os.ReadFile(pinePath)
	require.NoError(t, err)
	var pine []PineRule
	require.NoError(t, json.Unmarshal(data, &pine))
	require.Len(t, pine, 15)
	for _, pr := range pine {
		if len(pr.Conditions) > 0 {
			assert.NotEmpty(t, pr.Expression)
		}
	}
}
