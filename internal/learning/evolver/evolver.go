package evolver

import (
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
	"github.com/ducminhle1904/gold-intel-bot/internal/learning/miner"
)

// EvolvedRule is a trading rule plus its evolutionary bookkeeping and the
// metrics from its last fitness evaluation.
type EvolvedRule struct {
	learning.Rule
	Name         string   `json:"name"`
	Generation   int      `json:"generation"`
	ParentIDs    []string `json:"parent_ids,omitempty"`
	WinRate      float64  `json:"win_rate"`
	ProfitFactor float64  `json:"profit_factor"`
	TotalTrades  int      `json:"total_trades"`
	Fitness      float64  `json:"fitness"`
}

// GenerationStats is one row of the evolution history.
type GenerationStats struct {
	Generation int     `json:"generation"`
	AvgFitness float64 `json:"avg_fitness"`
	MaxFitness float64 `json:"max_fitness"`
	AvgWinRate float64 `json:"avg_win_rate"`
	BestRule   string  `json:"best_rule"`
}

// Config holds the genetic algorithm parameters.
type Config struct {
	PopulationSize int     `json:"population_size"`
	EliteCount     int     `json:"elite_count"`
	TournamentSize int     `json:"tournament_size"`
	CrossoverRate  float64 `json:"crossover_rate"`
	MutationRate   float64 `json:"mutation_rate"`
	Generations    int     `json:"generations"`
}

// DefaultConfig returns the standard GA parameters.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 50,
		EliteCount:     5,
		TournamentSize: 5,
		CrossoverRate:  0.3,
		MutationRate:   0.2,
		Generations:    15,
	}
}

var indicatorRanges = map[string][2]float64{
	"rsi":            {10, 90},
	"stoch_k":        {5, 95},
	"adx":            {10, 60},
	"atr_percentile": {10, 90},
}

// indicatorNames in a fixed order so rule generation is reproducible for
// a given seed.
var indicatorNames = []string{"adx", "atr_percentile", "rsi", "stoch_k"}

// Filter choices include the empty string, meaning no filter.
var (
	regimeChoices = []string{
		"STRONG_UPTREND", "WEAK_UPTREND", "RANGING", "WEAK_DOWNTREND", "STRONG_DOWNTREND", "",
	}
	sessionChoices = []string{"asia", "london", "newyork", "overlap", ""}
)

// Evolver breeds trading rules against historical outcomes.
type Evolver struct {
	cfg        Config
	seed       int64
	rng        *rand.Rand
	log        zerolog.Logger
	generation int
	population []*EvolvedRule
	history    []GenerationStats
	workers    int
}

// New creates an evolver with an explicit RNG seed. The seed is kept so
// a deployed strategy version can record how it was bred.
func New(cfg Config, seed int64, log zerolog.Logger) *Evolver {
	return &Evolver{
		cfg:     cfg,
		seed:    seed,
		rng:     rand.New(rand.NewSource(seed)),
		log:     log.With().Str("component", "rule-evolver").Logger(),
		workers: runtime.NumCPU(),
	}
}

// Seed returns the RNG seed the evolver was created with.
func (e *Evolver) Seed() int64 {
	return e.seed
}

// Generation returns the number of completed generations.
func (e *Evolver) Generation() int {
	return e.generation
}

// History returns the per-generation statistics.
func (e *Evolver) History() []GenerationStats {
	return e.history
}

// InitializeFromPatterns seeds the population from mined patterns, most
// confident first, and fills the remainder with random rules.
func (e *Evolver) InitializeFromPatterns(patterns []miner.Pattern) {
	e.population = e.population[:0]
	e.generation = 0

	for _, p := range patterns {
		if len(e.population) >= e.cfg.PopulationSize {
			break
		}
		rule, ok := p.Rule()
		if !ok {
			continue
		}
		e.population = append(e.population, &EvolvedRule{
			Rule:         rule,
			Name:         p.Name,
			WinRate:      p.WinRate,
			ProfitFactor: p.ProfitFactor,
			TotalTrades:  p.SampleSize,
			Fitness:      p.Confidence,
		})
	}

	for len(e.population) < e.cfg.PopulationSize {
		e.population = append(e.population, e.randomRule())
	}

	e.log.Info().Int("population", len(e.population)).Msg("population initialized")
}

func (e *Evolver) randomRule() *EvolvedRule {
	id := fmt.Sprintf("GEN%d_R%03d", e.generation, e.rng.Intn(900)+100)

	n := e.rng.Intn(3) + 1
	picked := e.rng.Perm(len(indicatorNames))[:n]
	sort.Ints(picked)

	conditions := make([]learning.Condition, 0, n)
	for _, idx := range picked {
		name := indicatorNames[idx]
		bounds := indicatorRanges[name]
		op := learning.OpLess
		if e.rng.Intn(2) == 1 {
			op = learning.OpGreater
		}
		value := float64(e.rng.Intn(int(bounds[1]-bounds[0])+1)) + bounds[0]
		conditions = append(conditions, learning.Condition{Indicator: name, Op: op, Value: value})
	}

	direction := "LONG"
	if e.rng.Intn(2) == 1 {
		direction = "SHORT"
	}

	return &EvolvedRule{
		Rule: learning.Rule{
			ID:            id,
			Conditions:    conditions,
			RegimeFilter:  regimeChoices[e.rng.Intn(len(regimeChoices))],
			SessionFilter: sessionChoices[e.rng.Intn(len(sessionChoices))],
			Direction:     direction,
			Weight:        e.rng.Intn(10) + 1,
		},
		Name:       fmt.Sprintf("Random Rule %s", id),
		Generation: e.generation,
	}
}

// EvaluateFitness scores one rule against the trade history and records
// the metrics on the rule. Pure for a given rule and data set.
func EvaluateFitness(rule *EvolvedRule, data []learning.TradeOutcome) float64 {
	var matched []learning.TradeOutcome
	for _, o := range data {
		if rule.Matches(o) {
			matched = append(matched, o)
		}
	}

	if len(matched) < 10 {
		rule.WinRate = 0
		rule.ProfitFactor = 0
		rule.TotalTrades = len(matched)
		rule.Fitness = 0
		return 0
	}

	winRate := learning.WinRate(matched)
	profitFactor := learning.ProfitFactor(matched, 0.01)

	fitness := (winRate-50)*2 + (profitFactor-1)*20 + min(float64(len(matched))/5, 20)
	if len(matched) < 20 {
		fitness *= 0.5
	}
	fitness = max(0, fitness)

	rule.WinRate = winRate
	rule.ProfitFactor = profitFactor
	rule.TotalTrades = len(matched)
	rule.Fitness = fitness
	return fitness
}

// EvaluatePopulation scores every rule in parallel with a bounded worker
// pool, then sorts the population by fitness descending. Rule IDs break
// ties so the order is stable across runs.
func (e *Evolver) EvaluatePopulation(data []learning.TradeOutcome) {
	var wg sync.WaitGroup
	workerChan := make(chan struct{}, e.workers)

	for _, rule := range e.population {
		wg.Add(1)
		go func(r *EvolvedRule) {
			defer wg.Done()
			workerChan <- struct{}{}
			defer func() { <-workerChan }()
			EvaluateFitness(r, data)
		}(rule)
	}
	wg.Wait()

	sort.SliceStable(e.population, func(i, j int) bool {
		if e.population[i].Fitness != e.population[j].Fitness {
			return e.population[i].Fitness > e.population[j].Fitness
		}
		return e.population[i].ID < e.population[j].ID
	})
}

func (e *Evolver) selectParent() *EvolvedRule {
	picks := e.rng.Perm(len(e.population))[:e.cfg.TournamentSize]
	best := e.population[picks[0]]
	for _, idx := range picks[1:] {
		if e.population[idx].Fitness > best.Fitness {
			best = e.population[idx]
		}
	}
	return best
}

func (e *Evolver) crossover(p1, p2 *EvolvedRule) *EvolvedRule {
	id := fmt.Sprintf("GEN%d_R%03d", e.generation, e.rng.Intn(900)+100)

	m1 := conditionMap(p1.Conditions)
	m2 := conditionMap(p2.Conditions)

	names := make([]string, 0, len(m1)+len(m2))
	seen := map[string]bool{}
	for _, c := range append(append([]learning.Condition{}, p1.Conditions...), p2.Conditions...) {
		if !seen[c.Indicator] {
			seen[c.Indicator] = true
			names = append(names, c.Indicator)
		}
	}
	sort.Strings(names)

	conditions := make([]learning.Condition, 0, len(names))
	for _, name := range names {
		c1, in1 := m1[name]
		c2, in2 := m2[name]
		switch {
		case in1 && in2:
			op := c1.Op
			if e.rng.Intn(2) == 1 {
				op = c2.Op
			}
			conditions = append(conditions, learning.Condition{
				Indicator: name,
				Op:        op,
				Value:     float64(int((c1.Value + c2.Value) / 2)),
			})
		case in1:
			conditions = append(conditions, c1)
		default:
			conditions = append(conditions, c2)
		}
	}

	regimeFilter := p1.RegimeFilter
	if e.rng.Intn(2) == 1 {
		regimeFilter = p2.RegimeFilter
	}
	sessionFilter := p1.SessionFilter
	if e.rng.Intn(2) == 1 {
		sessionFilter = p2.SessionFilter
	}

	direction := p2.Direction
	if p1.Fitness > p2.Fitness {
		direction = p1.Direction
	}

	return &EvolvedRule{
		Rule: learning.Rule{
			ID:            id,
			Conditions:    conditions,
			RegimeFilter:  regimeFilter,
			SessionFilter: sessionFilter,
			Direction:     direction,
			Weight:        learning.ClampWeight((p1.Weight + p2.Weight) / 2),
		},
		Name:       fmt.Sprintf("Crossover %s x %s", p1.ID, p2.ID),
		Generation: e.generation,
		ParentIDs:  []string{p1.ID, p2.ID},
	}
}

func (e *Evolver) mutate(parent *EvolvedRule) *EvolvedRule {
	mutated := &EvolvedRule{
		Rule: learning.Rule{
			ID:            fmt.Sprintf("GEN%d_M%03d", e.generation, e.rng.Intn(900)+100),
			Conditions:    append([]learning.Condition(nil), parent.Conditions...),
			RegimeFilter:  parent.RegimeFilter,
			SessionFilter: parent.SessionFilter,
			Direction:     parent.Direction,
			Weight:        parent.Weight,
		},
		Name:       fmt.Sprintf("Mutated %s", parent.ID),
		Generation: e.generation,
		ParentIDs:  []string{parent.ID},
	}

	for i := range mutated.Conditions {
		c := &mutated.Conditions[i]
		if e.rng.Float64() < 0.3 {
			bounds, ok := indicatorRanges[c.Indicator]
			if !ok {
				bounds = [2]float64{0, 100}
			}
			delta := float64(e.rng.Intn(21) - 10)
			c.Value = max(bounds[0], min(bounds[1], c.Value+delta))
		}
		if e.rng.Float64() < 0.1 {
			c.Op = c.Op.Flip()
		}
	}

	if e.rng.Float64() < 0.15 {
		mutated.RegimeFilter = regimeChoices[e.rng.Intn(len(regimeChoices))]
	}
	if e.rng.Float64() < 0.15 {
		mutated.SessionFilter = sessionChoices[e.rng.Intn(len(sessionChoices))]
	}
	if e.rng.Float64() < 0.2 {
		delta := 1
		if e.rng.Intn(2) == 0 {
			delta = -1
		}
		mutated.Weight = learning.ClampWeight(mutated.Weight + delta)
	}
	return mutated
}

// EvolveGeneration runs one generation: evaluate, carry the elite, fill
// the rest by crossover, mutation or fresh random rules.
func (e *Evolver) EvolveGeneration(data []learning.TradeOutcome) GenerationStats {
	e.generation++

	e.EvaluatePopulation(data)

	var sumFitness, sumWinRate float64
	for _, r := range e.population {
		sumFitness += r.Fitness
		sumWinRate += r.WinRate
	}
	stats := GenerationStats{
		Generation: e.generation,
		AvgFitness: sumFitness / float64(len(e.population)),
		MaxFitness: e.population[0].Fitness,
		AvgWinRate: sumWinRate / float64(len(e.population)),
		BestRule:   e.population[0].ID,
	}
	e.history = append(e.history, stats)

	newPopulation := make([]*EvolvedRule, 0, e.cfg.PopulationSize)
	newPopulation = append(newPopulation, e.population[:e.cfg.EliteCount]...)

	for len(newPopulation) < e.cfg.PopulationSize {
		if e.rng.Float64() < e.cfg.CrossoverRate {
			newPopulation = append(newPopulation, e.crossover(e.selectParent(), e.selectParent()))
		} else if e.rng.Float64() < e.cfg.MutationRate {
			parent := e.population[e.rng.Intn(e.cfg.PopulationSize/2)]
			newPopulation = append(newPopulation, e.mutate(parent))
		} else {
			newPopulation = append(newPopulation, e.randomRule())
		}
	}
	e.population = newPopulation

	e.log.Debug().
		Int("generation", stats.Generation).
		Float64("max_fitness", stats.MaxFitness).
		Str("best_rule", stats.BestRule).
		Msg("generation complete")
	return stats
}

// Run evolves for the configured number of generations and returns the
// top 10 rules after a final evaluation.
func (e *Evolver) Run(data []learning.TradeOutcome) []*EvolvedRule {
	start := time.Now()
	for i := 0; i < e.cfg.Generations; i++ {
		e.EvolveGeneration(data)
	}
	e.EvaluatePopulation(data)

	e.log.Info().
		Int("generations", e.generation).
		Float64("best_fitness", e.population[0].Fitness).
		Dur("elapsed", time.Since(start)).
		Msg("evolution complete")
	return e.TopRules(10)
}

// TopRules returns the n fittest rules of the current population.
func (e *Evolver) TopRules(n int) []*EvolvedRule {
	if n > len(e.population) {
		n = len(e.population)
	}
	return e.population[:n]
}

func conditionMap(conditions []learning.Condition) map[string]learning.Condition {
	m := make(map[string]learning.Condition, len(conditions))
	for _, c := range conditions {
		m[c.Indicator] = c
	}
	return m
}
