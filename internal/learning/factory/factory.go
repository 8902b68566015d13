package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
	"github.com/ducminhle1904/gold-intel-bot/internal/learning/evolver"
	"github.com/ducminhle1904/gold-intel-bot/internal/learning/miner"
	"github.com/ducminhle1904/gold-intel-bot/internal/learning/tuner"
	"github.com/ducminhle1904/gold-intel-bot/pkg/config"
)

// ErrNoOutcomes means the learning cycle had nothing to learn from. The
// caller treats it as a skipped iteration, not a failure.
var ErrNoOutcomes = errors.New("no completed outcomes to learn from")

// Config tunes one learning iteration.
type Config struct {
	Miner   miner.Config   `json:"miner"`
	Evolver evolver.Config `json:"evolver"`

	// TopRules feed the deployed version; MinImprovement is the deploy
	// gate, in percent win-rate improvement over the active version.
	TopRules       int     `json:"top_rules"`
	MinImprovement float64 `json:"min_improvement"`

	ArtifactsDir string `json:"artifacts_dir"`
}

// DefaultConfig returns the standard factory parameters.
func DefaultConfig(artifactsDir string) Config {
	return Config{
		Miner:          miner.DefaultConfig(),
		Evolver:        evolver.DefaultConfig(),
		TopRules:       10,
		MinImprovement: 5.0,
		ArtifactsDir:   artifactsDir,
	}
}

// IterationResult records one pass of the loop for loop_results.json.
type IterationResult struct {
	StartedAt    time.Time `json:"started_at"`
	Outcomes     int       `json:"outcomes"`
	Patterns     int       `json:"patterns"`
	BestFitness  float64   `json:"best_fitness"`
	VersionID    string    `json:"version_id"`
	WinRate      float64   `json:"win_rate"`
	ProfitFactor float64   `json:"profit_factor"`
	Deployed     bool      `json:"deployed"`
	Reason       string    `json:"reason"`
}

// productionConfig is the artifact the analysis cycle consumes.
type productionConfig struct {
	VersionID string                `json:"version_id"`
	CreatedAt time.Time             `json:"created_at"`
	Seed      int64                 `json:"seed"`
	Rules     []*evolver.EvolvedRule `json:"rules"`
	Tuning    config.TuningConfig   `json:"tuning"`
}

// Factory orchestrates the learning cycle: mine, evolve, tune, version,
// gate, deploy, export. Deploy is the only committing action; a failure
// in any earlier phase leaves the active version untouched.
type Factory struct {
	cfg      Config
	versions *VersionStore
	tuning   config.TuningConfig
	log      zerolog.Logger
	now      func() time.Time
	seed     func() int64
}

// New creates a factory around an opened version store and the current
// baseline tuning config.
func New(cfg Config, versions *VersionStore, tuning config.TuningConfig, log zerolog.Logger) *Factory {
	return &Factory{
		cfg:      cfg,
		versions: versions,
		tuning:   tuning,
		log:      log.With().Str("component", "strategy-factory").Logger(),
		now:      time.Now,
		seed:     func() int64 { return time.Now().UnixNano() },
	}
}

// Versions exposes the underlying store for reporting.
func (f *Factory) Versions() *VersionStore {
	return f.versions
}

// Tuning returns the baseline config as updated by deployed iterations.
func (f *Factory) Tuning() config.TuningConfig {
	return f.tuning
}

// RunIteration executes one full learning cycle over the outcome history
// and returns what happened. The RNG seed is fixed at the start and
// persisted with the version so a rerun of a failed cycle reproduces it.
func (f *Factory) RunIteration(outcomes []learning.TradeOutcome) (IterationResult, error) {
	started := f.now().UTC()
	result := IterationResult{StartedAt: started, Outcomes: len(outcomes)}

	if len(outcomes) == 0 && !f.cfg.Miner.AllowSynthetic {
		result.Reason = "no outcome history"
		return result, ErrNoOutcomes
	}

	seed := f.seed()

	// Phase 1: discovery.
	m := miner.New(f.cfg.Miner, f.log)
	patterns := m.Mine(outcomes)
	result.Patterns = len(patterns)
	if err := miner.Export(patterns, f.artifact("discovered_patterns.json")); err != nil {
		return result, err
	}

	// Phase 2: evolution.
	ev := evolver.New(f.cfg.Evolver, seed, f.log)
	ev.InitializeFromPatterns(patterns)
	topRules := ev.Run(outcomes)
	if len(topRules) > f.cfg.TopRules {
		topRules = topRules[:f.cfg.TopRules]
	}
	result.BestFitness = topRules[0].Fitness
	if err := ev.ExportRules(f.artifact("evolved_rules.json")); err != nil {
		return result, err
	}
	if err := ev.ExportPine(f.artifact("pine_rules.json")); err != nil {
		return result, err
	}

	// Phase 3: optimization.
	tn := tuner.New(f.tuning, f.log)
	tuned := tn.Optimize(outcomes)
	if err := tn.ExportConfig(f.artifact("optimized_config.json")); err != nil {
		return result, err
	}
	if err := tn.ExportFirebase(f.artifact("firebase_config.json")); err != nil {
		return result, err
	}

	// Phase 4: versioning.
	version := Version{
		ID:         f.versions.NextID(started),
		CreatedAt:  started,
		RulesCount: len(topRules),
		Seed:       seed,
	}
	version.WinRate, version.ProfitFactor = ruleAverages(topRules)
	result.VersionID = version.ID
	result.WinRate = version.WinRate
	result.ProfitFactor = version.ProfitFactor

	// Phase 5: deploy gate.
	deploy, reason := f.gate(version)
	result.Reason = reason
	if !deploy {
		if err := f.versions.Record(version); err != nil {
			return result, err
		}
		f.log.Info().Str("version", version.ID).Str("reason", reason).Msg("version held back")
		return result, f.appendLoopResult(result)
	}

	if err := f.versions.Deploy(version); err != nil {
		return result, err
	}
	f.tuning = tuned

	// Phase 6: export.
	if err := writeJSON(f.artifact("production_config.json"), productionConfig{
		VersionID: version.ID,
		CreatedAt: version.CreatedAt,
		Seed:      seed,
		Rules:     topRules,
		Tuning:    tuned,
	}); err != nil {
		return result, err
	}

	result.Deployed = true
	f.log.Info().
		Str("version", version.ID).
		Float64("win_rate", version.WinRate).
		Float64("profit_factor", version.ProfitFactor).
		Msg("strategy version deployed")
	return result, f.appendLoopResult(result)
}

// gate decides whether the candidate version goes live. Improvement is
// the candidate's win rate gain relative to the active version, in
// percent.
func (f *Factory) gate(candidate Version) (bool, string) {
	active, ok := f.versions.Active()
	if !ok {
		return true, "no active version"
	}
	if active.WinRate <= 0 {
		return candidate.WinRate > 0, "active version has no win rate"
	}
	improvement := (candidate.WinRate - active.WinRate) / active.WinRate * 100
	if improvement >= f.cfg.MinImprovement {
		return true, fmt.Sprintf("win rate improved %.1f%% over %s", improvement, active.ID)
	}
	return false, fmt.Sprintf("improvement %.1f%% below %.1f%% threshold", improvement, f.cfg.MinImprovement)
}

// ruleAverages computes the version metrics over rules that actually
// matched trades.
func ruleAverages(rules []*evolver.EvolvedRule) (winRate, profitFactor float64) {
	n := 0
	for _, r := range rules {
		if r.TotalTrades == 0 {
			continue
		}
		winRate += r.WinRate
		profitFactor += r.ProfitFactor
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return winRate / float64(n), profitFactor / float64(n)
}

func (f *Factory) appendLoopResult(result IterationResult) error {
	path := f.artifact("loop_results.json")

	var results []IterationResult
	if raw, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(raw, &results)
	}
	results = append(results, result)
	return writeJSON(path, results)
}

func (f *Factory) artifact(name string) string {
	return filepath.Join(f.cfg.ArtifactsDir, name)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}
