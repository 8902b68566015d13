package autolog

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// ConfigVariant is one candidate parameter set for the multi-config tester.
type ConfigVariant struct {
	Name   string `json:"name"`
	Config Config `json:"config"`
}

// VariantResult pairs a variant with the statistics its instance produced.
type VariantResult struct {
	Name       string     `json:"name"`
	Config     Config     `json:"config"`
	Statistics Statistics `json:"statistics"`
}

// MultiTester replays one tick stream through several auto-logger
// instances, each with its own parameter set and its own database, and
// ranks the outcomes.
type MultiTester struct {
	dir     string
	log     zerolog.Logger
	workers int
}

// NewMultiTester stores per-variant databases under dir.
func NewMultiTester(dir string, log zerolog.Logger) *MultiTester {
	return &MultiTester{
		dir:     dir,
		log:     log.With().Str("component", "multitest").Logger(),
		workers: runtime.NumCPU(),
	}
}

// Run feeds every tick to every variant and collects final statistics.
// Variants run in parallel; ticks within one variant stay ordered. Each
// tick advances the instance clock by one polling interval so expiry is
// exercised deterministically.
func (m *MultiTester) Run(variants []ConfigVariant, ticks []types.TickSnapshot) ([]VariantResult, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("no config variants to test")
	}

	results := make([]VariantResult, len(variants))
	errs := make([]error, len(variants))

	sem := make(chan struct{}, m.workers)
	var wg sync.WaitGroup
	for i, variant := range variants {
		wg.Add(1)
		go func(i int, variant ConfigVariant) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			stats, err := m.runVariant(variant, ticks)
			if err != nil {
				errs[i] = fmt.Errorf("variant %s: %w", variant.Name, err)
				return
			}
			results[i] = VariantResult{Name: variant.Name, Config: variant.Config, Statistics: stats}
		}(i, variant)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	for _, r := range results {
		m.log.Info().
			Str("variant", r.Name).
			Int("trades", r.Statistics.Total).
			Float64("win_rate", r.Statistics.WinRate).
			Float64("profit_factor", r.Statistics.ProfitFactor).
			Msg("variant complete")
	}
	return results, nil
}

func (m *MultiTester) runVariant(variant ConfigVariant, ticks []types.TickSnapshot) (Statistics, error) {
	store, err := OpenStore(filepath.Join(m.dir, fmt.Sprintf("autolog_%s.db", variant.Name)))
	if err != nil {
		return Statistics{}, err
	}
	defer store.Close()

	al := New(variant.Config, store, nil, m.log)

	interval := time.Duration(variant.Config.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	clock := time.Now().UTC()
	al.now = func() time.Time { return clock }

	for i := range ticks {
		if err := al.Process(&ticks[i]); err != nil {
			return Statistics{}, err
		}
		clock = clock.Add(interval)
	}
	return store.Statistics()
}

// Best returns the variant with the highest profit factor, win rate
// breaking ties.
func Best(results []VariantResult) (VariantResult, error) {
	if len(results) == 0 {
		return VariantResult{}, fmt.Errorf("no variant results")
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Statistics.ProfitFactor > best.Statistics.ProfitFactor ||
			(r.Statistics.ProfitFactor == best.Statistics.ProfitFactor &&
				r.Statistics.WinRate > best.Statistics.WinRate) {
			best = r
		}
	}
	return best, nil
}
