package factory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
	"github.com/ducminhle1904/gold-intel-bot/internal/logger"
	"github.com/ducminhle1904/gold-intel-bot/pkg/config"
)

// edgeOutcomes builds a history with a real edge: oversold longs win 70%
// of the time, everything else is a coin flip.
func edgeOutcomes(n int) []learning.TradeOutcome {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]learning.TradeOutcome, 0, n)
	for i := 0; i < n; i++ {
		o := learning.TradeOutcome{
			SignalID:  "t",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Direction: "LONG",
			Regime:    "STRONG_UPTREND",
			Session:   "london",
			Indicators: map[string]float64{
				"rsi":     float64(20 + (i*7)%60),
				"stoch_k": float64(10 + (i*11)%80),
				"adx":     float64(15 + (i*3)%40),
			},
		}
		win := i%2 == 0
		if o.Indicators["rsi"] < 35 {
			win = i%10 < 7
		}
		if win {
			o.Result, o.PnL = "WIN", 8
		} else {
			o.Result, o.PnL = "LOSS", -4
		}
		out = append(out, o)
	}
	return out
}

func newTestFactory(t *testing.T, dir string) *Factory {
	t.Helper()
	versions, err := OpenVersionStore(filepath.Join(dir, "strategy_versions.json"))
	require.NoError(t, err)

	cfg := DefaultConfig(dir)
	cfg.Evolver.Generations = 3

	f := New(cfg, versions, config.DefaultTuningConfig(), logger.Discard())
	f.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	f.seed = func() int64 { return 42 }
	return f
}

func TestRunIterationDeploysFirstVersion(t *testing.T) {
	dir := t.TempDir()
	f := newTestFactory(t, dir)

	result, err := f.RunIteration(edgeOutcomes(400))
	require.NoError(t, err)

	assert.True(t, result.Deployed)
	assert.Equal(t, "v1.0_20250601", result.VersionID)
	assert.Equal(t, "no active version", result.Reason)

	active, ok := f.Versions().Active()
	require.True(t, ok)
	assert.Equal(t, result.VersionID, active.ID)
	assert.Equal(t, int64(42), active.Seed)

	for _, name := range []string{
		"discovered_patterns.json", "evolved_rules.json", "pine_rules.json",
		"optimized_config.json", "firebase_config.json",
		"production_config.json", "strategy_versions.json", "loop_results.json",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestRunIterationHoldsBackWithoutImprovement(t *testing.T) {
	dir := t.TempDir()
	f := newTestFactory(t, dir)
	outcomes := edgeOutcomes(400)

	first, err := f.RunIteration(outcomes)
	require.NoError(t, err)
	require.True(t, first.Deployed)

	// Same data, same seed: the rerun cannot clear the improvement gate.
	second, err := f.RunIteration(outcomes)
	require.NoError(t, err)
	assert.False(t, second.Deployed)

	active, ok := f.Versions().Active()
	require.True(t, ok)
	assert.Equal(t, first.VersionID, active.ID)
	assert.Len(t, f.Versions().Versions(), 2)
}

func TestDeployGateThreshold(t *testing.T) {
	tests := []struct {
		name      string
		active    float64
		candidate float64
		want      bool
	}{
		{"clears threshold", 58, 62, true},
		{"below threshold", 58, 60, false},
		{"exactly at threshold", 60, 63, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			f := newTestFactory(t, dir)
			require.NoError(t, f.Versions().Deploy(Version{ID: "v1.0_20250101", WinRate: tt.active}))

			deploy, _ := f.gate(Version{ID: "v2.0_20250601", WinRate: tt.candidate})
			assert.Equal(t, tt.want, deploy)
		})
	}
}

func TestRunIterationEmptyHistory(t *testing.T) {
	f := newTestFactory(t, t.TempDir())

	_, err := f.RunIteration(nil)
	assert.ErrorIs(t, err, ErrNoOutcomes)
	_, ok := f.Versions().Active()
	assert.False(t, ok)
}

func TestVersionStoreAtomicDeploy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versions.json")
	store, err := OpenVersionStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Deploy(Version{ID: "v1.0_20250101", WinRate: 55}))
	require.NoError(t, store.Deploy(Version{ID: "v2.0_20250201", WinRate: 61}))

	reloaded, err := OpenVersionStore(path)
	require.NoError(t, err)
	active, ok := reloaded.Active()
	require.True(t, ok)
	assert.Equal(t, "v2.0_20250201", active.ID)

	// Exactly one version is active.
	count := 0
	for _, v := range reloaded.Versions() {
		if v.IsActive {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
