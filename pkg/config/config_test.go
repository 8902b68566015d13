package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "MGC=F", cfg.Symbol)
	assert.Equal(t, 90, cfg.PeriodDays)
	assert.Equal(t, "1d", cfg.Interval)
	assert.Len(t, cfg.CorrelatedSymbols, 5)
	assert.Equal(t, 60, cfg.Tuning.MinScoreLong)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "MGC=F", cfg.Symbol)
}

func TestLoadConfig_YAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "symbol: GC=F\nperiod_days: 30\ntuning:\n  min_score_long: 65\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "GC=F", cfg.Symbol)
	assert.Equal(t, 30, cfg.PeriodDays)
	assert.Equal(t, 65, cfg.Tuning.MinScoreLong)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("GOLD_INTEL_SYMBOL", "SI=F")
	t.Setenv("GOLD_INTEL_PERIOD_DAYS", "45")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "SI=F", cfg.Symbol)
	assert.Equal(t, 45, cfg.PeriodDays)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Symbol = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Tuning.ATRStopMult = 0
	assert.Error(t, cfg.Validate())
}

func TestTuningConfig_ParamOverrides(t *testing.T) {
	cfg := DefaultTuningConfig()
	assert.Equal(t, 20.0, cfg.Param("stoch_oversold", "", ""))

	cfg.RegimeAdjustments["RANGING"] = map[string]float64{"stoch_oversold": 15}
	cfg.SessionAdjustments["asia"] = map[string]float64{"stoch_oversold": 25}

	// Regime override wins over session.
	assert.Equal(t, 15.0, cfg.Param("stoch_oversold", "RANGING", "asia"))
	assert.Equal(t, 25.0, cfg.Param("stoch_oversold", "STRONG_UPTREND", "asia"))
	assert.Equal(t, 20.0, cfg.Param("stoch_oversold", "STRONG_UPTREND", "london"))
}

func TestTuningConfig_SetParam(t *testing.T) {
	cfg := DefaultTuningConfig()
	cfg.SetParam("min_score_long", 70)
	cfg.SetParam("atr_tp_mult", 3.5)

	assert.Equal(t, 70, cfg.MinScoreLong)
	assert.Equal(t, 3.5, cfg.ATRTPMult)
}
