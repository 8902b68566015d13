package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level engine configuration. Values load from a YAML
// file with environment-variable overrides applied on top.
type Config struct {
	// Primary instrument (micro gold futures by default).
	Symbol string `yaml:"symbol"`

	// Correlated basket fetched alongside the primary symbol.
	CorrelatedSymbols []string `yaml:"correlated_symbols"`

	// Bar history request shape.
	PeriodDays int    `yaml:"period_days"`
	Interval   string `yaml:"interval"`

	// Storage locations.
	DataDir    string `yaml:"data_dir"`
	DBPath     string `yaml:"db_path"`
	ReportsDir string `yaml:"reports_dir"`

	// Tick feed for the auto-logger.
	TickURL string `yaml:"tick_url"`

	Tuning TuningConfig `yaml:"tuning"`
}

// DefaultConfig returns the production defaults for gold futures.
func DefaultConfig() *Config {
	return &Config{
		Symbol: "MGC=F",
		CorrelatedSymbols: []string{
			"DX-Y.NYB", "^TNX", "^GSPC", "SI=F", "CL=F",
		},
		PeriodDays: 90,
		Interval:   "1d",
		DataDir:    "data",
		DBPath:     "data/intel.db",
		ReportsDir: "reports",
		Tuning:     DefaultTuningConfig(),
	}
}

// LoadConfig reads the YAML file when present, then applies environment
// overrides. A missing file is not an error; defaults are used.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads a .env file if it exists. Missing files are ignored.
func LoadEnvFile(path string) {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GOLD_INTEL_SYMBOL"); v != "" {
		c.Symbol = v
	}
	if v := os.Getenv("GOLD_INTEL_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("GOLD_INTEL_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("GOLD_INTEL_TICK_URL"); v != "" {
		c.TickURL = v
	}
	if v := os.Getenv("GOLD_INTEL_PERIOD_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.PeriodDays = n
		}
	}
}

// Validate checks the fields the pipelines depend on.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("config: symbol is required")
	}
	if c.PeriodDays <= 0 {
		return fmt.Errorf("config: period_days must be positive, got %d", c.PeriodDays)
	}
	if c.Interval == "" {
		return fmt.Errorf("config: interval is required")
	}
	if c.Tuning.ATRStopMult <= 0 || c.Tuning.ATRTPMult <= 0 {
		return fmt.Errorf("config: ATR multipliers must be positive")
	}
	return nil
}
