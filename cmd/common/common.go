// Package common holds the helpers shared by the phase binaries under
// cmd/.
package common

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/internal/logger"
	"github.com/ducminhle1904/gold-intel-bot/pkg/config"
	"github.com/ducminhle1904/gold-intel-bot/pkg/data"
	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Setup loads .env, the YAML config and builds the component logger.
func Setup(component, configPath string) (*config.Config, zerolog.Logger, error) {
	config.LoadEnvFile("")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	log, err := logger.New(component, "logs")
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	return cfg, log, nil
}

// SignalContext returns a context cancelled by SIGINT/SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// LoadBars reads the primary symbol window plus the correlated basket
// from the CSV data directory. Missing basket files are skipped; a
// missing primary series yields an empty slice for the caller's
// insufficient-data handling.
func LoadBars(ctx context.Context, cfg *config.Config, days int) ([]types.OHLCV, map[string][]types.OHLCV, error) {
	provider := data.NewCSVProvider(cfg.DataDir)
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	primary, err := provider.Bars(ctx, cfg.Symbol, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", cfg.Symbol, err)
	}

	basket := make(map[string][]types.OHLCV, len(cfg.CorrelatedSymbols))
	for _, symbol := range cfg.CorrelatedSymbols {
		bars, err := provider.Bars(ctx, symbol, start, end)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load %s: %w", symbol, err)
		}
		if len(bars) > 0 {
			basket[symbol] = data.ToOHLCV(bars)
		}
	}
	return data.ToOHLCV(primary), basket, nil
}

// Exit prints an error and terminates with the given status. Transient
// conditions (no data, warm-up) should go through Notice instead.
func Exit(err error, code int) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(code)
}

// Notice prints a single line for a transient condition and exits 0, the
// permissive posture the phase CLIs share.
func Notice(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
	os.Exit(0)
}
