// Binary analysis runs one end-to-end analysis cycle: load bars, compute
// indicators and regimes, evaluate sentiment and pattern history, score a
// signal and append it to the signal log.
package main

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/ducminhle1904/gold-intel-bot/cmd/common"
	"github.com/ducminhle1904/gold-intel-bot/internal/analysis"
	"github.com/ducminhle1904/gold-intel-bot/internal/regime"
	"github.com/ducminhle1904/gold-intel-bot/internal/signal"
	"github.com/ducminhle1904/gold-intel-bot/pkg/data"
	"github.com/ducminhle1904/gold-intel-bot/pkg/reporting"
	"github.com/ducminhle1904/gold-intel-bot/pkg/storage"
	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	days := flag.Int("days", 0, "bar history window in days (default from config)")
	noCharts := flag.Bool("no-charts", false, "skip chart rendering")
	flag.Parse()

	cfg, log, err := common.Setup("analysis", *configPath)
	if err != nil {
		common.Exit(err, 1)
	}
	if *days <= 0 {
		*days = cfg.PeriodDays
	}

	ctx, stop := common.SignalContext()
	defer stop()

	bars, basket, err := common.LoadBars(ctx, cfg, *days)
	if err != nil {
		common.Exit(err, 1)
	}
	if len(bars) == 0 {
		common.Notice("no bars available for %s, nothing to analyze", cfg.Symbol)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		common.Exit(err, 1)
	}
	defer store.Close()

	if err := persistBars(store, cfg.Symbol, bars); err != nil {
		common.Exit(err, 1)
	}

	pipeline := analysis.New(cfg, store, log)
	result, err := pipeline.Run(bars, basket)
	if errors.Is(err, regime.ErrInsufficientHistory) {
		common.Notice("only %d bars available, need more history for a full cycle", len(bars))
	}
	if err != nil {
		common.Exit(err, 1)
	}

	sigLog, err := signal.OpenLog(filepath.Join(cfg.DataDir, "signal_log.json"))
	if err != nil {
		common.Exit(err, 1)
	}
	if _, err := sigLog.Append(result.Signal, result.Rows[len(result.Rows)-1]); err != nil {
		common.Exit(err, 1)
	}

	fmt.Printf("Regime: %s / %s / %s (ADX %.1f, slope %+.2f%%)\n",
		result.Regime.Trend, result.Regime.Volatility, result.Regime.Liquidity,
		result.Regime.ADX, result.Regime.EMASlopePct)
	fmt.Printf("Sentiment: %s (confidence %.2f)\n", result.Sentiment.Sentiment, result.Sentiment.Confidence)
	fmt.Printf("Patterns: %d matches, %.0f%% bullish / %.0f%% bearish, prediction %s\n",
		result.Patterns.TotalMatches, result.Patterns.BullishSuccessRate,
		result.Patterns.BearishSuccessRate, result.Patterns.Prediction)
	reporting.PrintSignal(result.Signal)

	if *noCharts {
		return
	}
	// Chart rendering is handled by the external dashboard; nothing to do
	// here beyond the printed summary.
}

func persistBars(store *storage.Store, symbol string, bars []types.OHLCV) error {
	tagged := make([]types.Bar, len(bars))
	for i, b := range bars {
		tagged[i] = types.Bar{
			Symbol:    symbol,
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	if err := data.Validate(tagged); err != nil {
		return err
	}
	return store.SaveBars(tagged)
}
