// Binary signals emits a single scored signal for the configured symbol
// and appends it to the signal log.
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
	"github.com/ducminhle1904/gold-intel-bot/pkg/reporting"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	days := flag.Int("days", 0, "bar history window in days (default from config)")
	noDashboard := flag.Bool("no-dashboard", false, "print the signal only, no summary tables")
	flag.Parse()

	cfg, log, err := common.Setup("signals", *configPath)
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
		common.Notice("no bars available for %s, no signal emitted", cfg.Symbol)
	}

	pipeline := analysis.New(cfg, nil, log)
	result, err := pipeline.Run(bars, basket)
	if errors.Is(err, regime.ErrInsufficientHistory) {
		common.Notice("only %d bars available, signal generation needs more history", len(bars))
	}
	if err != nil {
		common.Exit(err, 1)
	}

	sigLog, err := signal.OpenLog(filepath.Join(cfg.DataDir, "signal_log.json"))
	if err != nil {
		common.Exit(err, 1)
	}
	entry, err := sigLog.Append(result.Signal, result.Rows[len(result.Rows)-1])
	if err != nil {
		common.Exit(err, 1)
	}

	reporting.PrintSignal(result.Signal)
	if *noDashboard {
		return
	}

	fmt.Printf("Logged as %s (%s session)\n", entry.Signal.ID, entry.Session)
	fmt.Printf("Regime: %s / %s, sentiment %s (%.2f), %d pattern matches\n",
		result.Regime.Trend, result.Regime.Volatility,
		result.Sentiment.Sentiment, result.Sentiment.Confidence,
		result.Patterns.TotalMatches)
}
