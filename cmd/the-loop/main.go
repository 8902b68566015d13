// Binary the-loop runs the learning cycle: it mines completed paper
// trades for patterns, evolves and tunes a candidate strategy, and
// deploys it when it beats the active version. A feedback monitor
// requests extra iterations when recent performance degrades.
package main

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/cmd/common"
	"github.com/ducminhle1904/gold-intel-bot/internal/autolog"
	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
	"github.com/ducminhle1904/gold-intel-bot/internal/learning/factory"
	"github.com/ducminhle1904/gold-intel-bot/internal/learning/feedback"
	"github.com/ducminhle1904/gold-intel-bot/pkg/config"
	"github.com/ducminhle1904/gold-intel-bot/pkg/reporting"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	continuous := flag.Bool("continuous", false, "keep iterating until interrupted")
	interval := flag.Int("interval", 24, "hours between iterations in continuous mode")
	iterations := flag.Int("iterations", 1, "iterations to run in one-shot mode")
	report := flag.Bool("report", false, "generate the weekly report and exit")
	flag.Parse()

	cfg, log, err := common.Setup("the-loop", *configPath)
	if err != nil {
		common.Exit(err, 1)
	}

	store, err := autolog.OpenStore(filepath.Join(cfg.DataDir, "auto_trades.db"))
	if err != nil {
		common.Exit(err, 1)
	}
	defer store.Close()

	if *report {
		runReport(cfg, store, log)
		return
	}

	f, err := newFactory(cfg, log)
	if err != nil {
		common.Exit(err, 1)
	}

	loop := feedback.NewLoop(
		filepath.Join(cfg.DataDir, "learning", "reoptimization_triggers.json"),
		func(reason string) error {
			log.Info().Str("reason", reason).Msg("feedback-triggered iteration")
			_, err := runIteration(store, f)
			if errors.Is(err, factory.ErrNoOutcomes) {
				return nil
			}
			return err
		},
		log,
	)

	if !*continuous {
		for i := 0; i < *iterations; i++ {
			if _, err := runIteration(store, f); err != nil {
				if errors.Is(err, factory.ErrNoOutcomes) {
					common.Notice("no completed trades yet, nothing to learn from")
				}
				common.Exit(err, 1)
			}
		}
		return
	}

	ctx, stop := common.SignalContext()
	defer stop()

	ticker := time.NewTicker(time.Duration(*interval) * time.Hour)
	defer ticker.Stop()

	for {
		if _, err := runIteration(store, f); err != nil && !errors.Is(err, factory.ErrNoOutcomes) {
			log.Error().Err(err).Msg("learning iteration failed")
		}
		if outcomes, err := loadOutcomes(store); err == nil {
			if _, _, err := loop.Evaluate(outcomes); err != nil {
				log.Error().Err(err).Msg("feedback evaluation failed")
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newFactory(cfg *config.Config, log zerolog.Logger) (*factory.Factory, error) {
	versions, err := factory.OpenVersionStore(filepath.Join(cfg.DataDir, "strategy_versions.json"))
	if err != nil {
		return nil, err
	}
	fcfg := factory.DefaultConfig(filepath.Join(cfg.DataDir, "learning"))
	return factory.New(fcfg, versions, cfg.Tuning, log), nil
}

func loadOutcomes(store *autolog.Store) ([]learning.TradeOutcome, error) {
	trades, err := store.AllTrades()
	if err != nil {
		return nil, err
	}
	return feedback.FromPaperTrades(trades), nil
}

// runIteration feeds the trailing 30 days of outcomes through one
// factory pass and prints what happened.
func runIteration(store *autolog.Store, f *factory.Factory) (factory.IterationResult, error) {
	outcomes, err := loadOutcomes(store)
	if err != nil {
		return factory.IterationResult{}, err
	}
	window := feedback.WindowSince(outcomes, time.Now().UTC(), 30)

	result, err := f.RunIteration(window)
	if err != nil {
		return result, err
	}

	if result.Deployed {
		fmt.Printf("deployed %s (win rate %.1f%%, profit factor %.2f)\n",
			result.VersionID, result.WinRate, result.ProfitFactor)
	} else {
		fmt.Printf("held back %s: %s\n", result.VersionID, result.Reason)
	}
	reporting.PrintVersions(f.Versions().Versions())
	return result, nil
}

func runReport(cfg *config.Config, store *autolog.Store, log zerolog.Logger) {
	outcomes, err := loadOutcomes(store)
	if err != nil {
		common.Exit(err, 1)
	}
	if len(outcomes) == 0 {
		common.Notice("no completed trades yet, no report to generate")
	}

	weekly, err := reporting.NewWeeklyReporter(cfg.ReportsDir, log).Generate(outcomes)
	if err != nil {
		common.Exit(err, 1)
	}
	reporting.PrintWeekly(weekly)
}
