// Binary monitor scans market conditions for risk and raises alerts when
// volatility, sentiment or correlation structure degrade.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/cmd/common"
	"github.com/ducminhle1904/gold-intel-bot/internal/analysis"
	"github.com/ducminhle1904/gold-intel-bot/internal/monitoring"
	"github.com/ducminhle1904/gold-intel-bot/internal/regime"
	"github.com/ducminhle1904/gold-intel-bot/internal/sentiment"
	"github.com/ducminhle1904/gold-intel-bot/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	continuous := flag.Bool("continuous", false, "keep scanning until interrupted")
	interval := flag.Int("interval", 300, "seconds between scans in continuous mode")
	test := flag.Bool("test", false, "run a synthetic stress scan and exit")
	flag.Parse()

	cfg, log, err := common.Setup("monitor", *configPath)
	if err != nil {
		common.Exit(err, 1)
	}

	ctx, stop := common.SignalContext()
	defer stop()

	monitor := monitoring.NewMonitor(log, prometheus.NewRegistry())

	if *test {
		runTestScan(monitor)
		return
	}

	if err := scan(ctx, cfg, monitor, log); err != nil {
		common.Exit(err, 1)
	}
	if !*continuous {
		return
	}

	ticker := time.NewTicker(time.Duration(*interval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := scan(ctx, cfg, monitor, log); err != nil {
				log.Error().Err(err).Msg("risk scan failed")
			}
		}
	}
}

// scan runs one analysis cycle and feeds its regime and sentiment into the
// risk monitor. Warm-up and missing data are reported, not fatal.
func scan(ctx context.Context, cfg *config.Config, monitor *monitoring.Monitor, log zerolog.Logger) error {
	bars, basket, err := common.LoadBars(ctx, cfg, cfg.PeriodDays)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		fmt.Printf("no bars available for %s, skipping scan\n", cfg.Symbol)
		return nil
	}

	result, err := analysis.New(cfg, nil, log).Run(bars, basket)
	if errors.Is(err, regime.ErrInsufficientHistory) {
		fmt.Printf("only %d bars available, skipping scan\n", len(bars))
		return nil
	}
	if err != nil {
		return err
	}

	printScan(monitor, monitor.Scan(result.Regime.Volatility, result.Sentiment))
	return nil
}

// runTestScan exercises the alert path with a stressed synthetic market.
func runTestScan(monitor *monitoring.Monitor) {
	report := sentiment.Report{
		Sentiment:  sentiment.RiskOff,
		Confidence: 0.9,
		Correlations: map[string]sentiment.SymbolCorrelation{
			"DX-Y.NYB": {Symbol: "DX-Y.NYB", Diverging: true, Change: 0.5},
		},
	}
	printScan(monitor, monitor.Scan(regime.HighVol, report))
}

func printScan(monitor *monitoring.Monitor, a monitoring.Assessment) {
	fmt.Printf("Risk level: %s\n", a.Level)
	for _, factor := range a.Factors {
		fmt.Printf("  - %s\n", factor)
	}
	for _, alert := range monitor.ActiveAlerts() {
		fmt.Printf("ALERT [%s] %s: %s\n", alert.Level, alert.ID, alert.Message)
	}
}
