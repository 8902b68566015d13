// Binary auto-logger polls the live tick feed and maintains the paper
// trade database: it opens trades on qualifying snapshots, resolves them
// against take-profit, stop-loss and expiry, and serves its state over
// HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/ducminhle1904/gold-intel-bot/cmd/common"
	"github.com/ducminhle1904/gold-intel-bot/internal/autolog"
	"github.com/ducminhle1904/gold-intel-bot/pkg/reporting"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	sl := flag.Float64("sl", 4.0, "stop loss distance in points")
	tp := flag.Float64("tp", 8.0, "take profit distance in points")
	minScore := flag.Float64("min-score", 60, "minimum side score to open a trade")
	interval := flag.Int("interval", 10, "seconds between polls")
	expiry := flag.Int("expiry", 60, "minutes before an open trade expires")
	dbPath := flag.String("db", "", "paper trade database (default <data_dir>/auto_trades.db)")
	tickURL := flag.String("url", "", "tick feed URL (default from config)")
	listen := flag.String("listen", ":8090", "HTTP listen address for /status, /health, /metrics")
	stats := flag.Bool("stats", false, "print trade statistics and exit")
	export := flag.String("export", "", "write the trade workbook to this path and exit")
	flag.Parse()

	cfg, log, err := common.Setup("auto-logger", *configPath)
	if err != nil {
		common.Exit(err, 1)
	}
	if *dbPath == "" {
		*dbPath = cfg.DataDir + "/auto_trades.db"
	}
	if *tickURL == "" {
		*tickURL = cfg.TickURL
	}

	store, err := autolog.OpenStore(*dbPath)
	if err != nil {
		common.Exit(err, 1)
	}
	defer store.Close()

	if *stats {
		printStats(store)
		return
	}
	if *export != "" {
		exportTrades(store, *export)
		return
	}

	if *tickURL == "" {
		common.Notice("no tick feed configured, set --url or tick_url in the config")
	}

	logger := autolog.New(autolog.Config{
		StopLossPoints:   *sl,
		TakeProfitPoints: *tp,
		MinScore:         *minScore,
		ExpiryMinutes:    *expiry,
		IntervalSeconds:  *interval,
	}, store, autolog.NewHTTPTickSource(*tickURL), log)

	ctx, stop := common.SignalContext()
	defer stop()

	server := &http.Server{
		Addr:    *listen,
		Handler: autolog.NewServer(logger, log).Router(),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", *listen).Msg("http server failed")
		}
	}()

	err = logger.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	if err != nil && !errors.Is(err, context.Canceled) {
		common.Exit(err, 1)
	}
}

func printStats(store *autolog.Store) {
	stats, err := store.Statistics()
	if err != nil {
		common.Exit(err, 1)
	}
	if stats.Total == 0 {
		common.Notice("no paper trades recorded yet")
	}
	reporting.PrintStatistics(stats)
}

func exportTrades(store *autolog.Store, path string) {
	trades, err := store.AllTrades()
	if err != nil {
		common.Exit(err, 1)
	}
	if len(trades) == 0 {
		common.Notice("no paper trades to export")
	}
	if err := reporting.WriteTradesXLSX(trades, path); err != nil {
		common.Exit(err, 1)
	}
	fmt.Printf("exported %d trades to %s\n", len(trades), path)
}
