package autolog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// Config tunes the auto-logger's paper trade parameters.
type Config struct {
	StopLossPoints   float64 `json:"stop_loss_points" yaml:"stop_loss_points"`
	TakeProfitPoints float64 `json:"take_profit_points" yaml:"take_profit_points"`
	MinScore         float64 `json:"min_score" yaml:"min_score"`
	ExpiryMinutes    int     `json:"expiry_minutes" yaml:"expiry_minutes"`
	IntervalSeconds  int     `json:"interval_seconds" yaml:"interval_seconds"`
}

// DefaultConfig returns the standard paper trade parameters.
func DefaultConfig() Config {
	return Config{
		StopLossPoints:   4.0,
		TakeProfitPoints: 8.0,
		MinScore:         60,
		ExpiryMinutes:    60,
		IntervalSeconds:  10,
	}
}

// AutoLogger polls a tick source, opens paper trades on qualifying
// snapshots and resolves them against subsequent prices.
type AutoLogger struct {
	cfg     Config
	store   *Store
	source  TickSource
	metrics *Metrics
	logger  zerolog.Logger
	now     func() time.Time

	mu       sync.Mutex
	lastHash string
	lastTick *types.TickSnapshot
}

// New creates an auto-logger around an opened store and tick source.
func New(cfg Config, store *Store, source TickSource, logger zerolog.Logger) *AutoLogger {
	return &AutoLogger{
		cfg:     cfg,
		store:   store,
		source:  source,
		metrics: NewMetrics(),
		logger:  logger.With().Str("component", "autolog").Logger(),
		now:     time.Now,
	}
}

// Metrics exposes the instance's instrument set.
func (a *AutoLogger) Metrics() *Metrics {
	return a.metrics
}

// LastTick returns the most recently processed snapshot, if any.
func (a *AutoLogger) LastTick() *types.TickSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastTick == nil {
		return nil
	}
	tick := *a.lastTick
	return &tick
}

// Run polls until the context is cancelled. A failed cycle is logged and
// skipped; the loop itself never stops on error.
func (a *AutoLogger) Run(ctx context.Context) error {
	interval := time.Duration(a.cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info().
		Float64("stop_loss_points", a.cfg.StopLossPoints).
		Float64("take_profit_points", a.cfg.TakeProfitPoints).
		Float64("min_score", a.cfg.MinScore).
		Int("expiry_minutes", a.cfg.ExpiryMinutes).
		Msg("auto-logger started")

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("auto-logger stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := a.Poll(ctx); err != nil {
				a.metrics.PollErrors.Inc()
				a.logger.Warn().Err(err).Msg("polling cycle failed")
			}
		}
	}
}

// Poll executes one polling cycle: fetch a tick, resolve open trades
// against it, then consider opening a new one.
func (a *AutoLogger) Poll(ctx context.Context) error {
	a.metrics.PollsTotal.Inc()

	tick, err := a.source.Fetch(ctx)
	if err != nil {
		return err
	}
	if tick == nil {
		return nil
	}
	return a.Process(tick)
}

// Process applies one snapshot to the trade set.
func (a *AutoLogger) Process(tick *types.TickSnapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now().UTC()
	a.lastTick = tick
	a.metrics.LastPrice.Set(tick.Price)

	if err := a.store.RecordPrice(now, tick.Price); err != nil {
		return err
	}
	if err := a.resolveOpenTrades(tick.Price, now); err != nil {
		return err
	}
	return a.maybeOpenTrade(tick, now)
}

// resolveOpenTrades updates excursions for every open trade and closes
// those whose levels the price reached. Take-profit is checked before
// stop-loss, expiry last.
func (a *AutoLogger) resolveOpenTrades(price float64, now time.Time) error {
	open, err := a.store.OpenTrades()
	if err != nil {
		return err
	}

	for _, t := range open {
		pnl := t.UnrealizedPnL(price)
		if pnl > t.MaxProfit {
			t.MaxProfit = pnl
		}
		if pnl < t.MaxLoss {
			t.MaxLoss = pnl
		}
		if err := a.store.UpdateExcursions(t.SignalID, t.MaxProfit, t.MaxLoss); err != nil {
			return err
		}

		status := a.resolution(t, price, now)
		if status == TradeOpen {
			continue
		}
		if err := a.store.CloseTrade(t.SignalID, status, price, now, pnl); err != nil {
			return err
		}
		a.metrics.TradesClosed.WithLabelValues(string(status)).Inc()
		a.metrics.TotalPnL.Add(pnl)
		a.logger.Info().
			Str("signal_id", t.SignalID).
			Str("status", string(status)).
			Float64("exit_price", price).
			Float64("pnl", pnl).
			Msg("paper trade closed")
	}

	a.updateOpenGauge()
	return nil
}

// resolution decides whether the trade closes on this price.
func (a *AutoLogger) resolution(t *PaperTrade, price float64, now time.Time) TradeStatus {
	switch t.Direction {
	case DirLong:
		if price >= t.TakeProfit {
			return TradeWin
		}
		if price <= t.StopLoss {
			return TradeLoss
		}
	case DirShort:
		if price <= t.TakeProfit {
			return TradeWin
		}
		if price >= t.StopLoss {
			return TradeLoss
		}
	}
	expiry := t.OpenTime.Add(time.Duration(a.cfg.ExpiryMinutes) * time.Minute)
	if !now.Before(expiry) {
		return TradeExpired
	}
	return TradeOpen
}

// maybeOpenTrade opens a paper trade when one side's score clears the
// threshold and strictly beats the other. A snapshot identical to the
// one that opened the previous trade is skipped; any intervening trade
// resets the comparison, so a revisited price level trades again.
func (a *AutoLogger) maybeOpenTrade(tick *types.TickSnapshot, now time.Time) error {
	var direction Direction
	switch {
	case tick.ScoreLong >= a.cfg.MinScore && tick.ScoreLong > tick.ScoreShort:
		direction = DirLong
	case tick.ScoreShort >= a.cfg.MinScore && tick.ScoreShort > tick.ScoreLong:
		direction = DirShort
	default:
		return nil
	}

	hash := snapshotHash(tick)
	if hash == a.lastHash {
		return nil
	}

	trade := &PaperTrade{
		SignalID:   newTradeID(now),
		OpenTime:   now,
		Direction:  direction,
		EntryPrice: tick.Price,
		ScoreLong:  tick.ScoreLong,
		ScoreShort: tick.ScoreShort,
		Regime:     tick.Trend,
		Session:    tick.Session,
		RSI:        tick.RSI,
		Stoch:      tick.Stoch,
		ATR:        tick.ATR,
		Status:     TradeOpen,
	}
	if direction == DirLong {
		trade.StopLoss = tick.Price - a.cfg.StopLossPoints
		trade.TakeProfit = tick.Price + a.cfg.TakeProfitPoints
	} else {
		trade.StopLoss = tick.Price + a.cfg.StopLossPoints
		trade.TakeProfit = tick.Price - a.cfg.TakeProfitPoints
	}

	if err := a.store.InsertTrade(trade); err != nil {
		return err
	}
	a.lastHash = hash

	a.metrics.TradesOpened.Inc()
	a.updateOpenGauge()
	a.logger.Info().
		Str("signal_id", trade.SignalID).
		Str("direction", string(direction)).
		Float64("entry", trade.EntryPrice).
		Float64("stop_loss", trade.StopLoss).
		Float64("take_profit", trade.TakeProfit).
		Msg("paper trade opened")
	return nil
}

func (a *AutoLogger) updateOpenGauge() {
	open, err := a.store.OpenTrades()
	if err != nil {
		return
	}
	a.metrics.OpenTrades.Set(float64(len(open)))
}

// snapshotHash identifies a snapshot by its tradeable content. It is
// recorded only when a trade is actually opened, so a rejected snapshot
// is never remembered and a later one with the same price but different
// scores can still trade.
func snapshotHash(tick *types.TickSnapshot) string {
	return fmt.Sprintf("%.2f_%.0f_%.0f", tick.Price, tick.ScoreLong, tick.ScoreShort)
}

func newTradeID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("auto_%s_%s", now.Format("20060102_150405"), suffix)
}
