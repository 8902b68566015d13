package autolog

import (
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS signals (
	signal_id   TEXT PRIMARY KEY,
	open_time   TIMESTAMP NOT NULL,
	direction   TEXT NOT NULL,
	entry_price REAL NOT NULL,
	stop_loss   REAL NOT NULL,
	take_profit REAL NOT NULL,
	score_long  REAL NOT NULL DEFAULT 0,
	score_short REAL NOT NULL DEFAULT 0,
	regime      TEXT NOT NULL DEFAULT '',
	session     TEXT NOT NULL DEFAULT '',
	rsi         REAL NOT NULL DEFAULT 0,
	stoch       REAL NOT NULL DEFAULT 0,
	atr         REAL NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT 'OPEN',
	exit_price  REAL,
	exit_time   TIMESTAMP,
	pnl         REAL,
	max_profit  REAL NOT NULL DEFAULT 0,
	max_loss    REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS price_history (
	ts    TIMESTAMP NOT NULL,
	price REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signals_status ON signals(status);
CREATE INDEX IF NOT EXISTS idx_signals_open_time ON signals(open_time);
`

// Store persists paper trades and the polled price history in a local
// SQLite database. The auto-logger is its single writer.
type Store struct {
	db *sqlx.DB
}

// OpenStore opens (or creates) the database at path. Use ":memory:" for
// an ephemeral store in tests.
func OpenStore(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade store: %w", err)
	}
	// SQLite is single-writer, and an in-memory database is scoped to its
	// connection. One pooled connection covers both.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize trade store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertTrade persists a newly opened trade after validating its levels.
func (s *Store) InsertTrade(t *PaperTrade) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := s.db.NamedExec(`
		INSERT INTO signals (
			signal_id, open_time, direction, entry_price, stop_loss, take_profit,
			score_long, score_short, regime, session, rsi, stoch, atr,
			status, max_profit, max_loss
		) VALUES (
			:signal_id, :open_time, :direction, :entry_price, :stop_loss, :take_profit,
			:score_long, :score_short, :regime, :session, :rsi, :stoch, :atr,
			:status, :max_profit, :max_loss
		)`, t)
	if err != nil {
		return fmt.Errorf("failed to insert trade %s: %w", t.SignalID, err)
	}
	return nil
}

// UpdateExcursions writes the running max profit/loss for an open trade.
func (s *Store) UpdateExcursions(signalID string, maxProfit, maxLoss float64) error {
	_, err := s.db.Exec(
		`UPDATE signals SET max_profit = ?, max_loss = ? WHERE signal_id = ? AND status = 'OPEN'`,
		maxProfit, maxLoss, signalID)
	if err != nil {
		return fmt.Errorf("failed to update excursions for %s: %w", signalID, err)
	}
	return nil
}

// CloseTrade applies the single terminal transition for a trade. Closing
// an already-closed trade is an error and mutates nothing.
func (s *Store) CloseTrade(signalID string, status TradeStatus, exitPrice float64, exitTime time.Time, pnl float64) error {
	if status == TradeOpen {
		return fmt.Errorf("cannot close trade %s to OPEN", signalID)
	}
	res, err := s.db.Exec(`
		UPDATE signals
		SET status = ?, exit_price = ?, exit_time = ?, pnl = ?
		WHERE signal_id = ? AND status = 'OPEN'`,
		status, exitPrice, exitTime, pnl, signalID)
	if err != nil {
		return fmt.Errorf("failed to close trade %s: %w", signalID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("trade %s is not open", signalID)
	}
	return nil
}

// OpenTrades returns all trades still awaiting an outcome.
func (s *Store) OpenTrades() ([]*PaperTrade, error) {
	var out []*PaperTrade
	err := s.db.Select(&out, `SELECT * FROM signals WHERE status = 'OPEN' ORDER BY open_time`)
	if err != nil {
		return nil, fmt.Errorf("failed to load open trades: %w", err)
	}
	return out, nil
}

// AllTrades returns every trade, oldest first.
func (s *Store) AllTrades() ([]*PaperTrade, error) {
	var out []*PaperTrade
	err := s.db.Select(&out, `SELECT * FROM signals ORDER BY open_time`)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	return out, nil
}

// TradesSince returns trades opened at or after the cutoff.
func (s *Store) TradesSince(cutoff time.Time) ([]*PaperTrade, error) {
	var out []*PaperTrade
	err := s.db.Select(&out, `SELECT * FROM signals WHERE open_time >= ? ORDER BY open_time`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	return out, nil
}

// RecordPrice appends one polled price sample.
func (s *Store) RecordPrice(ts time.Time, price float64) error {
	_, err := s.db.Exec(`INSERT INTO price_history (ts, price) VALUES (?, ?)`, ts, price)
	if err != nil {
		return fmt.Errorf("failed to record price: %w", err)
	}
	return nil
}

// Statistics derives the summary by scanning the persisted set.
func (s *Store) Statistics() (Statistics, error) {
	trades, err := s.AllTrades()
	if err != nil {
		return Statistics{}, err
	}
	return ComputeStatistics(trades), nil
}

// ComputeStatistics summarizes a trade slice.
func ComputeStatistics(trades []*PaperTrade) Statistics {
	stats := Statistics{Total: len(trades)}
	var grossWin, grossLoss, sumWin, sumLoss float64

	for _, t := range trades {
		switch t.Status {
		case TradeOpen:
			stats.Open++
			continue
		case TradeWin:
			stats.Wins++
		case TradeLoss:
			stats.Losses++
		case TradeExpired:
			stats.Expired++
		}
		if t.PnL == nil {
			continue
		}
		pnl := *t.PnL
		stats.TotalPnL += pnl
		if pnl > 0 {
			grossWin += pnl
			sumWin += pnl
		} else if pnl < 0 {
			grossLoss += math.Abs(pnl)
			sumLoss += math.Abs(pnl)
		}
	}

	closed := stats.Wins + stats.Losses
	if closed > 0 {
		stats.WinRate = float64(stats.Wins) / float64(closed) * 100
	}
	if grossLoss > 0 {
		stats.ProfitFactor = grossWin / grossLoss
	} else if grossWin > 0 {
		stats.ProfitFactor = grossWin
	}
	if stats.Wins > 0 {
		stats.AvgWin = sumWin / float64(stats.Wins)
	}
	if stats.Losses > 0 {
		stats.AvgLoss = sumLoss / float64(stats.Losses)
	}
	return stats
}
