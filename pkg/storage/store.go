package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// ErrBarConflict means a bar was re-inserted at an existing (symbol, date)
// with different values. Bars are immutable once written.
var ErrBarConflict = errors.New("bar already stored with different values")

const schema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT NOT NULL,
	date   TIMESTAMP NOT NULL,
	open   REAL NOT NULL,
	high   REAL NOT NULL,
	low    REAL NOT NULL,
	close  REAL NOT NULL,
	volume REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (symbol, date)
);

CREATE TABLE IF NOT EXISTS indicators (
	symbol TEXT NOT NULL,
	date   TIMESTAMP NOT NULL,
	name   TEXT NOT NULL,
	value  REAL NOT NULL,
	PRIMARY KEY (symbol, date, name)
);

CREATE TABLE IF NOT EXISTS correlations (
	base       TEXT NOT NULL,
	other      TEXT NOT NULL,
	start_date TIMESTAMP NOT NULL,
	end_date   TIMESTAMP NOT NULL,
	value      REAL NOT NULL,
	window     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
	key        TEXT PRIMARY KEY,
	value_json TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// Store is the relational home of bars, computed indicator values and
// cross-market correlations. One writer at a time; readers share the
// single pooled connection.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path. ":memory:" gives an
// ephemeral store for tests.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bar store: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize bar store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBars inserts the bars inside one transaction. Re-inserting an
// identical bar is a no-op; a conflicting bar at the same (symbol, date)
// aborts the whole batch with ErrBarConflict and mutates nothing.
func (s *Store) SaveBars(bars []types.Bar) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin bar insert: %w", err)
	}
	defer tx.Rollback()

	for _, b := range bars {
		var existing types.Bar
		err := tx.QueryRowx(
			`SELECT symbol, date, open, high, low, close, volume FROM bars WHERE symbol = ? AND date = ?`,
			b.Symbol, b.Timestamp,
		).Scan(&existing.Symbol, &existing.Timestamp, &existing.Open, &existing.High, &existing.Low, &existing.Close, &existing.Volume)
		switch {
		case err == sql.ErrNoRows:
			if _, err := tx.Exec(
				`INSERT INTO bars (symbol, date, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				b.Symbol, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume,
			); err != nil {
				return fmt.Errorf("failed to insert bar %s@%s: %w", b.Symbol, b.Timestamp.Format("2006-01-02"), err)
			}
		case err != nil:
			return fmt.Errorf("failed to check bar %s@%s: %w", b.Symbol, b.Timestamp.Format("2006-01-02"), err)
		default:
			if !sameBar(existing, b) {
				return fmt.Errorf("%w: %s@%s", ErrBarConflict, b.Symbol, b.Timestamp.Format("2006-01-02"))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bars: %w", err)
	}
	return nil
}

func sameBar(a, b types.Bar) bool {
	const eps = 1e-9
	return math.Abs(a.Open-b.Open) < eps &&
		math.Abs(a.High-b.High) < eps &&
		math.Abs(a.Low-b.Low) < eps &&
		math.Abs(a.Close-b.Close) < eps &&
		math.Abs(a.Volume-b.Volume) < eps
}

// Bars returns the stored window for one symbol, timestamp ascending.
// Zero times mean an unbounded side.
func (s *Store) Bars(symbol string, from, to time.Time) ([]types.Bar, error) {
	query := `SELECT symbol, date, open, high, low, close, volume FROM bars WHERE symbol = ?`
	args := []any{symbol}
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY date`

	rows, err := s.db.Queryx(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []types.Bar
	for rows.Next() {
		var b types.Bar
		if err := rows.Scan(&b.Symbol, &b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SaveIndicators upserts named indicator values for one symbol and date.
// Indicator rows are recomputable, so overwriting is allowed.
func (s *Store) SaveIndicators(symbol string, date time.Time, values map[string]float64) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin indicator insert: %w", err)
	}
	defer tx.Rollback()

	for name, value := range values {
		if _, err := tx.Exec(
			`INSERT INTO indicators (symbol, date, name, value) VALUES (?, ?, ?, ?)
			 ON CONFLICT (symbol, date, name) DO UPDATE SET value = excluded.value`,
			symbol, date, name, value,
		); err != nil {
			return fmt.Errorf("failed to save indicator %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit indicators: %w", err)
	}
	return nil
}

// Indicators returns the stored values for one symbol and date.
func (s *Store) Indicators(symbol string, date time.Time) (map[string]float64, error) {
	rows, err := s.db.Queryx(
		`SELECT name, value FROM indicators WHERE symbol = ? AND date = ?`, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load indicators: %w", err)
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

// SaveCorrelation appends one measured correlation between the base
// instrument and another symbol.
func (s *Store) SaveCorrelation(base, other string, start, end time.Time, value float64, window int) error {
	_, err := s.db.Exec(
		`INSERT INTO correlations (base, other, start_date, end_date, value, window) VALUES (?, ?, ?, ?, ?, ?)`,
		base, other, start, end, value, window)
	if err != nil {
		return fmt.Errorf("failed to save correlation %s/%s: %w", base, other, err)
	}
	return nil
}

// SetMetadata stores an arbitrary JSON-encodable value under key.
func (s *Store) SetMetadata(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode metadata %s: %w", key, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO metadata (key, value_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value_json = excluded.value_json, updated_at = excluded.updated_at`,
		key, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save metadata %s: %w", key, err)
	}
	return nil
}

// GetMetadata decodes the stored value for key into dst. Returns false
// when the key is absent.
func (s *Store) GetMetadata(key string, dst any) (bool, error) {
	var raw string
	err := s.db.Get(&raw, `SELECT value_json FROM metadata WHERE key = ?`, key)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load metadata %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("failed to decode metadata %s: %w", key, err)
	}
	return true, nil
}
