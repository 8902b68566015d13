package signal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Status is the lifecycle state of a logged signal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusTracking  Status = "TRACKING"
	StatusCompleted Status = "COMPLETED"
	StatusExpired   Status = "EXPIRED"
)

// Result is the final outcome classification.
type Result string

const (
	ResultWin       Result = "WIN"
	ResultLoss      Result = "LOSS"
	ResultBreakeven Result = "BREAKEVEN"
	ResultPending   Result = "PENDING"
)

// TrackingIntervals are the forward-minute offsets at which outcomes are
// sampled after a signal fires.
var TrackingIntervals = []int{1, 3, 5, 10, 15, 30, 60}

// PriceSnapshot is one sampled price at a fixed forward offset.
type PriceSnapshot struct {
	Minutes   int       `json:"minutes"`
	Price     float64   `json:"price"`
	PnL       float64   `json:"pnl"`
	Timestamp time.Time `json:"timestamp"`
}

// Outcome accrues snapshots and derived statistics for one signal.
type Outcome struct {
	Snapshots   []PriceSnapshot `json:"snapshots"`
	MaxProfit   float64         `json:"max_profit"`
	MaxDrawdown float64         `json:"max_drawdown"`
	TargetHit   bool            `json:"target_hit"`
	StopHit     bool            `json:"stop_hit"`
	FinalPnL    float64         `json:"final_pnl"`
	Result      Result          `json:"result"`
}

// Record is a persisted signal with its full context snapshot and mutable
// outcome. Everything except the outcome is immutable once logged.
type Record struct {
	Signal     Signal             `json:"signal"`
	Status     Status             `json:"status"`
	Session    string             `json:"session"`
	Indicators map[string]float64 `json:"indicators"`
	Outcome    Outcome            `json:"outcome"`
	LoggedAt   time.Time          `json:"logged_at"`
}

type logDocument struct {
	Signals  []*Record   `json:"signals"`
	Metadata logMetadata `json:"metadata"`
}

type logMetadata struct {
	LastUpdated   time.Time `json:"last_updated"`
	Total         int       `json:"total"`
	SchemaVersion string    `json:"schema_version"`
}

// Log is the append-only signal store backed by a single JSON document.
// Lookup by id is the only mutation path.
type Log struct {
	mu      sync.Mutex
	path    string
	records []*Record
	byID    map[string]*Record
}

// OpenLog loads or creates the signal log at path.
func OpenLog(path string) (*Log, error) {
	l := &Log{path: path, byID: map[string]*Record{}}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read signal log: %w", err)
	}

	var doc logDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse signal log: %w", err)
	}
	l.records = doc.Signals
	for _, r := range l.records {
		l.byID[r.Signal.ID] = r
	}
	return l, nil
}

// Append records a new signal with PENDING status.
func (l *Log) Append(sig Signal, indicators map[string]float64) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byID[sig.ID]; exists {
		return nil, fmt.Errorf("signal %s already logged", sig.ID)
	}

	record := &Record{
		Signal:     sig,
		Status:     StatusPending,
		Session:    Session(sig.Timestamp),
		Indicators: indicators,
		Outcome:    Outcome{Result: ResultPending},
		LoggedAt:   time.Now().UTC(),
	}
	l.records = append(l.records, record)
	l.byID[sig.ID] = record

	if err := l.save(); err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateOutcome adds a price snapshot at the given forward offset. Offsets
// must arrive in non-decreasing order per signal; a violation is an error
// and mutates nothing.
func (l *Log) UpdateOutcome(id string, price float64, minutes int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("unknown signal %s", id)
	}
	if record.Status == StatusCompleted || record.Status == StatusExpired {
		return fmt.Errorf("signal %s already closed", id)
	}
	if n := len(record.Outcome.Snapshots); n > 0 && minutes < record.Outcome.Snapshots[n-1].Minutes {
		return fmt.Errorf("out-of-order outcome update for %s: %dmin after %dmin",
			id, minutes, record.Outcome.Snapshots[n-1].Minutes)
	}

	pnl := record.pnlAt(price)
	record.Outcome.Snapshots = append(record.Outcome.Snapshots, PriceSnapshot{
		Minutes:   minutes,
		Price:     price,
		PnL:       pnl,
		Timestamp: time.Now().UTC(),
	})
	if pnl > record.Outcome.MaxProfit {
		record.Outcome.MaxProfit = pnl
	}
	if pnl < record.Outcome.MaxDrawdown {
		record.Outcome.MaxDrawdown = pnl
	}
	record.markCrossings(price)
	record.Status = StatusTracking

	return l.save()
}

// Complete closes the signal. Result priority: target hit wins, then stop
// hit loses, then the sign of the final PnL decides.
func (l *Log) Complete(id string, finalPrice float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("unknown signal %s", id)
	}
	if record.Status == StatusCompleted {
		return fmt.Errorf("signal %s already completed", id)
	}

	record.markCrossings(finalPrice)
	record.Outcome.FinalPnL = record.pnlAt(finalPrice)

	switch {
	case record.Outcome.TargetHit:
		record.Outcome.Result = ResultWin
	case record.Outcome.StopHit:
		record.Outcome.Result = ResultLoss
	case record.Outcome.FinalPnL > 0:
		record.Outcome.Result = ResultWin
	case record.Outcome.FinalPnL < 0:
		record.Outcome.Result = ResultLoss
	default:
		record.Outcome.Result = ResultBreakeven
	}
	record.Status = StatusCompleted

	return l.save()
}

// Get returns the record for an id.
func (l *Log) Get(id string) (*Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.byID[id]
	return r, ok
}

// All returns every record, oldest first.
func (l *Log) All() []*Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Record, len(l.records))
	copy(out, l.records)
	return out
}

// Completed returns the closed records.
func (l *Log) Completed() []*Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*Record
	for _, r := range l.records {
		if r.Status == StatusCompleted {
			out = append(out, r)
		}
	}
	return out
}

func (r *Record) pnlAt(price float64) float64 {
	if r.Signal.Type == Short {
		return r.Signal.EntryPrice - price
	}
	return price - r.Signal.EntryPrice
}

// markCrossings latches target/stop flags on first touch.
func (r *Record) markCrossings(price float64) {
	switch r.Signal.Type {
	case Long:
		if !r.Outcome.TargetHit && price >= r.Signal.TakeProfit && r.Signal.TakeProfit > 0 {
			r.Outcome.TargetHit = true
		}
		if !r.Outcome.StopHit && price <= r.Signal.StopLoss && r.Signal.StopLoss > 0 {
			r.Outcome.StopHit = true
		}
	case Short:
		if !r.Outcome.TargetHit && price <= r.Signal.TakeProfit && r.Signal.TakeProfit > 0 {
			r.Outcome.TargetHit = true
		}
		if !r.Outcome.StopHit && price >= r.Signal.StopLoss && r.Signal.StopLoss > 0 {
			r.Outcome.StopHit = true
		}
	}
}

func (l *Log) save() error {
	if l.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create signal log directory: %w", err)
	}

	doc := logDocument{
		Signals: l.records,
		Metadata: logMetadata{
			LastUpdated:   time.Now().UTC(),
			Total:         len(l.records),
			SchemaVersion: "1.0",
		},
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode signal log: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write signal log: %w", err)
	}
	return os.Rename(tmp, l.path)
}
