package signal

import (
	"time"

	"github.com/ducminhle1904/gold-intel-bot/internal/patterns"
	"github.com/ducminhle1904/gold-intel-bot/internal/regime"
	"github.com/ducminhle1904/gold-intel-bot/internal/sentiment"
)

// Type is the emitted trade direction.
type Type string

const (
	Long Type = "LONG"
	Short Type = "SHORT"
	None Type = "NONE"
)

// Strength classifies how many scoring criteria fired.
type Strength string

const (
	StrengthStrong Strength = "STRONG"
	StrengthMedium Strength = "MEDIUM"
	StrengthWeak   Strength = "WEAK"
	StrengthNone   Strength = "NONE"
)

// Signal is an immutable scored decision for one bar.
type Signal struct {
	ID                 string    `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	Type               Type      `json:"type"`
	Strength           Strength  `json:"strength"`
	EntryPrice         float64   `json:"entry_price"`
	Regime             string    `json:"regime"`
	PatternSuccessRate float64   `json:"pattern_success_rate"`
	Sentiment          string    `json:"sentiment"`
	CriteriaMet        int       `json:"criteria_met"`
	CriteriaTotal      int       `json:"criteria_total"`
	Reasons            []string  `json:"reasons"`
	StopLoss           float64   `json:"stop_loss"`
	TakeProfit         float64   `json:"take_profit"`
	RRRatio            float64   `json:"rr_ratio"`
}

// Context bundles the per-bar inputs the scorer consumes.
type Context struct {
	Regime    regime.Regime
	Analysis  patterns.Analysis
	Sentiment sentiment.Report
	EMACross  patterns.EMACrossState
	StochK    float64
	ATR       float64
	Price     float64
	Timestamp time.Time
}
