package types

import "time"

// OHLCV is a single bar at the system's base interval (daily for gold futures).
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Bar is an OHLCV sample tagged with its instrument symbol, as persisted by
// the bar store. Bars are immutable once written and unique on (Symbol, Timestamp).
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// OHLCV strips the symbol tag for indicator computation.
func (b Bar) OHLCV() OHLCV {
	return OHLCV{
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
		Timestamp: b.Timestamp,
	}
}

// TickSnapshot is the latest live snapshot consumed by the auto-logger.
// Price is the only mandatory field; a snapshot without a price means
// "no update" and the polling cycle is a no-op.
type TickSnapshot struct {
	Price      float64 `json:"price"`
	ScoreLong  float64 `json:"score_long"`
	ScoreShort float64 `json:"score_short"`
	Trend      string  `json:"trend,omitempty"`
	Session    string  `json:"session,omitempty"`
	RSI        float64 `json:"rsi,omitempty"`
	Stoch      float64 `json:"stoch,omitempty"`
	ATR        float64 `json:"atr,omitempty"`
}
