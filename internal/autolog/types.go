package autolog

import (
	"fmt"
	"time"
)

// TradeStatus is the lifecycle state of a paper trade. Exactly one
// terminal transition happens per trade.
type TradeStatus string

const (
	TradeOpen    TradeStatus = "OPEN"
	TradeWin     TradeStatus = "WIN"
	TradeLoss    TradeStatus = "LOSS"
	TradeExpired TradeStatus = "EXPIRED"
)

// Direction of a paper trade.
type Direction string

const (
	DirLong  Direction = "LONG"
	DirShort Direction = "SHORT"
)

// PaperTrade is a simulated position opened by the auto-logger and closed
// by take-profit, stop-loss or expiry.
type PaperTrade struct {
	SignalID   string      `db:"signal_id" json:"signal_id"`
	OpenTime   time.Time   `db:"open_time" json:"open_time"`
	Direction  Direction   `db:"direction" json:"direction"`
	EntryPrice float64     `db:"entry_price" json:"entry_price"`
	StopLoss   float64     `db:"stop_loss" json:"stop_loss"`
	TakeProfit float64     `db:"take_profit" json:"take_profit"`
	ScoreLong  float64     `db:"score_long" json:"score_long"`
	ScoreShort float64     `db:"score_short" json:"score_short"`
	Regime     string      `db:"regime" json:"regime"`
	Session    string      `db:"session" json:"session"`
	RSI        float64     `db:"rsi" json:"rsi"`
	Stoch      float64     `db:"stoch" json:"stoch"`
	ATR        float64     `db:"atr" json:"atr"`
	Status     TradeStatus `db:"status" json:"status"`
	ExitPrice  *float64    `db:"exit_price" json:"exit_price,omitempty"`
	ExitTime   *time.Time  `db:"exit_time" json:"exit_time,omitempty"`
	PnL        *float64    `db:"pnl" json:"pnl,omitempty"`
	MaxProfit  float64     `db:"max_profit" json:"max_profit"`
	MaxLoss    float64     `db:"max_loss" json:"max_loss"`
}

// Validate checks the stop/target geometry for the direction.
func (t *PaperTrade) Validate() error {
	switch t.Direction {
	case DirLong:
		if !(t.StopLoss < t.EntryPrice && t.EntryPrice < t.TakeProfit) {
			return fmt.Errorf("long trade %s: levels must satisfy SL < entry < TP (%.2f / %.2f / %.2f)",
				t.SignalID, t.StopLoss, t.EntryPrice, t.TakeProfit)
		}
	case DirShort:
		if !(t.TakeProfit < t.EntryPrice && t.EntryPrice < t.StopLoss) {
			return fmt.Errorf("short trade %s: levels must satisfy TP < entry < SL (%.2f / %.2f / %.2f)",
				t.SignalID, t.TakeProfit, t.EntryPrice, t.StopLoss)
		}
	default:
		return fmt.Errorf("trade %s: unknown direction %q", t.SignalID, t.Direction)
	}
	return nil
}

// UnrealizedPnL at the given price.
func (t *PaperTrade) UnrealizedPnL(price float64) float64 {
	if t.Direction == DirShort {
		return t.EntryPrice - price
	}
	return price - t.EntryPrice
}

// Statistics summarizes the persisted trade set.
type Statistics struct {
	Total        int     `json:"total"`
	Open         int     `json:"open"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Expired      int     `json:"expired"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	TotalPnL     float64 `json:"total_pnl"`
}
