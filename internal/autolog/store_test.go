package autolog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func openLong(id string, openTime time.Time) *PaperTrade {
	return &PaperTrade{
		SignalID:   id,
		OpenTime:   openTime,
		Direction:  DirLong,
		EntryPrice: 2000,
		StopLoss:   1996,
		TakeProfit: 2008,
		ScoreLong:  75,
		ScoreShort: 40,
		Status:     TradeOpen,
	}
}

func TestStore_InsertAndLoad(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.InsertTrade(openLong("auto_1", now)))

	open, err := s.OpenTrades()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "auto_1", open[0].SignalID)
	assert.Equal(t, DirLong, open[0].Direction)
	assert.Nil(t, open[0].PnL)
}

func TestStore_InsertRejectsBadLevels(t *testing.T) {
	s := newTestStore(t)
	bad := openLong("auto_bad", time.Now().UTC())
	bad.StopLoss = 2005 // above entry on a long

	assert.Error(t, s.InsertTrade(bad))

	all, err := s.AllTrades()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_CloseTradeIsTerminal(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()
	require.NoError(t, s.InsertTrade(openLong("auto_1", now)))

	require.NoError(t, s.CloseTrade("auto_1", TradeWin, 2008, now.Add(5*time.Minute), 8))

	// Second close must fail and leave the row untouched.
	err := s.CloseTrade("auto_1", TradeLoss, 1996, now.Add(10*time.Minute), -4)
	assert.Error(t, err)

	all, err := s.AllTrades()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, TradeWin, all[0].Status)
	require.NotNil(t, all[0].PnL)
	assert.Equal(t, 8.0, *all[0].PnL)
}

func TestStore_CloseToOpenRejected(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertTrade(openLong("auto_1", time.Now().UTC())))
	assert.Error(t, s.CloseTrade("auto_1", TradeOpen, 2000, time.Now().UTC(), 0))
}

func TestStore_TradesSince(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertTrade(openLong("auto_old", base)))
	require.NoError(t, s.InsertTrade(openLong("auto_new", base.AddDate(0, 0, 10))))

	recent, err := s.TradesSince(base.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "auto_new", recent[0].SignalID)
}

func TestComputeStatistics(t *testing.T) {
	now := time.Now().UTC()
	win1, win2, loss := 8.0, 8.0, -4.0
	trades := []*PaperTrade{
		closed("a", now, TradeWin, win1),
		closed("b", now, TradeWin, win2),
		closed("c", now, TradeLoss, loss),
		openLong("d", now),
	}

	stats := ComputeStatistics(trades)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Open)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 66.666, stats.WinRate, 0.01)
	assert.InDelta(t, 4.0, stats.ProfitFactor, 1e-9)
	assert.InDelta(t, 8.0, stats.AvgWin, 1e-9)
	assert.InDelta(t, 4.0, stats.AvgLoss, 1e-9)
	assert.InDelta(t, 12.0, stats.TotalPnL, 1e-9)
}

func TestComputeStatistics_NoLosses(t *testing.T) {
	now := time.Now().UTC()
	stats := ComputeStatistics([]*PaperTrade{closed("a", now, TradeWin, 8)})
	assert.Equal(t, 100.0, stats.WinRate)
	// No losing trades: profit factor degrades to the gross win.
	assert.Equal(t, 8.0, stats.ProfitFactor)
}

func closed(id string, openTime time.Time, status TradeStatus, pnl float64) *PaperTrade {
	t := openLong(id, openTime)
	t.Status = status
	t.PnL = &pnl
	return t
}
