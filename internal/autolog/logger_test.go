package autolog

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

func newTestLogger(t *testing.T, cfg Config) (*AutoLogger, *Store, *time.Time) {
	t.Helper()
	store := newTestStore(t)
	al := New(cfg, store, nil, zerolog.Nop())

	clock := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	al.now = func() time.Time { return clock }
	return al, store, &clock
}

func qualifyingLong(price float64) *types.TickSnapshot {
	return &types.TickSnapshot{Price: price, ScoreLong: 75, ScoreShort: 40}
}

func neutralTick(price float64) *types.TickSnapshot {
	return &types.TickSnapshot{Price: price, ScoreLong: 10, ScoreShort: 10}
}

func TestProcess_OpensLongWithConfiguredLevels(t *testing.T) {
	al, store, _ := newTestLogger(t, DefaultConfig())

	require.NoError(t, al.Process(qualifyingLong(2000)))

	open, err := store.OpenTrades()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, DirLong, open[0].Direction)
	assert.Equal(t, 1996.0, open[0].StopLoss)
	assert.Equal(t, 2008.0, open[0].TakeProfit)
}

func TestProcess_LongWinSequence(t *testing.T) {
	al, store, clock := newTestLogger(t, DefaultConfig())

	// Open LONG at 2000 (SL 1996, TP 2008), then walk the price to the
	// target: 2003, 2006, 2009. The trade closes WIN on the third tick
	// and the final 2005 tick must not touch it.
	require.NoError(t, al.Process(qualifyingLong(2000)))
	for _, price := range []float64{2003, 2006, 2009, 2005} {
		*clock = clock.Add(10 * time.Second)
		require.NoError(t, al.Process(neutralTick(price)))
	}

	all, err := store.AllTrades()
	require.NoError(t, err)
	require.Len(t, all, 1)

	trade := all[0]
	assert.Equal(t, TradeWin, trade.Status)
	require.NotNil(t, trade.ExitPrice)
	assert.Equal(t, 2009.0, *trade.ExitPrice)
	require.NotNil(t, trade.PnL)
	assert.Equal(t, 9.0, *trade.PnL)
	assert.Equal(t, 9.0, trade.MaxProfit)
}

func TestProcess_ShortStopLoss(t *testing.T) {
	al, store, clock := newTestLogger(t, DefaultConfig())

	require.NoError(t, al.Process(&types.TickSnapshot{Price: 2000, ScoreLong: 30, ScoreShort: 80}))
	*clock = clock.Add(10 * time.Second)
	require.NoError(t, al.Process(neutralTick(2004)))

	all, err := store.AllTrades()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, TradeLoss, all[0].Status)
	require.NotNil(t, all[0].PnL)
	assert.Equal(t, -4.0, *all[0].PnL)
}

func TestProcess_TakeProfitBeatsStopOnSameTick(t *testing.T) {
	// A gap through both levels resolves as a win: take-profit is
	// checked first.
	al, store, clock := newTestLogger(t, DefaultConfig())

	require.NoError(t, al.Process(qualifyingLong(2000)))
	*clock = clock.Add(10 * time.Second)
	require.NoError(t, al.Process(neutralTick(2010)))

	all, _ := store.AllTrades()
	require.Len(t, all, 1)
	assert.Equal(t, TradeWin, all[0].Status)
}

func TestProcess_ExpiryFromWallClock(t *testing.T) {
	al, store, clock := newTestLogger(t, DefaultConfig())

	require.NoError(t, al.Process(qualifyingLong(2000)))
	*clock = clock.Add(61 * time.Minute)
	require.NoError(t, al.Process(neutralTick(2001)))

	all, _ := store.AllTrades()
	require.Len(t, all, 1)
	assert.Equal(t, TradeExpired, all[0].Status)
	require.NotNil(t, all[0].PnL)
	assert.Equal(t, 1.0, *all[0].PnL)
}

func TestProcess_ExcursionsTrackedBeforeResolution(t *testing.T) {
	al, store, clock := newTestLogger(t, DefaultConfig())

	require.NoError(t, al.Process(qualifyingLong(2000)))
	for _, price := range []float64{2005, 1997, 2008} {
		*clock = clock.Add(10 * time.Second)
		require.NoError(t, al.Process(neutralTick(price)))
	}

	all, _ := store.AllTrades()
	require.Len(t, all, 1)
	assert.Equal(t, TradeWin, all[0].Status)
	assert.Equal(t, 8.0, all[0].MaxProfit)
	assert.Equal(t, -3.0, all[0].MaxLoss)
}

func TestProcess_EqualScoresOpenNothing(t *testing.T) {
	al, store, _ := newTestLogger(t, DefaultConfig())

	require.NoError(t, al.Process(&types.TickSnapshot{Price: 2000, ScoreLong: 70, ScoreShort: 70}))

	all, _ := store.AllTrades()
	assert.Empty(t, all)
}

func TestProcess_BelowMinScoreOpensNothing(t *testing.T) {
	al, store, _ := newTestLogger(t, DefaultConfig())

	require.NoError(t, al.Process(&types.TickSnapshot{Price: 2000, ScoreLong: 59, ScoreShort: 10}))

	all, _ := store.AllTrades()
	assert.Empty(t, all)
}

func TestProcess_DuplicateSnapshotSkipped(t *testing.T) {
	al, store, clock := newTestLogger(t, DefaultConfig())

	require.NoError(t, al.Process(qualifyingLong(2000)))
	*clock = clock.Add(10 * time.Second)
	require.NoError(t, al.Process(qualifyingLong(2000)))

	all, _ := store.AllTrades()
	assert.Len(t, all, 1, "repeat of the previous snapshot must not re-trade")

	// Same price with different scores is a new opportunity.
	*clock = clock.Add(10 * time.Second)
	require.NoError(t, al.Process(&types.TickSnapshot{Price: 2000, ScoreLong: 80, ScoreShort: 40}))
	all, _ = store.AllTrades()
	assert.Len(t, all, 2)
}

func TestProcess_RevisitedLevelTradesAgain(t *testing.T) {
	// Only the immediately preceding signal blocks a repeat. After an
	// intervening trade at a different level, returning to the first
	// level opens a fresh trade.
	al, store, clock := newTestLogger(t, DefaultConfig())

	require.NoError(t, al.Process(qualifyingLong(2000)))
	*clock = clock.Add(10 * time.Second)
	require.NoError(t, al.Process(qualifyingLong(2005)))
	*clock = clock.Add(10 * time.Second)
	require.NoError(t, al.Process(qualifyingLong(2000)))

	all, _ := store.AllTrades()
	assert.Len(t, all, 3)
}

func TestProcess_RejectedOpportunityNotRemembered(t *testing.T) {
	// A snapshot below the threshold is not hashed; the same snapshot
	// seen again after tuning lowers the bar would still be eligible.
	al, _, clock := newTestLogger(t, DefaultConfig())

	require.NoError(t, al.Process(&types.TickSnapshot{Price: 2000, ScoreLong: 59, ScoreShort: 10}))
	assert.Empty(t, al.lastHash)

	*clock = clock.Add(10 * time.Second)
	al.cfg.MinScore = 55
	require.NoError(t, al.Process(&types.TickSnapshot{Price: 2000, ScoreLong: 59, ScoreShort: 10}))
	assert.NotEmpty(t, al.lastHash)
}

func TestMultiTester_RanksVariants(t *testing.T) {
	mt := NewMultiTester(t.TempDir(), zerolog.Nop())

	// Tight TP closes a win; the wide variant expires at a smaller gain.
	tight := DefaultConfig()
	tight.TakeProfitPoints = 3
	wide := DefaultConfig()
	wide.TakeProfitPoints = 20

	ticks := []types.TickSnapshot{
		{Price: 2000, ScoreLong: 75, ScoreShort: 40},
		{Price: 2004, ScoreLong: 10, ScoreShort: 10},
		{Price: 2002, ScoreLong: 10, ScoreShort: 10},
	}

	results, err := mt.Run([]ConfigVariant{
		{Name: "tight", Config: tight},
		{Name: "wide", Config: wide},
	}, ticks)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byName := map[string]Statistics{}
	for _, r := range results {
		byName[r.Name] = r.Statistics
	}
	assert.Equal(t, 1, byName["tight"].Wins)
	assert.Equal(t, 1, byName["wide"].Open)

	best, err := Best(results)
	require.NoError(t, err)
	assert.Equal(t, "tight", best.Name)
}
