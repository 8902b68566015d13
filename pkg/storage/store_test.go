package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

func testBars(n int) []types.Bar {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]types.Bar, 0, n)
	for i := 0; i < n; i++ {
		price := 2000 + float64(i)
		out = append(out, types.Bar{
			Symbol:    "MGC=F",
			Timestamp: base.AddDate(0, 0, i),
			Open:      price,
			High:      price + 5,
			Low:       price - 5,
			Close:     price + 2,
			Volume:    1000 + float64(i*10),
		})
	}
	return out
}

func TestSaveBarsRoundTrip(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	bars := testBars(10)
	require.NoError(t, store.SaveBars(bars))

	got, err := store.Bars("MGC=F", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i, b := range got {
		assert.True(t, b.Timestamp.Equal(bars[i].Timestamp))
		assert.InDelta(t, bars[i].Close, b.Close, 1e-9)
	}

	// Identical re-insert is a no-op.
	require.NoError(t, store.SaveBars(bars))
	got, err = store.Bars("MGC=F", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestSaveBarsConflictMutatesNothing(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	bars := testBars(5)
	require.NoError(t, store.SaveBars(bars))

	conflicting := testBars(6)
	conflicting[2].Close += 1 // same key, different value

	err = store.SaveBars(conflicting)
	assert.ErrorIs(t, err, ErrBarConflict)

	// The new sixth bar must not have been written either.
	got, err := store.Bars("MGC=F", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestBarsWindow(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveBars(testBars(30)))

	from := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	got, err := store.Bars("MGC=F", from, to)
	require.NoError(t, err)
	assert.Len(t, got, 11)
	assert.True(t, got[0].Timestamp.Equal(from))
}

func TestIndicatorsUpsert(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	date := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveIndicators("MGC=F", date, map[string]float64{"rsi": 55.2, "atr": 9.8}))
	require.NoError(t, store.SaveIndicators("MGC=F", date, map[string]float64{"rsi": 57.1}))

	got, err := store.Indicators("MGC=F", date)
	require.NoError(t, err)
	assert.InDelta(t, 57.1, got["rsi"], 1e-9)
	assert.InDelta(t, 9.8, got["atr"], 1e-9)
}

func TestMetadataRoundTrip(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	type fetchState struct {
		LastFetch string `json:"last_fetch"`
		Rows      int    `json:"rows"`
	}

	require.NoError(t, store.SetMetadata("fetch_state", fetchState{LastFetch: "2025-01-05", Rows: 90}))

	var got fetchState
	ok, err := store.GetMetadata("fetch_state", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 90, got.Rows)

	ok, err = store.GetMetadata("missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
