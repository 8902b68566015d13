package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

const sampleCSV = `date,open,high,low,close,volume
2025-01-02,2640.0,2655.5,2635.0,2650.2,12000
2025-01-03,2650.2,2662.0,2648.0,2659.9,13500
2025-01-06 00:00:00,2659.9,2671.0,2655.0,2668.4,11000
`

func writeCSV(t *testing.T, dir, symbol, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(content), 0o644))
}

func TestCSVProviderBars(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "MGC=F", sampleCSV)

	p := NewCSVProvider(dir)
	bars, err := p.Bars(context.Background(), "MGC=F", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, "MGC=F", bars[0].Symbol)
	assert.True(t, bars[0].Timestamp.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.InDelta(t, 2650.2, bars[0].Close, 1e-9)
	// Intraday timestamps normalize to midnight UTC.
	assert.True(t, bars[2].Timestamp.Equal(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)))
}

func TestCSVProviderDateWindow(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "MGC=F", sampleCSV)

	p := NewCSVProvider(dir)
	start := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	bars, err := p.Bars(context.Background(), "MGC=F", start, start)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.InDelta(t, 2659.9, bars[0].Close, 1e-9)
}

func TestCSVProviderMissingFileIsEmpty(t *testing.T) {
	p := NewCSVProvider(t.TempDir())
	bars, err := p.Bars(context.Background(), "SI=F", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestValidateRejectsBadGeometry(t *testing.T) {
	ts := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bad := []types.Bar{{Symbol: "MGC=F", Timestamp: ts, Open: 2700, High: 2655, Low: 2635, Close: 2650}}
	assert.Error(t, Validate(bad))

	good := []types.Bar{{Symbol: "MGC=F", Timestamp: ts, Open: 2640, High: 2655, Low: 2635, Close: 2650, Volume: 100}}
	assert.NoError(t, Validate(good))
}
