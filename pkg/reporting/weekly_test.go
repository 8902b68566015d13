package reporting

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
	"github.com/ducminhle1904/gold-intel-bot/internal/logger"
)

var reportNow = time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC) // 2025-W24

func weekOutcomes(n, wins int, t time.Time) []learning.TradeOutcome {
	out := make([]learning.TradeOutcome, 0, n)
	for i := 0; i < n; i++ {
		o := learning.TradeOutcome{
			Timestamp: t.Add(time.Duration(i) * time.Hour),
			Direction: "LONG",
			Regime:    "STRONG_UPTREND",
			Session:   "newyork",
		}
		if i < wins {
			o.Result, o.PnL = "WIN", 8
		} else {
			o.Result, o.PnL = "LOSS", -4
		}
		out = append(out, o)
	}
	return out
}

func TestBuildWeeklyReport(t *testing.T) {
	r := NewWeeklyReporter(t.TempDir(), logger.Discard())
	r.now = func() time.Time { return reportNow }

	prior := []WeeklyReport{
		{Year: 2025, Week: 22, WinRate: 52},
		{Year: 2025, Week: 23, WinRate: 55},
	}
	report := r.Build(weekOutcomes(20, 12, reportNow), prior, reportNow)

	assert.Equal(t, 2025, report.Year)
	assert.Equal(t, 24, report.Week)
	assert.Equal(t, 20, report.Trades)
	assert.InDelta(t, 60.0, report.WinRate, 1e-9)
	assert.InDelta(t, 5.0, report.WinRateChange, 1e-9)
	assert.Equal(t, Improving, report.Progress)
	assert.Equal(t, []float64{52, 55, 60}, report.TrendWinRates)
	assert.Equal(t, "STRONG_UPTREND", report.BestRegime)
	assert.Equal(t, "newyork", report.BestSession)
}

func TestBuildDecliningWeek(t *testing.T) {
	r := NewWeeklyReporter(t.TempDir(), logger.Discard())
	r.now = func() time.Time { return reportNow }

	prior := []WeeklyReport{{Year: 2025, Week: 23, WinRate: 62}}
	report := r.Build(weekOutcomes(20, 10, reportNow), prior, reportNow)

	assert.InDelta(t, 50.0, report.WinRate, 1e-9)
	assert.Equal(t, Declining, report.Progress)
}

func TestGenerateWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	r := NewWeeklyReporter(dir, logger.Discard())
	r.now = func() time.Time { return reportNow }

	report, err := r.Generate(weekOutcomes(10, 6, reportNow))
	require.NoError(t, err)
	assert.Equal(t, 10, report.Trades)

	paths := Paths{Root: dir}
	for _, p := range []string{paths.WeeklyIndex(), paths.WeeklyJSON(reportNow), paths.WeeklyHTML(reportNow)} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}

	// A rerun inside the same week replaces the entry instead of
	// appending a duplicate.
	_, err = r.Generate(weekOutcomes(12, 7, reportNow))
	require.NoError(t, err)

	index, err := r.loadIndex()
	require.NoError(t, err)
	require.Len(t, index, 1)
	assert.Equal(t, 12, index[0].Trades)
}

func TestIndexRollsAtFiftyTwo(t *testing.T) {
	dir := t.TempDir()
	r := NewWeeklyReporter(dir, logger.Discard())

	start := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 55; i++ {
		asOf := start.AddDate(0, 0, 7*i)
		r.now = func() time.Time { return asOf }
		_, err := r.Generate(weekOutcomes(4, 2, asOf))
		require.NoError(t, err)
	}

	index, err := r.loadIndex()
	require.NoError(t, err)
	assert.Len(t, index, maxWeeklyEntries)
}
