package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// CSVProvider reads daily bars from {dir}/{symbol}.csv files with a
// date,open,high,low,close,volume header. Timestamps are normalized to
// tz-naive UTC midnight regardless of how the source wrote them.
type CSVProvider struct {
	dir string
}

// NewCSVProvider creates a provider rooted at dir.
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

// Bars loads the symbol's file and returns the rows inside [start, end],
// ascending. A missing file yields an empty slice.
func (p *CSVProvider) Bars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error) {
	file, err := os.Open(p.path(symbol))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bars for %s: %w", symbol, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header for %s: %w", symbol, err)
	}

	var bars []types.Bar
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s line %d: %w", symbol, line, err)
		}
		line++
		if len(record) < 6 {
			return nil, fmt.Errorf("%s line %d: expected 6 columns, got %d", symbol, line, len(record))
		}

		ts, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", symbol, line, err)
		}
		if (!start.IsZero() && ts.Before(start)) || (!end.IsZero() && ts.After(end)) {
			continue
		}

		values := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %d: %w", symbol, line, i+1, err)
			}
			values[i] = v
		}

		bars = append(bars, types.Bar{
			Symbol:    symbol,
			Timestamp: ts,
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
		})
	}

	if err := Validate(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func (p *CSVProvider) path(symbol string) string {
	// Symbols like DX-Y.NYB and MGC=F are valid file names as-is except
	// for path separators.
	name := strings.ReplaceAll(symbol, string(os.PathSeparator), "_")
	return filepath.Join(p.dir, name+".csv")
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// parseDate accepts the formats the upstream fetchers emit and truncates
// to UTC midnight, which makes all series tz-naive and alignable.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
