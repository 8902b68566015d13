package data

import (
	"context"
	"fmt"
	"time"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// BarProvider supplies daily bars for one symbol and date range.
// Implementations return an empty slice, not an error, when no data
// exists for the request.
type BarProvider interface {
	Bars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error)
}

// Validate checks bar geometry before anything downstream consumes the
// series: low <= open/close <= high, non-negative volume, timestamps
// strictly ascending.
func Validate(bars []types.Bar) error {
	for i, b := range bars {
		if b.Low > b.High {
			return fmt.Errorf("bar %s@%s: low %.2f above high %.2f",
				b.Symbol, b.Timestamp.Format("2006-01-02"), b.Low, b.High)
		}
		if b.Open < b.Low || b.Open > b.High || b.Close < b.Low || b.Close > b.High {
			return fmt.Errorf("bar %s@%s: open/close outside low-high range",
				b.Symbol, b.Timestamp.Format("2006-01-02"))
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %s@%s: negative volume", b.Symbol, b.Timestamp.Format("2006-01-02"))
		}
		if i > 0 && !bars[i-1].Timestamp.Before(b.Timestamp) {
			return fmt.Errorf("bar %s@%s: timestamps not ascending", b.Symbol, b.Timestamp.Format("2006-01-02"))
		}
	}
	return nil
}

// ToOHLCV strips symbol tags for the indicator engine.
func ToOHLCV(bars []types.Bar) []types.OHLCV {
	out := make([]types.OHLCV, len(bars))
	for i, b := range bars {
		out[i] = b.OHLCV()
	}
	return out
}
