package indicators

import (
	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// TechnicalIndicator is the common contract for all indicators.
// Calculate returns the latest value for the supplied window.
type TechnicalIndicator interface {
	Calculate(data []types.OHLCV) (float64, error)
	GetName() string
	GetRequiredPeriods() int
}

// closes extracts the close series from a bar window.
func closes(data []types.OHLCV) []float64 {
	out := make([]float64, len(data))
	for i, d := range data {
		out[i] = d.Close
	}
	return out
}
