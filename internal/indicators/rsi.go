package indicators

import (
	"errors"
	"math"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// RSI represents the Relative Strength Index technical indicator.
// Gains and losses are averaged with a simple rolling mean over the
// period rather than Wilder's smoothing.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Calculate returns the latest RSI value for the window.
func (r *RSI) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < r.period+1 {
		return 0, errors.New("insufficient data for RSI calculation")
	}
	series := RSISeries(closes(data), r.period)
	last := series[len(series)-1]
	if math.IsNaN(last) {
		return 0, errors.New("insufficient data for RSI calculation")
	}
	return last, nil
}

func (r *RSI) GetName() string {
	return "RSI"
}

func (r *RSI) GetRequiredPeriods() int {
	return r.period + 1
}

// RSISeries computes RSI over the close series. Indices before period are NaN.
// Values are clamped to [0,100]; a zero average loss yields 100.
func RSISeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(values) < period+1 {
		return out
	}

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := period; i < len(values); i++ {
		avgGain := 0.0
		avgLoss := 0.0
		for j := i - period + 1; j <= i; j++ {
			avgGain += gains[j]
			avgLoss += losses[j]
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)

		var rsi float64
		if avgLoss == 0 {
			rsi = 100
		} else {
			rs := avgGain / avgLoss
			rsi = 100 - 100/(1+rs)
		}
		out[i] = math.Max(0, math.Min(100, rsi))
	}
	return out
}
