package indicators

import (
	"errors"
	"math"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// ATR represents the Average True Range indicator. True range is smoothed
// with an EMA seeded from the first bar's range.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

// Calculate returns the latest ATR value for the window.
func (a *ATR) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < a.period+1 {
		return 0, errors.New("insufficient data for ATR calculation")
	}
	series := ATRSeries(data, a.period)
	return series[len(series)-1], nil
}

func (a *ATR) GetName() string {
	return "ATR"
}

func (a *ATR) GetRequiredPeriods() int {
	return a.period + 1
}

// TrueRangeSeries computes max(high-low, |high-prevClose|, |low-prevClose|)
// for each bar. The first bar has no previous close and uses high-low.
func TrueRangeSeries(data []types.OHLCV) []float64 {
	out := make([]float64, len(data))
	for i, d := range data {
		hl := d.High - d.Low
		if i == 0 {
			out[i] = hl
			continue
		}
		prevClose := data[i-1].Close
		hc := math.Abs(d.High - prevClose)
		lc := math.Abs(d.Low - prevClose)
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATRSeries computes the EMA-smoothed true range series.
func ATRSeries(data []types.OHLCV, period int) []float64 {
	return EMASeries(TrueRangeSeries(data), period)
}
