package indicators

import (
	"errors"
	"math"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// BollingerBands represents the Bollinger Bands indicator
type BollingerBands struct {
	period     int
	multiplier float64
}

// BollingerValue carries the three bands for one bar.
type BollingerValue struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// NewBollingerBands creates Bollinger Bands with the given period and
// standard deviation multiplier.
func NewBollingerBands(period int, multiplier float64) *BollingerBands {
	return &BollingerBands{period: period, multiplier: multiplier}
}

// Calculate returns the latest middle band (SMA) value.
func (b *BollingerBands) Calculate(data []types.OHLCV) (float64, error) {
	v, err := b.CalculateAll(data)
	if err != nil {
		return 0, err
	}
	return v.Middle, nil
}

// CalculateAll returns the latest upper, middle and lower band values.
func (b *BollingerBands) CalculateAll(data []types.OHLCV) (BollingerValue, error) {
	if len(data) < b.period {
		return BollingerValue{}, errors.New("insufficient data for Bollinger Bands calculation")
	}
	upper, middle, lower := BollingerSeries(closes(data), b.period, b.multiplier)
	last := len(data) - 1
	if math.IsNaN(middle[last]) {
		return BollingerValue{}, errors.New("insufficient data for Bollinger Bands calculation")
	}
	return BollingerValue{Upper: upper[last], Middle: middle[last], Lower: lower[last]}, nil
}

func (b *BollingerBands) GetName() string {
	return "BollingerBands"
}

func (b *BollingerBands) GetRequiredPeriods() int {
	return b.period
}

// BollingerSeries computes the bands for the full series. Indices before
// period-1 are NaN.
func BollingerSeries(values []float64, period int, multiplier float64) (upper, middle, lower []float64) {
	middle = SMASeries(values, period)
	stdev := StdevSeries(values, period)

	upper = make([]float64, len(values))
	lower = make([]float64, len(values))
	for i := range values {
		if math.IsNaN(middle[i]) {
			upper[i] = math.NaN()
			lower[i] = math.NaN()
			continue
		}
		upper[i] = middle[i] + multiplier*stdev[i]
		lower[i] = middle[i] - multiplier*stdev[i]
	}
	return upper, middle, lower
}
