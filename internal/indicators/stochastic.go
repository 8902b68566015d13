package indicators

import (
	"errors"
	"math"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// Stochastic represents the Stochastic Oscillator (%K smoothed, %D).
type Stochastic struct {
	kPeriod int
	kSmooth int
	dPeriod int
}

// StochasticValue carries %K and %D for one bar.
type StochasticValue struct {
	K float64
	D float64
}

// NewStochastic creates a Stochastic Oscillator with the given periods.
func NewStochastic(kPeriod, kSmooth, dPeriod int) *Stochastic {
	return &Stochastic{kPeriod: kPeriod, kSmooth: kSmooth, dPeriod: dPeriod}
}

// NewDefaultStochastic creates a Stochastic(14, 3, 3).
func NewDefaultStochastic() *Stochastic {
	return NewStochastic(14, 3, 3)
}

// Calculate returns the latest smoothed %K value.
func (s *Stochastic) Calculate(data []types.OHLCV) (float64, error) {
	v, err := s.CalculateAll(data)
	if err != nil {
		return 0, err
	}
	return v.K, nil
}

// CalculateAll returns the latest %K and %D values.
func (s *Stochastic) CalculateAll(data []types.OHLCV) (StochasticValue, error) {
	if len(data) < s.GetRequiredPeriods() {
		return StochasticValue{}, errors.New("insufficient data for Stochastic calculation")
	}
	k, d := StochasticSeries(data, s.kPeriod, s.kSmooth, s.dPeriod)
	last := len(data) - 1
	if math.IsNaN(k[last]) || math.IsNaN(d[last]) {
		return StochasticValue{}, errors.New("insufficient data for Stochastic calculation")
	}
	return StochasticValue{K: k[last], D: d[last]}, nil
}

func (s *Stochastic) GetName() string {
	return "Stochastic"
}

func (s *Stochastic) GetRequiredPeriods() int {
	return s.kPeriod + s.kSmooth + s.dPeriod - 2
}

// StochasticSeries computes smoothed %K and %D for the full series.
// A flat lookback window (max high equals min low) carries the previous
// raw %K forward. Warm-up indices are NaN.
func StochasticSeries(data []types.OHLCV, kPeriod, kSmooth, dPeriod int) (k, d []float64) {
	rawK := make([]float64, len(data))
	for i := range data {
		if i < kPeriod-1 {
			rawK[i] = math.NaN()
			continue
		}
		lowest := math.Inf(1)
		highest := math.Inf(-1)
		for j := i - kPeriod + 1; j <= i; j++ {
			lowest = math.Min(lowest, data[j].Low)
			highest = math.Max(highest, data[j].High)
		}
		span := highest - lowest
		if span == 0 {
			if i > 0 && !math.IsNaN(rawK[i-1]) {
				rawK[i] = rawK[i-1]
			} else {
				rawK[i] = math.NaN()
			}
			continue
		}
		rawK[i] = 100 * (data[i].Close - lowest) / span
	}

	k = nanSMASeries(rawK, kSmooth)
	d = nanSMASeries(k, dPeriod)
	return k, d
}

// nanSMASeries is a rolling mean that yields NaN until the window holds
// only defined values.
func nanSMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		valid := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				valid = false
				break
			}
			sum += values[j]
		}
		if !valid {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}
