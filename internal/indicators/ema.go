package indicators

import (
	"errors"
	"fmt"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// EMA represents the Exponential Moving Average technical indicator
type EMA struct {
	period      int
	alpha       float64
	lastValue   float64
	initialized bool
}

// NewEMA creates a new EMA indicator
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

// Calculate returns the EMA of the window's closes. The series is seeded
// with the first close, so a value exists for every index; the window must
// still cover at least one full period to be meaningful.
func (e *EMA) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) == 0 {
		return 0, errors.New("insufficient data for EMA calculation")
	}
	series := EMASeries(closes(data), e.period)
	e.lastValue = series[len(series)-1]
	e.initialized = true
	return e.lastValue, nil
}

// UpdateSingle folds one more value into the running EMA.
func (e *EMA) UpdateSingle(value float64) float64 {
	if !e.initialized {
		e.lastValue = value
		e.initialized = true
	} else {
		e.lastValue = value*e.alpha + e.lastValue*(1-e.alpha)
	}
	return e.lastValue
}

// ResetState clears the running value so the next Calculate starts fresh.
func (e *EMA) ResetState() {
	e.lastValue = 0
	e.initialized = false
}

func (e *EMA) GetName() string {
	return fmt.Sprintf("EMA_%d", e.period)
}

func (e *EMA) GetRequiredPeriods() int {
	return e.period
}

// EMASeries computes the full EMA series over values, seeded with the first
// value. ema_t = v_t*alpha + ema_{t-1}*(1-alpha), alpha = 2/(period+1).
func EMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}
