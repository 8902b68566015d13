package indicators

import (
	"errors"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// MACD represents the Moving Average Convergence Divergence indicator
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// MACDValue carries the three MACD components for one bar.
type MACDValue struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// NewMACD creates a new MACD indicator with the given periods.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

// NewDefaultMACD creates a MACD(12, 26, 9).
func NewDefaultMACD() *MACD {
	return NewMACD(12, 26, 9)
}

// Calculate returns the latest MACD line value.
func (m *MACD) Calculate(data []types.OHLCV) (float64, error) {
	v, err := m.CalculateAll(data)
	if err != nil {
		return 0, err
	}
	return v.Line, nil
}

// CalculateAll returns the latest line, signal and histogram values.
func (m *MACD) CalculateAll(data []types.OHLCV) (MACDValue, error) {
	if len(data) < m.slowPeriod {
		return MACDValue{}, errors.New("insufficient data for MACD calculation")
	}
	line, signal, hist := MACDSeries(closes(data), m.fastPeriod, m.slowPeriod, m.signalPeriod)
	last := len(line) - 1
	return MACDValue{Line: line[last], Signal: signal[last], Histogram: hist[last]}, nil
}

func (m *MACD) GetName() string {
	return "MACD"
}

func (m *MACD) GetRequiredPeriods() int {
	return m.slowPeriod + m.signalPeriod
}

// MACDSeries computes the MACD line (fast EMA minus slow EMA), its signal
// EMA and the histogram for the full series.
func MACDSeries(values []float64, fast, slow, signal int) (line, signalLine, histogram []float64) {
	fastEMA := EMASeries(values, fast)
	slowEMA := EMASeries(values, slow)

	line = make([]float64, len(values))
	for i := range values {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = EMASeries(line, signal)

	histogram = make([]float64, len(values))
	for i := range values {
		histogram[i] = line[i] - signalLine[i]
	}
	return line, signalLine, histogram
}
