package indicators

import (
	"errors"
	"math"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// ADX represents the Average Directional Index indicator with its
// directional components.
type ADX struct {
	period int
}

// ADXValue carries ADX, +DI and -DI for one bar.
type ADXValue struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// NewADX creates a new ADX indicator
func NewADX(period int) *ADX {
	return &ADX{period: period}
}

// Calculate returns the latest ADX value for the window.
func (a *ADX) Calculate(data []types.OHLCV) (float64, error) {
	v, err := a.CalculateAll(data)
	if err != nil {
		return 0, err
	}
	return v.ADX, nil
}

// CalculateAll returns the latest ADX, +DI and -DI values.
func (a *ADX) CalculateAll(data []types.OHLCV) (ADXValue, error) {
	if len(data) < a.GetRequiredPeriods() {
		return ADXValue{}, errors.New("insufficient data for ADX calculation")
	}
	adx, plusDI, minusDI := ADXSeries(data, a.period)
	last := len(data) - 1
	return ADXValue{ADX: adx[last], PlusDI: plusDI[last], MinusDI: minusDI[last]}, nil
}

func (a *ADX) GetName() string {
	return "ADX"
}

func (a *ADX) GetRequiredPeriods() int {
	return 2 * a.period
}

// ADXSeries computes ADX, +DI and -DI for the full series. Directional
// movement, the true range and DX are all EMA-smoothed. A bar where
// +DI + -DI is zero carries the previous DX forward.
func ADXSeries(data []types.OHLCV, period int) (adx, plusDI, minusDI []float64) {
	n := len(data)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := data[i].High - data[i-1].High
		downMove := data[i-1].Low - data[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	atr := ATRSeries(data, period)
	smoothPlus := EMASeries(plusDM, period)
	smoothMinus := EMASeries(minusDM, period)

	plusDI = make([]float64, n)
	minusDI = make([]float64, n)
	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		if atr[i] == 0 {
			plusDI[i] = 0
			minusDI[i] = 0
		} else {
			plusDI[i] = 100 * smoothPlus[i] / atr[i]
			minusDI[i] = 100 * smoothMinus[i] / atr[i]
		}
		sum := plusDI[i] + minusDI[i]
		if sum == 0 {
			if i > 0 {
				dx[i] = dx[i-1]
			}
			continue
		}
		dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
	}

	adx = EMASeries(dx, period)
	return adx, plusDI, minusDI
}
