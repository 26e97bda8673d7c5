package indicator

import (
	"math"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/indicator/helper"
)

// AO is Bill Williams' Awesome Oscillator: the difference between a fast
// and a slow simple moving average of the median price.
func AO(c Candles, fastPeriod, slowPeriod int, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), slowPeriod); err != nil {
		return nil, err
	}
	hl2, _ := c.Source(enum.SourceHL2)
	fast := helper.SMA(hl2, fastPeriod)
	slow := helper.SMA(hl2, slowPeriod)
	out := make([]float64, len(c))
	for i := range out {
		out[i] = fast[i] - slow[i]
	}
	return lastOrSeries(out, sequential), nil
}

// AC is the Accelerator Oscillator: the Awesome Oscillator minus its own
// smoothPeriod-bar simple moving average, exposing momentum's rate of change.
func AC(c Candles, fastPeriod, slowPeriod, smoothPeriod int, sequential bool) ([]float64, error) {
	ao, err := AO(c, fastPeriod, slowPeriod, true)
	if err != nil {
		return nil, err
	}
	sma := helper.SMA(ao, smoothPeriod)
	out := make([]float64, len(ao))
	for i := range out {
		out[i] = ao[i] - sma[i]
	}
	return lastOrSeries(out, sequential), nil
}

// PivotResult holds the classic floor-trader pivot and its support and
// resistance bands.
type PivotResult struct {
	Pivot []float64
	R1    []float64
	R2    []float64
	S1    []float64
	S2    []float64
}

// Pivot computes the classic floor-trader pivot point and first/second
// support and resistance levels from each bar's prior high/low/close.
func Pivot(c Candles, sequential bool) (PivotResult, error) {
	if len(c) < 2 {
		return PivotResult{}, ErrInsufficientData
	}
	high, low, close := c.High(), c.Low(), c.Close()
	pivot := make([]float64, len(c))
	r1 := make([]float64, len(c))
	r2 := make([]float64, len(c))
	s1 := make([]float64, len(c))
	s2 := make([]float64, len(c))
	pivot[0] = math.NaN()
	r1[0], r2[0], s1[0], s2[0] = math.NaN(), math.NaN(), math.NaN(), math.NaN()
	for i := 1; i < len(c); i++ {
		p := (high[i-1] + low[i-1] + close[i-1]) / 3
		pivot[i] = p
		r1[i] = 2*p - low[i-1]
		s1[i] = 2*p - high[i-1]
		r2[i] = p + (high[i-1] - low[i-1])
		s2[i] = p - (high[i-1] - low[i-1])
	}
	if !sequential {
		return PivotResult{
			Pivot: []float64{last(pivot)},
			R1:    []float64{last(r1)},
			R2:    []float64{last(r2)},
			S1:    []float64{last(s1)},
			S2:    []float64{last(s2)},
		}, nil
	}
	return PivotResult{Pivot: pivot, R1: r1, R2: r2, S1: s1, S2: s2}, nil
}
