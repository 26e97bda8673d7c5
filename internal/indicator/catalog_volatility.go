package indicator

import (
	"math"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/indicator/helper"
)

// ATR is Wilder's average true range: an SMMA of the true range series.
func ATR(c Candles, period int, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	tr := helper.TrueRange(c.High(), c.Low(), c.Close())
	out := helper.SMMA(tr, period)
	return lastOrSeries(out, sequential), nil
}

// BBW is Bollinger Bandwidth: the width of a Bollinger envelope
// normalized by its middle band, a pure volatility measure.
func BBW(c Candles, period int, stdDevMult float64, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	mid := helper.SMA(src, period)
	sd := helper.StdDev(src, period)
	out := make([]float64, len(src))
	for i := range out {
		if mid[i] == 0 || math.IsNaN(mid[i]) {
			out[i] = math.NaN()
			continue
		}
		upper := mid[i] + stdDevMult*sd[i]
		lower := mid[i] - stdDevMult*sd[i]
		out[i] = (upper - lower) / mid[i]
	}
	return lastOrSeries(out, sequential), nil
}

// KeltnerResult holds the channel's three bands.
type KeltnerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Keltner is an EMA midline enveloped by an ATR multiple on each side.
func Keltner(c Candles, emaPeriod, atrPeriod int, multiplier float64, sequential bool) (KeltnerResult, error) {
	if err := checkLength(len(c), emaPeriod); err != nil {
		return KeltnerResult{}, err
	}
	close := c.Close()
	mid := helper.EMA(close, emaPeriod)
	atr, err := ATR(c, atrPeriod, true)
	if err != nil {
		return KeltnerResult{}, err
	}
	upper := make([]float64, len(c))
	lower := make([]float64, len(c))
	for i := range upper {
		upper[i] = mid[i] + multiplier*atr[i]
		lower[i] = mid[i] - multiplier*atr[i]
	}
	if !sequential {
		return KeltnerResult{Upper: []float64{last(upper)}, Middle: []float64{last(mid)}, Lower: []float64{last(lower)}}, nil
	}
	return KeltnerResult{Upper: upper, Middle: mid, Lower: lower}, nil
}

// DamianiVolatmeter sums two short-window to long-window volatility
// ratios (smoothed true range and standard deviation of close), flagging
// volatility regime shifts.
func DamianiVolatmeter(c Candles, viscosity, sedimentation int, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), sedimentation+1); err != nil {
		return nil, err
	}
	close := c.Close()
	atrShort := helper.SMMA(helper.TrueRange(c.High(), c.Low(), c.Close()), viscosity)
	atrLong := helper.SMMA(helper.TrueRange(c.High(), c.Low(), c.Close()), sedimentation)
	stdShort := helper.StdDev(close, viscosity)
	stdLong := helper.StdDev(close, sedimentation)
	out := make([]float64, len(c))
	for i := range out {
		if atrLong[i] == 0 || stdLong[i] == 0 || math.IsNaN(atrLong[i]) || math.IsNaN(stdLong[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = atrShort[i]/atrLong[i] + stdShort[i]/stdLong[i]
	}
	return lastOrSeries(out, sequential), nil
}

// Mass is the Mass Index: a rolling sum of the ratio of single to double
// EMA of the high-low range, used to flag range-expansion reversals.
func Mass(c Candles, emaPeriod, sumPeriod int, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), sumPeriod+emaPeriod); err != nil {
		return nil, err
	}
	high, low := c.High(), c.Low()
	hl := make([]float64, len(c))
	for i := range hl {
		hl[i] = high[i] - low[i]
	}
	ema1 := helper.EMA(hl, emaPeriod)
	ema2 := helper.EMA(ema1, emaPeriod)
	ratio := make([]float64, len(c))
	for i := range ratio {
		if ema2[i] == 0 {
			ratio[i] = 0
			continue
		}
		ratio[i] = ema1[i] / ema2[i]
	}
	out := make([]float64, len(c))
	for i := range out {
		if i < sumPeriod-1 {
			out[i] = math.NaN()
			continue
		}
		var sum float64
		for j := i - sumPeriod + 1; j <= i; j++ {
			sum += ratio[j]
		}
		out[i] = sum
	}
	return lastOrSeries(out, sequential), nil
}

// RVI is the Relative Volatility Index: RSI's formula applied to
// standard deviation instead of price change.
func RVI(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period*2); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	sd := helper.StdDev(src, period)
	upSD := make([]float64, len(src))
	downSD := make([]float64, len(src))
	for i := 1; i < len(src); i++ {
		if src[i] > src[i-1] {
			upSD[i] = sd[i]
		} else {
			downSD[i] = sd[i]
		}
	}
	avgUp := helper.SMMA(upSD, period)
	avgDown := helper.SMMA(downSD, period)
	out := make([]float64, len(src))
	for i := range out {
		denom := avgUp[i] + avgDown[i]
		if denom == 0 || math.IsNaN(denom) {
			out[i] = math.NaN()
			continue
		}
		out[i] = 100 * avgUp[i] / denom
	}
	return lastOrSeries(out, sequential), nil
}
