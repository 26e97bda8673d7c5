package indicator

import (
	"math"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/indicator/helper"
)

// SMA is the simple moving average indicator, a thin wrapper over
// helper.SMA so the catalog entry matches every other indicator's
// (Candles, period, source, sequential) signature (S5: SMA of {1..5}
// period 3 -> sequential [NaN, NaN, 2, 3, 4], non-sequential last=4).
func SMA(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	return lastOrSeries(helper.SMA(src, period), sequential), nil
}

// EMA is the exponential moving average indicator.
func EMA(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	return lastOrSeries(helper.EMA(src, period), sequential), nil
}

// DEMA is the double exponential moving average: 2*EMA(src) - EMA(EMA(src)).
func DEMA(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period*2); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	ema1 := helper.EMA(src, period)
	ema2 := helper.EMA(ema1, period)
	out := make([]float64, len(c))
	for i := range out {
		out[i] = 2*ema1[i] - ema2[i]
	}
	return lastOrSeries(out, sequential), nil
}

// TRIMA is the triangular moving average: an SMA of an SMA, which
// applies roughly triangular weighting to the window.
func TRIMA(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	half := period/2 + 1
	out := helper.SMA(helper.SMA(src, half), period-half+1)
	return lastOrSeries(out, sequential), nil
}

// ZLEMA is the zero-lag EMA: an EMA over a de-lagged series
// (2*src[i] - src[i-lag]) where lag = (period-1)/2.
func ZLEMA(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	lag := (period - 1) / 2
	deLagged := make([]float64, len(src))
	for i := range deLagged {
		if i < lag {
			deLagged[i] = src[i]
			continue
		}
		deLagged[i] = 2*src[i] - src[i-lag]
	}
	out := helper.EMA(deLagged, period)
	return lastOrSeries(out, sequential), nil
}

// HMA is the Hull moving average: WMA(2*WMA(src,period/2) -
// WMA(src,period), sqrt(period)).
func HMA(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	halfPeriod := period / 2
	sqrtPeriod := int(math.Sqrt(float64(period)))
	if halfPeriod < 1 || sqrtPeriod < 1 {
		return nil, ErrInvalidParameter
	}
	wmaHalf := wma(src, halfPeriod)
	wmaFull := wma(src, period)
	diff := make([]float64, len(src))
	for i := range diff {
		diff[i] = 2*wmaHalf[i] - wmaFull[i]
	}
	out := wma(diff, sqrtPeriod)
	return lastOrSeries(out, sequential), nil
}

// wma computes the linearly weighted moving average: weights 1..period
// applied to the oldest..newest value in the window.
func wma(arr []float64, period int) []float64 {
	out := make([]float64, len(arr))
	denom := float64(period * (period + 1) / 2)
	for i := range out {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		var sum float64
		weight := 1.0
		for j := i - period + 1; j <= i; j++ {
			sum += arr[j] * weight
			weight++
		}
		out[i] = sum / denom
	}
	return out
}

// KAMA is Kaufman's adaptive moving average: the smoothing constant
// scales with the efficiency ratio (signal/noise) over period.
func KAMA(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period+1); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	const fastSC = 2.0 / (2.0 + 1.0)
	const slowSC = 2.0 / (30.0 + 1.0)
	out := make([]float64, len(src))
	for i := range out {
		out[i] = math.NaN()
	}
	out[period] = src[period]
	for i := period + 1; i < len(src); i++ {
		change := math.Abs(src[i] - src[i-period])
		var volatility float64
		for j := i - period + 1; j <= i; j++ {
			volatility += math.Abs(src[j] - src[j-1])
		}
		var er float64
		if volatility != 0 {
			er = change / volatility
		}
		sc := er*(fastSC-slowSC) + slowSC
		sc *= sc
		out[i] = out[i-1] + sc*(src[i]-out[i-1])
	}
	return lastOrSeries(out, sequential), nil
}

// ALMA is the Arnaud Legoux moving average: a Gaussian-weighted window
// biased towards recent bars by offset, sharpened by sigma.
func ALMA(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	const offset = 0.85
	const sigma = 6.0
	m := offset * float64(period-1)
	s := float64(period) / sigma
	weights := make([]float64, period)
	var wsum float64
	for i := 0; i < period; i++ {
		w := math.Exp(-((float64(i) - m) * (float64(i) - m)) / (2 * s * s))
		weights[i] = w
		wsum += w
	}
	out := make([]float64, len(src))
	for i := range out {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		var sum float64
		for j := 0; j < period; j++ {
			sum += src[i-period+1+j] * weights[j]
		}
		out[i] = sum / wsum
	}
	return lastOrSeries(out, sequential), nil
}

// CWMA is the cubed-weighted moving average: weights i^3 for i=1..period
// applied oldest to newest, giving even heavier recency bias than WMA.
func CWMA(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(src))
	for i := range out {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		var sum, denom float64
		weight := 1.0
		for j := i - period + 1; j <= i; j++ {
			w := weight * weight * weight
			sum += src[j] * w
			denom += w
			weight++
		}
		out[i] = sum / denom
	}
	return lastOrSeries(out, sequential), nil
}

// EPMA is the end-point moving average: the fitted value of a linear
// regression over the trailing window, evaluated at the window's last
// point.
func EPMA(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(src))
	for i := range out {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		window := helper.SlidingWindow(src, i, period)
		slope, intercept := linreg(window)
		out[i] = slope*float64(period-1) + intercept
	}
	return lastOrSeries(out, sequential), nil
}

// linreg fits y = slope*x + intercept over x=0..len(y)-1 via ordinary
// least squares, shared by EPMA and CFO.
func linreg(y []float64) (slope, intercept float64) {
	n := float64(len(y))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
