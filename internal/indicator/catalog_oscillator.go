package indicator

import (
	"math"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/indicator/helper"
)

// RSI is Wilder's relative strength index, a Wilder-smoothed ratio of
// average gains to average losses, scaled into [0,100].
func RSI(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period+1); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	gains := make([]float64, len(src))
	losses := make([]float64, len(src))
	for i := 1; i < len(src); i++ {
		delta := src[i] - src[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}
	avgGain := helper.SMMA(helper.WilderSmooth(gains, period), 1)
	avgLoss := helper.SMMA(helper.WilderSmooth(losses, period), 1)
	out := make([]float64, len(src))
	for i := range out {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			out[i] = math.NaN()
			continue
		}
		if avgLoss[i] == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return lastOrSeries(out, sequential), nil
}

// CCI is the commodity channel index: the typical price's deviation from
// its moving average, normalized by mean absolute deviation.
func CCI(c Candles, period int, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	tp, _ := c.Source(enum.SourceHLC3)
	sma := helper.SMA(tp, period)
	out := make([]float64, len(c))
	for i := range out {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		var mad float64
		for j := i - period + 1; j <= i; j++ {
			mad += math.Abs(tp[j] - sma[i])
		}
		mad /= float64(period)
		if mad == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - sma[i]) / (0.015 * mad)
	}
	return lastOrSeries(out, sequential), nil
}

// CMO is Chande's momentum oscillator: the normalized difference between
// summed gains and summed losses over period.
func CMO(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period+1); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(src))
	for i := range out {
		if i < period {
			out[i] = math.NaN()
			continue
		}
		var up, down float64
		for j := i - period + 1; j <= i; j++ {
			delta := src[j] - src[j-1]
			if delta > 0 {
				up += delta
			} else {
				down -= delta
			}
		}
		if up+down == 0 {
			out[i] = 0
			continue
		}
		out[i] = 100 * (up - down) / (up + down)
	}
	return lastOrSeries(out, sequential), nil
}

// MOM is raw momentum: src[i] - src[i-period].
func MOM(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period+1); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	return lastOrSeries(helper.Momentum(src, period), sequential), nil
}

// StochResult holds the %K/%D pair.
type StochResult struct {
	K []float64
	D []float64
}

// Stoch is the standard stochastic oscillator: %K from the close's
// position in the rolling high/low range, %D a simple moving average of
// %K.
func Stoch(c Candles, kPeriod, dPeriod int, sequential bool) (StochResult, error) {
	if err := checkLength(len(c), kPeriod+dPeriod); err != nil {
		return StochResult{}, err
	}
	high := helper.RollingMax(c.High(), kPeriod)
	low := helper.RollingMin(c.Low(), kPeriod)
	close := c.Close()
	k := make([]float64, len(c))
	for i := range k {
		rangeHL := high[i] - low[i]
		if rangeHL == 0 || math.IsNaN(rangeHL) {
			k[i] = math.NaN()
			continue
		}
		k[i] = 100 * (close[i] - low[i]) / rangeHL
	}
	d := helper.SMA(k, dPeriod)
	if !sequential {
		return StochResult{K: []float64{last(k)}, D: []float64{last(d)}}, nil
	}
	return StochResult{K: k, D: d}, nil
}

// StochRSI applies the stochastic formula over RSI instead of price.
func StochRSI(c Candles, rsiPeriod, stochPeriod int, source enum.CandleSource, sequential bool) ([]float64, error) {
	rsi, err := RSI(c, rsiPeriod, source, true)
	if err != nil {
		return nil, err
	}
	if err := checkLength(len(rsi), stochPeriod); err != nil {
		return nil, err
	}
	rollingHigh := helper.RollingMax(rsi, stochPeriod)
	rollingLow := helper.RollingMin(rsi, stochPeriod)
	out := make([]float64, len(rsi))
	for i := range out {
		rangeHL := rollingHigh[i] - rollingLow[i]
		if rangeHL == 0 || math.IsNaN(rangeHL) {
			out[i] = math.NaN()
			continue
		}
		out[i] = 100 * (rsi[i] - rollingLow[i]) / rangeHL
	}
	return lastOrSeries(out, sequential), nil
}

// WillR is Williams %R: the inverse-scaled position of close within the
// rolling high/low range.
func WillR(c Candles, period int, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	high := helper.RollingMax(c.High(), period)
	low := helper.RollingMin(c.Low(), period)
	close := c.Close()
	out := make([]float64, len(c))
	for i := range out {
		rangeHL := high[i] - low[i]
		if rangeHL == 0 || math.IsNaN(rangeHL) {
			out[i] = math.NaN()
			continue
		}
		out[i] = -100 * (high[i] - close[i]) / rangeHL
	}
	return lastOrSeries(out, sequential), nil
}

// MACDResult holds the MACD line, signal line, and histogram.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD is the classic moving-average convergence/divergence: fast EMA
// minus slow EMA, smoothed again into a signal line.
func MACD(c Candles, fastPeriod, slowPeriod, signalPeriod int, source enum.CandleSource, sequential bool) (MACDResult, error) {
	if err := checkLength(len(c), slowPeriod+signalPeriod); err != nil {
		return MACDResult{}, err
	}
	src, err := c.Source(source)
	if err != nil {
		return MACDResult{}, err
	}
	fast := helper.EMA(src, fastPeriod)
	slow := helper.EMA(src, slowPeriod)
	macd := make([]float64, len(src))
	for i := range macd {
		macd[i] = fast[i] - slow[i]
	}
	signal := helper.EMA(macd, signalPeriod)
	hist := make([]float64, len(src))
	for i := range hist {
		hist[i] = macd[i] - signal[i]
	}
	if !sequential {
		return MACDResult{MACD: []float64{last(macd)}, Signal: []float64{last(signal)}, Histogram: []float64{last(hist)}}, nil
	}
	return MACDResult{MACD: macd, Signal: signal, Histogram: hist}, nil
}

// Fisher is the Fisher Transform: a Gaussian-normal remapping of price's
// position within its rolling range, sharpening turning points.
func Fisher(c Candles, period int, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	hl2, _ := c.Source(enum.SourceHL2)
	high := helper.RollingMax(hl2, period)
	low := helper.RollingMin(hl2, period)
	value := make([]float64, len(c))
	out := make([]float64, len(c))
	for i := range out {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		rangeHL := high[i] - low[i]
		var raw float64
		if rangeHL != 0 {
			raw = 2 * ((hl2[i]-low[i])/rangeHL - 0.5)
		}
		raw = math.Max(-0.999, math.Min(0.999, raw))
		prevValue := 0.0
		if i > 0 {
			prevValue = value[i-1]
		}
		value[i] = 0.33*raw + 0.67*prevValue
		prevOut := 0.0
		if i > 0 {
			prevOut = out[i-1]
		}
		if math.IsNaN(prevOut) {
			prevOut = 0
		}
		out[i] = 0.5*math.Log((1+value[i])/(1-value[i])) + 0.5*prevOut
	}
	return lastOrSeries(out, sequential), nil
}

// CFO is the Chande Forecast Oscillator: the percentage deviation of
// price from its linear-regression forecast.
func CFO(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
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
		forecast := slope*float64(period-1) + intercept
		if src[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = 100 * (src[i] - forecast) / src[i]
	}
	return lastOrSeries(out, sequential), nil
}

// CG is the Center of Gravity oscillator: a weighted-centroid measure of
// price position within the window, leading price turns.
func CG(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
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
		var num, denom float64
		for j := 0; j < period; j++ {
			v := src[i-j]
			num += float64(j+1) * v
			denom += v
		}
		if denom == 0 {
			out[i] = 0
			continue
		}
		out[i] = -num / denom
	}
	return lastOrSeries(out, sequential), nil
}

// BOP is the Balance Of Power: (close-open)/(high-low), a per-bar
// measure of buying vs. selling pressure.
func BOP(c Candles, sequential bool) ([]float64, error) {
	if len(c) == 0 {
		return nil, ErrInsufficientData
	}
	open, high, low, close := c.Open(), c.High(), c.Low(), c.Close()
	out := make([]float64, len(c))
	for i := range out {
		rangeHL := high[i] - low[i]
		if rangeHL == 0 {
			out[i] = 0
			continue
		}
		out[i] = (close[i] - open[i]) / rangeHL
	}
	return lastOrSeries(out, sequential), nil
}

// FOSC is the Forecast Oscillator expressed over arbitrary source; it
// returns the same series as CFO.
func FOSC(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	return CFO(c, period, source, sequential)
}
