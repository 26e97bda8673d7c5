package indicator

import (
	"math"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/indicator/helper"
)

// AD is the Accumulation/Distribution line: a running sum of
// volume-weighted close location value.
func AD(c Candles, sequential bool) ([]float64, error) {
	if len(c) == 0 {
		return nil, ErrInsufficientData
	}
	high, low, close, volume := c.High(), c.Low(), c.Close(), c.Volume()
	out := make([]float64, len(c))
	var running float64
	for i := range out {
		rangeHL := high[i] - low[i]
		var mfm float64
		if rangeHL != 0 {
			mfm = ((close[i] - low[i]) - (high[i] - close[i])) / rangeHL
		}
		running += mfm * volume[i]
		out[i] = running
	}
	return lastOrSeries(out, sequential), nil
}

// ADOSC is the Chaikin A/D Oscillator: the MACD of the A/D line.
func ADOSC(c Candles, fastPeriod, slowPeriod int, sequential bool) ([]float64, error) {
	ad, err := AD(c, true)
	if err != nil {
		return nil, err
	}
	if err := checkLength(len(ad), slowPeriod); err != nil {
		return nil, err
	}
	fast := helper.EMA(ad, fastPeriod)
	slow := helper.EMA(ad, slowPeriod)
	out := make([]float64, len(ad))
	for i := range out {
		out[i] = fast[i] - slow[i]
	}
	return lastOrSeries(out, sequential), nil
}

// OBV is On-Balance Volume: a running sum of signed volume, added when
// close rises and subtracted when it falls.
func OBV(c Candles, sequential bool) ([]float64, error) {
	if len(c) == 0 {
		return nil, ErrInsufficientData
	}
	close, volume := c.Close(), c.Volume()
	out := make([]float64, len(c))
	for i := range out {
		if i == 0 {
			out[i] = volume[i]
			continue
		}
		switch {
		case close[i] > close[i-1]:
			out[i] = out[i-1] + volume[i]
		case close[i] < close[i-1]:
			out[i] = out[i-1] - volume[i]
		default:
			out[i] = out[i-1]
		}
	}
	return lastOrSeries(out, sequential), nil
}

// EFI is the Elder Force Index: volume-weighted price change, smoothed
// by an EMA.
func EFI(c Candles, period int, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period+1); err != nil {
		return nil, err
	}
	close, volume := c.Close(), c.Volume()
	raw := make([]float64, len(c))
	for i := 1; i < len(c); i++ {
		raw[i] = (close[i] - close[i-1]) * volume[i]
	}
	out := helper.EMA(raw, period)
	return lastOrSeries(out, sequential), nil
}

// KVO is the Klinger Volume Oscillator: the MACD of a volume-force term
// derived from the trend of typical price.
func KVO(c Candles, fastPeriod, slowPeriod int, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), slowPeriod+1); err != nil {
		return nil, err
	}
	high, low, close, volume := c.High(), c.Low(), c.Close(), c.Volume()
	tp := make([]float64, len(c))
	for i := range tp {
		tp[i] = (high[i] + low[i] + close[i]) / 3
	}
	vf := make([]float64, len(c))
	trend := 1.0
	for i := 1; i < len(c); i++ {
		if tp[i] > tp[i-1] {
			trend = 1
		} else if tp[i] < tp[i-1] {
			trend = -1
		}
		vf[i] = volume[i] * trend * 100
	}
	fast := helper.EMA(vf, fastPeriod)
	slow := helper.EMA(vf, slowPeriod)
	out := make([]float64, len(c))
	for i := range out {
		out[i] = fast[i] - slow[i]
	}
	return lastOrSeries(out, sequential), nil
}

// VWAP is the volume-weighted average price, accumulated from the start
// of the candle window (callers reset the window per session as needed).
func VWAP(c Candles, sequential bool) ([]float64, error) {
	if len(c) == 0 {
		return nil, ErrInsufficientData
	}
	high, low, close, volume := c.High(), c.Low(), c.Close(), c.Volume()
	out := make([]float64, len(c))
	var cumPV, cumV float64
	for i := range out {
		tp := (high[i] + low[i] + close[i]) / 3
		cumPV += tp * volume[i]
		cumV += volume[i]
		if cumV == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = cumPV / cumV
	}
	return lastOrSeries(out, sequential), nil
}

// AvgPrice is the simple average of OHLC per bar.
func AvgPrice(c Candles, sequential bool) ([]float64, error) {
	if len(c) == 0 {
		return nil, ErrInsufficientData
	}
	out, err := c.Source(enum.SourceOHLC4)
	if err != nil {
		return nil, err
	}
	return lastOrSeries(out, sequential), nil
}
