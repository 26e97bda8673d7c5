package indicator

import (
	"math"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/indicator/helper"
)

// DMResult holds the directional movement pair.
type DMResult struct {
	PlusDM  []float64
	MinusDM []float64
}

// DM computes the raw (Wilder-smoothed) positive and negative directional
// movement series.
func DM(c Candles, period int, sequential bool) (DMResult, error) {
	if err := checkLength(len(c), period+1); err != nil {
		return DMResult{}, err
	}
	high, low := c.High(), c.Low()
	plusRaw := make([]float64, len(c))
	minusRaw := make([]float64, len(c))
	for i := 1; i < len(c); i++ {
		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]
		if upMove > downMove && upMove > 0 {
			plusRaw[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusRaw[i] = downMove
		}
	}
	plus := helper.WilderSmooth(plusRaw, period)
	minus := helper.WilderSmooth(minusRaw, period)
	if !sequential {
		return DMResult{PlusDM: []float64{last(plus)}, MinusDM: []float64{last(minus)}}, nil
	}
	return DMResult{PlusDM: plus, MinusDM: minus}, nil
}

// DIResult holds the directional indicator pair.
type DIResult struct {
	PlusDI  []float64
	MinusDI []float64
}

// DI normalizes DM by Wilder-smoothed true range into +DI/-DI.
func DI(c Candles, period int, sequential bool) (DIResult, error) {
	dm, err := DM(c, period, true)
	if err != nil {
		return DIResult{}, err
	}
	tr := helper.TrueRange(c.High(), c.Low(), c.Close())
	smoothedTR := helper.WilderSmooth(tr, period)
	plusDI := make([]float64, len(c))
	minusDI := make([]float64, len(c))
	for i := range plusDI {
		if smoothedTR[i] == 0 || math.IsNaN(smoothedTR[i]) {
			plusDI[i] = math.NaN()
			minusDI[i] = math.NaN()
			continue
		}
		plusDI[i] = 100 * dm.PlusDM[i] / smoothedTR[i]
		minusDI[i] = 100 * dm.MinusDM[i] / smoothedTR[i]
	}
	if !sequential {
		return DIResult{PlusDI: []float64{last(plusDI)}, MinusDI: []float64{last(minusDI)}}, nil
	}
	return DIResult{PlusDI: plusDI, MinusDI: minusDI}, nil
}

// ADX is Wilder's average directional index: a Wilder-smoothed average
// of the DI spread's absolute percentage difference.
func ADX(c Candles, period int, sequential bool) ([]float64, error) {
	di, err := DI(c, period, true)
	if err != nil {
		return nil, err
	}
	dx := make([]float64, len(c))
	for i := range dx {
		sum := di.PlusDI[i] + di.MinusDI[i]
		if sum == 0 || math.IsNaN(sum) {
			dx[i] = math.NaN()
			continue
		}
		dx[i] = 100 * math.Abs(di.PlusDI[i]-di.MinusDI[i]) / sum
	}
	adx := helper.SMMA(dx, period)
	return lastOrSeries(adx, sequential), nil
}

// ADXR is the average of the current ADX and the ADX from period bars
// ago, smoothing ADX's own noise.
func ADXR(c Candles, period int, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period*2); err != nil {
		return nil, err
	}
	adx, err := ADX(c, period, true)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c))
	for i := range out {
		if i < period {
			out[i] = math.NaN()
			continue
		}
		out[i] = (adx[i] + adx[i-period]) / 2
	}
	return lastOrSeries(out, sequential), nil
}

// AroonResult holds the Aroon-up/Aroon-down pair.
type AroonResult struct {
	Up   []float64
	Down []float64
}

// Aroon measures how many bars since the period's high/low, expressed
// as a 0-100 recency score.
func Aroon(c Candles, period int, sequential bool) (AroonResult, error) {
	if err := checkLength(len(c), period+1); err != nil {
		return AroonResult{}, err
	}
	high, low := c.High(), c.Low()
	up := make([]float64, len(c))
	down := make([]float64, len(c))
	for i := range up {
		if i < period {
			up[i] = math.NaN()
			down[i] = math.NaN()
			continue
		}
		hiIdx, loIdx := 0, 0
		hiVal, loVal := high[i-period], low[i-period]
		for j := i - period; j <= i; j++ {
			if high[j] >= hiVal {
				hiVal = high[j]
				hiIdx = j
			}
			if low[j] <= loVal {
				loVal = low[j]
				loIdx = j
			}
		}
		up[i] = 100 * float64(period-(i-hiIdx)) / float64(period)
		down[i] = 100 * float64(period-(i-loIdx)) / float64(period)
	}
	if !sequential {
		return AroonResult{Up: []float64{last(up)}, Down: []float64{last(down)}}, nil
	}
	return AroonResult{Up: up, Down: down}, nil
}

// AroonOsc is Aroon-up minus Aroon-down, a single oscillator in [-100,100].
func AroonOsc(c Candles, period int, sequential bool) ([]float64, error) {
	a, err := Aroon(c, period, true)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c))
	for i := range out {
		out[i] = a.Up[i] - a.Down[i]
	}
	return lastOrSeries(out, sequential), nil
}

// DonchianResult holds the channel's three bands.
type DonchianResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Donchian is the rolling high/low channel and its midline.
func Donchian(c Candles, period int, sequential bool) (DonchianResult, error) {
	if err := checkLength(len(c), period); err != nil {
		return DonchianResult{}, err
	}
	upper := helper.RollingMax(c.High(), period)
	lower := helper.RollingMin(c.Low(), period)
	middle := make([]float64, len(c))
	for i := range middle {
		middle[i] = (upper[i] + lower[i]) / 2
	}
	if !sequential {
		return DonchianResult{
			Upper:  []float64{last(upper)},
			Middle: []float64{last(middle)},
			Lower:  []float64{last(lower)},
		}, nil
	}
	return DonchianResult{Upper: upper, Middle: middle, Lower: lower}, nil
}

// CKSPResult holds the Chande Kroll Stop long/short trailing-stop lines.
type CKSPResult struct {
	Long  []float64
	Short []float64
}

// CKSP is the Chande Kroll Stop: an ATR-buffered channel of the rolling
// high/low, itself rolled over a second window.
func CKSP(c Candles, atrPeriod, stopPeriod int, multiplier float64, sequential bool) (CKSPResult, error) {
	if err := checkLength(len(c), atrPeriod+stopPeriod); err != nil {
		return CKSPResult{}, err
	}
	tr := helper.TrueRange(c.High(), c.Low(), c.Close())
	atr := helper.SMMA(tr, atrPeriod)
	highStop := make([]float64, len(c))
	lowStop := make([]float64, len(c))
	rollingHigh := helper.RollingMax(c.High(), atrPeriod)
	rollingLow := helper.RollingMin(c.Low(), atrPeriod)
	for i := range highStop {
		highStop[i] = rollingHigh[i] - multiplier*atr[i]
		lowStop[i] = rollingLow[i] + multiplier*atr[i]
	}
	long := helper.RollingMax(highStop, stopPeriod)
	short := helper.RollingMin(lowStop, stopPeriod)
	if !sequential {
		return CKSPResult{Long: []float64{last(long)}, Short: []float64{last(short)}}, nil
	}
	return CKSPResult{Long: long, Short: short}, nil
}

// AlligatorResult holds Bill Williams' jaw/teeth/lips lines.
type AlligatorResult struct {
	Jaw   []float64
	Teeth []float64
	Lips  []float64
}

// Alligator computes the jaw (SMMA 13, shift 8), teeth (SMMA 8, shift 5),
// and lips (SMMA 5, shift 3) over HL2, per the standard Bill Williams
// parameterization.
func Alligator(c Candles, sequential bool) (AlligatorResult, error) {
	if err := checkLength(len(c), 13); err != nil {
		return AlligatorResult{}, err
	}
	hl2, _ := c.Source(enum.SourceHL2)
	jaw := shift(helper.SMMA(hl2, 13), 8)
	teeth := shift(helper.SMMA(hl2, 8), 5)
	lips := shift(helper.SMMA(hl2, 5), 3)
	if !sequential {
		return AlligatorResult{Jaw: []float64{last(jaw)}, Teeth: []float64{last(teeth)}, Lips: []float64{last(lips)}}, nil
	}
	return AlligatorResult{Jaw: jaw, Teeth: teeth, Lips: lips}, nil
}

// shift delays a series by n bars, padding the front with NaN, per
// Alligator's forward-projected lines.
func shift(arr []float64, n int) []float64 {
	out := make([]float64, len(arr))
	for i := range out {
		if i < n {
			out[i] = math.NaN()
			continue
		}
		out[i] = arr[i-n]
	}
	return out
}

// SAR is Wellis Wilder's parabolic stop-and-reverse trailing stop.
func SAR(c Candles, accelStep, accelMax float64, sequential bool) ([]float64, error) {
	if len(c) < 2 {
		return nil, ErrInsufficientData
	}
	high, low := c.High(), c.Low()
	out := make([]float64, len(c))
	uptrend := true
	af := accelStep
	ep := high[0]
	sar := low[0]
	out[0] = sar
	for i := 1; i < len(c); i++ {
		sar = sar + af*(ep-sar)
		if uptrend {
			if low[i] < sar {
				uptrend = false
				sar = ep
				ep = low[i]
				af = accelStep
			} else {
				if high[i] > ep {
					ep = high[i]
					af = math.Min(af+accelStep, accelMax)
				}
			}
		} else {
			if high[i] > sar {
				uptrend = true
				sar = ep
				ep = high[i]
				af = accelStep
			} else {
				if low[i] < ep {
					ep = low[i]
					af = math.Min(af+accelStep, accelMax)
				}
			}
		}
		out[i] = sar
	}
	return lastOrSeries(out, sequential), nil
}

// CHOP is the Choppiness Index: how much of the recent trading range the
// sum of true ranges consumed, a measure of trendiness vs. congestion.
func CHOP(c Candles, period int, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period+1); err != nil {
		return nil, err
	}
	tr := helper.TrueRange(c.High(), c.Low(), c.Close())
	high, low := c.High(), c.Low()
	rollingHigh := helper.RollingMax(high, period)
	rollingLow := helper.RollingMin(low, period)
	out := make([]float64, len(c))
	for i := range out {
		if i < period {
			out[i] = math.NaN()
			continue
		}
		var sumTR float64
		for j := i - period + 1; j <= i; j++ {
			sumTR += tr[j]
		}
		rangeHL := rollingHigh[i] - rollingLow[i]
		if rangeHL == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = 100 * math.Log10(sumTR/rangeHL) / math.Log10(float64(period))
	}
	return lastOrSeries(out, sequential), nil
}

// SuperTrendResult holds the trend line and its direction (1 = up bias,
// -1 = down bias).
type SuperTrendResult struct {
	Line      []float64
	Direction []float64
}

// SuperTrend is an ATR-banded trailing trend line that flips direction
// whenever price closes through the opposite band.
func SuperTrend(c Candles, period int, multiplier float64, sequential bool) (SuperTrendResult, error) {
	if err := checkLength(len(c), period); err != nil {
		return SuperTrendResult{}, err
	}
	close := c.Close()
	hl2, _ := c.Source(enum.SourceHL2)
	atr, err := ATR(c, period, true)
	if err != nil {
		return SuperTrendResult{}, err
	}
	line := make([]float64, len(c))
	direction := make([]float64, len(c))
	upperBand := hl2[0] + multiplier*atr[0]
	lowerBand := hl2[0] - multiplier*atr[0]
	dir := 1.0
	for i := range line {
		newUpper := hl2[i] + multiplier*atr[i]
		newLower := hl2[i] - multiplier*atr[i]
		if i > 0 {
			if newUpper < upperBand || close[i-1] > upperBand {
				upperBand = newUpper
			}
			if newLower > lowerBand || close[i-1] < lowerBand {
				lowerBand = newLower
			}
			switch {
			case dir == 1 && close[i] < lowerBand:
				dir = -1
			case dir == -1 && close[i] > upperBand:
				dir = 1
			}
		} else {
			upperBand = newUpper
			lowerBand = newLower
		}
		if dir == 1 {
			line[i] = lowerBand
		} else {
			line[i] = upperBand
		}
		direction[i] = dir
	}
	if !sequential {
		return SuperTrendResult{Line: []float64{last(line)}, Direction: []float64{last(direction)}}, nil
	}
	return SuperTrendResult{Line: line, Direction: direction}, nil
}

// IchimokuResult holds the five Ichimoku Kinko Hyo lines.
type IchimokuResult struct {
	Tenkan  []float64
	Kijun   []float64
	SenkouA []float64
	SenkouB []float64
	Chikou  []float64
}

// Ichimoku computes the classic 9/26/52 cloud system: conversion and
// base lines from rolling midpoints, two forward-shifted leading spans,
// and a backward-shifted lagging span.
func Ichimoku(c Candles, tenkanPeriod, kijunPeriod, senkouBPeriod int, sequential bool) (IchimokuResult, error) {
	if err := checkLength(len(c), senkouBPeriod); err != nil {
		return IchimokuResult{}, err
	}
	high, low, close := c.High(), c.Low(), c.Close()
	midpoint := func(period int) []float64 {
		hi := helper.RollingMax(high, period)
		lo := helper.RollingMin(low, period)
		out := make([]float64, len(c))
		for i := range out {
			out[i] = (hi[i] + lo[i]) / 2
		}
		return out
	}
	tenkan := midpoint(tenkanPeriod)
	kijun := midpoint(kijunPeriod)
	senkouA := make([]float64, len(c))
	for i := range senkouA {
		senkouA[i] = (tenkan[i] + kijun[i]) / 2
	}
	senkouA = shift(senkouA, kijunPeriod)
	senkouB := shift(midpoint(senkouBPeriod), kijunPeriod)
	chikou := make([]float64, len(c))
	for i := range chikou {
		if i+kijunPeriod >= len(c) {
			chikou[i] = math.NaN()
			continue
		}
		chikou[i] = close[i+kijunPeriod]
	}
	if !sequential {
		return IchimokuResult{
			Tenkan:  []float64{last(tenkan)},
			Kijun:   []float64{last(kijun)},
			SenkouA: []float64{last(senkouA)},
			SenkouB: []float64{last(senkouB)},
			Chikou:  []float64{last(chikou)},
		}, nil
	}
	return IchimokuResult{Tenkan: tenkan, Kijun: kijun, SenkouA: senkouA, SenkouB: senkouB, Chikou: chikou}, nil
}

// DTI is the Directional Trend Index (William Blau): a double-smoothed
// difference of directional movement normalized by double-smoothed true
// range magnitude.
func DTI(c Candles, r, s, u int, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), r+s+u); err != nil {
		return nil, err
	}
	high, low := c.High(), c.Low()
	upMove := make([]float64, len(c))
	downMove := make([]float64, len(c))
	for i := 1; i < len(c); i++ {
		dh := high[i] - high[i-1]
		dl := low[i-1] - low[i]
		if dh > 0 {
			upMove[i] = dh
		}
		if dl > 0 {
			downMove[i] = dl
		}
	}
	smoothUp := helper.EMA(helper.EMA(helper.EMA(upMove, r), s), u)
	smoothDown := helper.EMA(helper.EMA(helper.EMA(downMove, r), s), u)
	out := make([]float64, len(c))
	for i := range out {
		denom := smoothUp[i] + smoothDown[i]
		if denom == 0 {
			out[i] = 0
			continue
		}
		out[i] = 100 * (smoothUp[i] - smoothDown[i]) / denom
	}
	return lastOrSeries(out, sequential), nil
}
