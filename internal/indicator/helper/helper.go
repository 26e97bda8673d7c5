// Package helper implements the shared numeric building blocks every
// indicator in internal/indicator composes: trailing/exponential
// averages, Wilder smoothing, rolling extrema, and a no-copy sliding
// window view. Implemented once here so the indicator catalog never
// re-derives them.
package helper

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SMA computes the trailing simple moving average of arr over period.
// Positions before the window fills (i < period-1) are NaN. NaN-tolerant:
// a NaN value inside the window is skipped rather than poisoning the
// whole average, shrinking the effective window instead.
func SMA(arr []float64, period int) []float64 {
	out := make([]float64, len(arr))
	for i := range out {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		var sum float64
		var count int
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(arr[j]) {
				continue
			}
			sum += arr[j]
			count++
		}
		if count == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(count)
		}
	}
	return out
}

// EMA computes the exponential moving average: initial value = arr[0],
// alpha = 2/(period+1), out[i] = out[i-1] + alpha*(arr[i]-out[i-1]).
func EMA(arr []float64, period int) []float64 {
	out := make([]float64, len(arr))
	if len(arr) == 0 {
		return out
	}
	alpha := 2.0 / (float64(period) + 1.0)
	out[0] = arr[0]
	for i := 1; i < len(arr); i++ {
		if math.IsNaN(arr[i]) || math.IsNaN(out[i-1]) {
			out[i] = out[i-1]
			continue
		}
		out[i] = out[i-1] + alpha*(arr[i]-out[i-1])
	}
	return out
}

// WilderSmooth applies the ADX-family smoothing: the first value (at
// index period-1) is the sum of the first period inputs; thereafter
// s[i] = s[i-1] - s[i-1]/period + arr[i]. Positions before index
// period-1 are NaN.
func WilderSmooth(arr []float64, period int) []float64 {
	out := make([]float64, len(arr))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(arr) < period || period <= 0 {
		return out
	}
	var sum float64
	for i := 0; i < period; i++ {
		sum += arr[i]
	}
	out[period-1] = sum
	for i := period; i < len(arr); i++ {
		out[i] = out[i-1] - out[i-1]/float64(period) + arr[i]
	}
	return out
}

// SMMA computes the smoothed moving average: s[0] = arr[0], s[i] =
// (s[i-1]*(length-1) + arr[i]) / length.
func SMMA(arr []float64, length int) []float64 {
	out := make([]float64, len(arr))
	if len(arr) == 0 {
		return out
	}
	out[0] = arr[0]
	for i := 1; i < len(arr); i++ {
		out[i] = (out[i-1]*float64(length-1) + arr[i]) / float64(length)
	}
	return out
}

// RollingMax returns, for each index, the maximum value over the
// trailing window ending at that index (NaN before the window fills).
// Built on gonum/floats.Max over each window's sub-slice.
func RollingMax(arr []float64, window int) []float64 {
	out := make([]float64, len(arr))
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = floats.Max(arr[i-window+1 : i+1])
	}
	return out
}

// RollingMin is RollingMax's counterpart, built on gonum/floats.Min.
func RollingMin(arr []float64, window int) []float64 {
	out := make([]float64, len(arr))
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = floats.Min(arr[i-window+1 : i+1])
	}
	return out
}

// SlidingWindow returns a no-copy view of the trailing `window` values
// ending at index i (inclusive). Panics if the window would run past the
// start of arr; callers are expected to have already validated length
// against InsufficientData.
func SlidingWindow(arr []float64, i, window int) []float64 {
	return arr[i-window+1 : i+1]
}

// Momentum computes arr[i] - arr[i-period]; positions before index
// period are NaN.
func Momentum(arr []float64, period int) []float64 {
	out := make([]float64, len(arr))
	for i := range out {
		if i < period {
			out[i] = math.NaN()
			continue
		}
		out[i] = arr[i] - arr[i-period]
	}
	return out
}

// TrueRange computes Wilder's true range series from high/low/close,
// shared by ATR, ADX, SuperTrend, and Keltner.
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(high))
	for i := range out {
		if i == 0 {
			out[i] = high[i] - low[i]
			continue
		}
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// StdDev computes the trailing population standard deviation over
// period, NaN before the window fills.
func StdDev(arr []float64, period int) []float64 {
	means := SMA(arr, period)
	out := make([]float64, len(arr))
	for i := range out {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		var sumSq float64
		for j := i - period + 1; j <= i; j++ {
			d := arr[j] - means[i]
			sumSq += d * d
		}
		out[i] = math.Sqrt(sumSq / float64(period))
	}
	return out
}

// LastFinite returns the last non-NaN value in arr, and whether one was
// found. The indicators' non-sequential return path does not use it: it
// returns the final element even when that element is NaN.
func LastFinite(arr []float64) (float64, bool) {
	for i := len(arr) - 1; i >= 0; i-- {
		if !math.IsNaN(arr[i]) {
			return arr[i], true
		}
	}
	return math.NaN(), false
}
