package indicator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/indicator/helper"
)

// Beta measures src's covariance with a reference series normalized by
// the reference's variance, over a trailing window. Built on
// gonum.org/v1/gonum/stat.Covariance and stat.Variance.
func Beta(c Candles, reference []float64, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	if len(reference) != len(c) {
		return nil, ErrInvalidParameter
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
		x := helper.SlidingWindow(reference, i, period)
		y := helper.SlidingWindow(src, i, period)
		varX := stat.Variance(x, nil)
		if varX == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Covariance(y, x, nil) / varX
	}
	return lastOrSeries(out, sequential), nil
}

// Correl is the Pearson correlation coefficient between src and
// reference over a trailing window, via gonum.org/v1/gonum/stat.Correlation.
func Correl(c Candles, reference []float64, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	if len(reference) != len(c) {
		return nil, ErrInvalidParameter
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
		x := helper.SlidingWindow(reference, i, period)
		y := helper.SlidingWindow(src, i, period)
		out[i] = stat.Correlation(y, x, nil)
	}
	return lastOrSeries(out, sequential), nil
}

// CorrelationCycle is John Ehlers' correlation-cycle indicator: the
// trailing window's correlation against an ideal sine/cosine wave of
// the same length, giving a phase-aware cycle estimate via
// gonum.org/v1/gonum/stat.Correlation.
func CorrelationCycle(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
	if err := checkLength(len(c), period); err != nil {
		return nil, err
	}
	src, err := c.Source(source)
	if err != nil {
		return nil, err
	}
	sine := make([]float64, period)
	cosine := make([]float64, period)
	for i := 0; i < period; i++ {
		angle := 2 * math.Pi * float64(i) / float64(period)
		sine[i] = math.Sin(angle)
		cosine[i] = math.Cos(angle)
	}
	out := make([]float64, len(src))
	for i := range out {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		window := helper.SlidingWindow(src, i, period)
		realPart := stat.Correlation(window, cosine, nil)
		imagPart := stat.Correlation(window, sine, nil)
		out[i] = math.Atan2(imagPart, realPart) * 180 / math.Pi
	}
	return lastOrSeries(out, sequential), nil
}

// EDCF is Ehlers' Distance Coefficient Filter: a window-weighted moving
// average where each bar's weight is how dissimilar it is to the rest
// of the window, emphasizing outlier bars over the crowd.
func EDCF(c Candles, period int, source enum.CandleSource, sequential bool) ([]float64, error) {
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
		weights := make([]float64, period)
		for a := 0; a < period; a++ {
			var dist float64
			for b := 0; b < period; b++ {
				d := window[a] - window[b]
				dist += d * d
			}
			weights[a] = dist
		}
		var num, denom float64
		for j := 0; j < period; j++ {
			num += weights[j] * window[j]
			denom += weights[j]
		}
		if denom == 0 {
			out[i] = window[period-1]
			continue
		}
		out[i] = num / denom
	}
	return lastOrSeries(out, sequential), nil
}
