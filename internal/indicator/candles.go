// Package indicator implements the technical-analysis engine: a
// library of stateless indicators over candle matrices, sharing the
// SMA/EMA/Wilder/SMMA/rolling-extrema helpers in
// internal/indicator/helper. Every indicator follows the same contract:
// a candle source selector, a period/parameter set, and a `sequential
// bool` flag controlling whether it returns a same-length NaN-padded
// vector or just the latest value.
package indicator

import (
	"errors"
	"math"

	"github.com/cipherTrader/cipher-trader/internal/enum"
)

// ErrInsufficientData is returned when the candle matrix has fewer rows
// than the minimum required for the chosen period.
var ErrInsufficientData = errors.New("indicator: insufficient data")

// ErrInvalidParameter is returned for non-positive periods or
// incompatible shapes.
var ErrInvalidParameter = errors.New("indicator: invalid parameter")

// Candle column indices, matching internal/marketdata's candle ring
// layout: timestamp, open, close, high, low, volume.
const (
	ColTimestamp = 0
	ColOpen      = 1
	ColClose     = 2
	ColHigh      = 3
	ColLow       = 4
	ColVolume    = 5
)

// Candles is a read view over a candle matrix, one row per bar. It is
// built directly from internal/marketdata's ring.Array.Rows() output, so
// no indicator call ever copies candle history beyond what Rows already
// returns.
type Candles [][]float64

// Column extracts a single column as a plain []float64, the raw input
// every helper in internal/indicator/helper operates on.
func (c Candles) Column(col int) []float64 {
	out := make([]float64, len(c))
	for i, row := range c {
		out[i] = row[col]
	}
	return out
}

func (c Candles) Open() []float64   { return c.Column(ColOpen) }
func (c Candles) Close() []float64  { return c.Column(ColClose) }
func (c Candles) High() []float64   { return c.Column(ColHigh) }
func (c Candles) Low() []float64    { return c.Column(ColLow) }
func (c Candles) Volume() []float64 { return c.Column(ColVolume) }

// Source extracts the series selected by sel: close, open, high, low,
// volume, or one of the derived composites HL2/HLC3/OHLC4.
func (c Candles) Source(sel enum.CandleSource) ([]float64, error) {
	switch sel {
	case enum.SourceClose, "":
		return c.Close(), nil
	case enum.SourceOpen:
		return c.Open(), nil
	case enum.SourceHigh:
		return c.High(), nil
	case enum.SourceLow:
		return c.Low(), nil
	case enum.SourceVolume:
		return c.Volume(), nil
	case enum.SourceHL2:
		out := make([]float64, len(c))
		for i, row := range c {
			out[i] = (row[ColHigh] + row[ColLow]) / 2
		}
		return out, nil
	case enum.SourceHLC3:
		out := make([]float64, len(c))
		for i, row := range c {
			out[i] = (row[ColHigh] + row[ColLow] + row[ColClose]) / 3
		}
		return out, nil
	case enum.SourceOHLC4:
		out := make([]float64, len(c))
		for i, row := range c {
			out[i] = (row[ColOpen] + row[ColHigh] + row[ColLow] + row[ColClose]) / 4
		}
		return out, nil
	default:
		return nil, errInvalidSource(sel)
	}
}

func errInvalidSource(sel enum.CandleSource) error {
	return &sourceError{sel: sel}
}

type sourceError struct{ sel enum.CandleSource }

func (e *sourceError) Error() string {
	return "indicator: unknown candle source " + string(e.sel)
}

func (e *sourceError) Unwrap() error { return ErrInvalidParameter }

// checkLength validates period and minimum row count, the guard every
// indicator runs before touching its input.
func checkLength(n, period int) error {
	if period <= 0 {
		return ErrInvalidParameter
	}
	if n < period {
		return ErrInsufficientData
	}
	return nil
}

// last returns the final element of arr, or NaN if arr is empty.
func last(arr []float64) float64 {
	if len(arr) == 0 {
		return math.NaN()
	}
	return arr[len(arr)-1]
}

// lastOrSeries returns the full series when sequential is set, or a
// single-element slice holding just the last value otherwise — the
// shared tail every indicator's public function ends with.
func lastOrSeries(series []float64, sequential bool) []float64 {
	if sequential {
		return series
	}
	return []float64{last(series)}
}
