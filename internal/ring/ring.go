// Package ring implements the append-only, drop-when-full numeric store
// (DynamicBlazeArray in the original) that underpins candle, ticker,
// orderbook, and trade state in internal/marketdata. Every row is a
// fixed-width []float64; the column layout is the caller's contract.
package ring

import (
	"errors"
	"sync"
)

// ErrOutOfRange is returned by Row/Rows/Sum when an index falls outside
// the array's current bounds.
var ErrOutOfRange = errors.New("ring: index out of range")

// Array is a 2-D append-only buffer with negative-index row access and
// halve-on-overflow drop semantics. The zero value is not usable; use
// New. An Array is safe for concurrent use: appends take an exclusive
// lock, reads take a shared lock.
type Array struct {
	mu     sync.RWMutex
	cols   int
	dropAt int
	rows   [][]float64
}

// New creates an Array with the given column width and drop threshold.
// dropAt must be positive; cols must be positive.
func New(cols, dropAt int) *Array {
	if cols <= 0 {
		panic("ring: cols must be positive")
	}
	if dropAt <= 0 {
		panic("ring: dropAt must be positive")
	}
	return &Array{cols: cols, dropAt: dropAt}
}

// Append pushes one row onto the array. row must have length cols. If the
// array's size exceeds dropAt after the append, the oldest rows are
// discarded in one bulk operation, keeping only the most recent
// dropAt/2 rows (halve-on-overflow), so size() <= dropAt*1.5 always
// holds and amortized append cost stays O(1).
func (a *Array) Append(row []float64) {
	if len(row) != a.cols {
		panic("ring: row width mismatch")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	cp := make([]float64, a.cols)
	copy(cp, row)
	a.rows = append(a.rows, cp)

	if len(a.rows) > a.dropAt {
		keep := a.dropAt / 2
		if keep < 1 {
			keep = 1
		}
		start := len(a.rows) - keep
		dropped := make([][]float64, keep)
		copy(dropped, a.rows[start:])
		a.rows = dropped
	}
}

// ReplaceLast overwrites the newest row in place, used by callers that
// aggregate several updates into a single row before it is final (e.g.
// per-minute trade aggregation) rather than appending a fresh row per
// update. Returns ErrOutOfRange if the array is empty.
func (a *Array) ReplaceLast(row []float64) error {
	if len(row) != a.cols {
		panic("ring: row width mismatch")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.rows) == 0 {
		return ErrOutOfRange
	}
	cp := make([]float64, a.cols)
	copy(cp, row)
	a.rows[len(a.rows)-1] = cp
	return nil
}

// Size returns the current number of rows.
func (a *Array) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.rows)
}

// Row returns a copy of row i. i may be negative, where -1 is the newest
// row, -2 the one before it, and so on.
func (a *Array) Row(i int) ([]float64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	idx, ok := resolveIndex(i, len(a.rows))
	if !ok {
		return nil, ErrOutOfRange
	}
	out := make([]float64, a.cols)
	copy(out, a.rows[idx])
	return out, nil
}

// Rows returns a copy of the half-open range [a, b), supporting negative
// indices for either bound the same way Row does.
func (a *Array) Rows(from, to int) ([][]float64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := len(a.rows)
	fi, ok1 := resolveBound(from, n)
	ti, ok2 := resolveBound(to, n)
	if !ok1 || !ok2 || fi > ti || ti > n {
		return nil, ErrOutOfRange
	}
	out := make([][]float64, ti-fi)
	for i := fi; i < ti; i++ {
		row := make([]float64, a.cols)
		copy(row, a.rows[i])
		out[i-fi] = row
	}
	return out, nil
}

// Sum returns the sum of column col across every current row.
func (a *Array) Sum(col int) (float64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if col < 0 || col >= a.cols {
		return 0, ErrOutOfRange
	}
	var total float64
	for _, row := range a.rows {
		total += row[col]
	}
	return total, nil
}

// At returns a single scalar at row i, column j, with the same negative
// indexing rules as Row.
func (a *Array) At(i, j int) (float64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if j < 0 || j >= a.cols {
		return 0, ErrOutOfRange
	}
	idx, ok := resolveIndex(i, len(a.rows))
	if !ok {
		return 0, ErrOutOfRange
	}
	return a.rows[idx][j], nil
}

// resolveIndex converts a possibly-negative row index into an absolute
// one, returning ok=false if it falls outside [0, n).
func resolveIndex(i, n int) (int, bool) {
	if i < 0 {
		i = n + i
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

// resolveBound is like resolveIndex but permits the value n itself,
// since range bounds are half-open.
func resolveBound(i, n int) (int, bool) {
	if i < 0 {
		i = n + i
	}
	if i < 0 || i > n {
		return 0, false
	}
	return i, true
}
