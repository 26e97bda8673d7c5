// Package ciphertime holds the engine's millisecond-epoch clock helpers
// and timeframe arithmetic. Every internal timestamp is UTC milliseconds
// since the Unix epoch; nothing in the core ever touches time.Time
// directly except at this boundary.
package ciphertime

import (
	"fmt"
	"time"
)

// NowMs returns the current wall-clock time in UTC milliseconds. Callers
// in live/papertrade/candle-import modes use this directly; backtest and
// optimize modes instead read a frozen value from internal/mode.Switch.
func NowMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// CurrentMinuteMs floors a wall-clock millisecond timestamp down to the
// start of its containing 1-minute bucket: floor(ms/60000)*60000.
func CurrentMinuteMs(ms int64) int64 {
	const minuteMs = 60_000
	return (ms / minuteMs) * minuteMs
}

// NextCandleMs returns the close timestamp of the candle that follows one
// closing at candleTs, for a timeframe of the given duration in minutes.
func NextCandleMs(candleTs int64, timeframeMinutes int64) int64 {
	return candleTs + timeframeMinutes*60_000
}

// ToISO8601 renders a millisecond epoch timestamp as an RFC3339 string
// with millisecond precision, always in UTC.
func ToISO8601(ms int64) string {
	t := time.UnixMilli(ms).UTC()
	return t.Format("2006-01-02T15:04:05.000Z")
}

// FromISO8601 parses an RFC3339-ish timestamp string back into a
// millisecond epoch value. This is the exact inverse of ToISO8601 for any
// value it produced (round-trip invariant).
func FromISO8601(s string) (int64, error) {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", s)
	if err != nil {
		// tolerate the standard library's own RFC3339Nano rendering too,
		// since external feeds may not pad to exactly 3 fractional digits.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return 0, fmt.Errorf("ciphertime: parse %q: %w", s, err)
		}
	}
	return t.UTC().UnixMilli(), nil
}
