// Package mode holds the process-wide trading-mode switch: a plain
// value owned by internal/engine.Engine and threaded wherever a
// component needs to know whether it's backtesting, live,
// paper-trading, importing candles, or optimizing.
package mode

import "github.com/cipherTrader/cipher-trader/internal/enum"

// Switch holds the active trading mode plus, for backtest/optimize runs,
// the frozen simulated-candle-close timestamp that internal/engine reads
// instead of the wall clock (ciphertime.NowMs).
type Switch struct {
	current       enum.TradingMode
	unitTesting   bool
	frozenNowMs   int64
}

// New creates a Switch in the given mode. unitTesting marks the process
// as running under a test harness, which folds into ShouldExecuteSilently
// alongside optimize mode.
func New(m enum.TradingMode, unitTesting bool) *Switch {
	return &Switch{current: m, unitTesting: unitTesting}
}

// Current returns the active trading mode.
func (s *Switch) Current() enum.TradingMode {
	return s.current
}

// SetFrozenNowMs updates the simulated clock value that backtest/optimize
// runs read in place of the wall clock. Called once per simulated candle
// close by the backtest driver.
func (s *Switch) SetFrozenNowMs(ms int64) {
	s.frozenNowMs = ms
}

// FrozenNowMs returns the last value set via SetFrozenNowMs.
func (s *Switch) FrozenNowMs() int64 {
	return s.frozenNowMs
}

func (s *Switch) IsBacktesting() bool { return s.current == enum.ModeBacktest }
func (s *Switch) IsLiveTrading() bool { return s.current == enum.ModeLiveTrade }
func (s *Switch) IsPaperTrading() bool { return s.current == enum.ModePaperTrade }
func (s *Switch) IsOptimizing() bool  { return s.current == enum.ModeOptimize }
func (s *Switch) IsImportingCandles() bool { return s.current == enum.ModeCandles }

// IsLive reports whether the engine is connected to a real or
// paper-traded live feed, as opposed to a backtest/optimize replay.
func (s *Switch) IsLive() bool {
	return s.current == enum.ModeLiveTrade || s.current == enum.ModePaperTrade || s.current == enum.ModeCandles
}

// ShouldExecuteSilently reports whether notifications/persistence side
// effects should be suppressed: true during optimization sweeps or under
// a unit-testing harness.
func (s *Switch) ShouldExecuteSilently() bool {
	return s.current == enum.ModeOptimize || s.unitTesting
}

// ShouldPersist reports whether order/trade state changes should be
// written through to persistence. Optimize mode never persists.
func (s *Switch) ShouldPersist() bool {
	return s.current != enum.ModeOptimize
}
