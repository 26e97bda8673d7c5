// Package marketdata holds the per-(exchange,symbol,timeframe) market
// state: bounded candle, ticker, orderbook, and trade history, keyed by
// the composite key built in internal/symbol. It is the single point of
// contention between the exchange-ingest goroutine (the writer) and
// strategy ticks (the readers): a per-key RWMutex lets many strategies
// read concurrently while a single writer appends, and every read
// returns a consistent row snapshot with no tearing between columns,
// since internal/ring copies rows in and out of its buffer.
package marketdata

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cipherTrader/cipher-trader/internal/ring"
	"github.com/cipherTrader/cipher-trader/internal/symbol"
)

// ErrUnknownSymbol is returned by any read against a composite key that
// has no registered slot.
var ErrUnknownSymbol = errors.New("marketdata: unknown symbol")

// Candle column layout: timestamp, open, close, high, low, volume.
const (
	ColCandleTimestamp = 0
	ColCandleOpen      = 1
	ColCandleClose     = 2
	ColCandleHigh      = 3
	ColCandleLow       = 4
	ColCandleVolume    = 5
	candleCols         = 6
)

// Ticker column layout: timestamp, last_price, volume, high, low.
const (
	ColTickerTimestamp = 0
	ColTickerLast      = 1
	ColTickerVolume    = 2
	ColTickerHigh      = 3
	ColTickerLow       = 4
	tickerCols         = 5
)

// Orderbook column layout: timestamp, best bid, best ask.
const (
	ColBookTimestamp = 0
	ColBookBestBid   = 1
	ColBookBestAsk   = 2
	orderbookCols    = 3
)

// Trade aggregate column layout: timestamp, price, buy_qty, sell_qty,
// buy_count, sell_count.
const (
	ColTradeTimestamp = 0
	ColTradePrice     = 1
	ColTradeBuyQty    = 2
	ColTradeSellQty   = 3
	ColTradeBuyCount  = 4
	ColTradeSellCount = 5
	tradeCols         = 6
)

const tickerThrottleMs = 1000

// Slot holds the four bounded histories for one composite key.
type Slot struct {
	mu        sync.RWMutex
	candles   *ring.Array
	tickers   *ring.Array
	orderbook *ring.Array
	trades    *ring.Array
}

// State is the market-data fabric: a registry of Slots keyed by
// composite key, guarded by its own map-level mutex so registering a new
// key never races a read of an existing one.
type State struct {
	mu    sync.RWMutex
	slots map[string]*Slot
	// warmupCandles sets the candle ring's drop threshold: 240 * N where
	// N is env_data_warmup_candles_num.
	warmupCandles int
}

// New creates an empty market-data state. warmupCandles is the
// env_data_warmup_candles_num configuration value; a value of 0 defaults
// to 1 (drop_at = 240).
func New(warmupCandles int) *State {
	if warmupCandles <= 0 {
		warmupCandles = 1
	}
	return &State{slots: make(map[string]*Slot), warmupCandles: warmupCandles}
}

func (s *State) slotFor(key string) *Slot {
	s.mu.RLock()
	slot, ok := s.slots[key]
	s.mu.RUnlock()
	if ok {
		return slot
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok = s.slots[key]; ok {
		return slot
	}
	slot = &Slot{
		candles:   ring.New(candleCols, 240*s.warmupCandles),
		tickers:   ring.New(tickerCols, 120),
		orderbook: ring.New(orderbookCols, 64),
		trades:    ring.New(tradeCols, 1440), // one row per minute, ~1 day
	}
	s.slots[key] = slot
	return slot
}

func (s *State) lookup(key string) (*Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, key)
	}
	return slot, nil
}

// Key builds the composite key for (exchange, symbol, timeframe).
func Key(exchange, sym, timeframe string) string {
	return symbol.CompositeKey(exchange, sym, timeframe)
}

// AddCandle appends a new candle row for (exchange, symbol, timeframe).
// Registers the slot on first use.
func (s *State) AddCandle(exchange, sym, timeframe string, timestamp int64, open, close, high, low, volume float64) {
	slot := s.slotFor(Key(exchange, sym, timeframe))
	slot.candles.Append([]float64{float64(timestamp), open, close, high, low, volume})
}

// AddTicker appends a new ticker row, subject to the 1 Hz throttle: if
// the new timestamp is less than 1000ms after the last recorded ticker's
// timestamp, the update is silently dropped.
func (s *State) AddTicker(exchange, sym string, timestamp int64, last, volume, high, low float64) {
	slot := s.slotFor(Key(exchange, sym, ""))

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if row, err := slot.tickers.Row(-1); err == nil {
		if timestamp-int64(row[ColTickerTimestamp]) < tickerThrottleMs {
			return
		}
	}
	slot.tickers.Append([]float64{float64(timestamp), last, volume, high, low})
}

// AddOrderbook appends a new orderbook snapshot row. Only the best
// bid/ask are stored as numeric columns; callers needing the full ladder
// keep it outside this state (the core only ever extracts arr[0][0] of
// each side per the exchange-adapter contract).
func (s *State) AddOrderbook(exchange, sym string, timestamp int64, bestBid, bestAsk float64) {
	slot := s.slotFor(Key(exchange, sym, ""))
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.orderbook.Append([]float64{float64(timestamp), bestBid, bestAsk})
}

// AddTrade folds a single trade into the current minute's aggregate row,
// appending a fresh row when the minute rolls over.
func (s *State) AddTrade(exchange, sym string, timestamp int64, price float64, isBuy bool, qty float64) {
	slot := s.slotFor(Key(exchange, sym, ""))
	slot.mu.Lock()
	defer slot.mu.Unlock()

	bucket := currentMinuteBucket(timestamp)
	if last, err := slot.trades.Row(-1); err == nil && currentMinuteBucket(int64(last[ColTradeTimestamp])) == bucket {
		row := last
		row[ColTradeTimestamp] = float64(bucket)
		row[ColTradePrice] = price
		if isBuy {
			row[ColTradeBuyQty] += qty
			row[ColTradeBuyCount]++
		} else {
			row[ColTradeSellQty] += qty
			row[ColTradeSellCount]++
		}
		_ = slot.trades.ReplaceLast(row)
		return
	}

	row := make([]float64, tradeCols)
	row[ColTradeTimestamp] = float64(bucket)
	row[ColTradePrice] = price
	if isBuy {
		row[ColTradeBuyQty] = qty
		row[ColTradeBuyCount] = 1
	} else {
		row[ColTradeSellQty] = qty
		row[ColTradeSellCount] = 1
	}
	slot.trades.Append(row)
}

func currentMinuteBucket(ms int64) int64 {
	const minuteMs = 60_000
	return (ms / minuteMs) * minuteMs
}

// CurrentCandle returns the newest candle row for the given key.
func (s *State) CurrentCandle(exchange, sym, timeframe string) ([]float64, error) {
	slot, err := s.lookup(Key(exchange, sym, timeframe))
	if err != nil {
		return nil, err
	}
	return slot.candles.Row(-1)
}

// CurrentTicker returns the newest ticker row for the given key.
func (s *State) CurrentTicker(exchange, sym string) ([]float64, error) {
	slot, err := s.lookup(Key(exchange, sym, ""))
	if err != nil {
		return nil, err
	}
	return slot.tickers.Row(-1)
}

// CurrentOrderbook returns the newest orderbook row for the given key.
func (s *State) CurrentOrderbook(exchange, sym string) ([]float64, error) {
	slot, err := s.lookup(Key(exchange, sym, ""))
	if err != nil {
		return nil, err
	}
	return slot.orderbook.Row(-1)
}

// CurrentTrade returns the newest trade aggregate row for the given key.
func (s *State) CurrentTrade(exchange, sym string) ([]float64, error) {
	slot, err := s.lookup(Key(exchange, sym, ""))
	if err != nil {
		return nil, err
	}
	return slot.trades.Row(-1)
}

// PastTicker returns the ticker n rows before the newest: row(-1-n),
// requiring 0 <= n <= 120.
func (s *State) PastTicker(exchange, sym string, n int) ([]float64, error) {
	if n < 0 || n > 120 {
		return nil, ring.ErrOutOfRange
	}
	slot, err := s.lookup(Key(exchange, sym, ""))
	if err != nil {
		return nil, err
	}
	return slot.tickers.Row(-1 - n)
}

// Candles returns the half-open range [from, to) of candle rows for the
// given key, for indicator consumption.
func (s *State) Candles(exchange, sym, timeframe string, from, to int) ([][]float64, error) {
	slot, err := s.lookup(Key(exchange, sym, timeframe))
	if err != nil {
		return nil, err
	}
	return slot.candles.Rows(from, to)
}

// AllCandles returns every candle row currently stored for the given key.
func (s *State) AllCandles(exchange, sym, timeframe string) ([][]float64, error) {
	slot, err := s.lookup(Key(exchange, sym, timeframe))
	if err != nil {
		return nil, err
	}
	n := slot.candles.Size()
	return slot.candles.Rows(0, n)
}
