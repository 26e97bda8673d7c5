// Package enum defines the closed vocabularies shared across the engine:
// exchange type, order side/type/status, position type, timeframe,
// trade type, candle source, log level, and trading mode. Each is a typed
// string so invalid values can't silently compile in from a literal typo,
// and each carries the small lookup tables (valid sets, ordering) that
// the rest of the engine needs.
package enum

import "fmt"

// OrderSide is buy or sell.
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// Sign returns +1 for Buy and -1 for Sell, used to build signed
// quantities (e.g. remaining order quantity).
func (s OrderSide) Sign() int {
	if s == Sell {
		return -1
	}
	return 1
}

func (s OrderSide) Valid() bool {
	return s == Buy || s == Sell
}

// OrderType is the order's execution style.
type OrderType string

const (
	Market    OrderType = "market"
	Limit     OrderType = "limit"
	Stop      OrderType = "stop"
	StopLimit OrderType = "stop_limit"
	FOK       OrderType = "fok"
)

// RequiresPrice reports whether this order type must carry a price.
func (t OrderType) RequiresPrice() bool {
	switch t {
	case Limit, Stop, StopLimit:
		return true
	default:
		return false
	}
}

func (t OrderType) Valid() bool {
	switch t {
	case Market, Limit, Stop, StopLimit, FOK:
		return true
	default:
		return false
	}
}

// OrderStatus is the order lifecycle state; see internal/order for the
// transition machine that mutates it.
type OrderStatus string

const (
	StatusQueued           OrderStatus = "queued"
	StatusActive           OrderStatus = "active"
	StatusPartiallyFilled  OrderStatus = "partially_filled"
	StatusExecuted         OrderStatus = "executed"
	StatusCanceled         OrderStatus = "canceled"
	StatusRejected         OrderStatus = "rejected"
	StatusLiquidated       OrderStatus = "liquidated"
)

// Terminal reports whether no further transitions are permitted from this
// status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusExecuted, StatusCanceled, StatusRejected, StatusLiquidated:
		return true
	default:
		return false
	}
}

// SubmittedVia records which automatic order placed the order, if any.
type SubmittedVia string

const (
	SubmittedViaNone       SubmittedVia = ""
	SubmittedViaStopLoss   SubmittedVia = "stop_loss"
	SubmittedViaTakeProfit SubmittedVia = "take_profit"
)

// PositionType is long or short.
type PositionType string

const (
	Long  PositionType = "long"
	Short PositionType = "short"
)

// Direction returns +1 for Long and -1 for Short, used in PNL math.
func (p PositionType) Direction() int {
	if p == Short {
		return -1
	}
	return 1
}

// TradeType mirrors OrderSide for aggregate trade records (buy/sell
// pressure), kept distinct because it labels market data, not an order.
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// CandleSource selects which derived series an indicator reads from a
// candle matrix.
type CandleSource string

const (
	SourceClose CandleSource = "close"
	SourceOpen  CandleSource = "open"
	SourceHigh  CandleSource = "high"
	SourceLow   CandleSource = "low"
	SourceVolume CandleSource = "volume"
	SourceHL2   CandleSource = "hl2"
	SourceHLC3  CandleSource = "hlc3"
	SourceOHLC4 CandleSource = "ohlc4"
)

// LogLevel is the core's logging verbosity vocabulary, independent of
// whatever slog handler the embedding binary configures.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// TradingMode is the process-wide mode flag. See internal/mode for the
// switch that holds the active value and its derived predicates.
type TradingMode string

const (
	ModeBacktest    TradingMode = "backtest"
	ModeLiveTrade   TradingMode = "livetrade"
	ModePaperTrade  TradingMode = "papertrade"
	ModeCandles     TradingMode = "candles"
	ModeOptimize    TradingMode = "optimize"
)

func (m TradingMode) Valid() bool {
	switch m {
	case ModeBacktest, ModeLiveTrade, ModePaperTrade, ModeCandles, ModeOptimize:
		return true
	default:
		return false
	}
}

// ExchangeType distinguishes spot from futures exchange instances, used
// to pick the internal/exchangesim.Account implementation.
type ExchangeType string

const (
	ExchangeSpot    ExchangeType = "spot"
	ExchangeFutures ExchangeType = "futures"
)

// ErrInvalidEnum is returned by parse helpers when a string doesn't
// belong to the closed set being parsed.
type ErrInvalidEnum struct {
	Kind  string
	Value string
}

func (e *ErrInvalidEnum) Error() string {
	return fmt.Sprintf("enum: invalid %s %q", e.Kind, e.Value)
}

// ParseOrderSide validates and converts a raw string into an OrderSide.
func ParseOrderSide(raw string) (OrderSide, error) {
	s := OrderSide(raw)
	if !s.Valid() {
		return "", &ErrInvalidEnum{Kind: "order side", Value: raw}
	}
	return s, nil
}

// ParseOrderType validates and converts a raw string into an OrderType.
func ParseOrderType(raw string) (OrderType, error) {
	t := OrderType(raw)
	if !t.Valid() {
		return "", &ErrInvalidEnum{Kind: "order type", Value: raw}
	}
	return t, nil
}
