// Package feed is a demo exchange-adapter exercising the external
// boundary end-to-end for cmd/cipher-live: an auto-reconnecting
// WebSocket feed with exponential backoff, ping keepalive, and read
// deadlines, dispatching a generic envelope (ticker, candle, orderbook,
// order) into internal/marketdata and internal/order.
//
// This is explicitly a demo adapter. A production deployment swaps it
// for a real venue's WebSocket client behind the same callback shape.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cipherTrader/cipher-trader/internal/marketdata"
)

const (
	pingInterval     = 50 * time.Second
	readTimeout      = 90 * time.Second
	maxReconnectWait = 30 * time.Second
	writeTimeout     = 10 * time.Second
)

// OrderUpdate is the wire shape of onOrderUpdate: the exchange's
// feedback on an order the engine previously submitted.
type OrderUpdate struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	FilledQty  float64 `json:"filled_qty"`
	ExchangeID string `json:"exchange_id"`
	ExecutedAt *int64 `json:"executed_at"`
	CanceledAt *int64 `json:"canceled_at"`
	FillPrice  float64 `json:"fill_price"`
}

// envelope is peeked at to route an inbound message to its handler by
// its event type.
type envelope struct {
	Type string `json:"type"`
}

type tickerMsg struct {
	Exchange  string  `json:"exchange"`
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"ts"`
	Last      float64 `json:"last_price"`
	Volume    float64 `json:"volume"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
}

type candleMsg struct {
	Exchange  string  `json:"exchange"`
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Timestamp int64   `json:"ts"`
	Open      float64 `json:"open"`
	Close     float64 `json:"close"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Volume    float64 `json:"volume"`
}

type orderbookMsg struct {
	Exchange  string      `json:"exchange"`
	Symbol    string      `json:"symbol"`
	Timestamp int64       `json:"ts"`
	Bids      [][2]string `json:"bids"`
	Asks      [][2]string `json:"asks"`
}

type tradeMsg struct {
	Exchange  string  `json:"exchange"`
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"ts"`
	Price     float64 `json:"price"`
	Qty       float64 `json:"qty"`
	IsBuy     bool    `json:"is_buy"`
}

// OnCandleClosed is invoked after a candle row has been appended to
// internal/marketdata, letting the engine dispatch the bound strategy's
// Execute call for that (exchange, symbol, timeframe).
type OnCandleClosed func(exchange, symbol, timeframe string, timestampMs int64)

// Feed maintains one auto-reconnecting WebSocket connection to a
// generic exchange's streaming endpoint, feeding every decoded message
// into internal/marketdata and, for order events, into the supplied
// callback for the engine to dispatch to internal/order.
type Feed struct {
	url    string
	connMu sync.Mutex
	conn   *websocket.Conn

	market         *marketdata.State
	onOrderUpdate  func(OrderUpdate)
	onCandleClosed OnCandleClosed

	logger *slog.Logger
}

// New builds a Feed that writes into market and forwards order
// feedback to onOrderUpdate.
func New(url string, market *marketdata.State, onOrderUpdate func(OrderUpdate), onCandleClosed OnCandleClosed, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		url:            url,
		market:         market,
		onOrderUpdate:  onOrderUpdate,
		onCandleClosed: onCandleClosed,
		logger:         logger.With("component", "feed"),
	}
}

// Run connects and maintains the WebSocket connection with exponential
// backoff (1s -> 30s). Blocks until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := f.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("feed disconnected, reconnecting", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

// Close closes the underlying connection, if any.
func (f *Feed) Close() error {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}

func (f *Feed) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("feed: dial: %w", err)
	}
	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()
	defer func() {
		f.connMu.Lock()
		conn.Close()
		f.conn = nil
		f.connMu.Unlock()
	}()

	f.logger.Info("feed connected", "url", f.url)

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go f.pingLoop(pingCtx)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read: %w", err)
		}
		f.dispatch(msg)
	}
}

func (f *Feed) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.writeMessage(websocket.PingMessage, nil); err != nil {
				f.logger.Warn("feed ping failed", "error", err)
				return
			}
		}
	}
}

func (f *Feed) writeMessage(msgType int, data []byte) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil {
		return fmt.Errorf("feed: not connected")
	}
	f.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return f.conn.WriteMessage(msgType, data)
}

func (f *Feed) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		f.logger.Debug("feed: ignoring non-json message")
		return
	}

	switch env.Type {
	case "ticker":
		var m tickerMsg
		if err := json.Unmarshal(data, &m); err != nil {
			f.logger.Error("feed: unmarshal ticker", "error", err)
			return
		}
		f.market.AddTicker(m.Exchange, m.Symbol, m.Timestamp, m.Last, m.Volume, m.High, m.Low)

	case "candle":
		var m candleMsg
		if err := json.Unmarshal(data, &m); err != nil {
			f.logger.Error("feed: unmarshal candle", "error", err)
			return
		}
		f.market.AddCandle(m.Exchange, m.Symbol, m.Timeframe, m.Timestamp, m.Open, m.Close, m.High, m.Low, m.Volume)
		if f.onCandleClosed != nil {
			f.onCandleClosed(m.Exchange, m.Symbol, m.Timeframe, m.Timestamp)
		}

	case "orderbook":
		var m orderbookMsg
		if err := json.Unmarshal(data, &m); err != nil {
			f.logger.Error("feed: unmarshal orderbook", "error", err)
			return
		}
		bestBid, bestAsk := bestOf(m.Bids), bestOf(m.Asks)
		f.market.AddOrderbook(m.Exchange, m.Symbol, m.Timestamp, bestBid, bestAsk)

	case "trade":
		var m tradeMsg
		if err := json.Unmarshal(data, &m); err != nil {
			f.logger.Error("feed: unmarshal trade", "error", err)
			return
		}
		f.market.AddTrade(m.Exchange, m.Symbol, m.Timestamp, m.Price, m.IsBuy, m.Qty)

	case "order":
		var m OrderUpdate
		if err := json.Unmarshal(data, &m); err != nil {
			f.logger.Error("feed: unmarshal order update", "error", err)
			return
		}
		if f.onOrderUpdate != nil {
			f.onOrderUpdate(m)
		}

	default:
		f.logger.Debug("feed: unknown message type", "type", env.Type)
	}
}

// bestOf extracts arr[0][0] of a bid/ask ladder as a float, the best
// price on that side. Returns 0 if the ladder is empty or malformed.
func bestOf(ladder [][2]string) float64 {
	if len(ladder) == 0 {
		return 0
	}
	var f float64
	_, err := fmt.Sscanf(ladder[0][0], "%g", &f)
	if err != nil {
		return 0
	}
	return f
}
