package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipherTrader/cipher-trader/internal/marketdata"
)

func TestBestOfReturnsTopOfLadder(t *testing.T) {
	ladder := [][2]string{{"101.5", "2.0"}, {"101.4", "1.0"}}
	assert.Equal(t, 101.5, bestOf(ladder))
}

func TestBestOfEmptyLadderReturnsZero(t *testing.T) {
	assert.Equal(t, float64(0), bestOf(nil))
}

func TestBestOfMalformedPriceReturnsZero(t *testing.T) {
	assert.Equal(t, float64(0), bestOf([][2]string{{"not-a-number", "1.0"}}))
}

func TestDispatchTickerWritesIntoMarketData(t *testing.T) {
	market := marketdata.New(1)
	f := New("wss://example.invalid", market, nil, nil, nil)

	f.dispatch([]byte(`{"type":"ticker","exchange":"binance","symbol":"BTC-USDT","ts":1000,"last_price":50000,"volume":10,"high":50500,"low":49500}`))

	row, err := market.CurrentTicker("binance", "BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, float64(50000), row[marketdata.ColTickerLast])
}

func TestDispatchCandleInvokesOnCandleClosed(t *testing.T) {
	market := marketdata.New(1)
	var gotExchange, gotSymbol, gotTimeframe string
	var gotTs int64
	f := New("wss://example.invalid", market, nil, func(exchange, symbol, timeframe string, ts int64) {
		gotExchange, gotSymbol, gotTimeframe, gotTs = exchange, symbol, timeframe, ts
	}, nil)

	f.dispatch([]byte(`{"type":"candle","exchange":"binance","symbol":"BTC-USDT","timeframe":"1m","ts":60000,"open":100,"close":110,"high":115,"low":95,"volume":42}`))

	assert.Equal(t, "binance", gotExchange)
	assert.Equal(t, "BTC-USDT", gotSymbol)
	assert.Equal(t, "1m", gotTimeframe)
	assert.Equal(t, int64(60000), gotTs)

	row, err := market.CurrentCandle("binance", "BTC-USDT", "1m")
	require.NoError(t, err)
	assert.Equal(t, float64(110), row[marketdata.ColCandleClose])
}

func TestDispatchOrderbookUsesBestOfEachSide(t *testing.T) {
	market := marketdata.New(1)
	f := New("wss://example.invalid", market, nil, nil, nil)

	f.dispatch([]byte(`{"type":"orderbook","exchange":"binance","symbol":"BTC-USDT","ts":1000,
		"bids":[["100.1","1"],["99.9","2"]],"asks":[["100.3","1"],["100.5","2"]]}`))

	row, err := market.CurrentOrderbook("binance", "BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, 100.1, row[marketdata.ColBookBestBid])
	assert.Equal(t, 100.3, row[marketdata.ColBookBestAsk])
}

func TestDispatchOrderInvokesOnOrderUpdate(t *testing.T) {
	market := marketdata.New(1)
	var got OrderUpdate
	f := New("wss://example.invalid", market, func(u OrderUpdate) { got = u }, nil, nil)

	f.dispatch([]byte(`{"type":"order","id":"abc-123","status":"executed","filled_qty":1,"exchange_id":"ex-1","fill_price":50000}`))

	assert.Equal(t, "abc-123", got.ID)
	assert.Equal(t, "executed", got.Status)
	assert.Equal(t, float64(50000), got.FillPrice)
}

func TestDispatchIgnoresUnknownType(t *testing.T) {
	market := marketdata.New(1)
	f := New("wss://example.invalid", market, nil, nil, nil)

	assert.NotPanics(t, func() {
		f.dispatch([]byte(`{"type":"heartbeat"}`))
	})
}

func TestDispatchIgnoresNonJSON(t *testing.T) {
	market := marketdata.New(1)
	f := New("wss://example.invalid", market, nil, nil, nil)

	assert.NotPanics(t, func() {
		f.dispatch([]byte(`not json`))
	})
}
