package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/exchangesim"
	"github.com/cipherTrader/cipher-trader/internal/marketdata"
	"github.com/cipherTrader/cipher-trader/internal/money"
	"github.com/cipherTrader/cipher-trader/internal/order"
)

func newTestView(submit Submitter, cancel Canceller) *View {
	market := marketdata.New(1)
	account := exchangesim.NewSpotAccount(money.Zero)
	account.SetAsset("USDT", money.New(10_000))
	return New("binance", "BTC-USDT", enum.TF1m, market, account, submit, cancel)
}

func TestViewCurrentCandleReflectsLatestAdd(t *testing.T) {
	market := marketdata.New(1)
	account := exchangesim.NewSpotAccount(money.Zero)
	v := New("binance", "BTC-USDT", enum.TF1m, market, account, nil, nil)

	market.AddCandle("binance", "BTC-USDT", "1m", 1000, 100, 110, 115, 95, 42)

	candle, err := v.CurrentCandle()
	require.NoError(t, err)
	assert.Equal(t, float64(110), candle[2]) // close
}

func TestViewBalanceReadsThroughToAccount(t *testing.T) {
	market := marketdata.New(1)
	account := exchangesim.NewSpotAccount(money.Zero)
	account.SetAsset("USDT", money.New(500))
	v := New("binance", "BTC-USDT", enum.TF1m, market, account, nil, nil)

	assert.True(t, v.Balance("USDT").Equal(money.New(500)))
}

func TestViewSubmitOrderRejectsMismatchedRoute(t *testing.T) {
	called := false
	v := newTestView(func(o *order.Order) error { called = true; return nil }, nil)

	o, err := order.New("kraken", "ETH-USDT", enum.Buy, enum.Market, money.New(1), nil, false, 1000)
	require.NoError(t, err)

	err = v.SubmitOrder(o)
	assert.Error(t, err)
	assert.False(t, called, "submitter must not run when the order's route doesn't match the view")
}

func TestViewSubmitOrderReservesBalanceThenDelegates(t *testing.T) {
	var submitted *order.Order
	v := newTestView(func(o *order.Order) error { submitted = o; return nil }, nil)

	price := money.New(100)
	o, err := order.New("binance", "BTC-USDT", enum.Buy, enum.Limit, money.New(1), &price, false, 1000)
	require.NoError(t, err)

	require.NoError(t, v.SubmitOrder(o))
	assert.Same(t, o, submitted)
}

func TestViewCancelOrderDelegatesToCanceller(t *testing.T) {
	var canceledSource string
	v := newTestView(nil, func(o *order.Order, source string) error {
		canceledSource = source
		return nil
	})

	o, err := order.New("binance", "BTC-USDT", enum.Buy, enum.Market, money.New(1), nil, false, 1000)
	require.NoError(t, err)

	require.NoError(t, v.CancelOrder(o, "manual"))
	assert.Equal(t, "manual", canceledSource)
}

func TestViewCancelOrderNoopWithoutCanceller(t *testing.T) {
	v := newTestView(nil, nil)
	o, err := order.New("binance", "BTC-USDT", enum.Buy, enum.Market, money.New(1), nil, false, 1000)
	require.NoError(t, err)
	assert.NoError(t, v.CancelOrder(o, "manual"))
}

func TestViewCurrentCandleErrorsOnUnknownRoute(t *testing.T) {
	v := newTestView(nil, nil)
	_, err := v.CurrentCandle()
	assert.Error(t, err, "no candle has been added yet for this route")
}

func TestNoopStrategySatisfiesInterface(t *testing.T) {
	var s Strategy = noopStrategyForTest{}
	assert.NoError(t, s.Execute(context.Background(), newTestView(nil, nil)))
}

type noopStrategyForTest struct{}

func (noopStrategyForTest) Execute(ctx context.Context, view *View) error { return nil }
