// Package strategy is the dispatch façade: the single interface the
// engine calls once per candle close, and the read-only View the
// strategy reads market state through and submits orders via. Strategy
// construction and dynamic loading are out of scope; this package only
// consumes an already-built Strategy value.
package strategy

import (
	"context"
	"fmt"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/exchangesim"
	"github.com/cipherTrader/cipher-trader/internal/marketdata"
	"github.com/cipherTrader/cipher-trader/internal/money"
	"github.com/cipherTrader/cipher-trader/internal/order"
)

// Strategy is the single method a strategy author overrides: a
// long-running object whose Execute is invoked once per candle close on
// the route it's bound to.
type Strategy interface {
	Execute(ctx context.Context, view *View) error
}

// Submitter is the thin order-submission path a View delegates to once
// the bound account has accepted the order; the engine supplies one that
// records the order and persists it unless running silently.
type Submitter func(o *order.Order) error

// Canceller is the thin cancellation path a View delegates to.
type Canceller func(o *order.Order, source string) error

// View is a read-only façade over internal/marketdata for one
// routed (exchange, symbol, timeframe), plus write-access to order
// submission via the bound exchange account. Strategies never reach
// into internal/marketdata or internal/exchangesim directly — every
// access goes through this façade so the engine retains control over
// side effects (persistence, notification, balance reservation).
type View struct {
	Exchange  string
	Symbol    string
	Timeframe enum.Timeframe

	market  *marketdata.State
	account exchangesim.Account
	submit  Submitter
	cancel  Canceller
}

// New builds a View bound to one route's market data and exchange
// account.
func New(exchange, symbol string, timeframe enum.Timeframe, market *marketdata.State, account exchangesim.Account, submit Submitter, cancel Canceller) *View {
	return &View{
		Exchange:  exchange,
		Symbol:    symbol,
		Timeframe: timeframe,
		market:    market,
		account:   account,
		submit:    submit,
		cancel:    cancel,
	}
}

// CurrentCandle returns the newest candle row for the bound route.
func (v *View) CurrentCandle() ([]float64, error) {
	return v.market.CurrentCandle(v.Exchange, v.Symbol, string(v.Timeframe))
}

// CurrentTicker returns the newest ticker row for the bound symbol.
func (v *View) CurrentTicker() ([]float64, error) {
	return v.market.CurrentTicker(v.Exchange, v.Symbol)
}

// CurrentOrderbook returns the newest orderbook snapshot for the bound
// symbol.
func (v *View) CurrentOrderbook() ([]float64, error) {
	return v.market.CurrentOrderbook(v.Exchange, v.Symbol)
}

// CurrentTrade returns the newest trade aggregate for the bound symbol.
func (v *View) CurrentTrade() ([]float64, error) {
	return v.market.CurrentTrade(v.Exchange, v.Symbol)
}

// PastTicker returns the ticker n rows before the newest.
func (v *View) PastTicker(n int) ([]float64, error) {
	return v.market.PastTicker(v.Exchange, v.Symbol, n)
}

// Candles returns the half-open range [from, to) of candle rows, for
// indicator consumption.
func (v *View) Candles(from, to int) ([][]float64, error) {
	return v.market.Candles(v.Exchange, v.Symbol, string(v.Timeframe), from, to)
}

// AllCandles returns every candle row currently stored for the bound
// route.
func (v *View) AllCandles() ([][]float64, error) {
	return v.market.AllCandles(v.Exchange, v.Symbol, string(v.Timeframe))
}

// Balance returns the bound account's current balance of asset (spot:
// per-asset balance; futures: meaningless per-asset, use WalletBalance).
func (v *View) Balance(asset string) money.Decimal {
	return v.account.GetAsset(asset)
}

// WalletBalance returns the bound account's settlement-currency wallet
// balance (futures) or zero (spot, which has no single balance).
func (v *View) WalletBalance() money.Decimal {
	return v.account.GetWalletBalance()
}

// AvailableMargin returns the bound account's available margin (futures
// only; always zero for spot).
func (v *View) AvailableMargin() money.Decimal {
	return v.account.GetAvailableMargin()
}

// SubmitOrder reserves balance/margin against the bound exchange
// account and, if accepted, forwards the order through the engine's
// Submitter (which records it; no order is sent to a real exchange).
func (v *View) SubmitOrder(o *order.Order) error {
	if o.Exchange != v.Exchange || o.Symbol != v.Symbol {
		return fmt.Errorf("strategy: order %s/%s does not match view's bound route %s/%s", o.Exchange, o.Symbol, v.Exchange, v.Symbol)
	}
	if err := v.account.OnOrderSubmission(o); err != nil {
		return err
	}
	if v.submit == nil {
		return nil
	}
	return v.submit(o)
}

// CancelOrder cancels o, restoring any balance/margin reservation held
// against it.
func (v *View) CancelOrder(o *order.Order, source string) error {
	if v.cancel == nil {
		return nil
	}
	return v.cancel(o, source)
}
