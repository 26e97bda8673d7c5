// Package exchangesim implements the spot and futures exchange
// simulator: per-asset balance maps, margin reservation, fee
// application on execution, and partial-fill clipping. Both variants
// share the Account contract; spot.go and futures.go hold the
// variant-specific state, with this file holding what they share.
package exchangesim

import (
	"errors"
	"sync"

	"github.com/cipherTrader/cipher-trader/internal/money"
	"github.com/cipherTrader/cipher-trader/internal/order"
)

var (
	// ErrInsufficientBalance is raised by the spot variant when a BUY's
	// cost exceeds available quote balance, or a SELL's committed
	// quantity would exceed available base balance.
	ErrInsufficientBalance = errors.New("exchangesim: insufficient balance")
	// ErrInsufficientMargin is raised by the futures variant when an
	// order's required margin exceeds available margin.
	ErrInsufficientMargin = errors.New("exchangesim: insufficient margin")
	// ErrInvalidOrderForExchange covers exchange-level order rejections,
	// e.g. a reduce-only BUY against a zero or long position.
	ErrInvalidOrderForExchange = errors.New("exchangesim: invalid order for exchange")
	// ErrNotLiveTrading is the sentinel for a stream update arriving when
	// the engine is not in a live trading mode; no code in this module
	// returns it.
	ErrNotLiveTrading = errors.New("exchangesim: not live trading")
)

// Account is the shared contract both exchange variants implement. All
// balance mutations under an Account hold a single per-instance lock for
// the entire duration of a submission or execution call, preserving
// sum(balances) + reserved == wallet_balance.
type Account interface {
	OnOrderSubmission(o *order.Order) error
	OnOrderExecution(o *order.Order, fillQty, fillPrice money.Decimal, partial bool) error
	OnOrderCancellation(o *order.Order) error
	GetAsset(asset string) money.Decimal
	SetAsset(asset string, amount money.Decimal)
	GetWalletBalance() money.Decimal
	GetAvailableMargin() money.Decimal
}

// balanceMap is the small mutex-protected map both variants embed.
type balanceMap struct {
	mu       sync.Mutex
	balances map[string]money.Decimal
}

func newBalanceMap() balanceMap {
	return balanceMap{balances: make(map[string]money.Decimal)}
}

func (b *balanceMap) get(asset string) money.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[asset]
}

func (b *balanceMap) set(asset string, amount money.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[asset] = amount
}
