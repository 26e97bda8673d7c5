package exchangesim

import (
	"fmt"
	"sync"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/money"
	"github.com/cipherTrader/cipher-trader/internal/order"
	"github.com/cipherTrader/cipher-trader/internal/symbol"
)

// SpotAccount implements Account for a spot exchange: a plain
// asset->balance map with no leverage. It holds a single exclusive lock
// for the entire duration of every submission or execution call.
type SpotAccount struct {
	callMu  sync.Mutex
	balanceMap
	feeRate money.Decimal
	// openSellQty tracks the sum of open SELL order quantities per symbol
	// (SELL orders of any type submitted and not yet executed or
	// cancelled), the "commitment" against
	// base balance that onOrderSubmission(SELL) checks without actually
	// transferring anything.
	openSellQty map[string]money.Decimal
}

// NewSpotAccount creates a spot account with the given fee rate (e.g.
// 0.001 for 10bps) applied on every execution.
func NewSpotAccount(feeRate money.Decimal) *SpotAccount {
	return &SpotAccount{
		balanceMap:  newBalanceMap(),
		feeRate:     feeRate,
		openSellQty: make(map[string]money.Decimal),
	}
}

func (a *SpotAccount) GetAsset(asset string) money.Decimal {
	return a.balanceMap.get(asset)
}

func (a *SpotAccount) SetAsset(asset string, amount money.Decimal) {
	a.balanceMap.set(asset, amount)
}

// GetWalletBalance has no single-currency meaning for a spot account:
// balances are per-asset, and a quote-asset lookup with no symbol to
// resolve it from is meaningless here, so it always returns zero.
// Callers on the spot side should use GetAsset directly.
func (a *SpotAccount) GetWalletBalance() money.Decimal {
	return money.Zero
}

// GetAvailableMargin is not a spot concept; always zero.
func (a *SpotAccount) GetAvailableMargin() money.Decimal {
	return money.Zero
}

// OnOrderSubmission implements the BUY/SELL submission rules.
func (a *SpotAccount) OnOrderSubmission(o *order.Order) error {
	a.callMu.Lock()
	defer a.callMu.Unlock()

	pair, err := symbol.Parse(o.Symbol)
	if err != nil {
		return fmt.Errorf("exchangesim: %w", err)
	}

	switch o.Side {
	case enum.Buy:
		var price money.Decimal
		if o.Price != nil {
			price = *o.Price
		}
		cost := o.Qty.Abs().Mul(price) // market orders carry price=0: zero deduction until fill
		quoteBal := a.balanceMap.get(pair.Quote)
		if cost.GreaterThan(quoteBal) {
			return ErrInsufficientBalance
		}
		a.balanceMap.set(pair.Quote, quoteBal.Sub(cost))
		return nil

	case enum.Sell:
		baseBal := a.balanceMap.get(pair.Base)
		committed := a.openSellQty[o.Symbol]
		if committed.Add(o.Qty.Abs()).GreaterThan(baseBal) {
			return ErrInsufficientBalance
		}
		a.openSellQty[o.Symbol] = committed.Add(o.Qty.Abs())
		return nil

	default:
		return fmt.Errorf("exchangesim: invalid order side %q", o.Side)
	}
}

// OnOrderExecution implements the BUY/SELL execution rules: BUY
// credits base at (1-fee), deducting the now-known cost for market
// orders submitted at price=0; SELL clips to what's actually available
// in base, debits base and credits quote at (1-fee).
func (a *SpotAccount) OnOrderExecution(o *order.Order, fillQty, fillPrice money.Decimal, partial bool) error {
	a.callMu.Lock()
	defer a.callMu.Unlock()

	pair, err := symbol.Parse(o.Symbol)
	if err != nil {
		return fmt.Errorf("exchangesim: %w", err)
	}
	feeFactor := money.New(1).Sub(a.feeRate)

	switch o.Side {
	case enum.Buy:
		a.balanceMap.set(pair.Base, a.balanceMap.get(pair.Base).Add(fillQty.Mul(feeFactor)))
		if o.Price == nil || o.Price.IsZero() {
			// Market order: price was unknown at submission time, so no
			// deduction happened then. Deduct the now-known cost.
			cost := fillQty.Mul(fillPrice)
			a.balanceMap.set(pair.Quote, a.balanceMap.get(pair.Quote).Sub(cost))
		}
		return nil

	case enum.Sell:
		baseBal := a.balanceMap.get(pair.Base)
		actual := fillQty
		if actual.GreaterThan(baseBal) {
			actual = baseBal
		}
		a.balanceMap.set(pair.Base, baseBal.Sub(actual))
		proceeds := actual.Mul(fillPrice).Mul(feeFactor)
		a.balanceMap.set(pair.Quote, a.balanceMap.get(pair.Quote).Add(proceeds))

		remaining := a.openSellQty[o.Symbol].Sub(fillQty)
		if remaining.IsNegative() {
			remaining = money.Zero
		}
		a.openSellQty[o.Symbol] = remaining
		return nil

	default:
		return fmt.Errorf("exchangesim: invalid order side %q", o.Side)
	}
}

// OnOrderCancellation implements the cancellation rules: BUY restores
// the quote reservation; SELL cancellation is a balance no-op since the
// commitment was implicit (openSellQty bookkeeping only).
func (a *SpotAccount) OnOrderCancellation(o *order.Order) error {
	a.callMu.Lock()
	defer a.callMu.Unlock()

	pair, err := symbol.Parse(o.Symbol)
	if err != nil {
		return fmt.Errorf("exchangesim: %w", err)
	}

	switch o.Side {
	case enum.Buy:
		if o.Price == nil {
			return nil
		}
		remaining := o.Qty.Abs().Sub(o.FilledQty)
		if remaining.IsNegative() {
			remaining = money.Zero
		}
		restore := remaining.Mul(*o.Price)
		a.balanceMap.set(pair.Quote, a.balanceMap.get(pair.Quote).Add(restore))
		return nil

	case enum.Sell:
		remaining := o.Qty.Abs().Sub(o.FilledQty)
		if remaining.IsNegative() {
			remaining = money.Zero
		}
		left := a.openSellQty[o.Symbol].Sub(remaining)
		if left.IsNegative() {
			left = money.Zero
		}
		a.openSellQty[o.Symbol] = left
		return nil

	default:
		return fmt.Errorf("exchangesim: invalid order side %q", o.Side)
	}
}
