package exchangesim

import (
	"fmt"
	"sync"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/money"
	"github.com/cipherTrader/cipher-trader/internal/order"
	"github.com/cipherTrader/cipher-trader/internal/pnl"
)

// Position is a single symbol's open futures position.
type Position struct {
	Symbol     string
	Type       enum.PositionType
	Qty        money.Decimal // unsigned magnitude
	EntryPrice money.Decimal
	Leverage   int
}

// FuturesAccount implements Account for a futures exchange: a single
// settlement-currency wallet balance, per-order reserved margin, and a
// per-symbol position tracker. Realized PNL flows through internal/pnl.
type FuturesAccount struct {
	callMu        sync.Mutex
	walletBalance money.Decimal
	feeRate       money.Decimal
	defaultLev    int
	reserved      map[string]money.Decimal // by order id
	leverage      map[string]int           // by symbol, overrides defaultLev
	positions     map[string]*Position     // by symbol
}

// NewFuturesAccount creates a futures account with the given starting
// wallet balance, fee rate, and default leverage (used when no
// per-symbol override is set via SetLeverage).
func NewFuturesAccount(walletBalance, feeRate money.Decimal, defaultLeverage int) *FuturesAccount {
	if defaultLeverage <= 0 {
		defaultLeverage = 1
	}
	return &FuturesAccount{
		walletBalance: walletBalance,
		feeRate:       feeRate,
		defaultLev:    defaultLeverage,
		reserved:      make(map[string]money.Decimal),
		leverage:      make(map[string]int),
		positions:     make(map[string]*Position),
	}
}

// SetLeverage overrides the leverage used for margin reservation on a
// given symbol.
func (a *FuturesAccount) SetLeverage(symbol string, leverage int) {
	a.callMu.Lock()
	defer a.callMu.Unlock()
	a.leverage[symbol] = leverage
}

func (a *FuturesAccount) leverageFor(symbol string) int {
	if lev, ok := a.leverage[symbol]; ok && lev > 0 {
		return lev
	}
	return a.defaultLev
}

func (a *FuturesAccount) GetAsset(asset string) money.Decimal {
	a.callMu.Lock()
	defer a.callMu.Unlock()
	return a.walletBalance
}

func (a *FuturesAccount) SetAsset(asset string, amount money.Decimal) {
	a.callMu.Lock()
	defer a.callMu.Unlock()
	a.walletBalance = amount
}

func (a *FuturesAccount) GetWalletBalance() money.Decimal {
	a.callMu.Lock()
	defer a.callMu.Unlock()
	return a.walletBalance
}

// GetAvailableMargin returns wallet balance minus the sum of all
// currently reserved margin.
func (a *FuturesAccount) GetAvailableMargin() money.Decimal {
	a.callMu.Lock()
	defer a.callMu.Unlock()
	return a.availableMarginLocked()
}

func (a *FuturesAccount) availableMarginLocked() money.Decimal {
	total := a.walletBalance
	for _, r := range a.reserved {
		total = total.Sub(r)
	}
	return total
}

// OnOrderSubmission reserves margin = qty*price/leverage and rejects
// reduce-only orders that would flip the position's direction rather
// than shrink it.
func (a *FuturesAccount) OnOrderSubmission(o *order.Order) error {
	a.callMu.Lock()
	defer a.callMu.Unlock()

	if o.ReduceOnly {
		pos := a.positions[o.Symbol]
		if !reduceOnlyValid(pos, o.Side) || o.Qty.Abs().GreaterThan(pos.Qty.Abs()) {
			return ErrInvalidOrderForExchange
		}
	}

	var price money.Decimal
	if o.Price != nil {
		price = *o.Price
	}
	leverage := a.leverageFor(o.Symbol)
	margin := o.Qty.Abs().Mul(price).Div(money.New(float64(leverage)))

	if margin.GreaterThan(a.availableMarginLocked()) {
		return ErrInsufficientMargin
	}
	a.reserved[o.ID.String()] = margin
	return nil
}

// reduceOnlyValid reports whether a reduce-only order of the given side
// points against the current open position; the caller bounds its
// quantity by the position size so that it never flips the position.
func reduceOnlyValid(pos *Position, side enum.OrderSide) bool {
	if pos == nil || pos.Qty.IsZero() {
		return false
	}
	if side == enum.Buy {
		return pos.Type == enum.Short
	}
	return pos.Type == enum.Long
}

// OnOrderExecution applies fees, realizes PNL on position reductions via
// internal/pnl, opens/extends positions on same-direction fills, and
// releases reserved margin proportionally to the filled fraction (the
// Open Questions resolution: released = reserved * filledFraction).
func (a *FuturesAccount) OnOrderExecution(o *order.Order, fillQty, fillPrice money.Decimal, partial bool) error {
	a.callMu.Lock()
	defer a.callMu.Unlock()

	key := o.ID.String()
	reserved := a.reserved[key]
	totalQty := o.Qty.Abs()
	filledFraction := money.New(1)
	if !totalQty.IsZero() {
		filledFraction = fillQty.Div(totalQty)
	}
	released := reserved.Mul(filledFraction)
	a.reserved[key] = reserved.Sub(released)
	if !partial {
		delete(a.reserved, key)
	}

	fee := fillQty.Mul(fillPrice).Mul(a.feeRate)
	a.walletBalance = a.walletBalance.Sub(fee)

	pos := a.positions[o.Symbol]
	fillSide := enum.Long
	if o.Side == enum.Sell {
		fillSide = enum.Short
	}

	if pos == nil || pos.Qty.IsZero() {
		a.positions[o.Symbol] = &Position{
			Symbol:     o.Symbol,
			Type:       fillSide,
			Qty:        fillQty,
			EntryPrice: fillPrice,
			Leverage:   a.leverageFor(o.Symbol),
		}
		return nil
	}

	if pos.Type == fillSide {
		// Same-direction fill: extend the position, averaging entry.
		avg, err := pnl.EstimateAveragePrice(fillQty, fillPrice, pos.Qty, pos.EntryPrice)
		if err != nil {
			return fmt.Errorf("exchangesim: %w", err)
		}
		pos.Qty = pos.Qty.Add(fillQty)
		pos.EntryPrice = avg
		return nil
	}

	// Opposite-direction fill: reduces (or flips) the position. Realize
	// PNL on the reduced portion.
	closeQty := fillQty
	if closeQty.GreaterThan(pos.Qty) {
		closeQty = pos.Qty
	}
	realized, err := pnl.EstimatePNL(closeQty, pos.EntryPrice, fillPrice, pos.Type, money.Zero)
	if err != nil {
		return fmt.Errorf("exchangesim: %w", err)
	}
	a.walletBalance = a.walletBalance.Add(realized)
	pos.Qty = pos.Qty.Sub(closeQty)

	leftover := fillQty.Sub(closeQty)
	if pos.Qty.IsZero() && leftover.GreaterThan(money.Zero) {
		// Flip: the excess opens a new position in the fill's direction.
		pos.Type = fillSide
		pos.Qty = leftover
		pos.EntryPrice = fillPrice
	}
	return nil
}

// OnOrderCancellation restores the order's reserved margin in full.
func (a *FuturesAccount) OnOrderCancellation(o *order.Order) error {
	a.callMu.Lock()
	defer a.callMu.Unlock()
	delete(a.reserved, o.ID.String())
	return nil
}

// PositionFor returns a copy of the current position for a symbol, or
// the zero Position if flat.
func (a *FuturesAccount) PositionFor(symbol string) Position {
	a.callMu.Lock()
	defer a.callMu.Unlock()
	if p, ok := a.positions[symbol]; ok {
		return *p
	}
	return Position{Symbol: symbol}
}
