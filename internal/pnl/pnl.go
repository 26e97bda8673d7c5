// Package pnl implements realized/unrealized PNL math and
// triangular-arbitrage evaluation. Every calculation runs on
// money.Decimal, never float64, so fee-aware PNL never drifts across a
// long backtest.
package pnl

import (
	"errors"
	"fmt"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/money"
)

var (
	// ErrZeroQuantity is returned by any estimator given a zero qty.
	ErrZeroQuantity = errors.New("pnl: quantity must be non-zero")
	// ErrInvalidSide is returned when position type isn't long or short.
	ErrInvalidSide = errors.New("pnl: invalid position type")
	// ErrZeroEntry is returned by EstimatePNLPercentage when entry is zero.
	ErrZeroEntry = errors.New("pnl: entry price must be non-zero")
)

// EstimatePNL computes realized PNL for a position of the given side that
// opened at entry and closed at exit: |qty| * (exit - entry) * direction
// - feeRate * |qty| * (entry + exit), where direction is +1 for long and
// -1 for short.
func EstimatePNL(qty, entry, exit money.Decimal, side enum.PositionType, feeRate money.Decimal) (money.Decimal, error) {
	if qty.IsZero() {
		return money.Zero, ErrZeroQuantity
	}
	if side != enum.Long && side != enum.Short {
		return money.Zero, ErrInvalidSide
	}
	absQty := qty.Abs()
	direction := money.New(float64(side.Direction()))
	gross := absQty.Mul(exit.Sub(entry)).Mul(direction)
	fees := feeRate.Mul(absQty).Mul(entry.Add(exit))
	return gross.Sub(fees), nil
}

// EstimatePNLPercentage computes PNL as a percentage of the opening
// notional: pnl / (|qty| * entry) * 100.
func EstimatePNLPercentage(qty, entry, exit money.Decimal, side enum.PositionType, feeRate money.Decimal) (money.Decimal, error) {
	if qty.IsZero() {
		return money.Zero, ErrZeroQuantity
	}
	if entry.IsZero() {
		return money.Zero, ErrZeroEntry
	}
	p, err := EstimatePNL(qty, entry, exit, side, feeRate)
	if err != nil {
		return money.Zero, err
	}
	notional := qty.Abs().Mul(entry)
	return p.Div(notional).Mul(money.New(100)), nil
}

// EstimateAveragePrice folds a new fill (orderQty, orderPrice) into an
// existing position (curQty, curPrice), returning the quantity-weighted
// average price using absolute quantities. Fails if the combined
// quantity is zero.
func EstimateAveragePrice(orderQty, orderPrice, curQty, curPrice money.Decimal) (money.Decimal, error) {
	absOrder := orderQty.Abs()
	absCur := curQty.Abs()
	totalQty := absOrder.Add(absCur)
	if totalQty.IsZero() {
		return money.Zero, ErrZeroQuantity
	}
	weighted := absOrder.Mul(orderPrice).Add(absCur.Mul(curPrice))
	return weighted.Div(totalQty), nil
}

// Snapshot is one leg's best bid/ask, the shape the exchange-adapter
// boundary hands the core for a single market.
type Snapshot struct {
	BestBid money.Decimal
	BestAsk money.Decimal
}

// ArbitrageResult reports the winning triangular-arbitrage path and its
// profit percentage.
type ArbitrageResult struct {
	Path      []string
	ProfitPct money.Decimal
}

// TriangularArbitrage evaluates both rotation directions of a three-market
// triangle A-B, B-C, C-A and returns whichever is more profitable.
//
// dataAB/dataBC/dataCA are best bid/ask snapshots for the A/B, B/C, and
// C/A markets. start is the starting notional in asset A. feePct is a
// percentage (e.g. 0.1 for 0.1%) applied after every conversion leg.
//
// Forward path: A -> B -> C -> A, buying B with A (pay ask), buying C
// with B (pay ask), selling C for A (hit bid on the C-A market, i.e.
// buying A with C is equivalent to selling C at the C-A bid).
// Reverse path: A -> C -> B -> A, the mirror image.
func TriangularArbitrage(dataAB, dataBC, dataCA Snapshot, start, feePct money.Decimal) (ArbitrageResult, error) {
	if start.IsZero() || start.IsNegative() {
		return ArbitrageResult{}, fmt.Errorf("pnl: starting notional must be positive")
	}
	feeFactor := money.New(1).Sub(feePct.Div(money.New(100)))

	// Forward: A -> B (buy B at AB ask) -> C (buy C at BC ask) -> A (sell C at CA bid).
	bFromA := start.Div(dataAB.BestAsk).Mul(feeFactor)
	cFromB := bFromA.Div(dataBC.BestAsk).Mul(feeFactor)
	aForward := cFromB.Mul(dataCA.BestBid).Mul(feeFactor)

	// Reverse: A -> C (buy C at CA ask) -> B (sell C at BC bid, i.e. buy B with C) -> A (sell B at AB bid).
	cFromA := start.Div(dataCA.BestAsk).Mul(feeFactor)
	bFromC := cFromA.Mul(dataBC.BestBid).Mul(feeFactor)
	aReverse := bFromC.Mul(dataAB.BestBid).Mul(feeFactor)

	forwardPct := aForward.Sub(start).Div(start).Mul(money.New(100))
	reversePct := aReverse.Sub(start).Div(start).Mul(money.New(100))

	if forwardPct.GreaterThanOrEqual(reversePct) {
		return ArbitrageResult{Path: []string{"A", "B", "C", "A"}, ProfitPct: forwardPct}, nil
	}
	return ArbitrageResult{Path: []string{"A", "C", "B", "A"}, ProfitPct: reversePct}, nil
}
