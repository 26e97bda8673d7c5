// Package order implements the order entity and its lifecycle state
// machine: queued -> active -> partially_filled -> executed | canceled,
// plus the exchange-feedback-only terminal states rejected and
// liquidated. It owns fee-free value/remaining-quantity derivations;
// fee application is internal/exchangesim's job.
package order

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/money"
)

// ErrInvalidOrderTransition is returned when a caller requests a
// transition the state machine does not permit from the order's current
// status.
var ErrInvalidOrderTransition = errors.New("order: invalid transition")

// Notifier is the single hook the core calls to announce order events.
// The core does not implement the notification transport; an embedding
// application supplies one (Slack, email, webhook, ...).
type Notifier interface {
	Notify(text string)
}

// NullNotifier discards every notification; used when no transport is
// configured.
type NullNotifier struct{}

func (NullNotifier) Notify(string) {}

// NotificationFlags mirrors the env_notifications_events_* config keys:
// whether to fire a notification for submitted/executed/canceled events.
type NotificationFlags struct {
	Submitted bool
	Executed  bool
	Canceled  bool
}

// Order is a single order's full lifecycle record.
type Order struct {
	ID            uuid.UUID
	TradeID       *uuid.UUID
	SessionID     string
	ExchangeID    string // exchange-assigned id, set once accepted
	Symbol        string
	Exchange      string
	Side          enum.OrderSide
	Type          enum.OrderType
	ReduceOnly    bool
	Qty           money.Decimal // order size; readers take Abs() and derive direction from Side
	FilledQty     money.Decimal
	Price         *money.Decimal
	Status        enum.OrderStatus
	CreatedAt     int64
	ExecutedAt    *int64
	CanceledAt    *int64
	Vars          map[string]any
	SubmittedVia  enum.SubmittedVia
}

// New constructs a fresh order in the queued state.
func New(exchange, sym string, side enum.OrderSide, typ enum.OrderType, qty money.Decimal, price *money.Decimal, reduceOnly bool, now int64) (*Order, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("order: invalid side %q", side)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("order: invalid type %q", typ)
	}
	if typ.RequiresPrice() && price == nil {
		return nil, fmt.Errorf("order: type %q requires a price", typ)
	}
	return &Order{
		ID:         uuid.New(),
		Exchange:   exchange,
		Symbol:     sym,
		Side:       side,
		Type:       typ,
		ReduceOnly: reduceOnly,
		Qty:        qty,
		FilledQty:  money.Zero,
		Price:      price,
		Status:     enum.StatusQueued,
		CreatedAt:  now,
		Vars:       make(map[string]any),
	}, nil
}

// transitions is the permitted-transition adjacency map. Rejected and
// Liquidated are reachable only through exchange feedback, modeled as
// direct status assignment by the caller (the exchange simulator) rather
// than through one of these named methods.
var transitions = map[enum.OrderStatus]map[enum.OrderStatus]bool{
	enum.StatusQueued: {
		enum.StatusActive:     true,
		enum.StatusCanceled:   true, // queueIt* -> CANCELED per the diagram's direct edge
		enum.StatusRejected:   true,
		enum.StatusLiquidated: true,
	},
	enum.StatusActive: {
		enum.StatusPartiallyFilled: true,
		enum.StatusExecuted:        true,
		enum.StatusCanceled:        true,
		enum.StatusRejected:        true,
		enum.StatusLiquidated:      true,
	},
	enum.StatusPartiallyFilled: {
		enum.StatusPartiallyFilled: true, // a later fill update partially fills it again
		enum.StatusExecuted:        true,
		enum.StatusCanceled:        true,
		enum.StatusLiquidated:      true,
	},
}

func (o *Order) canTransitionTo(target enum.OrderStatus) bool {
	allowed, ok := transitions[o.Status]
	if !ok {
		return false
	}
	return allowed[target]
}

// QueueIt moves the order to QUEUED, clearing canceled_at. This is the
// typical entry point from strategy code in live mode when funds are not
// yet ready to commit.
func (o *Order) QueueIt(notifier Notifier, flags NotificationFlags) {
	o.Status = enum.StatusQueued
	o.CanceledAt = nil
	if flags.Submitted {
		notifier.Notify(fmt.Sprintf("order %s queued: %s %s %s", o.ID, o.Side, o.Qty, o.Symbol))
	}
}

// Resubmit regenerates the order id (sidestepping exchange replay
// rejections) and moves QUEUED -> ACTIVE.
func (o *Order) Resubmit(notifier Notifier, flags NotificationFlags) error {
	if !o.canTransitionTo(enum.StatusActive) {
		return fmt.Errorf("%w: %s -> active", ErrInvalidOrderTransition, o.Status)
	}
	o.ID = uuid.New()
	o.Status = enum.StatusActive
	if flags.Submitted {
		notifier.Notify(fmt.Sprintf("order %s resubmitted active: %s %s", o.ID, o.Side, o.Symbol))
	}
	return nil
}

// Activate moves QUEUED -> ACTIVE without regenerating the id; used for
// the initial successful submission to the exchange.
func (o *Order) Activate(notifier Notifier, flags NotificationFlags) error {
	if !o.canTransitionTo(enum.StatusActive) {
		return fmt.Errorf("%w: %s -> active", ErrInvalidOrderTransition, o.Status)
	}
	o.Status = enum.StatusActive
	if flags.Submitted {
		notifier.Notify(fmt.Sprintf("order %s active: %s %s", o.ID, o.Side, o.Symbol))
	}
	return nil
}

// Cancel moves the order to CANCELED. It refuses to cancel an order
// already in CANCELED/EXECUTED/REJECTED. A source="stream" cancel
// against a QUEUED order is treated as a no-op (it protects against late
// cancel events for orders that were never actually transmitted).
func (o *Order) Cancel(source string, now int64, notifier Notifier, flags NotificationFlags) error {
	if o.Status == enum.StatusCanceled || o.Status == enum.StatusExecuted || o.Status == enum.StatusRejected {
		return fmt.Errorf("%w: %s -> canceled", ErrInvalidOrderTransition, o.Status)
	}
	if source == "stream" && o.Status == enum.StatusQueued {
		return nil
	}
	if !o.canTransitionTo(enum.StatusCanceled) {
		return fmt.Errorf("%w: %s -> canceled", ErrInvalidOrderTransition, o.Status)
	}
	o.Status = enum.StatusCanceled
	o.CanceledAt = &now
	if flags.Canceled {
		notifier.Notify(fmt.Sprintf("order %s canceled: %s", o.ID, o.Symbol))
	}
	return nil
}

// ExecutionHook is invoked after a successful Execute/ExecutePartially
// so the account simulator can apply fees, update balances, and
// attribute position changes.
type ExecutionHook func(o *Order, fillQty money.Decimal, fillPrice money.Decimal, partial bool)

// Execute fully fills the order: sets filled_qty = |qty|, executed_at =
// now, status = EXECUTED, and invokes hook for position/balance
// attribution.
func (o *Order) Execute(now int64, fillPrice money.Decimal, hook ExecutionHook, notifier Notifier, flags NotificationFlags) error {
	if !o.canTransitionTo(enum.StatusExecuted) {
		return fmt.Errorf("%w: %s -> executed", ErrInvalidOrderTransition, o.Status)
	}
	full := o.Qty.Abs()
	o.FilledQty = full
	o.ExecutedAt = &now
	o.Status = enum.StatusExecuted
	if hook != nil {
		hook(o, full, fillPrice, false)
	}
	if flags.Executed {
		notifier.Notify(fmt.Sprintf("order %s executed: %s %s @ %s", o.ID, o.Side, o.Symbol, fillPrice))
	}
	return nil
}

// ExecutePartially fills part of the order: increases filled_qty by
// addlFillQty, sets executed_at = now, status = PARTIALLY_FILLED, and
// invokes hook. addlFillQty must be > 0 and must not push filled_qty
// past |qty|.
func (o *Order) ExecutePartially(now int64, addlFillQty, fillPrice money.Decimal, hook ExecutionHook, notifier Notifier, flags NotificationFlags) error {
	if !o.canTransitionTo(enum.StatusPartiallyFilled) {
		return fmt.Errorf("%w: %s -> partially_filled", ErrInvalidOrderTransition, o.Status)
	}
	if addlFillQty.LessThanOrEqual(money.Zero) {
		return fmt.Errorf("order: partial fill quantity must be positive")
	}
	newFilled := o.FilledQty.Add(addlFillQty)
	if newFilled.GreaterThan(o.Qty.Abs()) {
		return fmt.Errorf("order: partial fill would exceed order quantity")
	}
	o.FilledQty = newFilled
	o.ExecutedAt = &now
	o.Status = enum.StatusPartiallyFilled
	if hook != nil {
		hook(o, addlFillQty, fillPrice, true)
	}
	if flags.Executed {
		notifier.Notify(fmt.Sprintf("order %s partially filled: %s %s @ %s", o.ID, o.Side, o.Symbol, fillPrice))
	}
	return nil
}

// MarkRejected sets the order to the REJECTED terminal state. Reachable
// only via exchange feedback, not through a strategy-initiated call.
func (o *Order) MarkRejected() {
	o.Status = enum.StatusRejected
}

// MarkLiquidated sets the order to the LIQUIDATED terminal state.
// Reachable only via exchange feedback.
func (o *Order) MarkLiquidated() {
	o.Status = enum.StatusLiquidated
}

// Value returns |qty| * price when a price is present, else zero. Fees
// are never subtracted here; that is the account simulator's
// responsibility.
func (o *Order) Value() money.Decimal {
	if o.Price == nil {
		return money.Zero
	}
	return o.Qty.Abs().Mul(*o.Price)
}

// RemainingQty returns the signed remaining quantity: magnitude *
// (side == buy ? +1 : -1), resolving the sign-convention ambiguity
// flagged as an open question in favor of a single consistent rule.
func (o *Order) RemainingQty() money.Decimal {
	magnitude := o.Qty.Abs().Sub(o.FilledQty)
	if magnitude.IsNegative() {
		magnitude = money.Zero
	}
	if o.Side == enum.Sell {
		return magnitude.Neg()
	}
	return magnitude
}
