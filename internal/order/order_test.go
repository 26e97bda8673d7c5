package order

import (
	"errors"
	"testing"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/money"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := New("binance", "BTC-USDT", enum.Buy, enum.Limit, money.New(1), ptr(money.New(100)), false, 1000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func ptr(d money.Decimal) *money.Decimal { return &d }

func TestExecutePartiallyTwiceAccumulatesFill(t *testing.T) {
	o := newTestOrder(t)
	if err := o.Activate(NullNotifier{}, NotificationFlags{}); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	var hookCalls []money.Decimal
	hook := ExecutionHook(func(o *Order, fillQty, fillPrice money.Decimal, partial bool) {
		hookCalls = append(hookCalls, fillQty)
	})

	if err := o.ExecutePartially(1001, money.New(0.3), money.New(100), hook, NullNotifier{}, NotificationFlags{}); err != nil {
		t.Fatalf("first ExecutePartially: %v", err)
	}
	if o.Status != enum.StatusPartiallyFilled {
		t.Fatalf("status = %v, want partially_filled", o.Status)
	}
	if !o.FilledQty.Equal(money.New(0.3)) {
		t.Fatalf("filled_qty = %v, want 0.3", o.FilledQty)
	}

	// A second partial-fill update for the same order must not be
	// rejected by the transition table — this is the normal case of
	// an order filling incrementally across multiple exchange updates.
	if err := o.ExecutePartially(1002, money.New(0.4), money.New(101), hook, NullNotifier{}, NotificationFlags{}); err != nil {
		t.Fatalf("second ExecutePartially: %v", err)
	}
	if o.Status != enum.StatusPartiallyFilled {
		t.Fatalf("status = %v, want partially_filled", o.Status)
	}
	if !o.FilledQty.Equal(money.New(0.7)) {
		t.Fatalf("filled_qty = %v, want 0.7", o.FilledQty)
	}

	if len(hookCalls) != 2 {
		t.Fatalf("hook called %d times, want 2", len(hookCalls))
	}
	if !hookCalls[0].Equal(money.New(0.3)) || !hookCalls[1].Equal(money.New(0.4)) {
		t.Fatalf("hook fill quantities = %v, want [0.3 0.4]", hookCalls)
	}
}

func TestExecutePartiallyThenExecuteClosesOrder(t *testing.T) {
	o := newTestOrder(t)
	if err := o.Activate(NullNotifier{}, NotificationFlags{}); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := o.ExecutePartially(1001, money.New(0.5), money.New(100), nil, NullNotifier{}, NotificationFlags{}); err != nil {
		t.Fatalf("ExecutePartially: %v", err)
	}
	if err := o.Execute(1002, money.New(100), nil, NullNotifier{}, NotificationFlags{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if o.Status != enum.StatusExecuted {
		t.Fatalf("status = %v, want executed", o.Status)
	}
	if !o.FilledQty.Equal(money.New(1)) {
		t.Fatalf("filled_qty = %v, want 1", o.FilledQty)
	}
}

func TestExecutePartiallyRejectsFromQueued(t *testing.T) {
	o := newTestOrder(t)
	err := o.ExecutePartially(1001, money.New(0.5), money.New(100), nil, NullNotifier{}, NotificationFlags{})
	if !errors.Is(err, ErrInvalidOrderTransition) {
		t.Fatalf("err = %v, want ErrInvalidOrderTransition", err)
	}
}

func TestExecutePartiallyRejectsOverfill(t *testing.T) {
	o := newTestOrder(t)
	if err := o.Activate(NullNotifier{}, NotificationFlags{}); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	err := o.ExecutePartially(1001, money.New(1.5), money.New(100), nil, NullNotifier{}, NotificationFlags{})
	if err == nil {
		t.Fatal("expected an error when the fill would exceed order quantity")
	}
}
