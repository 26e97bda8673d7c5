package exchangesim

import (
	"testing"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/money"
	"github.com/cipherTrader/cipher-trader/internal/order"
)

func TestFuturesMarginReservation(t *testing.T) {
	acc := NewFuturesAccount(money.New(10000), money.New(0.001), 10)
	price := money.New(50000)
	o := mustOrder(t, "BTC-USDT", enum.Buy, money.New(1.0), &price)

	if err := acc.OnOrderSubmission(o); err != nil {
		t.Fatalf("submission: %v", err)
	}
	// margin = 1 * 50000 / 10 = 5000
	wantAvailable := money.New(5000)
	if got := acc.GetAvailableMargin(); !got.Equal(wantAvailable) {
		t.Errorf("available margin = %s, want %s", got, wantAvailable)
	}
}

func TestFuturesInsufficientMargin(t *testing.T) {
	acc := NewFuturesAccount(money.New(100), money.New(0), 10)
	price := money.New(50000)
	o := mustOrder(t, "BTC-USDT", enum.Buy, money.New(1.0), &price)

	if err := acc.OnOrderSubmission(o); err != ErrInsufficientMargin {
		t.Fatalf("got %v, want ErrInsufficientMargin", err)
	}
}

func TestFuturesCancellationReleasesMargin(t *testing.T) {
	acc := NewFuturesAccount(money.New(10000), money.New(0), 10)
	price := money.New(50000)
	o := mustOrder(t, "BTC-USDT", enum.Buy, money.New(1.0), &price)

	if err := acc.OnOrderSubmission(o); err != nil {
		t.Fatalf("submission: %v", err)
	}
	if err := acc.OnOrderCancellation(o); err != nil {
		t.Fatalf("cancellation: %v", err)
	}
	if got := acc.GetAvailableMargin(); !got.Equal(money.New(10000)) {
		t.Errorf("available margin = %s, want 10000 after cancel", got)
	}
}

func TestFuturesReduceOnlyRejectsWhenFlat(t *testing.T) {
	acc := NewFuturesAccount(money.New(10000), money.New(0), 10)
	price := money.New(100)
	o, err := order.New("binance", "BTC-USDT", enum.Buy, enum.Limit, money.New(1.0), &price, true, 1_700_000_000_000)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	// Flat position: a reduce-only BUY has nothing to reduce.
	if err := acc.OnOrderSubmission(o); err != ErrInvalidOrderForExchange {
		t.Fatalf("got %v, want ErrInvalidOrderForExchange", err)
	}
}

func TestFuturesRealizesPNLOnClose(t *testing.T) {
	acc := NewFuturesAccount(money.New(10000), money.New(0), 10)
	entryPrice := money.New(100)
	openOrder := mustOrder(t, "BTC-USDT", enum.Buy, money.New(1.0), &entryPrice)
	if err := acc.OnOrderSubmission(openOrder); err != nil {
		t.Fatalf("submission: %v", err)
	}
	if err := acc.OnOrderExecution(openOrder, money.New(1.0), entryPrice, false); err != nil {
		t.Fatalf("execution: %v", err)
	}

	exitPrice := money.New(150)
	closeOrder := mustOrder(t, "BTC-USDT", enum.Sell, money.New(1.0), &exitPrice)
	if err := acc.OnOrderSubmission(closeOrder); err != nil {
		t.Fatalf("close submission: %v", err)
	}
	if err := acc.OnOrderExecution(closeOrder, money.New(1.0), exitPrice, false); err != nil {
		t.Fatalf("close execution: %v", err)
	}

	// 10000 (open margin+wallet untouched since margin is just reserved,
	// not debited) + 50 realized pnl.
	want := money.New(10050)
	if got := acc.GetWalletBalance(); !got.Equal(want) {
		t.Errorf("wallet balance = %s, want %s", got, want)
	}
	pos := acc.PositionFor("BTC-USDT")
	if !pos.Qty.IsZero() {
		t.Errorf("position should be flat, got qty=%s", pos.Qty)
	}
}
