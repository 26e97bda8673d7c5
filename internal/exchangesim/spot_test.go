package exchangesim

import (
	"testing"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/money"
	"github.com/cipherTrader/cipher-trader/internal/order"
)

func mustOrder(t *testing.T, sym string, side enum.OrderSide, qty money.Decimal, price *money.Decimal) *order.Order {
	t.Helper()
	o, err := order.New("binance", sym, side, enum.Limit, qty, price, false, 1_700_000_000_000)
	if err != nil {
		t.Fatalf("order.New: %v", err)
	}
	return o
}

// TestSpotBuySufficientBalance exercises S1: start USDT=10000, BTC=0.
// Submit LIMIT BUY 1.0 BTC @ 5000 -> USDT=5000, BTC=0. Execute at 5000
// with fee 0.001 -> USDT=5000, BTC=0.999.
func TestSpotBuySufficientBalance(t *testing.T) {
	acc := NewSpotAccount(money.New(0.001))
	acc.SetAsset("USDT", money.New(10000))
	acc.SetAsset("BTC", money.Zero)

	price := money.New(5000)
	o := mustOrder(t, "BTC-USDT", enum.Buy, money.New(1.0), &price)

	if err := acc.OnOrderSubmission(o); err != nil {
		t.Fatalf("submission: %v", err)
	}
	if got := acc.GetAsset("USDT"); !got.Equal(money.New(5000)) {
		t.Errorf("after submission USDT = %s, want 5000", got)
	}
	if got := acc.GetAsset("BTC"); !got.Equal(money.Zero) {
		t.Errorf("after submission BTC = %s, want 0", got)
	}

	if err := acc.OnOrderExecution(o, o.Qty.Abs(), price, false); err != nil {
		t.Fatalf("execution: %v", err)
	}
	if got := acc.GetAsset("USDT"); !got.Equal(money.New(5000)) {
		t.Errorf("after execution USDT = %s, want 5000", got)
	}
	if got := acc.GetAsset("BTC"); !got.Equal(money.New(0.999)) {
		t.Errorf("after execution BTC = %s, want 0.999", got)
	}
}

// TestSpotSellOverCommitment exercises S2: start BTC=2.0. Submit LIMIT
// SELL 1.0, then 1.0, then 0.1 -> the third submission fails with
// InsufficientBalance; BTC remains 2.0.
func TestSpotSellOverCommitment(t *testing.T) {
	acc := NewSpotAccount(money.New(0.001))
	acc.SetAsset("BTC", money.New(2.0))
	acc.SetAsset("USDT", money.Zero)

	price := money.New(30000)
	o1 := mustOrder(t, "BTC-USDT", enum.Sell, money.New(1.0), &price)
	o2 := mustOrder(t, "BTC-USDT", enum.Sell, money.New(1.0), &price)
	o3 := mustOrder(t, "BTC-USDT", enum.Sell, money.New(0.1), &price)

	if err := acc.OnOrderSubmission(o1); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if err := acc.OnOrderSubmission(o2); err != nil {
		t.Fatalf("second submission: %v", err)
	}
	if err := acc.OnOrderSubmission(o3); err != ErrInsufficientBalance {
		t.Fatalf("third submission: got %v, want ErrInsufficientBalance", err)
	}
	if got := acc.GetAsset("BTC"); !got.Equal(money.New(2.0)) {
		t.Errorf("BTC balance mutated: got %s, want 2.0", got)
	}
}

func TestSpotBuyCancellationRestoresQuote(t *testing.T) {
	acc := NewSpotAccount(money.Zero)
	acc.SetAsset("USDT", money.New(1000))

	price := money.New(100)
	o := mustOrder(t, "BTC-USDT", enum.Buy, money.New(2.0), &price)
	if err := acc.OnOrderSubmission(o); err != nil {
		t.Fatalf("submission: %v", err)
	}
	if err := acc.OnOrderCancellation(o); err != nil {
		t.Fatalf("cancellation: %v", err)
	}
	if got := acc.GetAsset("USDT"); !got.Equal(money.New(1000)) {
		t.Errorf("USDT not restored: got %s, want 1000", got)
	}
}

func TestSpotSellClipsToActualBalance(t *testing.T) {
	acc := NewSpotAccount(money.Zero)
	acc.SetAsset("BTC", money.New(1.0))
	acc.SetAsset("USDT", money.Zero)

	price := money.New(100)
	o := mustOrder(t, "BTC-USDT", enum.Sell, money.New(1.0), &price)
	if err := acc.OnOrderSubmission(o); err != nil {
		t.Fatalf("submission: %v", err)
	}
	acc.SetAsset("BTC", money.New(0.5))
	// Simulate another order already consumed the base balance down to 0.5,
	// so execution must clip the actual filled qty to 0.5.
	if err := acc.OnOrderExecution(o, money.New(1.0), price, false); err != nil {
		t.Fatalf("execution: %v", err)
	}
	if got := acc.GetAsset("BTC"); !got.Equal(money.Zero) {
		t.Errorf("BTC = %s, want 0 (clipped debit)", got)
	}
	if got := acc.GetAsset("USDT"); !got.Equal(money.New(50)) {
		t.Errorf("USDT = %s, want 50 (clipped proceeds)", got)
	}
}
