package pnl

import (
	"testing"

	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/money"
)

func TestEstimatePNLLong(t *testing.T) {
	qty := money.New(1.0)
	entry := money.New(5000)
	exit := money.New(5500)
	got, err := EstimatePNL(qty, entry, exit, enum.Long, money.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := money.New(500)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEstimatePNLShort(t *testing.T) {
	qty := money.New(1.0)
	entry := money.New(5000)
	exit := money.New(4500)
	got, err := EstimatePNL(qty, entry, exit, enum.Short, money.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := money.New(500)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEstimatePNLZeroQty(t *testing.T) {
	_, err := EstimatePNL(money.Zero, money.New(1), money.New(2), enum.Long, money.Zero)
	if err != ErrZeroQuantity {
		t.Fatalf("expected ErrZeroQuantity, got %v", err)
	}
}

func TestEstimatePNLPercentageZeroEntry(t *testing.T) {
	_, err := EstimatePNLPercentage(money.New(1), money.Zero, money.New(2), enum.Long, money.Zero)
	if err != ErrZeroEntry {
		t.Fatalf("expected ErrZeroEntry, got %v", err)
	}
}

func TestEstimateAveragePrice(t *testing.T) {
	got, err := EstimateAveragePrice(money.New(1), money.New(100), money.New(1), money.New(200))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := money.New(150)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEstimateAveragePriceZeroTotal(t *testing.T) {
	_, err := EstimateAveragePrice(money.Zero, money.New(100), money.Zero, money.New(200))
	if err != ErrZeroQuantity {
		t.Fatalf("expected ErrZeroQuantity, got %v", err)
	}
}

// TestTriangularArbitrage exercises a three-leg cycle: BTC-USDT 30000/30001,
// ETH-BTC 0.05/0.0501, ETH-USDT 1505/1506, fee 0.1%, starting 1000 USDT.
func TestTriangularArbitrage(t *testing.T) {
	btcUsdt := Snapshot{BestBid: money.New(30000), BestAsk: money.New(30001)}
	ethBtc := Snapshot{BestBid: money.New(0.05), BestAsk: money.New(0.0501)}
	ethUsdt := Snapshot{BestBid: money.New(1505), BestAsk: money.New(1506)}

	result, err := TriangularArbitrage(btcUsdt, ethBtc, ethUsdt, money.New(1000), money.New(0.1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Path) != 4 || result.Path[0] != "A" || result.Path[3] != "A" {
		t.Errorf("unexpected path shape: %v", result.Path)
	}
}

func TestTriangularArbitrageInvalidStart(t *testing.T) {
	s := Snapshot{BestBid: money.New(1), BestAsk: money.New(1)}
	_, err := TriangularArbitrage(s, s, s, money.Zero, money.New(0.1))
	if err == nil {
		t.Fatal("expected error for zero starting notional")
	}
}
