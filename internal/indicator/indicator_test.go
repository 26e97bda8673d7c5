package indicator

import (
	"math"
	"testing"

	"github.com/cipherTrader/cipher-trader/internal/enum"
)

// candlesFromCloses builds a minimal Candles matrix from a closes-only
// series, setting open=high=low=close and volume=1 per bar.
func candlesFromCloses(closes []float64) Candles {
	out := make(Candles, len(closes))
	for i, v := range closes {
		out[i] = []float64{float64(1_700_000_000_000 + int64(i)*60_000), v, v, v, v, 1}
	}
	return out
}

// S5: SMA of {1,2,3,4,5} with period 3 -> sequential [NaN, NaN, 2, 3, 4],
// non-sequential last = 4.
func TestSMA_S5(t *testing.T) {
	c := candlesFromCloses([]float64{1, 2, 3, 4, 5})

	seq, err := SMA(c, 3, enum.SourceClose, true)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	if len(seq) != 5 {
		t.Fatalf("want length 5, got %d", len(seq))
	}
	if !math.IsNaN(seq[0]) || !math.IsNaN(seq[1]) {
		t.Errorf("want NaN padding for first 2 entries, got %v", seq[:2])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if got := seq[i+2]; got != w {
			t.Errorf("seq[%d] = %v, want %v", i+2, got, w)
		}
	}

	nonSeq, err := SMA(c, 3, enum.SourceClose, false)
	if err != nil {
		t.Fatalf("non-sequential: %v", err)
	}
	if len(nonSeq) != 1 || nonSeq[0] != 4 {
		t.Errorf("non-sequential = %v, want [4]", nonSeq)
	}
}

func TestSMA_InsufficientData(t *testing.T) {
	c := candlesFromCloses([]float64{1, 2})
	if _, err := SMA(c, 3, enum.SourceClose, true); err != ErrInsufficientData {
		t.Fatalf("got %v, want ErrInsufficientData", err)
	}
}

// EMA seeds from the first value, so its sequential output has no NaN
// warmup padding.
func TestEMA_NoWarmupPadding(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	c := candlesFromCloses(closes)
	out, err := EMA(c, 5, enum.SourceClose, true)
	if err != nil {
		t.Fatalf("EMA: %v", err)
	}
	if math.IsNaN(out[0]) {
		t.Errorf("EMA seeds from the first value, should not be NaN")
	}
	if len(out) != len(closes) {
		t.Fatalf("length mismatch")
	}
}

func TestRSI_Bounds(t *testing.T) {
	closes := []float64{44, 44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28}
	c := candlesFromCloses(closes)
	out, err := RSI(c, 14, enum.SourceClose, true)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	last := out[len(out)-1]
	if math.IsNaN(last) {
		t.Fatalf("expected finite RSI once window fills")
	}
	if last < 0 || last > 100 {
		t.Errorf("RSI out of bounds: %v", last)
	}
}

func TestMACD_HistogramIsMacdMinusSignal(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}
	c := candlesFromCloses(closes)
	res, err := MACD(c, 12, 26, 9, enum.SourceClose, true)
	if err != nil {
		t.Fatalf("MACD: %v", err)
	}
	last := len(closes) - 1
	want := res.MACD[last] - res.Signal[last]
	if math.Abs(res.Histogram[last]-want) > 1e-9 {
		t.Errorf("histogram = %v, want %v", res.Histogram[last], want)
	}
}

func TestDonchian_UpperLowerBracketPrice(t *testing.T) {
	closes := []float64{10, 12, 9, 15, 11, 14, 8, 13}
	c := candlesFromCloses(closes)
	res, err := Donchian(c, 4, true)
	if err != nil {
		t.Fatalf("Donchian: %v", err)
	}
	for i := 3; i < len(closes); i++ {
		if res.Upper[i] < res.Lower[i] {
			t.Errorf("upper %v below lower %v at %d", res.Upper[i], res.Lower[i], i)
		}
	}
}

func TestStoch_KWithinRange(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10, 9, 10, 11, 12, 13, 14, 13}
	c := candlesFromCloses(closes)
	res, err := Stoch(c, 5, 3, true)
	if err != nil {
		t.Fatalf("Stoch: %v", err)
	}
	for i, k := range res.K {
		if math.IsNaN(k) {
			continue
		}
		if k < -0.001 || k > 100.001 {
			t.Errorf("K[%d] = %v out of [0,100]", i, k)
		}
	}
}

func TestInvalidSource(t *testing.T) {
	c := candlesFromCloses([]float64{1, 2, 3})
	if _, err := c.Source(enum.CandleSource("bogus")); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestATR_NonNegative(t *testing.T) {
	closes := []float64{10, 10.5, 9.8, 10.2, 11, 10.7, 10.9}
	c := candlesFromCloses(closes)
	out, err := ATR(c, 3, true)
	if err != nil {
		t.Fatalf("ATR: %v", err)
	}
	for i, v := range out {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 {
			t.Errorf("ATR[%d] = %v, want non-negative", i, v)
		}
	}
}
