package persistence

import (
	"context"
	"testing"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	pool, err := Open("file::memory:?cache=shared", 1)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Raw().Close() })
	return pool
}

func TestCandleRepo_SaveAndFindByFilter(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo, err := NewCandleRepo(ctx, pool)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	c := &Candle{Exchange: "binance", Symbol: "BTC-USDT", Timeframe: "1m", Timestamp: 1000, Open: 1, Close: 2, High: 3, Low: 0.5, Volume: 10}
	if err := repo.Save(ctx, c, false); err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	exchange := "binance"
	got, err := repo.FindByFilter(ctx, CandleFilter{Exchange: &exchange})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].Close != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestCandleRepo_UpsertOnConflict(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo, err := NewCandleRepo(ctx, pool)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	c := &Candle{Exchange: "binance", Symbol: "BTC-USDT", Timeframe: "1m", Timestamp: 1000, Close: 2}
	if err := repo.Save(ctx, c, true); err != nil {
		t.Fatalf("first save: %v", err)
	}
	c2 := &Candle{Exchange: "binance", Symbol: "BTC-USDT", Timeframe: "1m", Timestamp: 1000, Close: 5}
	if err := repo.Save(ctx, c2, true); err != nil {
		t.Fatalf("second save: %v", err)
	}

	exchange := "binance"
	got, err := repo.FindByFilter(ctx, CandleFilter{Exchange: &exchange})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected single upserted row, got %d", len(got))
	}
	if got[0].Close != 5 {
		t.Errorf("close = %v, want 5 after upsert", got[0].Close)
	}
}

func TestOptionRepo_UpsertByKey(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo, err := NewOptionRepo(ctx, pool)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	o := &Option{Key: "last_candle_ts", Value: "1000"}
	if err := repo.Save(ctx, o, true); err != nil {
		t.Fatalf("save: %v", err)
	}
	o2 := &Option{Key: "last_candle_ts", Value: "2000"}
	if err := repo.Save(ctx, o2, true); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.FindByKey(ctx, "last_candle_ts")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Value != "2000" {
		t.Errorf("value = %s, want 2000", got.Value)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo, err := NewCandleRepo(ctx, pool)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	boom := errFixture{}
	err = pool.WithTx(ctx, func(ctx context.Context) error {
		c := &Candle{Exchange: "binance", Symbol: "ETH-USDT", Timeframe: "1m", Timestamp: 1, Close: 1}
		if err := repo.Save(ctx, c, false); err != nil {
			return err
		}
		return boom
	})
	if err == nil {
		t.Fatalf("expected error from tx")
	}

	exchange := "binance"
	got, err := repo.FindByFilter(ctx, CandleFilter{Exchange: &exchange})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected rollback to discard insert, got %d rows", len(got))
	}
}

type errFixture struct{}

func (errFixture) Error() string { return "boom" }
