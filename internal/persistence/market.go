package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Ticker is a persisted best-bid/ask snapshot, keyed naturally on
// (exchange, symbol, timestamp).
type Ticker struct {
	ID        int64
	Exchange  string
	Symbol    string
	Timestamp int64
	Last      float64
	Bid       float64
	Ask       float64
}

// TickerFilter selects tickers by any combination of fields.
type TickerFilter struct {
	Exchange      *string
	Symbol        *string
	TimestampFrom *int64
	TimestampTo   *int64
}

const tickerSchema = `
CREATE TABLE IF NOT EXISTS tickers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exchange TEXT NOT NULL,
	symbol TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	last REAL NOT NULL,
	bid REAL NOT NULL,
	ask REAL NOT NULL,
	UNIQUE(exchange, symbol, timestamp)
);`

// TickerRepo is the repository for Ticker rows.
type TickerRepo struct{ pool *Pool }

// NewTickerRepo builds a TickerRepo and ensures its table exists.
func NewTickerRepo(ctx context.Context, pool *Pool) (*TickerRepo, error) {
	if _, err := pool.Raw().ExecContext(ctx, tickerSchema); err != nil {
		return nil, fmt.Errorf("persistence: migrate tickers: %w", err)
	}
	return &TickerRepo{pool: pool}, nil
}

// FindByID loads a ticker by its surrogate primary key.
func (r *TickerRepo) FindByID(ctx context.Context, id int64) (*Ticker, error) {
	row := execerFromContext(ctx, r.pool).QueryRowContext(ctx,
		`SELECT id, exchange, symbol, timestamp, last, bid, ask FROM tickers WHERE id = ?`, id)
	var t Ticker
	if err := row.Scan(&t.ID, &t.Exchange, &t.Symbol, &t.Timestamp, &t.Last, &t.Bid, &t.Ask); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("persistence: scan ticker: %w", err)
	}
	return &t, nil
}

// FindByFilter lists tickers matching every non-nil field in f.
func (r *TickerRepo) FindByFilter(ctx context.Context, f TickerFilter) ([]Ticker, error) {
	w := &whereBuilder{}
	w.eqString("exchange", f.Exchange)
	w.eqString("symbol", f.Symbol)
	w.gte("timestamp", f.TimestampFrom)
	w.lte("timestamp", f.TimestampTo)
	clause, args := w.build()

	rows, err := execerFromContext(ctx, r.pool).QueryContext(ctx,
		`SELECT id, exchange, symbol, timestamp, last, bid, ask FROM tickers`+clause+` ORDER BY timestamp ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("persistence: find tickers: %w", err)
	}
	defer rows.Close()

	var out []Ticker
	for rows.Next() {
		var t Ticker
		if err := rows.Scan(&t.ID, &t.Exchange, &t.Symbol, &t.Timestamp, &t.Last, &t.Bid, &t.Ask); err != nil {
			return nil, fmt.Errorf("persistence: scan ticker: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Save inserts t. updateOnConflict is honored via ON CONFLICT on the
// natural key since tickers never need post-hoc edits beyond replace.
func (r *TickerRepo) Save(ctx context.Context, t *Ticker, updateOnConflict bool) error {
	exec := execerFromContext(ctx, r.pool)
	if !updateOnConflict {
		res, err := exec.ExecContext(ctx,
			`INSERT INTO tickers (exchange, symbol, timestamp, last, bid, ask) VALUES (?, ?, ?, ?, ?, ?)`,
			t.Exchange, t.Symbol, t.Timestamp, t.Last, t.Bid, t.Ask)
		if err != nil {
			return fmt.Errorf("persistence: insert ticker: %w", err)
		}
		t.ID, _ = res.LastInsertId()
		return nil
	}
	_, err := exec.ExecContext(ctx,
		`INSERT INTO tickers (exchange, symbol, timestamp, last, bid, ask) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(exchange, symbol, timestamp) DO UPDATE SET last=excluded.last, bid=excluded.bid, ask=excluded.ask`,
		t.Exchange, t.Symbol, t.Timestamp, t.Last, t.Bid, t.Ask)
	if err != nil {
		return fmt.Errorf("persistence: upsert ticker: %w", err)
	}
	return nil
}

// BatchSave saves every ticker in a single transaction.
func (r *TickerRepo) BatchSave(ctx context.Context, tickers []Ticker, updateOnConflict bool) error {
	return r.pool.WithTx(ctx, func(ctx context.Context) error {
		for i := range tickers {
			if err := r.Save(ctx, &tickers[i], updateOnConflict); err != nil {
				return err
			}
		}
		return nil
	})
}

// Trade is a persisted executed-trade tape entry, identified only by its
// surrogate ID (the table has no natural key).
type Trade struct {
	ID        int64
	Exchange  string
	Symbol    string
	Side      string
	Price     float64
	Qty       float64
	Timestamp int64
}

// TradeFilter selects trades by any combination of fields.
type TradeFilter struct {
	Exchange      *string
	Symbol        *string
	TimestampFrom *int64
	TimestampTo   *int64
}

const tradeSchema = `
CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exchange TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	qty REAL NOT NULL,
	timestamp INTEGER NOT NULL
);`

// TradeRepo is the repository for Trade rows.
type TradeRepo struct{ pool *Pool }

// NewTradeRepo builds a TradeRepo and ensures its table exists.
func NewTradeRepo(ctx context.Context, pool *Pool) (*TradeRepo, error) {
	if _, err := pool.Raw().ExecContext(ctx, tradeSchema); err != nil {
		return nil, fmt.Errorf("persistence: migrate trades: %w", err)
	}
	return &TradeRepo{pool: pool}, nil
}

// FindByID loads a trade by its surrogate primary key.
func (r *TradeRepo) FindByID(ctx context.Context, id int64) (*Trade, error) {
	row := execerFromContext(ctx, r.pool).QueryRowContext(ctx,
		`SELECT id, exchange, symbol, side, price, qty, timestamp FROM trades WHERE id = ?`, id)
	var t Trade
	if err := row.Scan(&t.ID, &t.Exchange, &t.Symbol, &t.Side, &t.Price, &t.Qty, &t.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("persistence: scan trade: %w", err)
	}
	return &t, nil
}

// FindByFilter lists trades matching every non-nil field in f.
func (r *TradeRepo) FindByFilter(ctx context.Context, f TradeFilter) ([]Trade, error) {
	w := &whereBuilder{}
	w.eqString("exchange", f.Exchange)
	w.eqString("symbol", f.Symbol)
	w.gte("timestamp", f.TimestampFrom)
	w.lte("timestamp", f.TimestampTo)
	clause, args := w.build()

	rows, err := execerFromContext(ctx, r.pool).QueryContext(ctx,
		`SELECT id, exchange, symbol, side, price, qty, timestamp FROM trades`+clause+` ORDER BY timestamp ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("persistence: find trades: %w", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.Exchange, &t.Symbol, &t.Side, &t.Price, &t.Qty, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("persistence: scan trade: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Save always appends — trade-tape entries are immutable, so
// updateOnConflict is ignored (there's no natural key to upsert onto
// beyond the surrogate id, which is always fresh on insert).
func (r *TradeRepo) Save(ctx context.Context, t *Trade, updateOnConflict bool) error {
	res, err := execerFromContext(ctx, r.pool).ExecContext(ctx,
		`INSERT INTO trades (exchange, symbol, side, price, qty, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		t.Exchange, t.Symbol, t.Side, t.Price, t.Qty, t.Timestamp)
	if err != nil {
		return fmt.Errorf("persistence: insert trade: %w", err)
	}
	t.ID, _ = res.LastInsertId()
	return nil
}

// BatchSave saves every trade in a single transaction.
func (r *TradeRepo) BatchSave(ctx context.Context, trades []Trade, updateOnConflict bool) error {
	return r.pool.WithTx(ctx, func(ctx context.Context) error {
		for i := range trades {
			if err := r.Save(ctx, &trades[i], updateOnConflict); err != nil {
				return err
			}
		}
		return nil
	})
}

// Orderbook is a persisted top-of-book snapshot, keyed naturally on
// (exchange, symbol, timestamp).
type Orderbook struct {
	ID        int64
	Exchange  string
	Symbol    string
	Timestamp int64
	BestBid   float64
	BestAsk   float64
	BidDepth  float64
	AskDepth  float64
}

// OrderbookFilter selects orderbook snapshots by any combination of fields.
type OrderbookFilter struct {
	Exchange      *string
	Symbol        *string
	TimestampFrom *int64
	TimestampTo   *int64
}

const orderbookSchema = `
CREATE TABLE IF NOT EXISTS orderbooks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exchange TEXT NOT NULL,
	symbol TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	best_bid REAL NOT NULL,
	best_ask REAL NOT NULL,
	bid_depth REAL NOT NULL,
	ask_depth REAL NOT NULL,
	UNIQUE(exchange, symbol, timestamp)
);`

// OrderbookRepo is the repository for Orderbook rows.
type OrderbookRepo struct{ pool *Pool }

// NewOrderbookRepo builds an OrderbookRepo and ensures its table exists.
func NewOrderbookRepo(ctx context.Context, pool *Pool) (*OrderbookRepo, error) {
	if _, err := pool.Raw().ExecContext(ctx, orderbookSchema); err != nil {
		return nil, fmt.Errorf("persistence: migrate orderbooks: %w", err)
	}
	return &OrderbookRepo{pool: pool}, nil
}

// FindByID loads an orderbook snapshot by its surrogate primary key.
func (r *OrderbookRepo) FindByID(ctx context.Context, id int64) (*Orderbook, error) {
	row := execerFromContext(ctx, r.pool).QueryRowContext(ctx,
		`SELECT id, exchange, symbol, timestamp, best_bid, best_ask, bid_depth, ask_depth
		 FROM orderbooks WHERE id = ?`, id)
	var o Orderbook
	if err := row.Scan(&o.ID, &o.Exchange, &o.Symbol, &o.Timestamp, &o.BestBid, &o.BestAsk, &o.BidDepth, &o.AskDepth); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("persistence: scan orderbook: %w", err)
	}
	return &o, nil
}

// FindByFilter lists orderbook snapshots matching every non-nil field in f.
func (r *OrderbookRepo) FindByFilter(ctx context.Context, f OrderbookFilter) ([]Orderbook, error) {
	w := &whereBuilder{}
	w.eqString("exchange", f.Exchange)
	w.eqString("symbol", f.Symbol)
	w.gte("timestamp", f.TimestampFrom)
	w.lte("timestamp", f.TimestampTo)
	clause, args := w.build()

	rows, err := execerFromContext(ctx, r.pool).QueryContext(ctx,
		`SELECT id, exchange, symbol, timestamp, best_bid, best_ask, bid_depth, ask_depth
		 FROM orderbooks`+clause+` ORDER BY timestamp ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("persistence: find orderbooks: %w", err)
	}
	defer rows.Close()

	var out []Orderbook
	for rows.Next() {
		var o Orderbook
		if err := rows.Scan(&o.ID, &o.Exchange, &o.Symbol, &o.Timestamp, &o.BestBid, &o.BestAsk, &o.BidDepth, &o.AskDepth); err != nil {
			return nil, fmt.Errorf("persistence: scan orderbook: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Save inserts o, or upserts onto its natural key
// (exchange, symbol, timestamp) when updateOnConflict is set.
func (r *OrderbookRepo) Save(ctx context.Context, o *Orderbook, updateOnConflict bool) error {
	exec := execerFromContext(ctx, r.pool)
	if !updateOnConflict {
		res, err := exec.ExecContext(ctx,
			`INSERT INTO orderbooks (exchange, symbol, timestamp, best_bid, best_ask, bid_depth, ask_depth)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.Exchange, o.Symbol, o.Timestamp, o.BestBid, o.BestAsk, o.BidDepth, o.AskDepth)
		if err != nil {
			return fmt.Errorf("persistence: insert orderbook: %w", err)
		}
		o.ID, _ = res.LastInsertId()
		return nil
	}
	_, err := exec.ExecContext(ctx,
		`INSERT INTO orderbooks (exchange, symbol, timestamp, best_bid, best_ask, bid_depth, ask_depth)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(exchange, symbol, timestamp) DO UPDATE SET
		 best_bid=excluded.best_bid, best_ask=excluded.best_ask, bid_depth=excluded.bid_depth, ask_depth=excluded.ask_depth`,
		o.Exchange, o.Symbol, o.Timestamp, o.BestBid, o.BestAsk, o.BidDepth, o.AskDepth)
	if err != nil {
		return fmt.Errorf("persistence: upsert orderbook: %w", err)
	}
	return nil
}

// BatchSave saves every orderbook snapshot in a single transaction.
func (r *OrderbookRepo) BatchSave(ctx context.Context, books []Orderbook, updateOnConflict bool) error {
	return r.pool.WithTx(ctx, func(ctx context.Context) error {
		for i := range books {
			if err := r.Save(ctx, &books[i], updateOnConflict); err != nil {
				return err
			}
		}
		return nil
	})
}
