package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ClosedTrade is a completed round-trip position, keyed naturally on
// (exchange, symbol, opened_at).
type ClosedTrade struct {
	ID          int64
	Exchange    string
	Symbol      string
	Side        string
	EntryPrice  float64
	ExitPrice   float64
	Qty         float64
	PNL         float64
	PNLPercent  float64
	OpenedAt    int64
	ClosedAt    int64
}

// ClosedTradeFilter selects closed trades by any combination of fields.
type ClosedTradeFilter struct {
	Exchange  *string
	Symbol    *string
	OpenedFrom *int64
	OpenedTo   *int64
}

const closedTradeSchema = `
CREATE TABLE IF NOT EXISTS closed_trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exchange TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	qty REAL NOT NULL,
	pnl REAL NOT NULL,
	pnl_percent REAL NOT NULL,
	opened_at INTEGER NOT NULL,
	closed_at INTEGER NOT NULL,
	UNIQUE(exchange, symbol, opened_at)
);`

// ClosedTradeRepo is the repository for ClosedTrade rows.
type ClosedTradeRepo struct{ pool *Pool }

// NewClosedTradeRepo builds a ClosedTradeRepo and ensures its table exists.
func NewClosedTradeRepo(ctx context.Context, pool *Pool) (*ClosedTradeRepo, error) {
	if _, err := pool.Raw().ExecContext(ctx, closedTradeSchema); err != nil {
		return nil, fmt.Errorf("persistence: migrate closed_trades: %w", err)
	}
	return &ClosedTradeRepo{pool: pool}, nil
}

// FindByID loads a closed trade by its surrogate primary key.
func (r *ClosedTradeRepo) FindByID(ctx context.Context, id int64) (*ClosedTrade, error) {
	row := execerFromContext(ctx, r.pool).QueryRowContext(ctx,
		`SELECT id, exchange, symbol, side, entry_price, exit_price, qty, pnl, pnl_percent, opened_at, closed_at
		 FROM closed_trades WHERE id = ?`, id)
	return scanClosedTrade(row)
}

// FindByFilter lists closed trades matching every non-nil field in f.
func (r *ClosedTradeRepo) FindByFilter(ctx context.Context, f ClosedTradeFilter) ([]ClosedTrade, error) {
	w := &whereBuilder{}
	w.eqString("exchange", f.Exchange)
	w.eqString("symbol", f.Symbol)
	w.gte("opened_at", f.OpenedFrom)
	w.lte("opened_at", f.OpenedTo)
	clause, args := w.build()

	rows, err := execerFromContext(ctx, r.pool).QueryContext(ctx,
		`SELECT id, exchange, symbol, side, entry_price, exit_price, qty, pnl, pnl_percent, opened_at, closed_at
		 FROM closed_trades`+clause+` ORDER BY opened_at ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("persistence: find closed trades: %w", err)
	}
	defer rows.Close()

	var out []ClosedTrade
	for rows.Next() {
		var t ClosedTrade
		if err := rows.Scan(&t.ID, &t.Exchange, &t.Symbol, &t.Side, &t.EntryPrice, &t.ExitPrice,
			&t.Qty, &t.PNL, &t.PNLPercent, &t.OpenedAt, &t.ClosedAt); err != nil {
			return nil, fmt.Errorf("persistence: scan closed trade: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Save inserts t, or upserts onto its natural key
// (exchange, symbol, opened_at) when updateOnConflict is set.
func (r *ClosedTradeRepo) Save(ctx context.Context, t *ClosedTrade, updateOnConflict bool) error {
	exec := execerFromContext(ctx, r.pool)
	if !updateOnConflict {
		res, err := exec.ExecContext(ctx,
			`INSERT INTO closed_trades (exchange, symbol, side, entry_price, exit_price, qty, pnl, pnl_percent, opened_at, closed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Exchange, t.Symbol, t.Side, t.EntryPrice, t.ExitPrice, t.Qty, t.PNL, t.PNLPercent, t.OpenedAt, t.ClosedAt)
		if err != nil {
			return fmt.Errorf("persistence: insert closed trade: %w", err)
		}
		t.ID, _ = res.LastInsertId()
		return nil
	}

	existing, err := r.FindByFilter(ctx, ClosedTradeFilter{
		Exchange: &t.Exchange, Symbol: &t.Symbol, OpenedFrom: &t.OpenedAt, OpenedTo: &t.OpenedAt,
	})
	if err != nil {
		return err
	}
	if len(existing) > 1 {
		return ErrConflictAmbiguity
	}
	if len(existing) == 1 {
		t.ID = existing[0].ID
		_, err := exec.ExecContext(ctx,
			`UPDATE closed_trades SET exit_price=?, qty=?, pnl=?, pnl_percent=?, closed_at=? WHERE id=?`,
			t.ExitPrice, t.Qty, t.PNL, t.PNLPercent, t.ClosedAt, t.ID)
		if err != nil {
			return fmt.Errorf("persistence: update closed trade: %w", err)
		}
		return nil
	}
	return r.Save(ctx, t, false)
}

// BatchSave saves every closed trade in a single transaction.
func (r *ClosedTradeRepo) BatchSave(ctx context.Context, trades []ClosedTrade, updateOnConflict bool) error {
	return r.pool.WithTx(ctx, func(ctx context.Context) error {
		for i := range trades {
			if err := r.Save(ctx, &trades[i], updateOnConflict); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanClosedTrade(row *sql.Row) (*ClosedTrade, error) {
	var t ClosedTrade
	err := row.Scan(&t.ID, &t.Exchange, &t.Symbol, &t.Side, &t.EntryPrice, &t.ExitPrice,
		&t.Qty, &t.PNL, &t.PNLPercent, &t.OpenedAt, &t.ClosedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: scan closed trade: %w", err)
	}
	return &t, nil
}
