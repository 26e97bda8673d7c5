package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Order is the persisted record of an internal/order.Order, keyed
// naturally on its UUID id.
type Order struct {
	ID          string
	Exchange    string
	Symbol      string
	Side        string
	Type        string
	Status      string
	Price       float64
	Qty         float64
	FilledQty   float64
	SubmittedAt int64
	ClosedAt    *int64
}

// OrderFilter selects orders by any combination of its fields.
type OrderFilter struct {
	Exchange *string
	Symbol   *string
	Status   *string
	Side     *string
}

const orderSchema = `
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	exchange TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	type TEXT NOT NULL,
	status TEXT NOT NULL,
	price REAL NOT NULL,
	qty REAL NOT NULL,
	filled_qty REAL NOT NULL,
	submitted_at INTEGER NOT NULL,
	closed_at INTEGER
);`

// OrderRepo is the repository for Order rows.
type OrderRepo struct{ pool *Pool }

// NewOrderRepo builds an OrderRepo and ensures its table exists.
func NewOrderRepo(ctx context.Context, pool *Pool) (*OrderRepo, error) {
	if _, err := pool.Raw().ExecContext(ctx, orderSchema); err != nil {
		return nil, fmt.Errorf("persistence: migrate orders: %w", err)
	}
	return &OrderRepo{pool: pool}, nil
}

// FindByID loads an order by its UUID id.
func (r *OrderRepo) FindByID(ctx context.Context, id string) (*Order, error) {
	row := execerFromContext(ctx, r.pool).QueryRowContext(ctx,
		`SELECT id, exchange, symbol, side, type, status, price, qty, filled_qty, submitted_at, closed_at
		 FROM orders WHERE id = ?`, id)
	return scanOrder(row)
}

// FindByFilter lists orders matching every non-nil field in f.
func (r *OrderRepo) FindByFilter(ctx context.Context, f OrderFilter) ([]Order, error) {
	w := &whereBuilder{}
	w.eqString("exchange", f.Exchange)
	w.eqString("symbol", f.Symbol)
	w.eqString("status", f.Status)
	w.eqString("side", f.Side)
	clause, args := w.build()

	rows, err := execerFromContext(ctx, r.pool).QueryContext(ctx,
		`SELECT id, exchange, symbol, side, type, status, price, qty, filled_qty, submitted_at, closed_at
		 FROM orders`+clause+` ORDER BY submitted_at ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("persistence: find orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Exchange, &o.Symbol, &o.Side, &o.Type, &o.Status,
			&o.Price, &o.Qty, &o.FilledQty, &o.SubmittedAt, &o.ClosedAt); err != nil {
			return nil, fmt.Errorf("persistence: scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Save upserts o onto its id; id is the natural key so updateOnConflict
// merely selects insert-or-replace semantics rather than a lookup,
// since the id is already known (assigned by internal/order.New).
func (r *OrderRepo) Save(ctx context.Context, o *Order, updateOnConflict bool) error {
	exec := execerFromContext(ctx, r.pool)
	if !updateOnConflict {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO orders (id, exchange, symbol, side, type, status, price, qty, filled_qty, submitted_at, closed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.Exchange, o.Symbol, o.Side, o.Type, o.Status, o.Price, o.Qty, o.FilledQty, o.SubmittedAt, o.ClosedAt)
		if err != nil {
			return fmt.Errorf("persistence: insert order: %w", err)
		}
		return nil
	}
	_, err := exec.ExecContext(ctx,
		`INSERT INTO orders (id, exchange, symbol, side, type, status, price, qty, filled_qty, submitted_at, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status=excluded.status, filled_qty=excluded.filled_qty, closed_at=excluded.closed_at`,
		o.ID, o.Exchange, o.Symbol, o.Side, o.Type, o.Status, o.Price, o.Qty, o.FilledQty, o.SubmittedAt, o.ClosedAt)
	if err != nil {
		return fmt.Errorf("persistence: upsert order: %w", err)
	}
	return nil
}

// BatchSave saves every order in a single transaction.
func (r *OrderRepo) BatchSave(ctx context.Context, orders []Order, updateOnConflict bool) error {
	return r.pool.WithTx(ctx, func(ctx context.Context) error {
		for i := range orders {
			if err := r.Save(ctx, &orders[i], updateOnConflict); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanOrder(row *sql.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Exchange, &o.Symbol, &o.Side, &o.Type, &o.Status,
		&o.Price, &o.Qty, &o.FilledQty, &o.SubmittedAt, &o.ClosedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: scan order: %w", err)
	}
	return &o, nil
}
