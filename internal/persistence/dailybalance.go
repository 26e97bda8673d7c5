package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DailyBalance is one UTC-day snapshot of wallet balance for an
// (exchange, asset) pair, keyed naturally on (exchange, asset, day).
type DailyBalance struct {
	ID       int64
	Exchange string
	Asset    string
	Balance  float64
	Day      string // YYYY-MM-DD, UTC
}

// DailyBalanceFilter selects balance snapshots by any combination of fields.
type DailyBalanceFilter struct {
	Exchange *string
	Asset    *string
	Day      *string
}

const dailyBalanceSchema = `
CREATE TABLE IF NOT EXISTS daily_balances (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exchange TEXT NOT NULL,
	asset TEXT NOT NULL,
	balance REAL NOT NULL,
	day TEXT NOT NULL,
	UNIQUE(exchange, asset, day)
);`

// DailyBalanceRepo is the repository for DailyBalance rows.
type DailyBalanceRepo struct{ pool *Pool }

// NewDailyBalanceRepo builds a DailyBalanceRepo and ensures its table exists.
func NewDailyBalanceRepo(ctx context.Context, pool *Pool) (*DailyBalanceRepo, error) {
	if _, err := pool.Raw().ExecContext(ctx, dailyBalanceSchema); err != nil {
		return nil, fmt.Errorf("persistence: migrate daily_balances: %w", err)
	}
	return &DailyBalanceRepo{pool: pool}, nil
}

// FindByID loads a daily balance row by its surrogate primary key.
func (r *DailyBalanceRepo) FindByID(ctx context.Context, id int64) (*DailyBalance, error) {
	row := execerFromContext(ctx, r.pool).QueryRowContext(ctx,
		`SELECT id, exchange, asset, balance, day FROM daily_balances WHERE id = ?`, id)
	return scanDailyBalance(row)
}

// FindByFilter lists daily balances matching every non-nil field in f.
func (r *DailyBalanceRepo) FindByFilter(ctx context.Context, f DailyBalanceFilter) ([]DailyBalance, error) {
	w := &whereBuilder{}
	w.eqString("exchange", f.Exchange)
	w.eqString("asset", f.Asset)
	w.eqString("day", f.Day)
	clause, args := w.build()

	rows, err := execerFromContext(ctx, r.pool).QueryContext(ctx,
		`SELECT id, exchange, asset, balance, day FROM daily_balances`+clause+` ORDER BY day ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("persistence: find daily balances: %w", err)
	}
	defer rows.Close()

	var out []DailyBalance
	for rows.Next() {
		var d DailyBalance
		if err := rows.Scan(&d.ID, &d.Exchange, &d.Asset, &d.Balance, &d.Day); err != nil {
			return nil, fmt.Errorf("persistence: scan daily balance: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Save inserts d, or upserts onto its natural key (exchange, asset, day)
// when updateOnConflict is set.
func (r *DailyBalanceRepo) Save(ctx context.Context, d *DailyBalance, updateOnConflict bool) error {
	exec := execerFromContext(ctx, r.pool)
	if !updateOnConflict {
		res, err := exec.ExecContext(ctx,
			`INSERT INTO daily_balances (exchange, asset, balance, day) VALUES (?, ?, ?, ?)`,
			d.Exchange, d.Asset, d.Balance, d.Day)
		if err != nil {
			return fmt.Errorf("persistence: insert daily balance: %w", err)
		}
		d.ID, _ = res.LastInsertId()
		return nil
	}
	_, err := exec.ExecContext(ctx,
		`INSERT INTO daily_balances (exchange, asset, balance, day) VALUES (?, ?, ?, ?)
		 ON CONFLICT(exchange, asset, day) DO UPDATE SET balance=excluded.balance`,
		d.Exchange, d.Asset, d.Balance, d.Day)
	if err != nil {
		return fmt.Errorf("persistence: upsert daily balance: %w", err)
	}
	return nil
}

// BatchSave saves every daily balance row in a single transaction — the
// shape the daily cron job calls with one row per tracked asset.
func (r *DailyBalanceRepo) BatchSave(ctx context.Context, rows []DailyBalance, updateOnConflict bool) error {
	return r.pool.WithTx(ctx, func(ctx context.Context) error {
		for i := range rows {
			if err := r.Save(ctx, &rows[i], updateOnConflict); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanDailyBalance(row *sql.Row) (*DailyBalance, error) {
	var d DailyBalance
	err := row.Scan(&d.ID, &d.Exchange, &d.Asset, &d.Balance, &d.Day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: scan daily balance: %w", err)
	}
	return &d, nil
}
