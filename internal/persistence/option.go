package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Option is an opaque key/value row used by strategies and the engine
// for small persisted settings (last-processed candle timestamp, a
// strategy's serialized state), keyed naturally on its key.
type Option struct {
	ID    int64
	Key   string
	Value string
}

// OptionFilter selects options by key.
type OptionFilter struct {
	Key *string
}

const optionSchema = `
CREATE TABLE IF NOT EXISTS options (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key TEXT NOT NULL UNIQUE,
	value TEXT NOT NULL
);`

// OptionRepo is the repository for Option rows.
type OptionRepo struct{ pool *Pool }

// NewOptionRepo builds an OptionRepo and ensures its table exists.
func NewOptionRepo(ctx context.Context, pool *Pool) (*OptionRepo, error) {
	if _, err := pool.Raw().ExecContext(ctx, optionSchema); err != nil {
		return nil, fmt.Errorf("persistence: migrate options: %w", err)
	}
	return &OptionRepo{pool: pool}, nil
}

// FindByID loads an option by its surrogate primary key.
func (r *OptionRepo) FindByID(ctx context.Context, id int64) (*Option, error) {
	row := execerFromContext(ctx, r.pool).QueryRowContext(ctx, `SELECT id, key, value FROM options WHERE id = ?`, id)
	return scanOption(row)
}

// FindByKey loads an option by its natural key.
func (r *OptionRepo) FindByKey(ctx context.Context, key string) (*Option, error) {
	row := execerFromContext(ctx, r.pool).QueryRowContext(ctx, `SELECT id, key, value FROM options WHERE key = ?`, key)
	return scanOption(row)
}

// FindByFilter lists options matching every non-nil field in f.
func (r *OptionRepo) FindByFilter(ctx context.Context, f OptionFilter) ([]Option, error) {
	w := &whereBuilder{}
	w.eqString("key", f.Key)
	clause, args := w.build()

	rows, err := execerFromContext(ctx, r.pool).QueryContext(ctx, `SELECT id, key, value FROM options`+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("persistence: find options: %w", err)
	}
	defer rows.Close()

	var out []Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.Key, &o.Value); err != nil {
			return nil, fmt.Errorf("persistence: scan option: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Save inserts o, or upserts onto its natural key when updateOnConflict
// is set — this is the repository pattern's most common case, since
// options are written far more often as "set this value" than "append".
func (r *OptionRepo) Save(ctx context.Context, o *Option, updateOnConflict bool) error {
	exec := execerFromContext(ctx, r.pool)
	if !updateOnConflict {
		res, err := exec.ExecContext(ctx, `INSERT INTO options (key, value) VALUES (?, ?)`, o.Key, o.Value)
		if err != nil {
			return fmt.Errorf("persistence: insert option: %w", err)
		}
		o.ID, _ = res.LastInsertId()
		return nil
	}
	_, err := exec.ExecContext(ctx,
		`INSERT INTO options (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		o.Key, o.Value)
	if err != nil {
		return fmt.Errorf("persistence: upsert option: %w", err)
	}
	return nil
}

// BatchSave saves every option in a single transaction.
func (r *OptionRepo) BatchSave(ctx context.Context, options []Option, updateOnConflict bool) error {
	return r.pool.WithTx(ctx, func(ctx context.Context) error {
		for i := range options {
			if err := r.Save(ctx, &options[i], updateOnConflict); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanOption(row *sql.Row) (*Option, error) {
	var o Option
	err := row.Scan(&o.ID, &o.Key, &o.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: scan option: %w", err)
	}
	return &o, nil
}
