package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNestedTransaction is returned by BeginTx when called on a Pool
// that already has an active, unresolved Tx from the same goroutine's
// context — this package never silently nests transactions.
var ErrNestedTransaction = errors.New("persistence: transaction already active on this context")

type txKey struct{}

// Tx is a scoped transaction guard: Commit is explicit, and an
// unresolved Tx is rolled back automatically when its enclosing
// WithTx call returns via a panic-safe defer, exposed as an object
// instead of a callback so repositories can thread it through multiple
// calls.
type Tx struct {
	tx        *sql.Tx
	committed bool
}

// BeginTx starts a transaction and returns a context carrying it;
// repository methods recover it via TxFromContext to participate in
// the same transaction. Returns ErrNestedTransaction if ctx already
// carries one.
func (p *Pool) BeginTx(ctx context.Context) (context.Context, *Tx, error) {
	if _, ok := ctx.Value(txKey{}).(*Tx); ok {
		return ctx, nil, ErrNestedTransaction
	}
	sqlTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return ctx, nil, fmt.Errorf("persistence: begin tx: %w", err)
	}
	t := &Tx{tx: sqlTx}
	return context.WithValue(ctx, txKey{}, t), t, nil
}

// TxFromContext recovers the active Tx started by BeginTx, if any.
func TxFromContext(ctx context.Context) (*Tx, bool) {
	t, ok := ctx.Value(txKey{}).(*Tx)
	return t, ok
}

// Commit commits the underlying transaction. Calling it twice is a no-op.
func (t *Tx) Commit() error {
	if t.committed {
		return nil
	}
	t.committed = true
	return t.tx.Commit()
}

// Rollback rolls the transaction back unless already committed.
func (t *Tx) Rollback() error {
	if t.committed {
		return nil
	}
	return t.tx.Rollback()
}

// WithTx runs fn inside a new transaction on ctx, committing on success
// and rolling back (including on panic) on error, the callback-style
// equivalent to BeginTx/Commit/Rollback for single-shot operations.
func (p *Pool) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	ctx, t, err := p.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = t.Rollback()
			err = fmt.Errorf("persistence: panic in transaction: %v", p)
			return
		}
		if err != nil {
			_ = t.Rollback()
			return
		}
		err = t.Commit()
	}()
	err = fn(ctx)
	return err
}

// execer abstracts over *sql.DB and *sql.Tx so repository methods work
// identically whether or not a transaction is active on ctx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execerFromContext returns the active transaction's execer if ctx
// carries one via BeginTx, otherwise the pool's raw *sql.DB.
func execerFromContext(ctx context.Context, pool *Pool) execer {
	if t, ok := TxFromContext(ctx); ok {
		return t.tx
	}
	return pool.db
}
