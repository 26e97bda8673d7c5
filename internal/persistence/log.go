package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Log is a persisted structured log line, mirroring slog's level/message
// shape so the engine can archive anything it logs via slog.
type Log struct {
	ID        int64
	Level     string
	Message   string
	Timestamp int64
}

// LogFilter selects log rows by any combination of fields.
type LogFilter struct {
	Level         *string
	TimestampFrom *int64
	TimestampTo   *int64
}

const logSchema = `
CREATE TABLE IF NOT EXISTS logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	level TEXT NOT NULL,
	message TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);`

// LogRepo is the repository for Log rows.
type LogRepo struct{ pool *Pool }

// NewLogRepo builds a LogRepo and ensures its table exists.
func NewLogRepo(ctx context.Context, pool *Pool) (*LogRepo, error) {
	if _, err := pool.Raw().ExecContext(ctx, logSchema); err != nil {
		return nil, fmt.Errorf("persistence: migrate logs: %w", err)
	}
	return &LogRepo{pool: pool}, nil
}

// FindByID loads a log row by its surrogate primary key.
func (r *LogRepo) FindByID(ctx context.Context, id int64) (*Log, error) {
	row := execerFromContext(ctx, r.pool).QueryRowContext(ctx,
		`SELECT id, level, message, timestamp FROM logs WHERE id = ?`, id)
	var l Log
	if err := row.Scan(&l.ID, &l.Level, &l.Message, &l.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("persistence: scan log: %w", err)
	}
	return &l, nil
}

// FindByFilter lists log rows matching every non-nil field in f.
func (r *LogRepo) FindByFilter(ctx context.Context, f LogFilter) ([]Log, error) {
	w := &whereBuilder{}
	w.eqString("level", f.Level)
	w.gte("timestamp", f.TimestampFrom)
	w.lte("timestamp", f.TimestampTo)
	clause, args := w.build()

	rows, err := execerFromContext(ctx, r.pool).QueryContext(ctx,
		`SELECT id, level, message, timestamp FROM logs`+clause+` ORDER BY timestamp ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("persistence: find logs: %w", err)
	}
	defer rows.Close()

	var out []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.Level, &l.Message, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("persistence: scan log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Save always appends — log rows are immutable, so updateOnConflict is
// ignored.
func (r *LogRepo) Save(ctx context.Context, l *Log, updateOnConflict bool) error {
	res, err := execerFromContext(ctx, r.pool).ExecContext(ctx,
		`INSERT INTO logs (level, message, timestamp) VALUES (?, ?, ?)`, l.Level, l.Message, l.Timestamp)
	if err != nil {
		return fmt.Errorf("persistence: insert log: %w", err)
	}
	l.ID, _ = res.LastInsertId()
	return nil
}

// BatchSave saves every log row in a single transaction.
func (r *LogRepo) BatchSave(ctx context.Context, logs []Log, updateOnConflict bool) error {
	return r.pool.WithTx(ctx, func(ctx context.Context) error {
		for i := range logs {
			if err := r.Save(ctx, &logs[i], updateOnConflict); err != nil {
				return err
			}
		}
		return nil
	})
}
