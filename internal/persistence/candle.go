package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrConflictAmbiguity is returned by Save when updateOnConflict is set
// but the entity's natural key matches more than one existing row —
// an upsert must never guess which row to replace.
var ErrConflictAmbiguity = errors.New("persistence: natural key matches more than one row")

// ErrNotFound is returned by FindByID when no row matches.
var ErrNotFound = errors.New("persistence: not found")

// Candle is a single OHLCV bar, keyed naturally on
// (exchange, symbol, timeframe, timestamp).
type Candle struct {
	ID        int64
	Exchange  string
	Symbol    string
	Timeframe string
	Timestamp int64
	Open      float64
	Close     float64
	High      float64
	Low       float64
	Volume    float64
}

// CandleFilter selects candles by any combination of its fields; range
// fields (TimestampFrom/To) bound the timestamp column.
type CandleFilter struct {
	Exchange      *string
	Symbol        *string
	Timeframe     *string
	TimestampFrom *int64
	TimestampTo   *int64
}

const candleSchema = `
CREATE TABLE IF NOT EXISTS candles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exchange TEXT NOT NULL,
	symbol TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	open REAL NOT NULL,
	close REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	volume REAL NOT NULL,
	UNIQUE(exchange, symbol, timeframe, timestamp)
);`

// CandleRepo is the repository for Candle rows.
type CandleRepo struct{ pool *Pool }

// NewCandleRepo builds a CandleRepo and ensures its table exists.
func NewCandleRepo(ctx context.Context, pool *Pool) (*CandleRepo, error) {
	if _, err := pool.Raw().ExecContext(ctx, candleSchema); err != nil {
		return nil, fmt.Errorf("persistence: migrate candles: %w", err)
	}
	return &CandleRepo{pool: pool}, nil
}

// FindByID loads a candle by its surrogate primary key.
func (r *CandleRepo) FindByID(ctx context.Context, id int64) (*Candle, error) {
	row := execerFromContext(ctx, r.pool).QueryRowContext(ctx,
		`SELECT id, exchange, symbol, timeframe, timestamp, open, close, high, low, volume
		 FROM candles WHERE id = ?`, id)
	return scanCandle(row)
}

// FindByFilter lists candles matching every non-nil field in f, ordered
// by timestamp ascending.
func (r *CandleRepo) FindByFilter(ctx context.Context, f CandleFilter) ([]Candle, error) {
	w := &whereBuilder{}
	w.eqString("exchange", f.Exchange)
	w.eqString("symbol", f.Symbol)
	w.eqString("timeframe", f.Timeframe)
	w.gte("timestamp", f.TimestampFrom)
	w.lte("timestamp", f.TimestampTo)
	clause, args := w.build()

	rows, err := execerFromContext(ctx, r.pool).QueryContext(ctx,
		`SELECT id, exchange, symbol, timeframe, timestamp, open, close, high, low, volume
		 FROM candles`+clause+` ORDER BY timestamp ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("persistence: find candles: %w", err)
	}
	defer rows.Close()

	var out []Candle
	for rows.Next() {
		var c Candle
		if err := rows.Scan(&c.ID, &c.Exchange, &c.Symbol, &c.Timeframe, &c.Timestamp,
			&c.Open, &c.Close, &c.High, &c.Low, &c.Volume); err != nil {
			return nil, fmt.Errorf("persistence: scan candle: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Save inserts c, or upserts onto its natural key
// (exchange, symbol, timeframe, timestamp) when updateOnConflict is set.
func (r *CandleRepo) Save(ctx context.Context, c *Candle, updateOnConflict bool) error {
	exec := execerFromContext(ctx, r.pool)
	if !updateOnConflict {
		res, err := exec.ExecContext(ctx,
			`INSERT INTO candles (exchange, symbol, timeframe, timestamp, open, close, high, low, volume)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Exchange, c.Symbol, c.Timeframe, c.Timestamp, c.Open, c.Close, c.High, c.Low, c.Volume)
		if err != nil {
			return fmt.Errorf("persistence: insert candle: %w", err)
		}
		c.ID, _ = res.LastInsertId()
		return nil
	}

	existing, err := r.FindByFilter(ctx, CandleFilter{
		Exchange: &c.Exchange, Symbol: &c.Symbol, Timeframe: &c.Timeframe,
		TimestampFrom: &c.Timestamp, TimestampTo: &c.Timestamp,
	})
	if err != nil {
		return err
	}
	if len(existing) > 1 {
		return ErrConflictAmbiguity
	}
	if len(existing) == 1 {
		c.ID = existing[0].ID
		_, err := exec.ExecContext(ctx,
			`UPDATE candles SET open=?, close=?, high=?, low=?, volume=? WHERE id=?`,
			c.Open, c.Close, c.High, c.Low, c.Volume, c.ID)
		if err != nil {
			return fmt.Errorf("persistence: update candle: %w", err)
		}
		return nil
	}
	return r.Save(ctx, c, false)
}

// BatchSave saves every candle in a single transaction, rolling all of
// them back if any fails.
func (r *CandleRepo) BatchSave(ctx context.Context, candles []Candle, updateOnConflict bool) error {
	return r.pool.WithTx(ctx, func(ctx context.Context) error {
		for i := range candles {
			if err := r.Save(ctx, &candles[i], updateOnConflict); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanCandle(row *sql.Row) (*Candle, error) {
	var c Candle
	err := row.Scan(&c.ID, &c.Exchange, &c.Symbol, &c.Timeframe, &c.Timestamp,
		&c.Open, &c.Close, &c.High, &c.Low, &c.Volume)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: scan candle: %w", err)
	}
	return &c, nil
}
