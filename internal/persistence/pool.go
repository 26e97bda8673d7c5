// Package persistence implements the storage layer: a bounded
// connection pool, a scoped transaction guard, a shutdown coordinator,
// a retry helper, and typed entity repositories over modernc.org/sqlite.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrConnectionTimeout is returned when Acquire waits longer than its
	// deadline for a free connection.
	ErrConnectionTimeout = errors.New("persistence: timed out acquiring connection")
	// ErrShuttingDown is returned by Acquire once Shutdown has started.
	ErrShuttingDown = errors.New("persistence: pool is shutting down")
	// ErrDeadConnection is returned when a released connection fails its
	// health check and is dropped rather than returned to the pool.
	ErrDeadConnection = errors.New("persistence: connection failed health check")
)

// Pool wraps a *sql.DB, giving every acquired connection the same
// bounded-wait, health-checked-release discipline.
type Pool struct {
	db   *sql.DB
	mu   sync.Mutex
	shut bool
}

// Open opens a SQLite database at dsn with WAL mode and a bounded
// connection pool shared by every repository, rather than a database
// per profile.
func Open(dsn string, maxOpenConns int) (*Pool, error) {
	connStr := dsn + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("persistence: ping %s: %w", dsn, err)
	}
	return &Pool{db: db}, nil
}

// Conn is a scoped handle to the pool's underlying connection. It does
// not wrap a single dedicated *sql.Conn — sql.DB already pools
// physical connections — but enforces Acquire/Release bracketing so
// callers cannot use a connection past Shutdown.
type Conn struct {
	pool *Pool
	db   *sql.DB
}

// Acquire waits up to 5s for the pool to admit a new operation,
// returning ErrShuttingDown once Shutdown has begun and
// ErrConnectionTimeout if the database doesn't respond to a health
// ping in time.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	p.mu.Lock()
	shut := p.shut
	p.mu.Unlock()
	if shut {
		return nil, ErrShuttingDown
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.db.PingContext(ctx); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrConnectionTimeout
		}
		return nil, fmt.Errorf("persistence: acquire: %w", err)
	}
	return &Conn{pool: p, db: p.db}, nil
}

// Release health-checks the connection with SELECT 1 and returns
// ErrDeadConnection if it fails; sql.DB reclaims the physical
// connection either way since Conn never holds one exclusively.
func (c *Conn) Release(ctx context.Context) error {
	var one int
	if err := c.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return ErrDeadConnection
	}
	return nil
}

// DB returns the underlying *sql.DB for repository queries.
func (c *Conn) DB() *sql.DB { return c.db }

// Raw exposes the pool's *sql.DB directly, for callers (repositories,
// the daily-balance job) that don't need per-call Acquire/Release
// bracketing.
func (p *Pool) Raw() *sql.DB { return p.db }

// Shutdown marks the pool closed to new Acquire calls, drains
// outstanding work by closing the underlying *sql.DB (which blocks
// until in-flight queries finish), and runs pre/post hooks.
func (p *Pool) Shutdown(ctx context.Context, before, after func()) error {
	p.mu.Lock()
	if p.shut {
		p.mu.Unlock()
		return nil
	}
	p.shut = true
	p.mu.Unlock()

	if before != nil {
		before()
	}
	err := p.db.Close()
	if after != nil {
		after()
	}
	return err
}
