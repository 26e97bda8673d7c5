package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ExchangeApiKeys holds a credential set for one exchange, keyed
// naturally on exchange name. Secrets are stored as provided by
// config; the engine never logs these fields.
type ExchangeApiKeys struct {
	ID        int64
	Exchange  string
	APIKey    string
	APISecret string
}

const exchangeApiKeysSchema = `
CREATE TABLE IF NOT EXISTS exchange_api_keys (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exchange TEXT NOT NULL UNIQUE,
	api_key TEXT NOT NULL,
	api_secret TEXT NOT NULL
);`

// ExchangeApiKeysRepo is the repository for ExchangeApiKeys rows.
type ExchangeApiKeysRepo struct{ pool *Pool }

// NewExchangeApiKeysRepo builds the repo and ensures its table exists.
func NewExchangeApiKeysRepo(ctx context.Context, pool *Pool) (*ExchangeApiKeysRepo, error) {
	if _, err := pool.Raw().ExecContext(ctx, exchangeApiKeysSchema); err != nil {
		return nil, fmt.Errorf("persistence: migrate exchange_api_keys: %w", err)
	}
	return &ExchangeApiKeysRepo{pool: pool}, nil
}

// FindByExchange loads the credential set for an exchange by its
// natural key.
func (r *ExchangeApiKeysRepo) FindByExchange(ctx context.Context, exchange string) (*ExchangeApiKeys, error) {
	row := execerFromContext(ctx, r.pool).QueryRowContext(ctx,
		`SELECT id, exchange, api_key, api_secret FROM exchange_api_keys WHERE exchange = ?`, exchange)
	var k ExchangeApiKeys
	err := row.Scan(&k.ID, &k.Exchange, &k.APIKey, &k.APISecret)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: scan exchange api keys: %w", err)
	}
	return &k, nil
}

// Save upserts k onto its natural key (exchange) when updateOnConflict
// is set, else inserts a fresh row.
func (r *ExchangeApiKeysRepo) Save(ctx context.Context, k *ExchangeApiKeys, updateOnConflict bool) error {
	exec := execerFromContext(ctx, r.pool)
	if !updateOnConflict {
		res, err := exec.ExecContext(ctx,
			`INSERT INTO exchange_api_keys (exchange, api_key, api_secret) VALUES (?, ?, ?)`,
			k.Exchange, k.APIKey, k.APISecret)
		if err != nil {
			return fmt.Errorf("persistence: insert exchange api keys: %w", err)
		}
		k.ID, _ = res.LastInsertId()
		return nil
	}
	_, err := exec.ExecContext(ctx,
		`INSERT INTO exchange_api_keys (exchange, api_key, api_secret) VALUES (?, ?, ?)
		 ON CONFLICT(exchange) DO UPDATE SET api_key=excluded.api_key, api_secret=excluded.api_secret`,
		k.Exchange, k.APIKey, k.APISecret)
	if err != nil {
		return fmt.Errorf("persistence: upsert exchange api keys: %w", err)
	}
	return nil
}

// NotificationApiKeys holds a credential set for one notification
// driver (e.g. a Slack webhook or Telegram bot token), keyed naturally
// on driver name.
type NotificationApiKeys struct {
	ID     int64
	Driver string
	Token  string
}

const notificationApiKeysSchema = `
CREATE TABLE IF NOT EXISTS notification_api_keys (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	driver TEXT NOT NULL UNIQUE,
	token TEXT NOT NULL
);`

// NotificationApiKeysRepo is the repository for NotificationApiKeys rows.
type NotificationApiKeysRepo struct{ pool *Pool }

// NewNotificationApiKeysRepo builds the repo and ensures its table exists.
func NewNotificationApiKeysRepo(ctx context.Context, pool *Pool) (*NotificationApiKeysRepo, error) {
	if _, err := pool.Raw().ExecContext(ctx, notificationApiKeysSchema); err != nil {
		return nil, fmt.Errorf("persistence: migrate notification_api_keys: %w", err)
	}
	return &NotificationApiKeysRepo{pool: pool}, nil
}

// FindByDriver loads the credential set for a notification driver by
// its natural key.
func (r *NotificationApiKeysRepo) FindByDriver(ctx context.Context, driver string) (*NotificationApiKeys, error) {
	row := execerFromContext(ctx, r.pool).QueryRowContext(ctx,
		`SELECT id, driver, token FROM notification_api_keys WHERE driver = ?`, driver)
	var k NotificationApiKeys
	err := row.Scan(&k.ID, &k.Driver, &k.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: scan notification api keys: %w", err)
	}
	return &k, nil
}

// Save upserts k onto its natural key (driver) when updateOnConflict is
// set, else inserts a fresh row.
func (r *NotificationApiKeysRepo) Save(ctx context.Context, k *NotificationApiKeys, updateOnConflict bool) error {
	exec := execerFromContext(ctx, r.pool)
	if !updateOnConflict {
		res, err := exec.ExecContext(ctx,
			`INSERT INTO notification_api_keys (driver, token) VALUES (?, ?)`, k.Driver, k.Token)
		if err != nil {
			return fmt.Errorf("persistence: insert notification api keys: %w", err)
		}
		k.ID, _ = res.LastInsertId()
		return nil
	}
	_, err := exec.ExecContext(ctx,
		`INSERT INTO notification_api_keys (driver, token) VALUES (?, ?)
		 ON CONFLICT(driver) DO UPDATE SET token=excluded.token`,
		k.Driver, k.Token)
	if err != nil {
		return fmt.Errorf("persistence: upsert notification api keys: %w", err)
	}
	return nil
}
