// Package config defines all configuration recognized by the trading
// engine. Config is loaded from a YAML file with CIPHER_* environment
// overrides via a viper-driven Load/Validate shape.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cipherTrader/cipher-trader/internal/enum"
)

// Config is the top-level configuration, mapping directly onto the YAML
// file structure.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Env         EnvConfig         `mapstructure:"env"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Feed        FeedConfig        `mapstructure:"feed"`
}

// FeedConfig points cmd/cipher-live at the demo exchange-adapter's
// streaming endpoint (internal/feed). Real exchange adapters are out of
// scope; this config exists only for the demo binary.
type FeedConfig struct {
	URL string `mapstructure:"url"`
}

// AppConfig holds the app_* configuration keys.
type AppConfig struct {
	TradingMode        string   `mapstructure:"trading_mode"`
	DebugMode          bool     `mapstructure:"debug_mode"`
	IsUnitTesting      bool     `mapstructure:"is_unit_testing"`
	ConsideringSymbols []string `mapstructure:"considering_symbols"`
}

// EnvConfig holds the env_* configuration keys: warmup sizing,
// per-order-event logging and notification flags, and the per-exchange
// fee table.
type EnvConfig struct {
	DataWarmupCandlesNum int             `mapstructure:"data_warmup_candles_num"`
	LoggingEvents        map[string]bool `mapstructure:"logging_events"`

	NotificationsEventsSubmittedOrders bool `mapstructure:"notifications_events_submitted_orders"`
	NotificationsEventsExecutedOrders  bool `mapstructure:"notifications_events_executed_orders"`
	NotificationsEventsCancelledOrders bool `mapstructure:"notifications_events_cancelled_orders"`

	// ExchangesFee maps exchange name to its fee rate, e.g.
	// env_exchanges_binance_spot_fee.
	ExchangesFee map[string]float64 `mapstructure:"exchanges_fee"`
}

// PersistenceConfig configures the persistence layer's connection pool.
type PersistenceConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// LoggingConfig picks the slog handler: text or json, at a configurable
// level.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with CIPHER_* environment
// overrides (e.g. CIPHER_APP_TRADING_MODE, CIPHER_PERSISTENCE_DSN).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("CIPHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env.data_warmup_candles_num", 1)
	v.SetDefault("persistence.max_open_conns", 4)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// Validate enforces the invariants the YAML schema leaves implicit:
// trading mode, warmup candle count, DSN and pool size. Indicator parameter validation (positive periods,
// etc.) belongs to the indicator catalog, not here.
func (c *Config) Validate() error {
	if !enum.TradingMode(c.App.TradingMode).Valid() {
		return fmt.Errorf("config: app.trading_mode %q is not one of the closed trading-mode set", c.App.TradingMode)
	}
	if c.Env.DataWarmupCandlesNum <= 0 {
		return fmt.Errorf("config: env.data_warmup_candles_num must be > 0")
	}
	if c.Persistence.DSN == "" {
		return fmt.Errorf("config: persistence.dsn is required")
	}
	if c.Persistence.MaxOpenConns <= 0 {
		return fmt.Errorf("config: persistence.max_open_conns must be > 0")
	}
	return nil
}

// FeeFor returns the configured fee rate for exchange, or zero if unset.
func (c *Config) FeeFor(exchange string) float64 {
	return c.Env.ExchangesFee[exchange]
}

// LoggingEventEnabled reports whether env_logging_<event> is set, the
// one-flag-per-order-event debug guard.
func (c *Config) LoggingEventEnabled(event string) bool {
	return c.Env.LoggingEvents[event]
}
