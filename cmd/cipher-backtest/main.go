// Cipher Trader backtest entry point — replays persisted candle history
// through the same engine live trading uses, with internal/mode's frozen
// clock standing in for the wall clock and no internal/feed connection.
//
// Architecture mirrors cmd/cipher-live: same engine, route, and
// exchangesim wiring. The only difference is the candle source — rows
// read from internal/persistence in timestamp order instead of a
// WebSocket stream — and that the engine is driven directly via
// AddCandle/DispatchCandleClosed rather than internal/feed.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/cipherTrader/cipher-trader/internal/config"
	"github.com/cipherTrader/cipher-trader/internal/engine"
	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/exchangesim"
	"github.com/cipherTrader/cipher-trader/internal/money"
	"github.com/cipherTrader/cipher-trader/internal/persistence"
	"github.com/cipherTrader/cipher-trader/internal/route"
	"github.com/cipherTrader/cipher-trader/internal/strategy"
)

// noopStrategy never submits an order; swapped for a real Strategy value
// by an embedding application, since strategy construction is out of
// scope for this core.
type noopStrategy struct{}

func (noopStrategy) Execute(ctx context.Context, view *strategy.View) error { return nil }

func main() {
	cfgPath := "configs/backtest.yaml"
	if p := os.Getenv("CIPHER_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	cfg.App.TradingMode = string(enum.ModeBacktest)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	router := route.NewRouter()
	routes := make([]route.Route, 0, len(cfg.App.ConsideringSymbols))
	strategies := make(map[string]strategy.Strategy)
	for _, sym := range cfg.App.ConsideringSymbols {
		r := route.Route{Exchange: "demo", Symbol: sym, Timeframe: enum.TF1m, StrategyName: "noop"}
		routes = append(routes, r)
		strategies[r.Exchange+"-"+r.Symbol+"-"+string(r.Timeframe)] = noopStrategy{}
	}
	if err := router.SetRoutes(routes, nil); err != nil {
		logger.Error("failed to set routes", "error", err)
		os.Exit(1)
	}

	accounts := map[string]exchangesim.Account{
		"demo": exchangesim.NewSpotAccount(money.New(cfg.FeeFor("demo"))),
	}

	eng, err := engine.New(*cfg, router, strategies, accounts, nil, logger)
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := eng.Start(ctx); err != nil {
		logger.Error("failed to start engine", "error", err)
		os.Exit(1)
	}
	defer eng.Stop()

	candleRepo, err := persistence.NewCandleRepo(ctx, eng.Pool())
	if err != nil {
		logger.Error("failed to open candle repository", "error", err)
		os.Exit(1)
	}

	startedAt := time.Now()

	for _, sym := range cfg.App.ConsideringSymbols {
		exchangeName, timeframe := "demo", string(enum.TF1m)
		candles, err := candleRepo.FindByFilter(ctx, persistence.CandleFilter{
			Exchange:  &exchangeName,
			Symbol:    &sym,
			Timeframe: &timeframe,
		})
		if err != nil {
			logger.Error("failed to load candles", "symbol", sym, "error", err)
			os.Exit(1)
		}
		logger.Info("replaying candles", "symbol", sym, "count", len(candles))
		for _, c := range candles {
			eng.AddCandle(c.Exchange, c.Symbol, c.Timeframe, c.Timestamp, c.Open, c.Close, c.High, c.Low, c.Volume)
			eng.DispatchCandleClosed(c.Exchange, c.Symbol, c.Timeframe, c.Timestamp)
		}
	}

	logger.Info("backtest complete", "duration", time.Since(startedAt))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
