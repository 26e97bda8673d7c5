// Cipher Trader live/paper entry point — loads configuration, wires one
// exchange account and route per configured symbol, connects the demo
// feed, and runs until SIGINT/SIGTERM.
//
// Architecture:
//
//	main.go                    — entry point: loads config, starts engine, waits for SIGINT/SIGTERM
//	internal/engine/engine.go  — composition root: wires marketdata, route, exchangesim, persistence, feed
//	internal/strategy         — Strategy interface + View façade strategies read market state through
//	internal/marketdata        — ring-buffered candle/ticker/orderbook/trade state
//	internal/exchangesim       — spot/futures balance and margin simulator
//	internal/order             — order lifecycle state machine
//	internal/persistence       — connection pool, repositories, daily-balance scheduler
//	internal/feed              — demo exchange-adapter WebSocket client
//
// Strategy construction and dynamic loading are out of scope; this demo
// binary wires a no-op Strategy per route so the pipeline runs end to
// end without a trading decision ever firing a submission.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cipherTrader/cipher-trader/internal/config"
	"github.com/cipherTrader/cipher-trader/internal/engine"
	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/exchangesim"
	"github.com/cipherTrader/cipher-trader/internal/money"
	"github.com/cipherTrader/cipher-trader/internal/route"
	"github.com/cipherTrader/cipher-trader/internal/strategy"
)

// noopStrategy never submits an order; it exists so the demo binary
// exercises the full candle-close -> dispatch -> View pipeline without a
// real trading decision, since strategy construction is out of scope.
type noopStrategy struct{}

func (noopStrategy) Execute(ctx context.Context, view *strategy.View) error { return nil }

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("CIPHER_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
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

	eng, err := newEngineOrExit(*cfg, router, strategies, accounts, logger)
	if err != nil {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(ctx); err != nil {
		logger.Error("failed to start engine", "error", err)
		os.Exit(1)
	}

	logger.Info("cipher trader started",
		"mode", cfg.App.TradingMode,
		"symbols", cfg.App.ConsideringSymbols,
		"debug", cfg.App.DebugMode,
	)

	<-ctx.Done()
	logger.Info("received shutdown signal")
	eng.Stop()
}

func newEngineOrExit(cfg config.Config, router *route.Router, strategies map[string]strategy.Strategy, accounts map[string]exchangesim.Account, logger *slog.Logger) (*engine.Engine, error) {
	eng, err := engine.New(cfg, router, strategies, accounts, nil, logger)
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		return nil, err
	}
	return eng, nil
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
