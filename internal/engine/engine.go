// Package engine is the composition root of the trading engine (Design
// Notes: "replace [globals] with explicit composition roots... a single
// Engine value owned by main"). It owns the connection pool, route
// table, mode switch, per-exchange account map, market-data fabric, and
// the goroutines that wire them together, directly modeled on the
// teacher's Engine struct and its New -> Start -> Stop lifecycle.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cipherTrader/cipher-trader/internal/ciphertime"
	"github.com/cipherTrader/cipher-trader/internal/config"
	"github.com/cipherTrader/cipher-trader/internal/enum"
	"github.com/cipherTrader/cipher-trader/internal/exchangesim"
	"github.com/cipherTrader/cipher-trader/internal/feed"
	"github.com/cipherTrader/cipher-trader/internal/marketdata"
	"github.com/cipherTrader/cipher-trader/internal/mode"
	"github.com/cipherTrader/cipher-trader/internal/money"
	"github.com/cipherTrader/cipher-trader/internal/order"
	"github.com/cipherTrader/cipher-trader/internal/persistence"
	"github.com/cipherTrader/cipher-trader/internal/route"
	"github.com/cipherTrader/cipher-trader/internal/strategy"
	"github.com/cipherTrader/cipher-trader/internal/symbol"
)

// nowMs resolves the engine's current-time reading: wall clock in
// live/paper/candle-import modes, the frozen simulated-candle-close
// timestamp in backtest/optimize modes.
func nowMs(m *mode.Switch) int64 {
	if m.IsBacktesting() || m.IsOptimizing() {
		return m.FrozenNowMs()
	}
	return ciphertime.NowMs()
}

// Engine orchestrates every core component: the market-data fabric,
// the routing table, the per-exchange account map, the order book, and
// persistence, dispatching strategy ticks on every candle close.
type Engine struct {
	cfg    config.Config
	mode   *mode.Switch
	router *route.Router
	market *marketdata.State

	accounts   map[string]exchangesim.Account // keyed by exchange name
	strategies map[string]strategy.Strategy   // keyed by composite route key

	notifier    order.Notifier
	notifyFlags order.NotificationFlags

	pool      *persistence.Pool
	orderRepo *persistence.OrderRepo
	scheduler *persistence.Scheduler
	shutdown  *persistence.Shutdown

	liveFeed *feed.Feed

	ordersMu sync.Mutex
	orders   map[string]*order.Order // keyed by order.ID.String()

	tradingKeys map[string]bool // composite keys the router marks tradeable, vs. data-only

	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group
}

// New wires every component per the composition described in SPEC_FULL's
// Engine wiring section. strategies is keyed the same way routes are
// identified: "exchange-symbol-timeframe" (internal/symbol.CompositeKey).
// accounts is keyed by exchange name. Strategy construction and dynamic
// loading are out of scope; callers supply already-built values.
func New(cfg config.Config, router *route.Router, strategies map[string]strategy.Strategy, accounts map[string]exchangesim.Account, notifier order.Notifier, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "engine")

	if notifier == nil {
		notifier = order.NullNotifier{}
	}

	tm := enum.TradingMode(cfg.App.TradingMode)
	if !tm.Valid() {
		return nil, fmt.Errorf("engine: invalid trading mode %q", cfg.App.TradingMode)
	}
	modeSwitch := mode.New(tm, cfg.App.IsUnitTesting)
	market := marketdata.New(cfg.Env.DataWarmupCandlesNum)

	pool, err := persistence.Open(cfg.Persistence.DSN, cfg.Persistence.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("engine: open persistence pool: %w", err)
	}

	ctx := context.Background()
	orderRepo, err := persistence.NewOrderRepo(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("engine: migrate order repo: %w", err)
	}
	dailyBalanceRepo, err := persistence.NewDailyBalanceRepo(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("engine: migrate daily balance repo: %w", err)
	}

	scheduler := persistence.NewScheduler(logger)
	sources := make([]persistence.BalanceSource, 0, len(accounts))
	for exchangeName, acct := range accounts {
		sources = append(sources, newBalanceSource(exchangeName, acct))
	}
	if len(sources) > 0 {
		job := persistence.NewDailyBalanceJob(dailyBalanceRepo, sources, logger)
		if err := scheduler.AddDailyBalanceJob(job); err != nil {
			return nil, fmt.Errorf("engine: schedule daily balance job: %w", err)
		}
	}

	notifyFlags := order.NotificationFlags{
		Submitted: cfg.Env.NotificationsEventsSubmittedOrders,
		Executed:  cfg.Env.NotificationsEventsExecutedOrders,
		Canceled:  cfg.Env.NotificationsEventsCancelledOrders,
	}

	if strategies == nil {
		strategies = make(map[string]strategy.Strategy)
	}
	if accounts == nil {
		accounts = make(map[string]exchangesim.Account)
	}

	return &Engine{
		cfg:         cfg,
		mode:        modeSwitch,
		router:      router,
		market:      market,
		accounts:    accounts,
		strategies:  strategies,
		notifier:    notifier,
		notifyFlags: notifyFlags,
		pool:        pool,
		orderRepo:   orderRepo,
		scheduler:   scheduler,
		shutdown:    persistence.NewShutdown(),
		orders:      make(map[string]*order.Order),
		logger:      logger,
	}, nil
}

// balanceSource adapts an exchangesim.Account into persistence's
// BalanceSource for the daily-balance cron job. Every account reports
// GetWalletBalance under the asset name "settlement": a futures account
// reports its single wallet balance, while a spot account, which has no
// single balance, is always recorded as zero (its per-asset balances are
// not reported).
type balanceSource struct {
	exchange string
	account  exchangesim.Account
}

func newBalanceSource(exchange string, account exchangesim.Account) balanceSource {
	return balanceSource{exchange: exchange, account: account}
}

func (b balanceSource) Exchange() string { return b.exchange }
func (b balanceSource) Asset() string    { return "settlement" }
func (b balanceSource) Balance() float64 {
	f, _ := b.account.GetWalletBalance().Float64()
	return f
}

// Start launches the engine's background goroutines: the live feed (if
// configured), the daily-balance scheduler, and the shutdown hook. It
// does not block; call Stop to end them.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(e.ctx)
	e.g = g

	e.tradingKeys = make(map[string]bool)
	if e.router != nil {
		for _, r := range e.router.Routes() {
			e.tradingKeys[symbol.CompositeKey(r.Exchange, r.Symbol, string(r.Timeframe))] = true
		}
	}

	if e.mode.IsLive() && e.cfg.Feed.URL != "" {
		e.liveFeed = feed.New(e.cfg.Feed.URL, e.market, e.handleOrderUpdate, e.dispatchCandleClosed, e.logger)
		g.Go(func() error {
			if err := e.liveFeed.Run(gctx); err != nil && gctx.Err() == nil {
				e.logger.Error("feed error", "error", err)
				return err
			}
			return nil
		})
	}

	e.scheduler.Start()

	e.shutdown.OnBefore(func() {
		e.logger.Info("shutdown: draining outstanding work")
	})
	e.shutdown.OnAfter(func() {
		e.scheduler.Stop()
		if e.liveFeed != nil {
			_ = e.liveFeed.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.pool.Shutdown(shutdownCtx, nil, nil)
	})

	return nil
}

// Stop triggers the shutdown coordinator and cancels every background
// goroutine, then waits for them to exit.
func (e *Engine) Stop() {
	e.logger.Info("shutting down")
	e.shutdown.Trigger()
	if e.cancel != nil {
		e.cancel()
	}
	if e.g != nil {
		_ = e.g.Wait()
	}
	e.logger.Info("shutdown complete")
}

// dispatchCandleClosed is the engine's reaction to a newly closed
// candle: look up the strategy bound to this route and call Execute
// exactly once. A strategy error is logged and the tick abandoned;
// subsequent ticks continue.
func (e *Engine) dispatchCandleClosed(exchange, sym, timeframe string, timestampMs int64) {
	if e.mode.IsBacktesting() || e.mode.IsOptimizing() {
		e.mode.SetFrozenNowMs(timestampMs)
	}

	key := symbol.CompositeKey(exchange, sym, timeframe)
	if e.tradingKeys != nil && !e.tradingKeys[key] {
		return // data-only route: market data is ingested but no strategy runs
	}
	strat, ok := e.strategies[key]
	if !ok {
		return
	}
	acct, ok := e.accounts[exchange]
	if !ok {
		e.logger.Error("no account registered for exchange", "exchange", exchange)
		return
	}

	tf, err := enum.ParseTimeframe(timeframe)
	if err != nil {
		e.logger.Error("candle closed on unparseable timeframe", "timeframe", timeframe, "error", err)
		return
	}

	view := strategy.New(exchange, sym, tf, e.market, acct, e.submitOrder, e.cancelOrder)
	if err := strat.Execute(e.ctx, view); err != nil {
		e.logger.Error("strategy tick failed", "exchange", exchange, "symbol", sym, "timeframe", timeframe, "error", err)
	}
}

// submitOrder is the engine's Submitter: it records the order in the
// in-memory book and, outside of optimize/unit-testing runs, persists
// it. Optimize mode never persists.
func (e *Engine) submitOrder(o *order.Order) error {
	e.ordersMu.Lock()
	e.orders[o.ID.String()] = o
	e.ordersMu.Unlock()

	if e.mode.ShouldExecuteSilently() {
		return nil
	}
	return e.persistOrder(o)
}

// cancelOrder transitions o to CANCELED, restores any balance/margin
// reservation via the bound account, and persists the result.
func (e *Engine) cancelOrder(o *order.Order, source string) error {
	acct, ok := e.accounts[o.Exchange]
	if !ok {
		return fmt.Errorf("engine: no account registered for exchange %q", o.Exchange)
	}
	if err := o.Cancel(source, nowMs(e.mode), e.notifier, e.notifyFlags); err != nil {
		return err
	}
	if err := acct.OnOrderCancellation(o); err != nil {
		return err
	}
	if e.mode.ShouldExecuteSilently() {
		return nil
	}
	return e.persistOrder(o)
}

// handleOrderUpdate dispatches exchange feedback (the feed's
// onOrderUpdate callback) into the matching in-memory order's lifecycle
// methods and the bound account's execution/cancellation hooks.
func (e *Engine) handleOrderUpdate(m feed.OrderUpdate) {
	e.ordersMu.Lock()
	o, ok := e.orders[m.ID]
	e.ordersMu.Unlock()
	if !ok {
		e.logger.Warn("order update for unknown order", "id", m.ID)
		return
	}

	acct, ok := e.accounts[o.Exchange]
	if !ok {
		e.logger.Error("no account registered for exchange", "exchange", o.Exchange)
		return
	}

	now := nowMs(e.mode)
	fillPrice := money.New(m.FillPrice)
	hook := order.ExecutionHook(func(o *order.Order, fillQty, fillPrice money.Decimal, partial bool) {
		if err := acct.OnOrderExecution(o, fillQty, fillPrice, partial); err != nil {
			e.logger.Error("account execution hook failed", "order", o.ID, "error", err)
		}
	})

	var err error
	switch enum.OrderStatus(m.Status) {
	case enum.StatusExecuted:
		err = o.Execute(now, fillPrice, hook, e.notifier, e.notifyFlags)
	case enum.StatusPartiallyFilled:
		filled := money.New(m.FilledQty).Sub(o.FilledQty)
		err = o.ExecutePartially(now, filled, fillPrice, hook, e.notifier, e.notifyFlags)
	case enum.StatusCanceled:
		err = o.Cancel("stream", now, e.notifier, e.notifyFlags)
		if err == nil {
			err = acct.OnOrderCancellation(o)
		}
	case enum.StatusActive:
		err = o.Activate(e.notifier, e.notifyFlags)
	case enum.StatusRejected:
		o.MarkRejected()
	case enum.StatusLiquidated:
		o.MarkLiquidated()
	default:
		e.logger.Warn("unrecognized order status from feed", "status", m.Status)
		return
	}
	if err != nil {
		e.logger.Error("order lifecycle transition failed", "order", o.ID, "status", m.Status, "error", err)
		return
	}
	if o.ExchangeID == "" {
		o.ExchangeID = m.ExchangeID
	}

	if !e.mode.ShouldExecuteSilently() {
		if err := e.persistOrder(o); err != nil {
			e.logger.Error("persist order after update failed", "order", o.ID, "error", err)
		}
	}
}

func (e *Engine) persistOrder(o *order.Order) error {
	row := toPersistedOrder(o)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return persistence.WithRetry(ctx, func() error {
		return e.orderRepo.Save(ctx, row, true)
	}, 2)
}

func toPersistedOrder(o *order.Order) *persistence.Order {
	var price float64
	if o.Price != nil {
		price, _ = o.Price.Float64()
	}
	qty, _ := o.Qty.Float64()
	filled, _ := o.FilledQty.Float64()
	row := &persistence.Order{
		ID:          o.ID.String(),
		Exchange:    o.Exchange,
		Symbol:      o.Symbol,
		Side:        string(o.Side),
		Type:        string(o.Type),
		Status:      string(o.Status),
		Price:       price,
		Qty:         qty,
		FilledQty:   filled,
		SubmittedAt: o.CreatedAt,
	}
	if o.CanceledAt != nil {
		row.ClosedAt = o.CanceledAt
	} else if o.ExecutedAt != nil && o.Status == enum.StatusExecuted {
		row.ClosedAt = o.ExecutedAt
	}
	return row
}

// Market exposes the market-data fabric for read-only inspection (e.g.
// a dashboard or a backtest driver feeding candles directly).
func (e *Engine) Market() *marketdata.State { return e.market }

// Mode exposes the trading-mode switch.
func (e *Engine) Mode() *mode.Switch { return e.mode }

// Pool exposes the persistence pool, for drivers that need their own
// repositories (e.g. cmd/cipher-backtest reading historical candles).
func (e *Engine) Pool() *persistence.Pool { return e.pool }

// DispatchCandleClosed exposes the candle-close dispatch path for
// drivers that feed candles directly (e.g. cmd/cipher-backtest replaying
// persisted history instead of a live feed).
func (e *Engine) DispatchCandleClosed(exchange, sym, timeframe string, timestampMs int64) {
	e.dispatchCandleClosed(exchange, sym, timeframe, timestampMs)
}

// AddCandle feeds one candle row into the market-data fabric, for
// drivers that aren't wired to internal/feed (e.g. backtest replay).
func (e *Engine) AddCandle(exchange, sym, timeframe string, timestampMs int64, open, close, high, low, volume float64) {
	e.market.AddCandle(exchange, sym, timeframe, timestampMs, open, close, high, low, volume)
}
