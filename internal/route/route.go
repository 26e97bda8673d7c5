// Package route holds the operator-configured routing table binding
// (exchange, symbol, timeframe) tuples to strategies. It is the engine's
// only source of "what to trade" — routes are configured up front, not
// scanned off an exchange's live market list.
package route

import (
	"fmt"
	"sync"

	"github.com/cipherTrader/cipher-trader/internal/enum"
)

// Route binds one (exchange, symbol, timeframe) tuple to a strategy. DNA
// is an optional compact hyperparameter encoding the strategy's own
// schema decodes; the router treats it as an opaque string.
type Route struct {
	Exchange     string
	Symbol       string
	Timeframe    enum.Timeframe
	StrategyName string
	DNA          string
}

// Router holds an ordered sequence of trading routes plus a separate
// list of data-only routes (symbols ingested for indicator/cross-market
// context but never traded directly). It has set-once-per-run semantics:
// SetRoutes may only be called once; Reset clears everything so a new
// run (e.g. a fresh backtest) can call SetRoutes again.
type Router struct {
	mu         sync.Mutex
	routes     []Route
	dataRoutes []Route
	setDone    bool
}

// NewRouter creates an empty, unset router.
func NewRouter() *Router {
	return &Router{}
}

// ErrAlreadySet is returned by SetRoutes when the router was already
// populated for this run; call Reset first.
var ErrAlreadySet = fmt.Errorf("route: router already set for this run")

// SetRoutes installs the trading and data-only routes. It may only be
// called once between Reset calls.
func (r *Router) SetRoutes(routes, dataRoutes []Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setDone {
		return ErrAlreadySet
	}
	r.routes = append([]Route(nil), routes...)
	r.dataRoutes = append([]Route(nil), dataRoutes...)
	r.setDone = true
	return nil
}

// Reset clears the router so SetRoutes can be called again.
func (r *Router) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = nil
	r.dataRoutes = nil
	r.setDone = false
}

// Routes returns a copy of the trading routes.
func (r *Router) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.routes...)
}

// DataRoutes returns a copy of the data-only routes.
func (r *Router) DataRoutes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.dataRoutes...)
}

// AllSymbols returns every (exchange, symbol, timeframe) tuple across
// both trading and data routes, used to pre-register internal/marketdata
// slots at startup.
func (r *Router) AllSymbols() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]Route, 0, len(r.routes)+len(r.dataRoutes))
	all = append(all, r.routes...)
	all = append(all, r.dataRoutes...)
	return all
}
