package enum

import "github.com/shopspring/decimal"

// Capability describes what a named exchange supports: its fee rate,
// spot vs. futures nature, settlement currency, and which timeframes and
// leverage modes it offers in which trading modes. This replaces the
// source's variant<...>-typed per-exchange capability value with a plain
// struct of optional fields.
type Capability struct {
	Exchange             string
	Fee                  decimal.Decimal
	Type                 ExchangeType
	SettlementCurrency   string
	SupportedTimeframes  []Timeframe
	SupportedLeverage    []int
	ModesBacktesting     bool
	ModesLiveTrading     bool
}

// Catalog is the exchange-capability registry, keyed by exchange name.
// It is populated by configuration at startup (the core doesn't ship a
// hardcoded list of real exchanges). Lookup and SupportsTimeframe answer
// what an exchange offers; no other package in this module calls them.
type Catalog struct {
	entries map[string]Capability
}

// NewCatalog builds an empty capability catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]Capability)}
}

// Register adds or replaces the capability entry for an exchange.
func (c *Catalog) Register(cap Capability) {
	c.entries[cap.Exchange] = cap
}

// Lookup returns the capability entry for an exchange, if registered.
func (c *Catalog) Lookup(exchange string) (Capability, bool) {
	cap, ok := c.entries[exchange]
	return cap, ok
}

// SupportsTimeframe reports whether exchange is registered and lists tf
// among its supported timeframes.
func (c *Catalog) SupportsTimeframe(exchange string, tf Timeframe) bool {
	cap, ok := c.entries[exchange]
	if !ok {
		return false
	}
	for _, t := range cap.SupportedTimeframes {
		if t == tf {
			return true
		}
	}
	return false
}
