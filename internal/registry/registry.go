package registry

import (
	"fmt"
	"sync"

	"tokenwatch/internal/domain"
)

// Mapping holds one token's provider-native identifiers. A zero value for a
// field means the symbol is unsupported by that provider and must be skipped.
type Mapping struct {
	CMCID         int64
	PolygonTicker string
	CoinGeckoSlug string
}

// Registry maps token symbols to provider-native identifiers. The curated
// set is loaded once at startup; end users may add symbols at runtime, so
// lookups are guarded for concurrent access.
type Registry struct {
	mu       sync.RWMutex
	mappings map[string]Mapping
	order    []string
}

// defaultMappings is the curated symbol set shipped with the service.
var defaultMappings = map[string]Mapping{
	"BTC":   {CMCID: 1, PolygonTicker: "X:BTCUSD", CoinGeckoSlug: "bitcoin"},
	"ETH":   {CMCID: 1027, PolygonTicker: "X:ETHUSD", CoinGeckoSlug: "ethereum"},
	"SOL":   {CMCID: 5426, PolygonTicker: "X:SOLUSD", CoinGeckoSlug: "solana"},
	"XRP":   {CMCID: 52, PolygonTicker: "X:XRPUSD", CoinGeckoSlug: "ripple"},
	"ADA":   {CMCID: 2010, PolygonTicker: "X:ADAUSD", CoinGeckoSlug: "cardano"},
	"DOGE":  {CMCID: 74, PolygonTicker: "X:DOGEUSD", CoinGeckoSlug: "dogecoin"},
	"DOT":   {CMCID: 6636, PolygonTicker: "X:DOTUSD", CoinGeckoSlug: "polkadot"},
	"AVAX":  {CMCID: 5805, PolygonTicker: "X:AVAXUSD", CoinGeckoSlug: "avalanche-2"},
	"LINK":  {CMCID: 1975, PolygonTicker: "X:LINKUSD", CoinGeckoSlug: "chainlink"},
	"MATIC": {CMCID: 3890, PolygonTicker: "X:MATICUSD", CoinGeckoSlug: "matic-network"},
	"TAO":   {CMCID: 22974, CoinGeckoSlug: "bittensor"},
}

var defaultOrder = []string{
	"BTC", "ETH", "SOL", "XRP", "ADA",
	"DOGE", "DOT", "AVAX", "LINK", "MATIC", "TAO",
}

// NewDefault builds a registry seeded with the curated symbol set.
func NewDefault() *Registry {
	mappings := make(map[string]Mapping, len(defaultMappings))
	for symbol, m := range defaultMappings {
		mappings[symbol] = m
	}
	return &Registry{
		mappings: mappings,
		order:    append([]string(nil), defaultOrder...),
	}
}

// New builds an empty registry. Used by tests that need full control over
// the symbol set.
func New() *Registry {
	return &Registry{mappings: make(map[string]Mapping)}
}

// Add registers a new symbol. Symbols are immutable once defined: adding an
// already-registered symbol fails rather than silently remapping it.
func (r *Registry) Add(symbol string, m Mapping) error {
	if !domain.ValidSymbol(symbol) {
		return fmt.Errorf("invalid symbol %q: must match [A-Z0-9]{2,10}", symbol)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.mappings[symbol]; exists {
		return fmt.Errorf("symbol %s already registered", symbol)
	}
	r.mappings[symbol] = m
	r.order = append(r.order, symbol)
	return nil
}

// Has reports whether symbol is registered.
func (r *Registry) Has(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.mappings[symbol]
	return ok
}

// CMCID resolves a symbol to its CoinMarketCap numeric ID.
func (r *Registry) CMCID(symbol string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mappings[symbol]
	if !ok || m.CMCID == 0 {
		return 0, false
	}
	return m.CMCID, true
}

// PolygonTicker resolves a symbol to its Polygon crypto ticker (X:BTCUSD).
func (r *Registry) PolygonTicker(symbol string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mappings[symbol]
	if !ok || m.PolygonTicker == "" {
		return "", false
	}
	return m.PolygonTicker, true
}

// CoinGeckoSlug resolves a symbol to its CoinGecko coin slug. A miss here is
// not final: the fallback provider may still find the slug dynamically.
func (r *Registry) CoinGeckoSlug(symbol string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mappings[symbol]
	if !ok || m.CoinGeckoSlug == "" {
		return "", false
	}
	return m.CoinGeckoSlug, true
}

// Symbols returns the registered symbols in registration order.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
