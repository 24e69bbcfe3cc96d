package domain

import (
	"regexp"
	"time"
)

// Source identifies which provider ultimately resolved a market item.
type Source string

const (
	SourcePrimary     Source = "primary"
	SourceFallback    Source = "fallback"
	SourceUnavailable Source = "unavailable"
)

// Severity classifies an auto-generated alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// symbolRx matches valid token symbols: uppercase alphanumeric, 2-10 chars.
var symbolRx = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// ValidSymbol reports whether s is a well-formed token symbol.
func ValidSymbol(s string) bool {
	return symbolRx.MatchString(s)
}

// RawQuote is the provider-agnostic intermediate record a client produces
// after normalizing its native response shape. Nil fields are absent.
type RawQuote struct {
	LastPrice      *float64
	DayChangePct   *float64
	IntraChangePct *float64
	Volume24h      *float64
	MarketCap      *float64
}

// MarketItem is one token's resolved market facts within a snapshot.
type MarketItem struct {
	Token          string   `json:"token"`
	LastPrice      *float64 `json:"last_price,omitempty"`
	DayChangePct   *float64 `json:"day_change_pct,omitempty"`
	IntraChangePct *float64 `json:"intra_change_pct,omitempty"`
	Volume24h      *float64 `json:"volume_24h,omitempty"`
	MarketCap      *float64 `json:"market_cap,omitempty"`
	Source         Source   `json:"source"`
	Error          string   `json:"error,omitempty"`
}

// Resolved reports whether the item carries a usable price. An item returned
// by a provider with a null price is not resolved.
func (i MarketItem) Resolved() bool {
	return i.LastPrice != nil
}

// MarketSnapshot is an ordered collection of market items, one per requested
// token. Never mutated after construction.
type MarketSnapshot struct {
	Items       []MarketItem `json:"items"`
	RetrievedAt time.Time    `json:"retrieved_at"`
	Note        string       `json:"note"`
}

// AutoAlert is a synthetic alert derived from a market item. It is created
// transiently per aggregation cycle and never persisted by the engine.
type AutoAlert struct {
	Token       string    `json:"token"`
	Severity    Severity  `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Generated   bool      `json:"generated"`
}

// Float returns a pointer to v. Convenience for building quotes and tests.
func Float(v float64) *float64 {
	return &v
}
