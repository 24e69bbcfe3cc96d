package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/registry"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// ErrSymbolNotFound is returned when neither the static mapping nor the
// dynamic search can resolve a symbol to a CoinGecko coin.
var ErrSymbolNotFound = errors.New("symbol not found on coingecko")

// SlugState tags the outcome of a dynamic slug lookup.
type SlugState int

const (
	SlugFound SlugState = iota
	SlugAmbiguous
	SlugNotFound
)

// SlugResolution is the result of resolving a symbol to a CoinGecko slug.
// Ambiguous carries the candidate slugs so callers can report them.
type SlugResolution struct {
	State      SlugState
	Slug       string
	Candidates []string
}

// wellKnownSlugs disambiguates tickers shared by several listed coins.
// Checked before falling back to arbitrary search results.
var wellKnownSlugs = map[string]string{
	"UNI":  "uniswap",
	"GRT":  "the-graph",
	"COMP": "compound-governance-token",
	"MANA": "decentraland",
	"SAND": "the-sandbox",
	"ARB":  "arbitrum",
	"OP":   "optimism",
	"TON":  "the-open-network",
}

// CoinGeckoProvider is the fallback spot-price provider, queried per symbol
// for tokens the primary provider could not resolve.
type CoinGeckoProvider struct {
	client   *http.Client
	baseURL  string
	tracer   trace.Tracer
	limiter  *RateLimiter
	registry *registry.Registry
}

// NewCoinGeckoProvider creates the fallback provider. The free API allows
// roughly 8 calls per minute.
func NewCoinGeckoProvider(tracer trace.Tracer, reg *registry.Registry) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  coingeckoBaseURL,
		tracer:   tracer,
		limiter:  NewRateLimiter(8, 7500*time.Millisecond),
		registry: reg,
	}
}

// FetchSpot fetches the current price, 24h change, 24h volume, and market
// cap for one symbol, resolving its slug first if the static mapping has no
// entry.
func (p *CoinGeckoProvider) FetchSpot(ctx context.Context, symbol string) (*domain.RawQuote, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-spot")
	defer span.End()

	res, err := p.ResolveSlug(ctx, symbol)
	if err != nil {
		return nil, err
	}
	switch res.State {
	case SlugNotFound:
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	case SlugAmbiguous:
		return nil, fmt.Errorf("ambiguous symbol %s: candidates %s", symbol, strings.Join(res.Candidates, ", "))
	}

	reqURL := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_vol=true&include_24hr_change=true&include_market_cap=true",
		p.baseURL, res.Slug)

	body, err := p.doRequest(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetch spot price for %s: %w", symbol, err)
	}

	// Response shape: {"bitcoin": {"usd": 97000, "usd_market_cap": ..., "usd_24h_vol": ..., "usd_24h_change": ...}}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse spot price for %s: %w", symbol, err)
	}

	data, ok := raw[res.Slug]
	if !ok {
		return &domain.RawQuote{}, nil
	}

	quote := &domain.RawQuote{}
	if v, ok := data["usd"]; ok {
		quote.LastPrice = domain.Float(v)
	}
	if v, ok := data["usd_24h_change"]; ok {
		quote.DayChangePct = domain.Float(v)
	}
	if v, ok := data["usd_24h_vol"]; ok {
		quote.Volume24h = domain.Float(v)
	}
	if v, ok := data["usd_market_cap"]; ok {
		quote.MarketCap = domain.Float(v)
	}
	return quote, nil
}

// ResolveSlug maps a symbol to a CoinGecko slug. Lookup is two-tier: the
// static registry mapping first, then a live /search call. Exact ticker
// matches win; when several coins share the ticker the curated well-known
// mapping decides, otherwise the result is Ambiguous.
func (p *CoinGeckoProvider) ResolveSlug(ctx context.Context, symbol string) (SlugResolution, error) {
	if slug, ok := p.registry.CoinGeckoSlug(symbol); ok {
		return SlugResolution{State: SlugFound, Slug: slug}, nil
	}

	reqURL := fmt.Sprintf("%s/search?query=%s", p.baseURL, url.QueryEscape(symbol))
	body, err := p.doRequest(ctx, reqURL)
	if err != nil {
		return SlugResolution{}, fmt.Errorf("search %s: %w", symbol, err)
	}

	var raw struct {
		Coins []struct {
			ID     string `json:"id"`
			Symbol string `json:"symbol"`
		} `json:"coins"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return SlugResolution{}, fmt.Errorf("parse search for %s: %w", symbol, err)
	}

	var exact []string
	for _, coin := range raw.Coins {
		if strings.EqualFold(coin.Symbol, symbol) {
			exact = append(exact, coin.ID)
		}
	}

	switch len(exact) {
	case 0:
		return SlugResolution{State: SlugNotFound}, nil
	case 1:
		return SlugResolution{State: SlugFound, Slug: exact[0]}, nil
	}
	if slug, ok := wellKnownSlugs[strings.ToUpper(symbol)]; ok {
		return SlugResolution{State: SlugFound, Slug: slug}, nil
	}
	return SlugResolution{State: SlugAmbiguous, Candidates: exact}, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
