package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/registry"

	"go.opentelemetry.io/otel/trace"
)

const cmcBaseURL = "https://pro-api.coinmarketcap.com"

// CMCProvider is the primary quote provider: the CoinMarketCap quotes API,
// batched over numeric currency IDs.
type CMCProvider struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	tracer   trace.Tracer
	limiter  *RateLimiter
	registry *registry.Registry
}

// NewCMCProvider creates the primary provider. The free tier allows ~30
// calls per minute; the limiter refills one token every 2 seconds.
func NewCMCProvider(tracer trace.Tracer, reg *registry.Registry, apiKey string) *CMCProvider {
	return &CMCProvider{
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  cmcBaseURL,
		apiKey:   apiKey,
		tracer:   tracer,
		limiter:  NewRateLimiter(30, 2*time.Second),
		registry: reg,
	}
}

// FetchBatch fetches live quotes for every mapped symbol in a single call.
// Symbols with no CMC mapping are skipped. A symbol present in the response
// with a null price yields a quote with no LastPrice, not an error: the
// aggregator treats it as unresolved and eligible for fallback.
func (p *CMCProvider) FetchBatch(ctx context.Context, symbols []string) (map[string]domain.RawQuote, error) {
	_, span := p.tracer.Start(ctx, "cmc.fetch-batch")
	defer span.End()

	ids := make([]string, 0, len(symbols))
	idToSymbol := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		id, ok := p.registry.CMCID(symbol)
		if !ok {
			continue
		}
		idStr := strconv.FormatInt(id, 10)
		ids = append(ids, idStr)
		idToSymbol[idStr] = symbol
	}
	if len(ids) == 0 {
		return map[string]domain.RawQuote{}, nil
	}

	url := fmt.Sprintf("%s/v2/cryptocurrency/quotes/latest?id=%s&convert=USD",
		p.baseURL, strings.Join(ids, ","))

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}

	var raw struct {
		Data map[string]struct {
			Quote map[string]struct {
				Price            *float64 `json:"price"`
				PercentChange1H  *float64 `json:"percent_change_1h"`
				PercentChange24H *float64 `json:"percent_change_24h"`
				Volume24H        *float64 `json:"volume_24h"`
				MarketCap        *float64 `json:"market_cap"`
			} `json:"quote"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse quotes: %w", err)
	}

	result := make(map[string]domain.RawQuote, len(raw.Data))
	for id, entry := range raw.Data {
		symbol, ok := idToSymbol[id]
		if !ok {
			continue
		}
		usd, ok := entry.Quote["USD"]
		if !ok {
			// Symbol returned without a USD quote: present but unresolved.
			result[symbol] = domain.RawQuote{}
			continue
		}
		result[symbol] = domain.RawQuote{
			LastPrice:      usd.Price,
			DayChangePct:   usd.PercentChange24H,
			IntraChangePct: usd.PercentChange1H,
			Volume24h:      usd.Volume24H,
			MarketCap:      usd.MarketCap,
		}
	}
	return result, nil
}

func (p *CMCProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coinmarketcap API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
