package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tokenwatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const polygonBaseURL = "https://api.polygon.io"

// PolygonProvider is the grouped end-of-day provider: one Polygon grouped
// daily call returns open/close bars for every crypto ticker on a date.
type PolygonProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewPolygonProvider creates the EOD provider. The free tier allows 5 calls
// per minute.
func NewPolygonProvider(tracer trace.Tracer, apiKey string) *PolygonProvider {
	return &PolygonProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: polygonBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: NewRateLimiter(5, 12*time.Second),
	}
}

// FetchGroupedDaily fetches the grouped daily bars for a calendar date and
// returns quotes keyed by native ticker (e.g. "X:BTCUSD"). LastPrice is the
// day's close. DayChangePct is set only when the open is positive: a zero
// open leaves the percentage absent rather than producing Inf or NaN.
func (p *PolygonProvider) FetchGroupedDaily(ctx context.Context, day time.Time) (map[string]domain.RawQuote, error) {
	_, span := p.tracer.Start(ctx, "polygon.fetch-grouped-daily")
	defer span.End()

	date := day.UTC().Format("2006-01-02")
	url := fmt.Sprintf("%s/v2/aggs/grouped/locale/global/market/crypto/%s?adjusted=true&apiKey=%s",
		p.baseURL, date, p.apiKey)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch grouped daily for %s: %w", date, err)
	}

	var raw struct {
		Results []struct {
			Ticker string  `json:"T"`
			Open   float64 `json:"o"`
			Close  float64 `json:"c"`
			Volume float64 `json:"v"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse grouped daily for %s: %w", date, err)
	}

	result := make(map[string]domain.RawQuote, len(raw.Results))
	for _, bar := range raw.Results {
		quote := domain.RawQuote{
			LastPrice: domain.Float(bar.Close),
			Volume24h: domain.Float(bar.Volume),
		}
		if bar.Open > 0 {
			quote.DayChangePct = domain.Float((bar.Close - bar.Open) / bar.Open * 100)
		}
		result[bar.Ticker] = quote
	}
	return result, nil
}

func (p *PolygonProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
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
		return nil, fmt.Errorf("polygon API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
