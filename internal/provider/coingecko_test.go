package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"tokenwatch/internal/registry"

	"go.opentelemetry.io/otel/trace"
)

func geckoProvider(t *testing.T, reg *registry.Registry, transport roundTripFunc) *CoinGeckoProvider {
	t.Helper()
	provider := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"), reg)
	provider.baseURL = "http://example"
	provider.client = &http.Client{Transport: transport}
	provider.limiter = NewRateLimiter(10, time.Millisecond)
	return provider
}

func TestCoinGeckoFetchSpotStaticSlug(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	if err := reg.Add("BTC", registry.Mapping{CoinGeckoSlug: "bitcoin"}); err != nil {
		t.Fatal(err)
	}

	provider := geckoProvider(t, reg, func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/simple/price") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if got := req.URL.Query().Get("ids"); got != "bitcoin" {
			t.Fatalf("unexpected ids param: %s", got)
		}
		return jsonResponse(http.StatusOK,
			`{"bitcoin": {"usd": 65000.5, "usd_24h_change": -1.5, "usd_24h_vol": 1e9, "usd_market_cap": 1.2e12}}`), nil
	})

	quote, err := provider.FetchSpot(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.LastPrice == nil || *quote.LastPrice != 65000.5 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if quote.DayChangePct == nil || *quote.DayChangePct != -1.5 {
		t.Fatalf("unexpected day change: %+v", quote)
	}
	if quote.MarketCap == nil || *quote.MarketCap != 1.2e12 {
		t.Fatalf("unexpected market cap: %+v", quote)
	}
	if quote.IntraChangePct != nil {
		t.Fatal("spot endpoint has no intraday change, field should stay absent")
	}
}

func TestCoinGeckoFetchSpotResolvesSlugDynamically(t *testing.T) {
	t.Parallel()

	provider := geckoProvider(t, registry.New(), func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.Contains(req.URL.Path, "/search"):
			if got := req.URL.Query().Get("query"); got != "PEPE" {
				t.Fatalf("unexpected search query: %s", got)
			}
			return jsonResponse(http.StatusOK,
				`{"coins": [{"id": "pepe", "symbol": "PEPE"}, {"id": "pepe-classic", "symbol": "PEPECLS"}]}`), nil
		case strings.Contains(req.URL.Path, "/simple/price"):
			if got := req.URL.Query().Get("ids"); got != "pepe" {
				t.Fatalf("unexpected ids param: %s", got)
			}
			return jsonResponse(http.StatusOK, `{"pepe": {"usd": 0.000012}}`), nil
		}
		t.Fatalf("unexpected path: %s", req.URL.Path)
		return nil, nil
	})

	quote, err := provider.FetchSpot(context.Background(), "PEPE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.LastPrice == nil || *quote.LastPrice != 0.000012 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestCoinGeckoResolveSlugNotFound(t *testing.T) {
	t.Parallel()

	provider := geckoProvider(t, registry.New(), func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"coins": [{"id": "other", "symbol": "OTHER"}]}`), nil
	})

	res, err := provider.ResolveSlug(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != SlugNotFound {
		t.Fatalf("expected SlugNotFound, got %+v", res)
	}

	_, err = provider.FetchSpot(context.Background(), "NOPE")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestCoinGeckoResolveSlugWellKnownWins(t *testing.T) {
	t.Parallel()

	provider := geckoProvider(t, registry.New(), func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK,
			`{"coins": [{"id": "uniswap", "symbol": "UNI"}, {"id": "unicorn-token", "symbol": "UNI"}]}`), nil
	})

	res, err := provider.ResolveSlug(context.Background(), "UNI")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != SlugFound || res.Slug != "uniswap" {
		t.Fatalf("curated mapping should decide shared tickers, got %+v", res)
	}
}

func TestCoinGeckoResolveSlugAmbiguous(t *testing.T) {
	t.Parallel()

	provider := geckoProvider(t, registry.New(), func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK,
			`{"coins": [{"id": "alpha-token", "symbol": "ALPHA"}, {"id": "alpha-finance", "symbol": "ALPHA"}]}`), nil
	})

	res, err := provider.ResolveSlug(context.Background(), "ALPHA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != SlugAmbiguous || len(res.Candidates) != 2 {
		t.Fatalf("expected ambiguous resolution, got %+v", res)
	}

	_, err = provider.FetchSpot(context.Background(), "ALPHA")
	if err == nil || !strings.Contains(err.Error(), "alpha-token") {
		t.Fatalf("ambiguity error should list candidates, got %v", err)
	}
}

func TestCoinGeckoFetchSpotEmptyResponse(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	if err := reg.Add("BTC", registry.Mapping{CoinGeckoSlug: "bitcoin"}); err != nil {
		t.Fatal(err)
	}

	provider := geckoProvider(t, reg, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	quote, err := provider.FetchSpot(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("a reachable provider with no data is not an error: %v", err)
	}
	if quote == nil || quote.LastPrice != nil {
		t.Fatalf("expected an empty quote, got %+v", quote)
	}
}
