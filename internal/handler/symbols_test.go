package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tokenwatch/internal/registry"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

func symbolsRouter(reg *registry.Registry, apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tracer := trace.NewNoopTracerProvider().Tracer("handler-test")
	h := New(tracer, &snapshotStub{}, nil, reg, nil)
	router := gin.New()
	h.RegisterRoutes(router, apiKey)
	return router
}

func TestListSymbols(t *testing.T) {
	router := symbolsRouter(registry.NewDefault(), "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/symbols", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(body.Symbols) == 0 || body.Symbols[0] != "BTC" {
		t.Fatalf("unexpected symbols: %v", body.Symbols)
	}
}

func TestAddSymbol(t *testing.T) {
	reg := registry.NewDefault()
	router := symbolsRouter(reg, "")

	payload := `{"symbol": "pepe", "coingecko_slug": "pepe"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/symbols", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if !reg.Has("PEPE") {
		t.Fatal("symbol should be registered upper-cased")
	}
	if slug, ok := reg.CoinGeckoSlug("PEPE"); !ok || slug != "pepe" {
		t.Fatalf("unexpected slug mapping: %s ok=%v", slug, ok)
	}
}

func TestAddSymbolValidation(t *testing.T) {
	router := symbolsRouter(registry.NewDefault(), "")

	cases := []struct {
		name    string
		payload string
		want    int
	}{
		{"missing symbol", `{"coingecko_slug": "x"}`, http.StatusBadRequest},
		{"malformed symbol", `{"symbol": "way-too-long-and-invalid"}`, http.StatusBadRequest},
		{"duplicate", `{"symbol": "BTC"}`, http.StatusConflict},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/symbols", strings.NewReader(tc.payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != tc.want {
			t.Errorf("%s: expected %d, got %d: %s", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestAddSymbolRequiresAPIKey(t *testing.T) {
	router := symbolsRouter(registry.NewDefault(), "secret")

	payload := `{"symbol": "PEPE", "coingecko_slug": "pepe"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/symbols", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/symbols", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "secret")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 with key, got %d: %s", w.Code, w.Body.String())
	}

	// Reads stay open.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/symbols", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unauthenticated read, got %d", w.Code)
	}
}
