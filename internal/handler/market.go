package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tokenwatch/internal/alert"
	"tokenwatch/internal/domain"
	"tokenwatch/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// parseSymbols splits a comma-separated symbols query parameter. An empty
// parameter means the configured default set (nil lets the engine fall back
// to the full registry).
func (h *Handler) parseSymbols(c *gin.Context) ([]string, bool) {
	raw := strings.TrimSpace(c.Query("symbols"))
	if raw == "" {
		return h.defaultSymbols, true
	}

	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		symbol := strings.ToUpper(strings.TrimSpace(part))
		if symbol == "" {
			continue
		}
		if !domain.ValidSymbol(symbol) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid symbol: " + symbol})
			return nil, false
		}
		symbols = append(symbols, symbol)
	}
	return symbols, true
}

func snapshotStatus(err error) int {
	if errors.Is(err, service.ErrAllProvidersDown) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// GetSnapshot godoc
// @Summary      Get a live market snapshot
// @Description  Returns one market item per requested token, with provider fallback for unresolved symbols
// @Tags         market
// @Produce      json
// @Param        symbols  query  string  false  "Comma-separated token symbols (default: configured set)"
// @Success      200  {object}  domain.MarketSnapshot
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/market/snapshot [get]
func (h *Handler) GetSnapshot(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-snapshot")
	defer span.End()

	symbols, ok := h.parseSymbols(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.StringSlice("symbols", symbols))

	snapshot, err := h.snapshots.Snapshot(ctx, symbols)
	if err != nil {
		c.JSON(snapshotStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetEODSnapshot godoc
// @Summary      Get an end-of-day market snapshot
// @Description  Returns market items built from the previous calendar day's grouped daily bars
// @Tags         market
// @Produce      json
// @Param        symbols  query  string  false  "Comma-separated token symbols (default: configured set)"
// @Success      200  {object}  domain.MarketSnapshot
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/market/eod [get]
func (h *Handler) GetEODSnapshot(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-eod-snapshot")
	defer span.End()

	symbols, ok := h.parseSymbols(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.StringSlice("symbols", symbols))

	snapshot, err := h.snapshots.EODSnapshot(ctx, symbols)
	if err != nil {
		c.JSON(snapshotStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetAutoAlerts godoc
// @Summary      Get threshold-derived auto alerts
// @Description  Generates synthetic alerts for tokens whose daily change crossed the downside thresholds
// @Tags         market
// @Produce      json
// @Param        symbols  query  string  false  "Comma-separated token symbols (default: configured set)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/market/alerts [get]
func (h *Handler) GetAutoAlerts(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-auto-alerts")
	defer span.End()

	symbols, ok := h.parseSymbols(c)
	if !ok {
		return
	}

	snapshot, err := h.snapshots.EODSnapshot(ctx, symbols)
	if err != nil {
		c.JSON(snapshotStatus(err), gin.H{"error": err.Error()})
		return
	}

	alerts := alert.Generate(snapshot, time.Now())
	if alerts == nil {
		alerts = []domain.AutoAlert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// GetHistory godoc
// @Summary      Get persisted daily history for a token
// @Tags         market
// @Produce      json
// @Param        symbol  path   string  true   "Token symbol"
// @Param        limit   query  int     false  "Number of days (default 30, max 365)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/market/history/{symbol} [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	if !domain.ValidSymbol(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid symbol: " + symbol})
		return
	}
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history persistence is disabled"})
		return
	}

	limit := 30
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 365 {
			limit = n
		}
	}

	entries, err := h.history.GetHistory(ctx, symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "history": entries})
}
