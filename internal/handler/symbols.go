package handler

import (
	"net/http"
	"strings"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/registry"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type addSymbolRequest struct {
	Symbol        string `json:"symbol" binding:"required"`
	CMCID         int64  `json:"cmc_id"`
	PolygonTicker string `json:"polygon_ticker"`
	CoinGeckoSlug string `json:"coingecko_slug"`
}

// ListSymbols godoc
// @Summary      List registered token symbols
// @Tags         symbols
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/symbols [get]
func (h *Handler) ListSymbols(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.list-symbols")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"symbols": h.registry.Symbols()})
}

// AddSymbol godoc
// @Summary      Register a new token symbol
// @Description  Adds a user-defined symbol with optional provider mappings. Symbols are immutable once registered.
// @Tags         symbols
// @Accept       json
// @Produce      json
// @Param        request  body  addSymbolRequest  true  "Symbol and provider mappings"
// @Success      201  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/symbols [post]
func (h *Handler) AddSymbol(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.add-symbol")
	defer span.End()

	var req addSymbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	span.SetAttributes(attribute.String("symbol", symbol))

	if !domain.ValidSymbol(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid symbol: must match [A-Z0-9]{2,10}"})
		return
	}
	if h.registry.Has(symbol) {
		c.JSON(http.StatusConflict, gin.H{"error": "symbol already registered: " + symbol})
		return
	}

	err := h.registry.Add(symbol, registry.Mapping{
		CMCID:         req.CMCID,
		PolygonTicker: req.PolygonTicker,
		CoinGeckoSlug: req.CoinGeckoSlug,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"symbol": symbol})
}
