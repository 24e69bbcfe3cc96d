package handler

import (
	"context"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/registry"
	"tokenwatch/internal/repository"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// SnapshotQuerier is the engine's query surface consumed by the HTTP API.
type SnapshotQuerier interface {
	Snapshot(ctx context.Context, symbols []string) (domain.MarketSnapshot, error)
	EODSnapshot(ctx context.Context, symbols []string) (domain.MarketSnapshot, error)
}

type HistoryReader interface {
	GetHistory(ctx context.Context, symbol string, limit int) ([]repository.HistoryEntry, error)
}

type Handler struct {
	tracer         trace.Tracer
	snapshots      SnapshotQuerier
	history        HistoryReader
	registry       *registry.Registry
	defaultSymbols []string
}

func New(tracer trace.Tracer, snapshots SnapshotQuerier, history HistoryReader, reg *registry.Registry, defaultSymbols []string) *Handler {
	return &Handler{
		tracer:         tracer,
		snapshots:      snapshots,
		history:        history,
		registry:       reg,
		defaultSymbols: defaultSymbols,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)
	r.GET("/api/market/snapshot", h.GetSnapshot)
	r.GET("/api/market/eod", h.GetEODSnapshot)
	r.GET("/api/market/alerts", h.GetAutoAlerts)
	r.GET("/api/market/history/:symbol", h.GetHistory)
	r.GET("/api/symbols", h.ListSymbols)
	r.POST("/api/symbols", APIKeyAuth(apiKey), h.AddSymbol)
}
