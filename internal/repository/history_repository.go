package repository

import (
	"context"
	"time"

	"tokenwatch/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS market_history (
    symbol         TEXT        NOT NULL,
    day            DATE        NOT NULL,
    last_price     NUMERIC,
    day_change_pct NUMERIC,
    volume_24h     NUMERIC,
    market_cap     NUMERIC,
    source         TEXT        NOT NULL,
    error          TEXT,
    retrieved_at   TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (symbol, day)
);

CREATE INDEX IF NOT EXISTS idx_market_history_symbol_day
    ON market_history (symbol, day DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// HistoryEntry is one persisted market item for one calendar day. History is
// written by the background poller, never by the aggregation engine itself.
type HistoryEntry struct {
	Symbol       string    `json:"symbol"`
	Day          time.Time `json:"day"`
	LastPrice    *float64  `json:"last_price,omitempty"`
	DayChangePct *float64  `json:"day_change_pct,omitempty"`
	Volume24h    *float64  `json:"volume_24h,omitempty"`
	MarketCap    *float64  `json:"market_cap,omitempty"`
	Source       string    `json:"source"`
	Error        *string   `json:"error,omitempty"`
	RetrievedAt  time.Time `json:"retrieved_at"`
}

type HistoryRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewHistoryRepository(pool PgxPool, tracer trace.Tracer) *HistoryRepository {
	return &HistoryRepository{pool: pool, tracer: tracer}
}

func (r *HistoryRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "history-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createHistoryTable)
	return err
}

// RecordSnapshot upserts every item of an EOD snapshot under its day key.
// Re-recording the same day is idempotent.
func (r *HistoryRepository) RecordSnapshot(ctx context.Context, day time.Time, snapshot domain.MarketSnapshot) error {
	if len(snapshot.Items) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "history-repo.record-snapshot")
	defer span.End()

	batch := &pgx.Batch{}
	for _, item := range snapshot.Items {
		var errText *string
		if item.Error != "" {
			e := item.Error
			errText = &e
		}
		batch.Queue(
			`INSERT INTO market_history (symbol, day, last_price, day_change_pct, volume_24h, market_cap, source, error, retrieved_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (symbol, day) DO UPDATE SET
			     last_price = EXCLUDED.last_price,
			     day_change_pct = EXCLUDED.day_change_pct,
			     volume_24h = EXCLUDED.volume_24h,
			     market_cap = EXCLUDED.market_cap,
			     source = EXCLUDED.source,
			     error = EXCLUDED.error,
			     retrieved_at = EXCLUDED.retrieved_at`,
			item.Token, day, item.LastPrice, item.DayChangePct, item.Volume24h,
			item.MarketCap, string(item.Source), errText, snapshot.RetrievedAt,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshot.Items {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetHistory returns the most recent daily entries for a symbol.
func (r *HistoryRepository) GetHistory(ctx context.Context, symbol string, limit int) ([]HistoryEntry, error) {
	_, span := r.tracer.Start(ctx, "history-repo.get-history")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, day, last_price, day_change_pct, volume_24h, market_cap, source, error, retrieved_at
		 FROM market_history
		 WHERE symbol = $1
		 ORDER BY day DESC
		 LIMIT $2`,
		symbol, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Symbol, &e.Day, &e.LastPrice, &e.DayChangePct, &e.Volume24h, &e.MarketCap, &e.Source, &e.Error, &e.RetrievedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
