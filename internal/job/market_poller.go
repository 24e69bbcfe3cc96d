package job

import (
	"context"
	"log"
	"time"

	"tokenwatch/internal/alert"
	"tokenwatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// SnapshotSource is the engine query surface the poller drives.
type SnapshotSource interface {
	EODSnapshot(ctx context.Context, symbols []string) (domain.MarketSnapshot, error)
}

// HistoryRecorder persists daily snapshots. Optional.
type HistoryRecorder interface {
	RecordSnapshot(ctx context.Context, day time.Time, snapshot domain.MarketSnapshot) error
}

// AlertNotifier pushes generated alerts to an outbound channel. Optional.
type AlertNotifier interface {
	NotifyAlerts(alerts []domain.AutoAlert) error
}

// MarketPoller periodically refreshes the EOD snapshot, records history, and
// pushes critical alerts. The engine core stays passive; this poller is the
// collaborator that keeps the cache warm.
type MarketPoller struct {
	tracer       trace.Tracer
	snapshots    SnapshotSource
	history      HistoryRecorder
	notifier     AlertNotifier
	pollInterval time.Duration
}

func NewMarketPoller(tracer trace.Tracer, snapshots SnapshotSource, history HistoryRecorder, notifier AlertNotifier, pollIntervalSecs int) *MarketPoller {
	return &MarketPoller{
		tracer:       tracer,
		snapshots:    snapshots,
		history:      history,
		notifier:     notifier,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
	}
}

// Start runs the polling loop. Blocks until ctx is cancelled.
func (p *MarketPoller) Start(ctx context.Context) {
	log.Println("Market poller starting...")

	p.refresh(ctx)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Market poller stopped")
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *MarketPoller) refresh(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "market-poller.refresh")
	defer span.End()

	snapshot, err := p.snapshots.EODSnapshot(ctx, nil)
	if err != nil {
		log.Printf("poller snapshot error: %v", err)
		return
	}

	if p.history != nil {
		day := time.Now().UTC().AddDate(0, 0, -1)
		if err := p.history.RecordSnapshot(ctx, day, snapshot); err != nil {
			log.Printf("poller history write error: %v", err)
		}
	}

	if p.notifier == nil {
		return
	}
	var critical []domain.AutoAlert
	for _, a := range alert.Generate(snapshot, time.Now()) {
		if a.Severity == domain.SeverityCritical {
			critical = append(critical, a)
		}
	}
	if len(critical) == 0 {
		return
	}
	if err := p.notifier.NotifyAlerts(critical); err != nil {
		log.Printf("poller alert notify error: %v", err)
	}
}
