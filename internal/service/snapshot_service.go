package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tokenwatch/internal/cache"
	"tokenwatch/internal/domain"
	"tokenwatch/internal/registry"

	"go.opentelemetry.io/otel/trace"
)

const (
	defaultQuoteTTL = 90 * time.Second
	defaultEODTTL   = 5 * time.Minute

	// fallbackCallTimeout bounds each fallback spot call so one slow
	// provider cannot stall the whole snapshot.
	fallbackCallTimeout = 15 * time.Second
)

// ErrAllProvidersDown signals a total failure: no provider was reachable for
// the batch window, so no partial snapshot can be constructed. Per-symbol
// failures never surface as an error; they degrade individual items instead.
var ErrAllProvidersDown = errors.New("no market data provider reachable")

// PrimaryProvider is the batched live-quote source.
type PrimaryProvider interface {
	FetchBatch(ctx context.Context, symbols []string) (map[string]domain.RawQuote, error)
}

// EODProvider returns grouped daily bars keyed by provider-native ticker.
type EODProvider interface {
	FetchGroupedDaily(ctx context.Context, day time.Time) (map[string]domain.RawQuote, error)
}

// FallbackProvider is queried per symbol, only for symbols the batch source
// could not resolve.
type FallbackProvider interface {
	FetchSpot(ctx context.Context, symbol string) (*domain.RawQuote, error)
}

// SnapshotService orchestrates provider calls, caching, and fallback to
// produce market snapshots.
type SnapshotService struct {
	tracer   trace.Tracer
	registry *registry.Registry
	primary  PrimaryProvider
	eod      EODProvider
	fallback FallbackProvider
	cache    cache.Store
	quoteTTL time.Duration
	eodTTL   time.Duration
	now      func() time.Time
}

func NewSnapshotService(
	tracer trace.Tracer,
	reg *registry.Registry,
	primary PrimaryProvider,
	eod EODProvider,
	fallback FallbackProvider,
	store cache.Store,
	quoteTTL, eodTTL time.Duration,
) *SnapshotService {
	if quoteTTL <= 0 {
		quoteTTL = defaultQuoteTTL
	}
	if eodTTL <= 0 {
		eodTTL = defaultEODTTL
	}
	return &SnapshotService{
		tracer:   tracer,
		registry: reg,
		primary:  primary,
		eod:      eod,
		fallback: fallback,
		cache:    store,
		quoteTTL: quoteTTL,
		eodTTL:   eodTTL,
		now:      time.Now,
	}
}

// Snapshot assembles a live-quote snapshot for the requested symbols. An
// empty symbol list means the full registry set. The primary batch is fetched
// once for the whole registry so the cached response serves any subset.
func (s *SnapshotService) Snapshot(ctx context.Context, symbols []string) (domain.MarketSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "snapshot-service.snapshot")
	defer span.End()

	if len(symbols) == 0 {
		symbols = s.registry.Symbols()
	}

	quotes, primaryErr := s.cachedBatch(ctx, "quotes:latest", s.quoteTTL, func(ctx context.Context) (map[string]domain.RawQuote, error) {
		return s.primary.FetchBatch(ctx, s.registry.Symbols())
	})
	if primaryErr != nil {
		log.Printf("primary provider error: %v", primaryErr)
	}

	return s.assemble(ctx, symbols, assembleParams{
		quotes:     quotes,
		primaryErr: primaryErr,
		mapped: func(symbol string) bool {
			_, ok := s.registry.CMCID(symbol)
			return ok
		},
		note:        "live quotes (24h change window)",
		missingText: "unavailable",
	})
}

// EODSnapshot assembles a snapshot from the previous calendar day's grouped
// daily bars. Grouped data changes once per day, so repeated requests inside
// the TTL window reuse one provider call.
func (s *SnapshotService) EODSnapshot(ctx context.Context, symbols []string) (domain.MarketSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "snapshot-service.eod-snapshot")
	defer span.End()

	if len(symbols) == 0 {
		symbols = s.registry.Symbols()
	}

	day := s.now().UTC().AddDate(0, 0, -1)
	date := day.Format("2006-01-02")

	bars, primaryErr := s.cachedBatch(ctx, "grouped:"+date, s.eodTTL, func(ctx context.Context) (map[string]domain.RawQuote, error) {
		return s.eod.FetchGroupedDaily(ctx, day)
	})
	if primaryErr != nil {
		log.Printf("eod provider error for %s: %v", date, primaryErr)
	}

	// Re-key the ticker-indexed bars by token symbol.
	quotes := make(map[string]domain.RawQuote, len(symbols))
	for _, symbol := range symbols {
		ticker, ok := s.registry.PolygonTicker(symbol)
		if !ok {
			continue
		}
		if bar, present := bars[ticker]; present {
			quotes[symbol] = bar
		}
	}

	return s.assemble(ctx, symbols, assembleParams{
		quotes:     quotes,
		primaryErr: primaryErr,
		mapped: func(symbol string) bool {
			_, ok := s.registry.PolygonTicker(symbol)
			return ok
		},
		note:        fmt.Sprintf("EOD data for %s (free tier: previous trading day close)", date),
		missingText: "unavailable (EOD only)",
	})
}

type assembleParams struct {
	// quotes is the symbol-keyed primary batch result. Presence with a nil
	// LastPrice means the provider returned the symbol with a null price.
	quotes      map[string]domain.RawQuote
	primaryErr  error
	mapped      func(symbol string) bool
	note        string
	missingText string
}

// assemble runs the two-phase merge: primary batch results first, then a
// concurrent fallback fan-out for exactly the unresolved symbols.
func (s *SnapshotService) assemble(ctx context.Context, symbols []string, p assembleParams) (domain.MarketSnapshot, error) {
	items := make([]domain.MarketItem, len(symbols))
	var fallbackIdx []int

	for i, symbol := range symbols {
		if !s.registry.Has(symbol) {
			items[i] = unavailableItem(symbol, "unsupported")
			continue
		}
		if p.primaryErr == nil && p.mapped(symbol) {
			if quote, present := p.quotes[symbol]; present && quote.LastPrice != nil {
				items[i] = quoteItem(symbol, quote, domain.SourcePrimary)
				continue
			}
		}
		// Unmapped for the batch provider, absent from the batch window, or
		// returned with a null price: unresolved, eligible for fallback.
		fallbackIdx = append(fallbackIdx, i)
	}

	fallbackReached := s.runFallback(ctx, symbols, items, fallbackIdx, p.missingText)

	if p.primaryErr != nil && len(fallbackIdx) > 0 && !fallbackReached {
		return domain.MarketSnapshot{}, ErrAllProvidersDown
	}

	return domain.MarketSnapshot{
		Items:       items,
		RetrievedAt: s.now().UTC(),
		Note:        p.note,
	}, nil
}

// runFallback issues one spot call per unresolved symbol, fanned out
// concurrently and bounded by per-call timeouts. It reports whether the
// fallback provider was reachable at all.
func (s *SnapshotService) runFallback(ctx context.Context, symbols []string, items []domain.MarketItem, idx []int, missingText string) bool {
	if len(idx) == 0 {
		return false
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		reached bool
	)
	for _, i := range idx {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			symbol := symbols[i]

			callCtx, cancel := context.WithTimeout(ctx, fallbackCallTimeout)
			defer cancel()

			quote, err := s.fallback.FetchSpot(callCtx, symbol)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				items[i] = unavailableItem(symbol, fmt.Sprintf("unavailable: %v", err))
			case quote == nil || quote.LastPrice == nil:
				reached = true
				items[i] = unavailableItem(symbol, missingText)
			default:
				reached = true
				items[i] = quoteItem(symbol, *quote, domain.SourceFallback)
			}
		}(i)
	}
	wg.Wait()
	return reached
}

// cachedBatch serves the batch window from cache when fresh, otherwise runs
// fetch and stores the result. Cache errors degrade to a miss.
func (s *SnapshotService) cachedBatch(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (map[string]domain.RawQuote, error)) (map[string]domain.RawQuote, error) {
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Printf("cache read error for %s: %v", key, err)
	} else if ok {
		var quotes map[string]domain.RawQuote
		if err := json.Unmarshal(data, &quotes); err == nil {
			return quotes, nil
		}
		log.Printf("cache decode error for %s, refetching", key)
	}

	quotes, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(quotes); err == nil {
		if err := s.cache.Set(ctx, key, data, ttl); err != nil {
			log.Printf("cache write error for %s: %v", key, err)
		}
	}
	return quotes, nil
}

func quoteItem(symbol string, q domain.RawQuote, source domain.Source) domain.MarketItem {
	return domain.MarketItem{
		Token:          symbol,
		LastPrice:      q.LastPrice,
		DayChangePct:   q.DayChangePct,
		IntraChangePct: q.IntraChangePct,
		Volume24h:      q.Volume24h,
		MarketCap:      q.MarketCap,
		Source:         source,
	}
}

func unavailableItem(symbol, reason string) domain.MarketItem {
	return domain.MarketItem{
		Token:  symbol,
		Source: domain.SourceUnavailable,
		Error:  reason,
	}
}
