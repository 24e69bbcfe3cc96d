package alert

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"tokenwatch/internal/domain"
)

func snapshotWithChanges(changes map[string]float64) domain.MarketSnapshot {
	var items []domain.MarketItem
	for _, token := range []string{"BTC", "ETH", "SOL", "TAO"} {
		pct, ok := changes[token]
		if !ok {
			continue
		}
		items = append(items, domain.MarketItem{
			Token:        token,
			LastPrice:    domain.Float(100),
			DayChangePct: domain.Float(pct),
			Source:       domain.SourcePrimary,
		})
	}
	return domain.MarketSnapshot{Items: items}
}

func TestGenerateClassifiesBySeverity(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	snapshot := snapshotWithChanges(map[string]float64{
		"BTC": -12.3,
		"ETH": -7.0,
		"SOL": -3.0,
		"TAO": 4.2,
	})

	alerts := Generate(snapshot, now)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d: %+v", len(alerts), alerts)
	}

	btc := alerts[0]
	if btc.Token != "BTC" || btc.Severity != domain.SeverityCritical {
		t.Fatalf("unexpected first alert: %+v", btc)
	}
	if !strings.Contains(btc.Title, "down 12.3%") {
		t.Fatalf("unexpected title: %s", btc.Title)
	}
	if !btc.Generated {
		t.Fatal("auto alerts must be marked generated")
	}
	if got := btc.Deadline; !got.Equal(now.Add(12 * time.Hour)) {
		t.Fatalf("unexpected deadline: %s", got)
	}

	eth := alerts[1]
	if eth.Token != "ETH" || eth.Severity != domain.SeverityWarning {
		t.Fatalf("unexpected second alert: %+v", eth)
	}
}

func TestGenerateThresholdBoundaries(t *testing.T) {
	t.Parallel()
	now := time.Now()

	cases := []struct {
		pct  float64
		want domain.Severity
	}{
		{-10.0, domain.SeverityCritical},
		{-9.99, domain.SeverityWarning},
		{-5.0, domain.SeverityWarning},
		{-4.99, ""},
	}
	for _, tc := range cases {
		alerts := Generate(snapshotWithChanges(map[string]float64{"BTC": tc.pct}), now)
		if tc.want == "" {
			if len(alerts) != 0 {
				t.Errorf("pct=%.2f: expected no alert, got %+v", tc.pct, alerts)
			}
			continue
		}
		if len(alerts) != 1 || alerts[0].Severity != tc.want {
			t.Errorf("pct=%.2f: expected %s alert, got %+v", tc.pct, tc.want, alerts)
		}
	}
}

func TestGenerateSkipsUnresolvedItems(t *testing.T) {
	t.Parallel()
	snapshot := domain.MarketSnapshot{Items: []domain.MarketItem{
		{Token: "BTC", Source: domain.SourceUnavailable, Error: "unavailable"},
		{Token: "ETH", LastPrice: domain.Float(3400), Source: domain.SourcePrimary},
		{Token: "TAO", DayChangePct: domain.Float(-20), Source: domain.SourcePrimary},
	}}

	if alerts := Generate(snapshot, time.Now()); len(alerts) != 0 {
		t.Fatalf("items without a price and a change pct must be skipped, got %+v", alerts)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	snapshot := snapshotWithChanges(map[string]float64{"BTC": -12.3, "ETH": -5.5})

	first := Generate(snapshot, now)
	second := Generate(snapshot, now)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same snapshot and clock must yield identical alerts:\n%+v\n%+v", first, second)
	}
}
