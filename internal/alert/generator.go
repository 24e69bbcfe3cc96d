package alert

import (
	"fmt"
	"time"

	"tokenwatch/internal/domain"
)

// Fixed classification policy: only downside moves trigger alerts.
const (
	warningThresholdPct  = -5.0
	criticalThresholdPct = -10.0

	// deadlineHorizon is a soft response window, not derived from provider
	// data.
	deadlineHorizon = 12 * time.Hour
)

const dataDisclaimer = "Based on end-of-day data from free-tier providers; intraday moves may differ."

// Generate derives synthetic alerts from a snapshot. It is a pure function
// of the snapshot and clock: the same inputs always yield identical alerts,
// so regenerating from an unchanged snapshot is safe.
func Generate(snapshot domain.MarketSnapshot, now time.Time) []domain.AutoAlert {
	var alerts []domain.AutoAlert
	deadline := now.UTC().Add(deadlineHorizon)

	for _, item := range snapshot.Items {
		if !item.Resolved() || item.DayChangePct == nil {
			continue
		}
		pct := *item.DayChangePct

		var severity domain.Severity
		switch {
		case pct <= criticalThresholdPct:
			severity = domain.SeverityCritical
		case pct <= warningThresholdPct:
			severity = domain.SeverityWarning
		default:
			continue
		}

		alerts = append(alerts, domain.AutoAlert{
			Token:       item.Token,
			Severity:    severity,
			Title:       fmt.Sprintf("%s down %.1f%% over the last day", item.Token, -pct),
			Description: fmt.Sprintf("%s dropped %.1f%% in its last daily window. %s", item.Token, -pct, dataDisclaimer),
			Deadline:    deadline,
			Generated:   true,
		})
	}
	return alerts
}
