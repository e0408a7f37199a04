// Package classify attaches action badges to computed metrics. Both
// rule-sets are ordered: the first matching rule wins.
package classify

import "github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"

// Buyer view thresholds.
const (
	ExpiringWithinDays = 60
	ReorderMaxDOH      = 21
	OverstockMinDOH    = 90
)

// Slow-mover view thresholds.
const (
	HealthyMaxDOH  = 60
	MonitorMaxDOH  = 90
	WatchMaxDOH    = 120
	MarkdownMaxDOH = 180
)

// BuyerBadge classifies a product for the buyer view. daysToExpire is nil
// when no expiration is known.
func BuyerBadge(onHand int, doh domain.DaysOnHand, daysToExpire *int) domain.Badge {
	switch {
	case onHand <= 0:
		return domain.BadgeNoStock
	case IsExpiring(daysToExpire):
		return domain.BadgeExpiring
	case IsReorder(doh):
		return domain.BadgeReorder
	case IsOverstock(doh):
		return domain.BadgeOverstock
	}
	return domain.BadgeHealthy
}

// SlowMoverBadge classifies a product for the slow-mover view.
func SlowMoverBadge(onHand int, doh domain.DaysOnHand) domain.Badge {
	switch {
	case onHand > 0 && doh.Unbounded:
		return domain.BadgeInvestigate
	case onHand <= 0:
		return domain.BadgeNoStock
	case doh.AtMost(HealthyMaxDOH):
		return domain.BadgeHealthy
	case doh.AtMost(MonitorMaxDOH):
		return domain.BadgeMonitor
	case doh.AtMost(WatchMaxDOH):
		return domain.BadgeWatch
	case doh.AtMost(MarkdownMaxDOH):
		return domain.BadgeMarkdown
	}
	return domain.BadgePromoStop
}

// IsExpiring reports whether the earliest lot expires within the buyer
// window. Already expired lots count as expiring.
func IsExpiring(daysToExpire *int) bool {
	return daysToExpire != nil && *daysToExpire < ExpiringWithinDays
}

// IsReorder reports 0 < doh <= 21.
func IsReorder(doh domain.DaysOnHand) bool {
	return !doh.Unbounded && doh.Days > 0 && doh.Days <= ReorderMaxDOH
}

// IsOverstock reports doh >= 90, unbounded included.
func IsOverstock(doh domain.DaysOnHand) bool {
	return doh.AtLeast(OverstockMinDOH)
}

// IsSlowMover reports doh > 60, unbounded included.
func IsSlowMover(doh domain.DaysOnHand) bool {
	return doh.Above(HealthyMaxDOH)
}

// Annotate attaches both badges to every metric. The input is not modified.
func Annotate(metrics []domain.SkuMetric) []domain.SkuRecord {
	records := make([]domain.SkuRecord, len(metrics))
	for i, m := range metrics {
		records[i] = domain.SkuRecord{
			SkuMetric:      m,
			BuyerBadge:     BuyerBadge(m.OnHand, m.DOH, m.DaysToExpire),
			SlowMoverBadge: SlowMoverBadge(m.OnHand, m.DOH),
		}
	}
	return records
}
