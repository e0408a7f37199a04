package domain

import "strings"

// Badge is the categorical action label attached to a SKU.
type Badge string

const (
	BadgeNoStock     Badge = "no_stock"
	BadgeExpiring    Badge = "expiring"
	BadgeReorder     Badge = "reorder"
	BadgeOverstock   Badge = "overstock"
	BadgeHealthy     Badge = "healthy"
	BadgeInvestigate Badge = "investigate"
	BadgeMonitor     Badge = "monitor"
	BadgeWatch       Badge = "watch"
	BadgeMarkdown    Badge = "markdown"
	BadgePromoStop   Badge = "promo_stop"
)

var badgeLabels = map[Badge]string{
	BadgeNoStock:     "No Stock",
	BadgeExpiring:    "Expiring",
	BadgeReorder:     "Reorder",
	BadgeOverstock:   "Overstock",
	BadgeHealthy:     "Healthy",
	BadgeInvestigate: "Investigate",
	BadgeMonitor:     "Monitor",
	BadgeWatch:       "Watch",
	BadgeMarkdown:    "Markdown",
	BadgePromoStop:   "Promo / Stop Reorder",
}

var badgeCodes = func() map[string]Badge {
	codes := make(map[string]Badge, len(badgeLabels)*2)
	for badge, label := range badgeLabels {
		codes[string(badge)] = badge
		codes[strings.ToLower(label)] = badge
	}
	return codes
}()

// Label returns the human-readable label for a badge.
func (b Badge) Label() string {
	if label, ok := badgeLabels[b]; ok {
		return label
	}

	return string(b)
}

// ParseBadge returns the badge for a code or label (case-insensitive).
func ParseBadge(value string) (Badge, bool) {
	badge, ok := badgeCodes[strings.ToLower(strings.TrimSpace(value))]

	return badge, ok
}
