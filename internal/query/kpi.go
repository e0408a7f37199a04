package query

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/classify"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

func computeKPIs(records []*domain.SkuRecord, columns domain.Columns, tab domain.Tab) domain.KPIs {
	kpis := domain.KPIs{Rows: len(records)}

	total := decimal.Zero
	expiring := 0
	for _, r := range records {
		if r.OnHand > 0 {
			kpis.SkusInStock++
		}
		if r.DollarsOnHand != nil {
			total = total.Add(*r.DollarsOnHand)
		}
		switch r.BuyerBadge {
		case domain.BadgeReorder:
			kpis.ReorderCount++
		case domain.BadgeOverstock:
			kpis.OverstockCount++
		case domain.BadgeExpiring:
			expiring++
		case domain.BadgeNoStock:
			kpis.NoStockCount++
		}
	}

	if columns.Cost {
		kpis.TotalDollarsOnHand = &total
	}
	if columns.Expiration {
		kpis.ExpiringCount = &expiring
	}

	if tab == domain.TabSlowMovers {
		slow := 0
		for _, r := range records {
			if r.OnHand > 0 && classify.IsSlowMover(r.DOH) {
				slow++
			}
		}
		kpis.SlowMoverCount = &slow
		kpis.MedianDOH = medianDOH(records)
		kpis.WorstCategory = worstCategory(records)
	}

	return kpis
}

// medianDOH is the median over finite values; nil when there are none.
func medianDOH(records []*domain.SkuRecord) *float64 {
	var days []float64
	for _, r := range records {
		if !r.DOH.Unbounded {
			days = append(days, r.DOH.Days)
		}
	}
	if len(days) == 0 {
		return nil
	}
	sort.Float64s(days)

	mid := len(days) / 2
	median := days[mid]
	if len(days)%2 == 0 {
		median = (days[mid-1] + days[mid]) / 2
	}
	median = domain.FiniteDOH(median).Round(1).Days
	return &median
}

// worstCategory is the category holding the most on-hand units. Ties go
// to the alphabetically first category.
func worstCategory(records []*domain.SkuRecord) string {
	units := map[string]int{}
	for _, r := range records {
		if r.Category == "" {
			continue
		}
		units[r.Category] += r.OnHand
	}

	worst, most := "", -1
	for category, n := range units {
		if n > most || (n == most && category < worst) {
			worst, most = category, n
		}
	}
	return worst
}
