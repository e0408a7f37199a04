// Package query turns an annotated snapshot into the rows and KPI tiles
// shown on one dashboard tab.
package query

import (
	"strings"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/classify"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

type predicate func(r *domain.SkuRecord) bool

// plan is a filter after tab overrides and column availability have been
// applied.
type plan struct {
	predicates []predicate
	sort       domain.SortKey
	notices    []domain.Notice
}

// Apply filters, sorts and truncates records for a tab and computes the
// KPI tiles over the filtered set before truncation. Records are not
// modified; the same inputs always give the same view.
func Apply(records []domain.SkuRecord, columns domain.Columns, tab domain.Tab, filter domain.Filter) domain.View {
	p := newPlan(columns, tab, filter)

	matched := make([]*domain.SkuRecord, 0, len(records))
	for i := range records {
		if p.match(&records[i]) {
			matched = append(matched, &records[i])
		}
	}

	sortRecords(matched, p.sort, columns)
	kpis := computeKPIs(matched, columns, tab)

	limit := len(matched)
	if filter.TopN > 0 && filter.TopN < limit {
		limit = filter.TopN
	}

	rows := make([]domain.ViewRow, 0, limit)
	for _, r := range matched[:limit] {
		badge := r.BuyerBadge
		if tab == domain.TabSlowMovers {
			badge = r.SlowMoverBadge
		}
		rows = append(rows, domain.ViewRow{SkuRecord: *r, Badge: badge})
	}

	effective := filter
	effective.Sort = p.sort

	return domain.View{
		Tab:     tab,
		Filter:  effective,
		Columns: columns,
		Rows:    rows,
		KPIs:    kpis,
		Notices: p.notices,
	}
}

func newPlan(columns domain.Columns, tab domain.Tab, f domain.Filter) *plan {
	p := &plan{sort: f.Sort}
	if p.sort == "" {
		p.sort = domain.SortDollarsDesc
	}

	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		p.add(func(r *domain.SkuRecord) bool {
			return strings.Contains(strings.ToLower(r.Product), search) ||
				strings.Contains(strings.ToLower(r.SKU), search) ||
				strings.Contains(strings.ToLower(r.Brand), search)
		})
	}
	if !domain.IsAny(f.Category) {
		p.add(equalsFold(f.Category, func(r *domain.SkuRecord) string { return r.Category }))
	}
	if !domain.IsAny(f.Subcategory) {
		p.add(equalsFold(f.Subcategory, func(r *domain.SkuRecord) string { return r.Subcategory }))
	}
	if !domain.IsAny(f.Vendor) && columns.Brand {
		p.add(equalsFold(f.Vendor, func(r *domain.SkuRecord) string { return r.Brand }))
	}
	if f.Expiration != domain.ExpiringAny && columns.Expiration {
		within := int(f.Expiration)
		p.add(func(r *domain.SkuRecord) bool {
			return r.DaysToExpire != nil && *r.DaysToExpire < within
		})
	}
	if f.OnHandGtZero {
		p.add(func(r *domain.SkuRecord) bool { return r.OnHand > 0 })
	}
	if f.DOHMin != nil {
		lo := *f.DOHMin
		p.add(func(r *domain.SkuRecord) bool { return r.DOH.AtLeast(lo) })
	}
	if f.DOHMax != nil {
		hi := *f.DOHMax
		p.add(func(r *domain.SkuRecord) bool { return r.DOH.AtMost(hi) })
	}

	// Tab overrides replace one dimension and compose with the rest.
	switch tab {
	case domain.TabReorder:
		p.add(func(r *domain.SkuRecord) bool { return classify.IsReorder(r.DOH) })
		p.sort = domain.SortDOHAsc
	case domain.TabOverstock:
		p.add(func(r *domain.SkuRecord) bool { return classify.IsOverstock(r.DOH) })
		p.sort = domain.SortDollarsDesc
	case domain.TabExpiring:
		p.add(func(r *domain.SkuRecord) bool { return classify.IsExpiring(r.DaysToExpire) })
		p.sort = domain.SortExpiryAsc
	case domain.TabSlowMovers:
		p.add(func(r *domain.SkuRecord) bool { return classify.IsSlowMover(r.DOH) })
		p.sort = domain.SortDOHDesc
	}

	p.notices = columnNotices(columns, f, p.sort)
	return p
}

func (p *plan) add(fn predicate) {
	p.predicates = append(p.predicates, fn)
}

func (p *plan) match(r *domain.SkuRecord) bool {
	for _, fn := range p.predicates {
		if !fn(r) {
			return false
		}
	}
	return true
}

func equalsFold(want string, field func(r *domain.SkuRecord) string) predicate {
	want = strings.TrimSpace(want)
	return func(r *domain.SkuRecord) bool {
		return strings.EqualFold(strings.TrimSpace(field(r)), want)
	}
}

// columnNotices explains which features are unavailable because an
// optional column was missing from the inventory upload.
func columnNotices(columns domain.Columns, f domain.Filter, sort domain.SortKey) []domain.Notice {
	notices := []domain.Notice{}
	if !columns.Cost {
		msg := "Unit cost column not found: dollars on hand is not available."
		if sort == domain.SortDollarsDesc {
			msg += " Rows are ordered by product name."
		}
		notices = append(notices, domain.Notice{Code: domain.NoticeMissingCost, Message: msg})
	}
	if !columns.Brand {
		msg := "Brand/vendor column not found: vendor filter is not available."
		if !domain.IsAny(f.Vendor) {
			msg += " The vendor filter was ignored."
		}
		notices = append(notices, domain.Notice{Code: domain.NoticeMissingBrand, Message: msg})
	}
	if !columns.Expiration {
		msg := "Expiration column not found: expiring filters and counts are not available."
		if sort == domain.SortExpiryAsc {
			msg += " Rows are ordered by product name."
		}
		notices = append(notices, domain.Notice{Code: domain.NoticeMissingExpiration, Message: msg})
	}
	return notices
}
