package query

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/classify"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

var allColumns = domain.Columns{Cost: true, Brand: true, Expiration: true}

type sku struct {
	name     string
	category string
	brand    string
	onHand   int
	doh      domain.DaysOnHand
	dollars  string
	expires  *int
	weekly   float64
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func build(skus ...sku) []domain.SkuRecord {
	metrics := make([]domain.SkuMetric, 0, len(skus))
	for _, s := range skus {
		m := domain.SkuMetric{
			Product:        s.name,
			SKU:            "SKU-" + s.name,
			Category:       s.category,
			Brand:          s.brand,
			OnHand:         s.onHand,
			DOH:            s.doh,
			DaysToExpire:   s.expires,
			AvgWeeklySales: s.weekly,
		}
		if s.dollars != "" {
			d := decimal.RequireFromString(s.dollars)
			m.DollarsOnHand = &d
		}
		metrics = append(metrics, m)
	}
	return classify.Annotate(metrics)
}

func names(v domain.View) []string {
	out := make([]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		out = append(out, r.Product)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allFilter() domain.Filter {
	f := domain.DefaultFilter()
	f.TopN = 0
	f.OnHandGtZero = false
	return f
}

func sample() []domain.SkuRecord {
	return build(
		sku{name: "Apples", category: "Produce", brand: "Orchard", onHand: 40, doh: domain.FiniteDOH(10), dollars: "80"},
		sku{name: "Bread", category: "Bakery", brand: "Hearth", onHand: 0, doh: domain.FiniteDOH(0), dollars: "0"},
		sku{name: "Cheese", category: "Dairy", brand: "Alpine", onHand: 12, doh: domain.FiniteDOH(30), dollars: "96", expires: intPtr(45)},
		sku{name: "Dates", category: "Produce", brand: "Oasis", onHand: 90, doh: domain.UnboundedDOH(), dollars: "270"},
		sku{name: "Eggs", category: "Dairy", brand: "Hearth", onHand: 60, doh: domain.FiniteDOH(120), dollars: "150", expires: intPtr(20)},
		sku{name: "Figs", category: "Produce", brand: "Oasis", onHand: 25, doh: domain.FiniteDOH(95), expires: intPtr(200)},
	)
}

func TestApplyFilterComposition(t *testing.T) {
	records := sample()

	category := allFilter()
	category.Category = "produce"
	inStock := allFilter()
	inStock.OnHandGtZero = true
	both := allFilter()
	both.Category = "Produce"
	both.OnHandGtZero = true

	a := map[string]bool{}
	for _, n := range names(Apply(records, allColumns, domain.TabInventory, category)) {
		a[n] = true
	}
	var want []string
	for _, n := range names(Apply(records, allColumns, domain.TabInventory, inStock)) {
		if a[n] {
			want = append(want, n)
		}
	}

	got := names(Apply(records, allColumns, domain.TabInventory, both))
	if len(got) != len(want) {
		t.Fatalf("expected intersection %v, got %v", want, got)
	}
	set := map[string]bool{}
	for _, n := range got {
		set[n] = true
	}
	for _, n := range want {
		if !set[n] {
			t.Errorf("expected %s in combined result %v", n, got)
		}
	}
}

func TestApplyExcludesNoStockByDefault(t *testing.T) {
	f := domain.DefaultFilter()
	f.TopN = 0
	v := Apply(sample(), allColumns, domain.TabInventory, f)
	for _, r := range v.Rows {
		if r.Product == "Bread" {
			t.Fatalf("out-of-stock product should be filtered out, got %v", names(v))
		}
	}

	f.OnHandGtZero = false
	v = Apply(sample(), allColumns, domain.TabInventory, f)
	found := false
	for _, r := range v.Rows {
		if r.Product == "Bread" {
			found = true
			if r.Badge != domain.BadgeNoStock {
				t.Errorf("expected No Stock badge, got %s", r.Badge)
			}
		}
	}
	if !found {
		t.Errorf("expected Bread when on-hand filter is off, got %v", names(v))
	}
}

func TestApplySortPlacesUnbounded(t *testing.T) {
	records := sample()

	desc := allFilter()
	desc.Sort = domain.SortDOHDesc
	got := names(Apply(records, allColumns, domain.TabInventory, desc))
	if got[0] != "Dates" {
		t.Errorf("expected unbounded DOH first on desc sort, got %v", got)
	}

	asc := allFilter()
	asc.Sort = domain.SortDOHAsc
	got = names(Apply(records, allColumns, domain.TabInventory, asc))
	if got[len(got)-1] != "Dates" {
		t.Errorf("expected unbounded DOH last on asc sort, got %v", got)
	}
	if !equal(got, []string{"Bread", "Apples", "Cheese", "Figs", "Eggs", "Dates"}) {
		t.Errorf("unexpected asc order %v", got)
	}
}

func TestApplySortIsStable(t *testing.T) {
	records := build(
		sku{name: "Same", onHand: 1, doh: domain.FiniteDOH(10), weekly: 3},
		sku{name: "Zed", onHand: 1, doh: domain.FiniteDOH(10), weekly: 3},
		sku{name: "Same", onHand: 2, doh: domain.FiniteDOH(10), weekly: 3},
		sku{name: "Alpha", onHand: 1, doh: domain.FiniteDOH(10), weekly: 3},
	)
	f := allFilter()
	f.Sort = domain.SortWeeklySalesDesc

	v := Apply(records, allColumns, domain.TabInventory, f)
	if !equal(names(v), []string{"Alpha", "Same", "Same", "Zed"}) {
		t.Fatalf("expected name tiebreak, got %v", names(v))
	}
	if v.Rows[1].OnHand != 1 || v.Rows[2].OnHand != 2 {
		t.Errorf("expected equal keys to keep input order, got %d then %d", v.Rows[1].OnHand, v.Rows[2].OnHand)
	}
}

func TestApplyNilDollarsSortLast(t *testing.T) {
	v := Apply(sample(), allColumns, domain.TabInventory, allFilter())
	got := names(v)
	if !equal(got, []string{"Dates", "Eggs", "Cheese", "Apples", "Bread", "Figs"}) {
		t.Errorf("unexpected dollars order %v", got)
	}
}

func TestApplyTopNAfterKPIs(t *testing.T) {
	f := allFilter()
	f.TopN = 2
	v := Apply(sample(), allColumns, domain.TabInventory, f)
	if len(v.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(v.Rows))
	}
	if v.KPIs.Rows != 6 {
		t.Errorf("expected KPIs over the untruncated set, got %d rows", v.KPIs.Rows)
	}
	if v.KPIs.SkusInStock != 5 || v.KPIs.NoStockCount != 1 {
		t.Errorf("unexpected stock counts %+v", v.KPIs)
	}
	if v.KPIs.TotalDollarsOnHand == nil || !v.KPIs.TotalDollarsOnHand.Equal(decimal.NewFromInt(596)) {
		t.Errorf("expected total dollars 596, got %v", v.KPIs.TotalDollarsOnHand)
	}
	// Apples reorder, Dates and Figs overstock, Cheese and Eggs expiring
	if v.KPIs.ReorderCount != 1 || v.KPIs.OverstockCount != 2 || *v.KPIs.ExpiringCount != 2 {
		t.Errorf("unexpected badge counts %+v", v.KPIs)
	}
}

func TestApplyTabOverrides(t *testing.T) {
	records := sample()
	f := domain.DefaultFilter()
	f.Sort = domain.SortWeeklySalesDesc
	f.Category = "Produce"

	tests := []struct {
		tab  domain.Tab
		sort domain.SortKey
		want []string
	}{
		{domain.TabReorder, domain.SortDOHAsc, []string{"Apples"}},
		{domain.TabOverstock, domain.SortDollarsDesc, []string{"Dates", "Figs"}},
		{domain.TabExpiring, domain.SortExpiryAsc, []string{}},
		{domain.TabSlowMovers, domain.SortDOHDesc, []string{"Dates", "Figs"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.tab), func(t *testing.T) {
			v := Apply(records, allColumns, tt.tab, f)
			if v.Filter.Sort != tt.sort {
				t.Errorf("expected forced sort %s, got %s", tt.sort, v.Filter.Sort)
			}
			if !equal(names(v), tt.want) {
				t.Errorf("expected %v, got %v", tt.want, names(v))
			}
		})
	}

	f.Category = domain.AnyValue
	v := Apply(records, allColumns, domain.TabExpiring, f)
	if !equal(names(v), []string{"Eggs", "Cheese"}) {
		t.Errorf("expected expiring rows by days to expire, got %v", names(v))
	}
}

func TestApplySlowMoverTab(t *testing.T) {
	v := Apply(sample(), allColumns, domain.TabSlowMovers, allFilter())

	wantBadges := map[string]domain.Badge{
		"Dates": domain.BadgeInvestigate,
		"Eggs":  domain.BadgeWatch,
		"Figs":  domain.BadgeWatch,
	}
	if len(v.Rows) != len(wantBadges) {
		t.Fatalf("expected %d slow movers, got %v", len(wantBadges), names(v))
	}
	for _, r := range v.Rows {
		if r.Badge != wantBadges[r.Product] {
			t.Errorf("%s: expected %s, got %s", r.Product, wantBadges[r.Product], r.Badge)
		}
	}
	if v.KPIs.SlowMoverCount == nil || *v.KPIs.SlowMoverCount != 3 {
		t.Errorf("expected 3 slow movers, got %v", v.KPIs.SlowMoverCount)
	}
	if v.KPIs.MedianDOH == nil || *v.KPIs.MedianDOH != 107.5 {
		t.Errorf("expected median DOH 107.5, got %v", v.KPIs.MedianDOH)
	}
	if v.KPIs.WorstCategory != "Produce" {
		t.Errorf("expected Produce as worst category, got %q", v.KPIs.WorstCategory)
	}
}

func TestApplyDOHRange(t *testing.T) {
	f := allFilter()
	f.DOHMin = floatPtr(30)
	got := names(Apply(sample(), allColumns, domain.TabInventory, f))
	if !equal(got, []string{"Dates", "Eggs", "Cheese", "Figs"}) {
		t.Errorf("expected unbounded to pass doh_min, got %v", got)
	}

	f.DOHMax = floatPtr(95)
	got = names(Apply(sample(), allColumns, domain.TabInventory, f))
	if !equal(got, []string{"Cheese", "Figs"}) {
		t.Errorf("expected inclusive range without unbounded, got %v", got)
	}
}

func TestApplySearch(t *testing.T) {
	f := allFilter()
	f.Search = "HEARTH"
	got := names(Apply(sample(), allColumns, domain.TabInventory, f))
	if !equal(got, []string{"Eggs", "Bread"}) {
		t.Errorf("expected brand match, got %v", got)
	}

	f.Search = "sku-che"
	got = names(Apply(sample(), allColumns, domain.TabInventory, f))
	if !equal(got, []string{"Cheese"}) {
		t.Errorf("expected SKU match, got %v", got)
	}
}

func TestApplyMissingOptionalColumns(t *testing.T) {
	records := sample()
	f := allFilter()
	f.Vendor = "Hearth"
	f.Expiration = domain.Expiring30

	v := Apply(records, domain.Columns{}, domain.TabInventory, f)
	if len(v.Rows) != len(records) {
		t.Errorf("expected vendor and expiration filters to be dropped, got %v", names(v))
	}
	if !equal(names(v), []string{"Apples", "Bread", "Cheese", "Dates", "Eggs", "Figs"}) {
		t.Errorf("expected product-name order without cost, got %v", names(v))
	}
	if v.KPIs.TotalDollarsOnHand != nil || v.KPIs.ExpiringCount != nil {
		t.Errorf("expected cost and expiry KPIs to be omitted, got %+v", v.KPIs)
	}

	codes := map[string]bool{}
	for _, n := range v.Notices {
		codes[n.Code] = true
	}
	for _, code := range []string{domain.NoticeMissingCost, domain.NoticeMissingBrand, domain.NoticeMissingExpiration} {
		if !codes[code] {
			t.Errorf("expected notice %s, got %v", code, v.Notices)
		}
	}

	v = Apply(records, allColumns, domain.TabInventory, f)
	if len(v.Notices) != 0 {
		t.Errorf("expected no notices with every column present, got %v", v.Notices)
	}
	if !equal(names(v), []string{"Eggs"}) {
		t.Errorf("expected vendor and expiration filters to apply, got %v", names(v))
	}
}

func TestOptions(t *testing.T) {
	opts := Options(sample(), allColumns)
	if !equal(opts.Categories, []string{"Bakery", "Dairy", "Produce"}) {
		t.Errorf("unexpected categories %v", opts.Categories)
	}
	if !equal(opts.Vendors, []string{"Alpine", "Hearth", "Oasis", "Orchard"}) {
		t.Errorf("unexpected vendors %v", opts.Vendors)
	}

	opts = Options(sample(), domain.Columns{Cost: true})
	if len(opts.Vendors) != 0 || opts.Columns.Brand {
		t.Errorf("expected no vendors without brand column, got %v", opts.Vendors)
	}
}
