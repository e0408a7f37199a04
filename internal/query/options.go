package query

import (
	"sort"
	"strings"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

// Options returns the dropdown values observed in a snapshot. Vendors are
// left empty when the upload had no brand column.
func Options(records []domain.SkuRecord, columns domain.Columns) domain.FilterOptions {
	opts := domain.FilterOptions{
		Categories:    distinct(records, func(r domain.SkuRecord) string { return r.Category }),
		Subcategories: distinct(records, func(r domain.SkuRecord) string { return r.Subcategory }),
		Vendors:       []string{},
		Columns:       columns,
		Windows:       domain.WindowOptions,
		TopN:          domain.TopNOptions,
		SortKeys:      domain.SortKeys,
	}
	if columns.Brand {
		opts.Vendors = distinct(records, func(r domain.SkuRecord) string { return r.Brand })
	}
	return opts
}

func distinct(records []domain.SkuRecord, field func(r domain.SkuRecord) string) []string {
	seen := map[string]bool{}
	values := []string{}
	for _, r := range records {
		v := strings.TrimSpace(field(r))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
