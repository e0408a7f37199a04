package query

import (
	"sort"
	"strings"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

// sortRecords orders records by key. Ties fall back to product name and
// then to input order. Unknown values (no cost, no expiry) sort last; a key
// whose column is missing from the upload leaves product-name order.
func sortRecords(records []*domain.SkuRecord, key domain.SortKey, columns domain.Columns) {
	if (key == domain.SortDollarsDesc && !columns.Cost) || (key == domain.SortExpiryAsc && !columns.Expiration) {
		key = ""
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if c := compareBy(a, b, key); c != 0 {
			return c < 0
		}
		return compareNames(a.Product, b.Product) < 0
	})
}

func compareBy(a, b *domain.SkuRecord, key domain.SortKey) int {
	switch key {
	case domain.SortDollarsDesc:
		return nilsLast(a.DollarsOnHand == nil, b.DollarsOnHand == nil, func() int {
			return -a.DollarsOnHand.Cmp(*b.DollarsOnHand)
		})
	case domain.SortDOHDesc:
		return -a.DOH.Compare(b.DOH)
	case domain.SortDOHAsc:
		return a.DOH.Compare(b.DOH)
	case domain.SortExpiryAsc:
		return nilsLast(a.DaysToExpire == nil, b.DaysToExpire == nil, func() int {
			return compareInts(*a.DaysToExpire, *b.DaysToExpire)
		})
	case domain.SortWeeklySalesDesc:
		return -compareFloats(a.AvgWeeklySales, b.AvgWeeklySales)
	}
	return 0
}

func nilsLast(aNil, bNil bool, cmp func() int) int {
	switch {
	case aNil && bNil:
		return 0
	case aNil:
		return 1
	case bNil:
		return -1
	}
	return cmp()
}

func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
