package domain

import (
	"strconv"
	"strings"
	"time"
)

// DefaultWindowDays is the velocity window used when none is chosen.
const DefaultWindowDays = 56

// WindowOptions lists the supported velocity windows in days.
var WindowOptions = []int{28, 56, 84}

// TopNOptions lists the supported truncation sizes; 0 means All.
var TopNOptions = []int{25, 50, 100, 0}

// ValidWindow reports whether days is a supported velocity window.
func ValidWindow(days int) bool {
	for _, w := range WindowOptions {
		if w == days {
			return true
		}
	}
	return false
}

// Tab selects which dashboard view a query is for.
type Tab string

const (
	TabInventory  Tab = "inventory"
	TabReorder    Tab = "reorder"
	TabOverstock  Tab = "overstock"
	TabExpiring   Tab = "expiring"
	TabSlowMovers Tab = "slow_movers"
)

// ParseTab accepts the tab code, case-insensitive, with '-' or ' ' for '_'.
func ParseTab(value string) (Tab, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.NewReplacer("-", "_", " ", "_").Replace(v)
	switch Tab(v) {
	case TabInventory, TabReorder, TabOverstock, TabExpiring, TabSlowMovers:
		return Tab(v), true
	case "", "buyer", "all":
		return TabInventory, true
	}
	return "", false
}

// SortKey is one of the supported orderings.
type SortKey string

const (
	SortDollarsDesc     SortKey = "dollars_desc"
	SortDOHDesc         SortKey = "doh_desc"
	SortDOHAsc          SortKey = "doh_asc"
	SortExpiryAsc       SortKey = "expiry_asc"
	SortWeeklySalesDesc SortKey = "weekly_sales_desc"
)

// SortKeys lists the sort keys in display order.
var SortKeys = []SortKey{SortDollarsDesc, SortDOHDesc, SortDOHAsc, SortExpiryAsc, SortWeeklySalesDesc}

func ParseSortKey(value string) (SortKey, bool) {
	v := SortKey(strings.ToLower(strings.TrimSpace(value)))
	for _, k := range SortKeys {
		if k == v {
			return k, true
		}
	}
	return "", false
}

// ExpirationWindow keeps SKUs expiring in fewer than N days; 0 means Any.
type ExpirationWindow int

const (
	ExpiringAny ExpirationWindow = 0
	Expiring30  ExpirationWindow = 30
	Expiring60  ExpirationWindow = 60
	Expiring90  ExpirationWindow = 90
)

// ParseExpirationWindow accepts "Any", "<30", "<30 days", "30" and so on.
func ParseExpirationWindow(value string) (ExpirationWindow, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == "any" {
		return ExpiringAny, true
	}
	v = strings.TrimPrefix(v, "<")
	v = strings.TrimSpace(strings.TrimSuffix(v, "days"))
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	switch ExpirationWindow(n) {
	case Expiring30, Expiring60, Expiring90:
		return ExpirationWindow(n), true
	}
	return 0, false
}

func (w ExpirationWindow) String() string {
	if w == ExpiringAny {
		return "Any"
	}
	return "<" + strconv.Itoa(int(w)) + " days"
}

// ParseTopN accepts 25, 50, 100 or "All".
func ParseTopN(value string) (int, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "all" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	for _, opt := range TopNOptions {
		if opt == n {
			return n, true
		}
	}
	return 0, false
}

// AnyValue is the categorical filter value that disables the filter.
const AnyValue = "Any"

// IsAny reports whether a categorical filter value means "no filter".
func IsAny(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, AnyValue)
}

// Filter is the filter-bar configuration for one query.
type Filter struct {
	Search       string           `json:"search,omitempty"`
	WindowDays   int              `json:"window_days"`
	TopN         int              `json:"top_n"`
	Sort         SortKey          `json:"sort"`
	Category     string           `json:"category,omitempty"`
	Subcategory  string           `json:"subcategory,omitempty"`
	Vendor       string           `json:"vendor,omitempty"`
	Expiration   ExpirationWindow `json:"expiration_window"`
	OnHandGtZero bool             `json:"on_hand_gt_zero"`
	DOHMin       *float64         `json:"doh_min,omitempty"`
	DOHMax       *float64         `json:"doh_max,omitempty"`

	// AsOf ends the velocity window on this date instead of the latest sale.
	AsOf *time.Time `json:"as_of,omitempty"`
}

// DefaultFilter returns the filter bar as it looks on first load.
func DefaultFilter() Filter {
	return Filter{
		WindowDays:   DefaultWindowDays,
		TopN:         25,
		Sort:         SortDollarsDesc,
		OnHandGtZero: true,
	}
}
