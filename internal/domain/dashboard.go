package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Notice codes surfaced alongside a view.
const (
	NoticeMissingCost       = "missing_cost"
	NoticeMissingBrand      = "missing_brand"
	NoticeMissingExpiration = "missing_expiration"
	NoticeMalformedRows     = "malformed_rows"
	NoticeUnmatchedSales    = "unmatched_sales"
)

// Notice is an informational message shown next to the table.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// KPIs are the tiles computed over the filtered, pre-truncation set.
type KPIs struct {
	Rows               int              `json:"rows"`
	SkusInStock        int              `json:"skus_in_stock"`
	TotalDollarsOnHand *decimal.Decimal `json:"total_dollars_on_hand,omitempty"`
	ReorderCount       int              `json:"reorder_count"`
	OverstockCount     int              `json:"overstock_count"`
	ExpiringCount      *int             `json:"expiring_count,omitempty"`
	NoStockCount       int              `json:"no_stock_count"`
	SlowMoverCount     *int             `json:"slow_mover_count,omitempty"`
	MedianDOH          *float64         `json:"median_doh,omitempty"`
	WorstCategory      string           `json:"worst_category,omitempty"`
}

// ViewRow is a SKU as displayed on a tab, carrying the tab's active badge.
type ViewRow struct {
	SkuRecord
	Badge Badge `json:"badge"`
}

// View is the result of one query against a snapshot.
type View struct {
	SnapshotID string    `json:"snapshot_id,omitempty"`
	Tab        Tab       `json:"tab"`
	Filter     Filter    `json:"filter"`
	Columns    Columns   `json:"columns"`
	Today      time.Time `json:"today"`
	Rows       []ViewRow `json:"rows"`
	KPIs       KPIs      `json:"kpis"`
	Notices    []Notice  `json:"notices"`
}

// FilterOptions populates the filter-bar dropdowns for a snapshot.
type FilterOptions struct {
	Categories    []string  `json:"categories"`
	Subcategories []string  `json:"subcategories"`
	Vendors       []string  `json:"vendors"`
	Columns       Columns   `json:"columns"`
	Windows       []int     `json:"windows"`
	TopN          []int     `json:"top_n"`
	SortKeys      []SortKey `json:"sort_keys"`
}
