// backend-go/internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRecord is one row (lot) of the inventory export.
type InventoryRecord struct {
	Product        string
	SKU            string
	Category       string
	Subcategory    string
	Brand          string
	OnHand         int
	UnitCost       *decimal.Decimal
	ExpirationDate *time.Time
}

// SalesRecord is one row of the sales export.
type SalesRecord struct {
	Product   string
	SaleDate  time.Time
	UnitsSold int
}

// Columns tells which optional inventory columns were present in the upload.
type Columns struct {
	Cost       bool `json:"cost"`
	Brand      bool `json:"brand"`
	Expiration bool `json:"expiration"`
}

// Snapshot is one uploaded pair of exports. It is never mutated after parsing.
type Snapshot struct {
	ID                 string            `json:"id"`
	Inventory          []InventoryRecord `json:"-"`
	Sales              []SalesRecord     `json:"-"`
	Columns            Columns           `json:"columns"`
	LatestSale         *time.Time        `json:"latest_sale,omitempty"`
	InventoryMalformed int               `json:"inventory_malformed"`
	SalesMalformed     int               `json:"sales_malformed"`
	UploadedAt         time.Time         `json:"uploaded_at"`
	UploadedBy         string            `json:"uploaded_by"`
}

// SkuMetric holds the derived purchasing signals for one product.
type SkuMetric struct {
	Product           string           `json:"product"`
	SKU               string           `json:"sku"`
	Category          string           `json:"category"`
	Subcategory       string           `json:"subcategory"`
	Brand             string           `json:"brand"`
	OnHand            int              `json:"on_hand"`
	UnitsSold         int              `json:"units_sold"`
	WindowDays        int              `json:"window_days"`
	DailyRunRate      float64          `json:"daily_run_rate"`
	DOH               DaysOnHand       `json:"days_on_hand"`
	WeeksOfSupply     DaysOnHand       `json:"weeks_of_supply"`
	AvgWeeklySales    float64          `json:"avg_weekly_sales"`
	SlowMoverScore    float64          `json:"slow_mover_score"`
	EarliestExpiry    *time.Time       `json:"earliest_expiration,omitempty"`
	DaysToExpire      *int             `json:"days_to_expire,omitempty"`
	UnitCost          *decimal.Decimal `json:"unit_cost,omitempty"`
	DollarsOnHand     *decimal.Decimal `json:"dollars_on_hand,omitempty"`
	SuggestedDiscount string           `json:"suggested_discount"`
}

// SkuRecord is a SkuMetric with both badge rule-sets applied.
type SkuRecord struct {
	SkuMetric
	BuyerBadge     Badge `json:"buyer_badge"`
	SlowMoverBadge Badge `json:"slow_mover_badge"`
}
