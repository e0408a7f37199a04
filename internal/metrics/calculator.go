package metrics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

// Calculator derives per-product SkuMetrics from one snapshot.
type Calculator struct {
	windowDays int
	today      time.Time
	asOf       *time.Time
}

// Option customizes a Calculator.
type Option func(*Calculator)

// WithAsOf ends the velocity window at t instead of the latest sale date.
func WithAsOf(t time.Time) Option {
	return func(c *Calculator) {
		day := truncateDay(t)
		c.asOf = &day
	}
}

// NewCalculator creates a calculator for a 28, 56 or 84 day window.
// today anchors days-to-expire.
func NewCalculator(windowDays int, today time.Time, opts ...Option) (*Calculator, error) {
	if !domain.ValidWindow(windowDays) {
		return nil, domain.ErrInvalidWindow
	}
	c := &Calculator{
		windowDays: windowDays,
		today:      truncateDay(today),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Result is the output of one calculation.
type Result struct {
	Metrics []domain.SkuMetric
	// WindowEnd is nil when the upload held no sales and no as-of date was set.
	WindowEnd *time.Time
	// UnmatchedSales counts products that sold in the window but are absent
	// from the inventory export.
	UnmatchedSales int
}

// product accumulates the lots of one product name.
type product struct {
	name        string
	sku         string
	category    string
	subcategory string
	brand       string
	onHand      int
	earliest    *time.Time
	firstCost   *decimal.Decimal
	lots        []lot
}

type lot struct {
	units int
	cost  *decimal.Decimal
}

// ProductKey is the identity used to join inventory and sales rows.
func ProductKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Calculate computes metrics for every product in the inventory. The output
// is ordered by product key so identical inputs give identical results.
func (c *Calculator) Calculate(inventory []domain.InventoryRecord, sales []domain.SalesRecord) Result {
	products := aggregateInventory(inventory)

	var result Result
	end := c.windowEnd(sales)
	sold := map[string]int{}
	if end != nil {
		result.WindowEnd = end
		start := end.AddDate(0, 0, -c.windowDays)
		for _, s := range sales {
			day := truncateDay(s.SaleDate)
			if !day.After(start) || day.After(*end) {
				continue
			}
			sold[ProductKey(s.Product)] += s.UnitsSold
		}
	}

	keys := make([]string, 0, len(products))
	for key := range products {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for key, units := range sold {
		if _, ok := products[key]; !ok && units > 0 {
			result.UnmatchedSales++
		}
	}

	result.Metrics = make([]domain.SkuMetric, 0, len(keys))
	for _, key := range keys {
		result.Metrics = append(result.Metrics, c.metric(products[key], sold[key]))
	}
	return result
}

func (c *Calculator) windowEnd(sales []domain.SalesRecord) *time.Time {
	if c.asOf != nil {
		end := *c.asOf
		return &end
	}
	var latest *time.Time
	for _, s := range sales {
		day := truncateDay(s.SaleDate)
		if latest == nil || day.After(*latest) {
			latest = &day
		}
	}
	return latest
}

// metric computes the signals for one aggregated product.
func (c *Calculator) metric(p *product, unitsSold int) domain.SkuMetric {
	// 1. Velocity and runway
	runRate := DailyRunRate(unitsSold, c.windowDays)
	doh := DaysOnHand(p.onHand, runRate)

	m := domain.SkuMetric{
		Product:           p.name,
		SKU:               p.sku,
		Category:          p.category,
		Subcategory:       p.subcategory,
		Brand:             p.brand,
		OnHand:            p.onHand,
		UnitsSold:         unitsSold,
		WindowDays:        c.windowDays,
		DailyRunRate:      runRate,
		DOH:               doh,
		WeeksOfSupply:     doh.Weeks(),
		AvgWeeklySales:    AvgWeeklySales(unitsSold, c.windowDays),
		SlowMoverScore:    SlowMoverScore(p.onHand, doh),
		SuggestedDiscount: SuggestedDiscount(doh),
		UnitCost:          p.firstCost,
	}

	// 2. Days to expire, in whole calendar days from today
	if p.earliest != nil {
		exp := *p.earliest
		days := int(math.Round(exp.Sub(c.today).Hours() / 24))
		m.EarliestExpiry = &exp
		m.DaysToExpire = &days
	}

	// 3. Dollars on hand, valuing lots without a cost at the first observed cost
	if p.firstCost != nil {
		total := decimal.Zero
		for _, l := range p.lots {
			cost := p.firstCost
			if l.cost != nil {
				cost = l.cost
			}
			total = total.Add(cost.Mul(decimal.NewFromInt(int64(l.units))))
		}
		total = total.Round(2)
		m.DollarsOnHand = &total
	}

	return m
}

// aggregateInventory sums on-hand per product, keeps the earliest lot
// expiration and the first non-empty descriptive fields.
func aggregateInventory(inventory []domain.InventoryRecord) map[string]*product {
	products := make(map[string]*product)
	for _, rec := range inventory {
		key := ProductKey(rec.Product)
		if key == "" {
			continue
		}
		p, ok := products[key]
		if !ok {
			p = &product{name: strings.TrimSpace(rec.Product)}
			products[key] = p
		}
		p.sku = firstNonEmpty(p.sku, rec.SKU)
		p.category = firstNonEmpty(p.category, rec.Category)
		p.subcategory = firstNonEmpty(p.subcategory, rec.Subcategory)
		p.brand = firstNonEmpty(p.brand, rec.Brand)
		p.onHand += rec.OnHand

		if rec.ExpirationDate != nil {
			exp := truncateDay(*rec.ExpirationDate)
			if p.earliest == nil || exp.Before(*p.earliest) {
				p.earliest = &exp
			}
		}
		if rec.UnitCost != nil && p.firstCost == nil {
			cost := *rec.UnitCost
			p.firstCost = &cost
		}
		p.lots = append(p.lots, lot{units: rec.OnHand, cost: rec.UnitCost})
	}
	return products
}

func firstNonEmpty(current, candidate string) string {
	if current != "" {
		return current
	}
	return strings.TrimSpace(candidate)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
