package export

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

// column renders one field of a view row, as text for CSV and as a typed
// value for XLSX.
type column struct {
	title string
	text  func(r *domain.ViewRow) string
	cell  func(r *domain.ViewRow) interface{}
}

func textColumn(title string, get func(r *domain.ViewRow) string) column {
	return column{
		title: title,
		text:  get,
		cell:  func(r *domain.ViewRow) interface{} { return get(r) },
	}
}

func intColumn(title string, get func(r *domain.ViewRow) int) column {
	return column{
		title: title,
		text:  func(r *domain.ViewRow) string { return strconv.Itoa(get(r)) },
		cell:  func(r *domain.ViewRow) interface{} { return get(r) },
	}
}

func floatColumn(title string, decimals int, get func(r *domain.ViewRow) float64) column {
	return column{
		title: title,
		text:  func(r *domain.ViewRow) string { return formatFloat(get(r), decimals) },
		cell: func(r *domain.ViewRow) interface{} {
			v, _ := strconv.ParseFloat(formatFloat(get(r), decimals), 64)
			return v
		},
	}
}

func dohColumn(title string, get func(r *domain.ViewRow) domain.DaysOnHand) column {
	return column{
		title: title,
		text:  func(r *domain.ViewRow) string { return get(r).String() },
		cell: func(r *domain.ViewRow) interface{} {
			d := get(r)
			if d.Unbounded {
				return domain.UnboundedLabel
			}
			return d.Round(1).Days
		},
	}
}

// decimalColumn renders money with two decimals; blank when unknown.
func decimalColumn(title string, get func(r *domain.ViewRow) *decimal.Decimal) column {
	return column{
		title: title,
		text: func(r *domain.ViewRow) string {
			if v := get(r); v != nil {
				return v.StringFixed(2)
			}
			return ""
		},
		cell: func(r *domain.ViewRow) interface{} {
			if v := get(r); v != nil {
				f, _ := v.Round(2).Float64()
				return f
			}
			return ""
		},
	}
}

// columnsFor lists the export columns for a view, leaving out fields whose
// source column was missing from the upload.
func columnsFor(view *domain.View) []column {
	cols := []column{
		textColumn("Product", func(r *domain.ViewRow) string { return r.Product }),
		textColumn("SKU", func(r *domain.ViewRow) string { return r.SKU }),
		textColumn("Category", func(r *domain.ViewRow) string { return r.Category }),
		textColumn("Subcategory", func(r *domain.ViewRow) string { return r.Subcategory }),
	}
	if view.Columns.Brand {
		cols = append(cols, textColumn("Brand/Vendor", func(r *domain.ViewRow) string { return r.Brand }))
	}

	cols = append(cols,
		intColumn("On Hand", func(r *domain.ViewRow) int { return r.OnHand }),
		intColumn("Units Sold ("+strconv.Itoa(view.Filter.WindowDays)+"d)", func(r *domain.ViewRow) int { return r.UnitsSold }),
		floatColumn("Daily Run Rate", 2, func(r *domain.ViewRow) float64 { return r.DailyRunRate }),
		dohColumn("DOH", func(r *domain.ViewRow) domain.DaysOnHand { return r.DOH }),
		dohColumn("Weeks of Supply", func(r *domain.ViewRow) domain.DaysOnHand { return r.WeeksOfSupply }),
		floatColumn("Avg Weekly Sales", 1, func(r *domain.ViewRow) float64 { return r.AvgWeeklySales }),
	)

	if view.Columns.Expiration {
		cols = append(cols,
			column{
				title: "Earliest Expiration",
				text: func(r *domain.ViewRow) string {
					if r.EarliestExpiry == nil {
						return ""
					}
					return r.EarliestExpiry.Format("2006-01-02")
				},
				cell: func(r *domain.ViewRow) interface{} {
					if r.EarliestExpiry == nil {
						return ""
					}
					return r.EarliestExpiry.Format("2006-01-02")
				},
			},
			column{
				title: "Days to Expire",
				text: func(r *domain.ViewRow) string {
					if r.DaysToExpire == nil {
						return ""
					}
					return strconv.Itoa(*r.DaysToExpire)
				},
				cell: func(r *domain.ViewRow) interface{} {
					if r.DaysToExpire == nil {
						return ""
					}
					return *r.DaysToExpire
				},
			},
		)
	}

	if view.Columns.Cost {
		cols = append(cols,
			decimalColumn("Unit Cost", func(r *domain.ViewRow) *decimal.Decimal { return r.UnitCost }),
			decimalColumn("Dollars on Hand", func(r *domain.ViewRow) *decimal.Decimal { return r.DollarsOnHand }),
		)
	}

	if view.Tab == domain.TabSlowMovers {
		cols = append(cols,
			floatColumn("Slow Mover Score", 1, func(r *domain.ViewRow) float64 { return r.SlowMoverScore }),
			textColumn("Suggested Discount", func(r *domain.ViewRow) string { return r.SuggestedDiscount }),
		)
	}

	cols = append(cols, textColumn("Badge", func(r *domain.ViewRow) string { return r.Badge.Label() }))
	return cols
}
