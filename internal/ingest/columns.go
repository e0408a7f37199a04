package ingest

import "strings"

// Field is a normalized internal column.
type Field string

const (
	FieldProduct     Field = "product name"
	FieldSKU         Field = "sku"
	FieldCategory    Field = "category"
	FieldSubcategory Field = "subcategory"
	FieldBrand       Field = "brand/vendor"
	FieldOnHand      Field = "on-hand units"
	FieldUnitCost    Field = "unit cost"
	FieldExpiration  Field = "expiration date"
	FieldSaleDate    Field = "sale date"
	FieldUnitsSold   Field = "units sold"
)

type column struct {
	field    Field
	required bool
	aliases  []string
}

// schema is the declarative alias table for one export, in preference order.
type schema []column

var inventorySchema = schema{
	{field: FieldProduct, required: true, aliases: []string{"product name", "product", "itemname", "item name", "item", "name"}},
	{field: FieldOnHand, required: true, aliases: []string{"on hand units", "onhandunits", "on hand", "available", "quantity on hand", "qty on hand", "quantity", "qty"}},
	{field: FieldSKU, aliases: []string{"sku", "product sku", "item sku", "sku id"}},
	{field: FieldCategory, aliases: []string{"category", "master category", "product category"}},
	{field: FieldSubcategory, aliases: []string{"subcategory", "sub category", "product subcategory"}},
	{field: FieldBrand, aliases: []string{"brand", "vendor", "brand/vendor", "brand name", "vendor name", "producer", "supplier"}},
	{field: FieldUnitCost, aliases: []string{"unit cost", "cost", "wholesale", "wholesale cost", "unit price cost"}},
	{field: FieldExpiration, aliases: []string{"expiration date", "expiry", "best by", "expiration", "expiry date", "best by date", "exp date"}},
}

var salesSchema = schema{
	{field: FieldProduct, required: true, aliases: []string{"product name", "product", "itemname", "item name", "item", "name"}},
	{field: FieldSaleDate, required: true, aliases: []string{"sale date", "order date", "date", "transaction date", "sold date"}},
	{field: FieldUnitsSold, required: true, aliases: []string{"units sold", "quantity sold", "qty sold", "units", "quantity", "qty"}},
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.TrimPrefix(name, "\ufeff")
	return columnNameSanitizer.Replace(name)
}

// resolve maps each schema field to a header index. A header column is
// claimed by at most one field, earlier fields first.
func (s schema) resolve(header []string) (map[Field]int, []Field, []Field) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeColumnName(h)
		if key == "" {
			continue
		}
		if _, ok := positions[key]; !ok {
			positions[key] = i
		}
	}

	claimed := make(map[int]bool, len(header))
	found := make(map[Field]int, len(s))
	var missingRequired, missingOptional []Field
	for _, col := range s {
		idx := -1
		for _, alias := range col.aliases {
			if i, ok := positions[normalizeColumnName(alias)]; ok && !claimed[i] {
				idx = i
				break
			}
		}
		if idx < 0 {
			if col.required {
				missingRequired = append(missingRequired, col.field)
			} else {
				missingOptional = append(missingOptional, col.field)
			}
			continue
		}
		claimed[idx] = true
		found[col.field] = idx
	}
	return found, missingRequired, missingOptional
}

// cell returns the trimmed value of field in record, or "" when the column
// is absent or the row is short.
func cell(record []string, idx map[Field]int, field Field) string {
	i, ok := idx[field]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
