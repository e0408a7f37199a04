package ingest

import (
	"github.com/pkg/errors"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

const (
	TableInventory = "inventory"
	TableSales     = "sales"
)

// ParseReport summarizes one table's parse for the user.
type ParseReport struct {
	Table           string            `json:"table"`
	Rows            int               `json:"rows"`
	Parsed          int               `json:"parsed"`
	Malformed       []domain.RowError `json:"malformed"`
	MissingOptional []string          `json:"missing_optional,omitempty"`
}

// MalformedCount is the number of rows skipped as unparseable.
func (r ParseReport) MalformedCount() int {
	return len(r.Malformed)
}

func (r *ParseReport) reject(line int, err error) {
	r.Malformed = append(r.Malformed, domain.RowError{Table: r.Table, Row: line, Reason: err.Error()})
}

// InventoryResult is the normalized inventory table.
type InventoryResult struct {
	Records []domain.InventoryRecord
	Columns domain.Columns
	Report  ParseReport
}

// ParseInventory reads an inventory export. A missing required column
// aborts with MissingColumnError; malformed rows are collected.
func ParseInventory(filename string, data []byte) (*InventoryResult, error) {
	records, err := ReadRecords(filename, data)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", TableInventory)
	}
	return parseInventoryRecords(records)
}

func parseInventoryRecords(records [][]string) (*InventoryResult, error) {
	table := locateTable(TableInventory, records, inventorySchema)
	idx, missing, optional := inventorySchema.resolve(table.Header)
	if len(missing) > 0 {
		return nil, &domain.MissingColumnError{Table: TableInventory, Field: string(missing[0])}
	}

	result := &InventoryResult{
		Report: ParseReport{Table: TableInventory, Malformed: []domain.RowError{}},
	}
	_, result.Columns.Cost = idx[FieldUnitCost]
	_, result.Columns.Brand = idx[FieldBrand]
	_, result.Columns.Expiration = idx[FieldExpiration]
	for _, f := range optional {
		result.Report.MissingOptional = append(result.Report.MissingOptional, string(f))
	}

	for i, record := range table.Rows {
		if isBlank(record) {
			continue
		}
		result.Report.Rows++
		line := table.FirstLine + i

		rec, err := inventoryRow(record, idx)
		if err != nil {
			result.Report.reject(line, err)
			continue
		}
		result.Records = append(result.Records, rec)
		result.Report.Parsed++
	}

	return result, nil
}

func inventoryRow(record []string, idx map[Field]int) (domain.InventoryRecord, error) {
	rec := domain.InventoryRecord{
		Product:     cell(record, idx, FieldProduct),
		SKU:         cell(record, idx, FieldSKU),
		Category:    cell(record, idx, FieldCategory),
		Subcategory: cell(record, idx, FieldSubcategory),
		Brand:       cell(record, idx, FieldBrand),
	}
	if rec.Product == "" {
		return rec, errors.New("missing product name")
	}

	// Blank on-hand counts as zero stock, matching how the exports leave
	// sold-out lots empty.
	if raw := cell(record, idx, FieldOnHand); raw != "" {
		units, err := parseUnits(raw)
		if err != nil {
			return rec, errors.Wrap(err, "on-hand units")
		}
		rec.OnHand = units
	}

	if raw := cell(record, idx, FieldUnitCost); raw != "" {
		cost, err := parseCost(raw)
		if err != nil {
			return rec, err
		}
		rec.UnitCost = &cost
	}

	if raw := cell(record, idx, FieldExpiration); raw != "" {
		exp, err := parseDate(raw)
		if err != nil {
			return rec, errors.Wrap(err, "expiration date")
		}
		rec.ExpirationDate = &exp
	}

	return rec, nil
}
