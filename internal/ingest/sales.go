package ingest

import (
	"time"

	"github.com/pkg/errors"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

// SalesResult is the normalized sales table.
type SalesResult struct {
	Records    []domain.SalesRecord
	LatestSale *time.Time
	Report     ParseReport
}

// ParseSales reads a sales export.
func ParseSales(filename string, data []byte) (*SalesResult, error) {
	records, err := ReadRecords(filename, data)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", TableSales)
	}
	return parseSalesRecords(records)
}

func parseSalesRecords(records [][]string) (*SalesResult, error) {
	table := locateTable(TableSales, records, salesSchema)
	idx, missing, _ := salesSchema.resolve(table.Header)
	if len(missing) > 0 {
		return nil, &domain.MissingColumnError{Table: TableSales, Field: string(missing[0])}
	}

	result := &SalesResult{
		Report: ParseReport{Table: TableSales, Malformed: []domain.RowError{}},
	}
	for i, record := range table.Rows {
		if isBlank(record) {
			continue
		}
		result.Report.Rows++
		line := table.FirstLine + i

		rec, err := salesRow(record, idx)
		if err != nil {
			result.Report.reject(line, err)
			continue
		}
		result.Records = append(result.Records, rec)
		result.Report.Parsed++
		if result.LatestSale == nil || rec.SaleDate.After(*result.LatestSale) {
			latest := rec.SaleDate
			result.LatestSale = &latest
		}
	}

	return result, nil
}

func salesRow(record []string, idx map[Field]int) (domain.SalesRecord, error) {
	rec := domain.SalesRecord{Product: cell(record, idx, FieldProduct)}
	if rec.Product == "" {
		return rec, errors.New("missing product name")
	}

	rawDate := cell(record, idx, FieldSaleDate)
	if rawDate == "" {
		return rec, errors.New("missing sale date")
	}
	date, err := parseDate(rawDate)
	if err != nil {
		return rec, errors.Wrap(err, "sale date")
	}
	rec.SaleDate = date

	rawUnits := cell(record, idx, FieldUnitsSold)
	if rawUnits == "" {
		return rec, errors.New("missing units sold")
	}
	units, err := parseUnits(rawUnits)
	if err != nil {
		return rec, errors.Wrap(err, "units sold")
	}
	rec.UnitsSold = units

	return rec, nil
}
