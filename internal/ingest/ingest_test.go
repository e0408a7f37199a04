package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

func TestParseInventoryCSV(t *testing.T) {
	data := "\ufeffInventory Report,,,\n" +
		"Generated 2024-03-31,,,\n" +
		"Item Name,Available,Master Category,Wholesale,Expiry\n" +
		"Oat Milk,\"1,200\",Dairy Alt,$1.50,2024-06-30\n" +
		"Oat Milk,12.0,Dairy Alt,,04/20/2024\n" +
		",5,Pantry,1.00,\n" +
		"Jar,-3,Pantry,1.00,\n" +
		"Tin,4,Pantry,cheap,\n" +
		"Can,,Pantry,0.80,\n" +
		",,,,\n"

	res, err := ParseInventory("inventory.csv", []byte(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if res.Report.Rows != 6 || res.Report.Parsed != 3 || res.Report.MalformedCount() != 3 {
		t.Fatalf("unexpected report %+v", res.Report)
	}
	wantLines := []int{6, 7, 8}
	for i, rowErr := range res.Report.Malformed {
		if rowErr.Row != wantLines[i] || rowErr.Table != TableInventory {
			t.Errorf("malformed[%d] = %+v, want line %d", i, rowErr, wantLines[i])
		}
	}

	if !res.Columns.Cost || !res.Columns.Expiration || res.Columns.Brand {
		t.Errorf("unexpected columns %+v", res.Columns)
	}
	if strings.Join(res.Report.MissingOptional, ",") != "sku,subcategory,brand/vendor" {
		t.Errorf("unexpected missing optional %v", res.Report.MissingOptional)
	}

	first := res.Records[0]
	if first.Product != "Oat Milk" || first.OnHand != 1200 || first.Category != "Dairy Alt" {
		t.Errorf("unexpected first record %+v", first)
	}
	if first.UnitCost == nil || !first.UnitCost.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("expected cost 1.50, got %v", first.UnitCost)
	}
	second := res.Records[1]
	if second.UnitCost != nil || second.ExpirationDate == nil ||
		!second.ExpirationDate.Equal(time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected second record %+v", second)
	}
	if res.Records[2].Product != "Can" || res.Records[2].OnHand != 0 {
		t.Errorf("expected blank on-hand to read as zero, got %+v", res.Records[2])
	}
}

func TestParseInventoryMissingRequiredColumn(t *testing.T) {
	_, err := ParseInventory("inventory.csv", []byte("Product,Cost\nOat Milk,1.00\n"))

	var missing *domain.MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if missing.Field != string(FieldOnHand) || missing.Optional {
		t.Errorf("unexpected missing column %+v", missing)
	}
	if !errors.Is(err, domain.ErrMissingRequiredColumn) {
		t.Errorf("expected ErrMissingRequiredColumn in chain")
	}
}

func TestParseSalesXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Order Date", "Product", "Units Sold"},
		{time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), "Oat Milk", 3},
		{"2024-03-02", "Oat Milk", 4.0},
		{"yesterday", "Oat Milk", 1},
		{time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "Jar", 2.5},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	res, err := ParseSales("sales.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Report.Parsed != 2 || res.Report.MalformedCount() != 2 {
		t.Fatalf("unexpected report %+v", res.Report)
	}
	if res.Records[0].UnitsSold != 3 || !res.Records[0].SaleDate.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected first sale %+v", res.Records[0])
	}
	if res.LatestSale == nil || res.LatestSale.Format("2006-01-02") != "2024-03-31" {
		t.Errorf("unexpected latest sale %v", res.LatestSale)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
		err  bool
	}{
		{"report.CSV", nil, FormatCSV, false},
		{"report.xlsx", nil, FormatXLSX, false},
		{"upload", []byte("PK\x03\x04rest"), FormatXLSX, false},
		{"upload", []byte("a,b\n"), FormatCSV, false},
		{"report.pdf", nil, "", true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.name, tt.data)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, %v", tt.name, got, err)
		}
		if tt.err && !errors.Is(err, domain.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	}
}

func TestSizeCeiling(t *testing.T) {
	if err := CheckDeclaredSize(TableSales, 11, 10); !errors.Is(err, domain.ErrInputTooLarge) {
		t.Errorf("expected declared size to be rejected, got %v", err)
	}
	if err := CheckDeclaredSize(TableSales, -1, 10); err != nil {
		t.Errorf("expected unknown size to pass, got %v", err)
	}

	data, err := ReadLimited(TableInventory, strings.NewReader("0123456789"), 10)
	if err != nil || len(data) != 10 {
		t.Errorf("expected exactly-at-limit input to pass, got %d bytes, %v", len(data), err)
	}
	_, err = ReadLimited(TableInventory, strings.NewReader("0123456789A"), 10)
	var tooLarge *domain.TooLargeError
	if !errors.As(err, &tooLarge) || tooLarge.Table != TableInventory {
		t.Errorf("expected TooLargeError, got %v", err)
	}
}

func TestParseValues(t *testing.T) {
	for _, raw := range []string{"12", "12.0", "1,200", " 7 "} {
		if _, err := parseUnits(raw); err != nil {
			t.Errorf("parseUnits(%q): %v", raw, err)
		}
	}
	for _, raw := range []string{"1.5", "-2", "abc", "NaN"} {
		if _, err := parseUnits(raw); err == nil {
			t.Errorf("parseUnits(%q): expected error", raw)
		}
	}

	want := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-03-31", "3/31/2024", "03/31/24", "Mar 31, 2024", "45382", "2024-03-31T18:30:00Z"} {
		got, err := parseDate(raw)
		if err != nil || !got.Equal(want) {
			t.Errorf("parseDate(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := parseDate("12"); err == nil {
		t.Errorf("expected small numbers to be rejected as dates")
	}
}

func TestParseSalesLineNumbersSurviveBlankLines(t *testing.T) {
	data := "Sales Export\n\nDate,Item,Qty\n2024-03-01,Oat Milk,2\n\n2024-03-02,Oat Milk,x\n"

	res, err := ParseSales("sales.csv", []byte(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Report.Parsed != 1 || len(res.Report.Malformed) != 1 {
		t.Fatalf("unexpected report %+v", res.Report)
	}
	if got := res.Report.Malformed[0].Row; got != 6 {
		t.Errorf("expected malformed row on line 6, got %d", got)
	}
}
