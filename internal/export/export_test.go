package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

func sampleView(columns domain.Columns, tab domain.Tab) *domain.View {
	dollars := decimal.RequireFromString("1234.5")
	cost := decimal.RequireFromString("2.469")
	exp := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	days := 45

	f := domain.DefaultFilter()
	return &domain.View{
		Tab:     tab,
		Filter:  f,
		Columns: columns,
		Rows: []domain.ViewRow{
			{
				SkuRecord: domain.SkuRecord{SkuMetric: domain.SkuMetric{
					Product: "Oat Milk, 1L", SKU: "OM-1", Category: "Dairy Alt", Brand: "Oatly",
					OnHand: 500, UnitsSold: 112, WindowDays: 56, DailyRunRate: 2,
					DOH: domain.FiniteDOH(250), WeeksOfSupply: domain.FiniteDOH(250.0 / 7),
					AvgWeeklySales: 14, SlowMoverScore: 100, SuggestedDiscount: "30-50% (Urgent)",
					EarliestExpiry: &exp, DaysToExpire: &days, UnitCost: &cost, DollarsOnHand: &dollars,
				}},
				Badge: domain.BadgePromoStop,
			},
			{
				SkuRecord: domain.SkuRecord{SkuMetric: domain.SkuMetric{
					Product: "Dusty Jar", OnHand: 3, WindowDays: 56,
					DOH: domain.UnboundedDOH(), WeeksOfSupply: domain.UnboundedDOH(),
				}},
				Badge: domain.BadgeOverstock,
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	all := domain.Columns{Cost: true, Brand: true, Expiration: true}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleView(all, domain.TabInventory)); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(records))
	}

	header := strings.Join(records[0], "|")
	for _, want := range []string{"Brand/Vendor", "Units Sold (56d)", "Days to Expire", "Dollars on Hand", "Badge"} {
		if !strings.Contains(header, want) {
			t.Errorf("expected %q in header %v", want, records[0])
		}
	}
	if strings.Contains(header, "Suggested Discount") {
		t.Errorf("suggested discount belongs to the slow-mover export only")
	}

	row := strings.Join(records[1], "|")
	for _, want := range []string{"Oat Milk, 1L", "250.0", "35.7", "2024-05-15", "45", "2.47", "1234.50", "Promo / Stop Reorder"} {
		if !strings.Contains(row, want) {
			t.Errorf("expected %q in row %v", want, records[1])
		}
	}
	if !strings.Contains(strings.Join(records[2], "|"), domain.UnboundedLabel) {
		t.Errorf("expected unbounded DOH label, got %v", records[2])
	}
}

func TestWriteCSVOmitsMissingColumns(t *testing.T) {
	header, rows := Table(sampleView(domain.Columns{}, domain.TabSlowMovers))
	joined := strings.Join(header, "|")
	for _, absent := range []string{"Brand/Vendor", "Earliest Expiration", "Unit Cost", "Dollars on Hand"} {
		if strings.Contains(joined, absent) {
			t.Errorf("expected %q to be omitted, got %v", absent, header)
		}
	}
	if !strings.Contains(joined, "Suggested Discount") {
		t.Errorf("expected slow-mover columns, got %v", header)
	}
	if len(rows) != 2 || len(rows[0]) != len(header) {
		t.Errorf("unexpected table shape %d x %d", len(rows), len(rows[0]))
	}
}

func TestWriteXLSX(t *testing.T) {
	all := domain.Columns{Cost: true, Brand: true, Expiration: true}
	var buf bytes.Buffer
	if err := Write(&buf, FormatXLSX, sampleView(all, domain.TabInventory)); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Product" || rows[1][0] != "Oat Milk, 1L" {
		t.Errorf("unexpected first column %q / %q", rows[0][0], rows[1][0])
	}

	// DOH is column I: Product, SKU, Category, Subcategory, Brand,
	// On Hand, Units Sold, Daily Run Rate, DOH
	doh, err := f.GetCellValue(sheetName, "I2")
	if err != nil || doh != "250" {
		t.Errorf("expected numeric DOH 250, got %q (%v)", doh, err)
	}
	unbounded, _ := f.GetCellValue(sheetName, "I3")
	if unbounded != domain.UnboundedLabel {
		t.Errorf("expected %q, got %q", domain.UnboundedLabel, unbounded)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, "xlsx": FormatXLSX, "excel": FormatXLSX} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected unsupported format, got %v", err)
	}
	if got := FileName(domain.TabReorder, FormatXLSX, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)); got != "reorder_2024-03-31.xlsx" {
		t.Errorf("unexpected file name %q", got)
	}
}
