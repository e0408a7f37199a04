// Package export renders dashboard views as CSV or XLSX downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheetName = "Dashboard"

func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: export format %q", domain.ErrUnsupportedFormat, value)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName builds the download name, e.g. "reorder_2024-03-31.csv".
func FileName(tab domain.Tab, f Format, today time.Time) string {
	return fmt.Sprintf("%s_%s.%s", tab, today.Format("2006-01-02"), f)
}

// Write renders view in format f.
func Write(w io.Writer, f Format, view *domain.View) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, view)
	case FormatCSV:
		return WriteCSV(w, view)
	}
	return fmt.Errorf("%w: export format %q", domain.ErrUnsupportedFormat, f)
}

// WriteCSV writes the header and one line per row.
func WriteCSV(w io.Writer, view *domain.View) error {
	cols := columnsFor(view)

	cw := csv.NewWriter(w)
	if err := cw.Write(header(cols)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range view.Rows {
		record := make([]string, len(cols))
		for j, c := range cols {
			record[j] = c.text(&view.Rows[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single-sheet workbook. Numeric columns are written as
// numbers so they stay sortable in a spreadsheet.
func WriteXLSX(w io.Writer, view *domain.View) error {
	cols := columnsFor(view)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	titles := make([]interface{}, len(cols))
	for i, c := range cols {
		titles[i] = c.title
	}
	if err := sw.SetRow("A1", titles); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i := range view.Rows {
		values := make([]interface{}, len(cols))
		for j, c := range cols {
			values[j] = c.cell(&view.Rows[i])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush xlsx: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func header(cols []column) []string {
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
	}
	return titles
}

// Table returns the header and text cells of a view, as written to CSV.
func Table(view *domain.View) ([]string, [][]string) {
	cols := columnsFor(view)
	rows := make([][]string, len(view.Rows))
	for i := range view.Rows {
		rows[i] = make([]string, len(cols))
		for j, c := range cols {
			rows[i][j] = c.text(&view.Rows[i])
		}
	}
	return header(cols), rows
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
