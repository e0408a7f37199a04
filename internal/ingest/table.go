package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

// headerScanRows bounds how far down a sheet the header row is searched
// for; report exports often carry a few title rows above it.
const headerScanRows = 10

var zipMagic = []byte("PK\x03\x04")

// Table is a raw tabular upload with its header row located.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	// FirstLine is the 1-based line number of Rows[0] in the source file.
	FirstLine int
}

// Format identifies how an upload is encoded.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the decoder from the file extension, falling back to
// sniffing the zip signature XLSX files start with.
func DetectFormat(filename string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case "":
		if bytes.HasPrefix(data, zipMagic) {
			return FormatXLSX, nil
		}
		return FormatCSV, nil
	}
	return "", errors.Wrapf(domain.ErrUnsupportedFormat, "%s", filepath.Ext(filename))
}

// ReadRecords decodes all rows of the upload without interpreting them.
func ReadRecords(filename string, data []byte) ([][]string, error) {
	format, err := DetectFormat(filename, data)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return readXLSX(data)
	}
	return readCSV(data)
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "decode csv")
		}
		// The reader skips empty lines; pad them back so indexes stay
		// aligned with source line numbers.
		line, _ := reader.FieldPos(0)
		for len(records) < line-1 {
			records = append(records, nil)
		}
		records = append(records, record)
	}
	return records, nil
}

// readXLSX reads the first sheet. Cell values are taken raw so that date
// cells arrive as Excel serial numbers instead of locale-formatted text.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "open xlsx")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read rows from sheet %s", sheet)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		record, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, errors.Wrapf(err, "read row %d", len(records)+1)
		}
		records = append(records, record)
	}
	if err := rows.Error(); err != nil {
		return nil, errors.Wrap(err, "iterate xlsx rows")
	}
	return records, nil
}

// locateTable finds the header row: the first of the leading rows that
// resolves every required field of the schema. When none does, the first
// non-empty row is used so the missing columns can be reported.
func locateTable(name string, records [][]string, s schema) *Table {
	first := -1
	for i := 0; i < len(records) && i < headerScanRows; i++ {
		if isBlank(records[i]) {
			continue
		}
		if first < 0 {
			first = i
		}
		if _, missing, _ := s.resolve(records[i]); len(missing) == 0 {
			first = i
			break
		}
	}
	if first < 0 {
		return &Table{Name: name}
	}
	return &Table{
		Name:      name,
		Header:    records[first],
		Rows:      records[first+1:],
		FirstLine: first + 2,
	}
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
