package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var numberSanitizer = strings.NewReplacer(",", "", "$", "", " ", "")

// parseUnits reads a non-negative whole number. Exports often write
// integers as "12.0", which is accepted.
func parseUnits(raw string) (int, error) {
	v := numberSanitizer.Replace(raw)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Errorf("%q is not a number", raw)
	}
	if f < 0 {
		return 0, errors.Errorf("%q is negative", raw)
	}
	if f != math.Trunc(f) {
		return 0, errors.Errorf("%q is not a whole number of units", raw)
	}
	if f > math.MaxInt32 {
		return 0, errors.Errorf("%q is out of range", raw)
	}
	return int(f), nil
}

func parseCost(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(numberSanitizer.Replace(raw))
	if err != nil {
		return decimal.Zero, errors.Errorf("%q is not a cost", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, errors.Errorf("cost %q is negative", raw)
	}
	return d, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"01-02-06",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
	"2-Jan-06",
}

// Excel serial numbers between these bounds are read as dates (1954..2119).
const (
	minExcelSerial = 20000
	maxExcelSerial = 80000
)

// parseDate reads a calendar date, dropping any time of day.
func parseDate(raw string) (time.Time, error) {
	v := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return truncateDay(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > minExcelSerial && serial < maxExcelSerial {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, errors.Errorf("%q is not a date", raw)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
