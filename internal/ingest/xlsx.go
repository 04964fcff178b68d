// Package ingest turns uploaded spreadsheets into typed ledger and document
// tables. Header names are resolved once through alias rules so the rest of
// the pipeline never looks at raw column labels.
package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ReadRows returns the raw cell values of the first worksheet of an XLSX
// workbook. Numbers and dates come back unformatted.
func ReadRows(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// NoDate marks a ledger line whose date cell could not be parsed.
const NoDate = "N/A"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02/01/2006 15:04:05",
}

// ParseDate renders a date cell as YYYY-MM-DD. Serial numbers are read as
// Excel dates; text is tried against ISO and day-first layouts.
func ParseDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NoDate
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return NoDate
		}
		return t.Format(time.DateOnly)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return NoDate
}
