package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"taxrecon/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// groupColumn is appended to the visible report columns so CSV consumers can
// tell detail rows from rollup rows.
const groupColumn = "GROUP"

// Writer wraps csv.Writer for exporting reconciliation reports as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the report columns plus the row group column.
func (w *Writer) WriteHeader(columns []string) error {
	header := make([]string, 0, len(columns)+1)
	header = append(header, columns...)
	return w.csv.Write(append(header, groupColumn))
}

// WriteRows converts report rows to CSV records and writes them.
func (w *Writer) WriteRows(rows []domain.ReportRow) error {
	for i := range rows {
		if err := w.csv.Write(reportRowToRecord(&rows[i])); err != nil {
			return err
		}
	}
	return nil
}

// WriteReport writes the BOM, header and every row of a report, then flushes.
// A flat CSV has no outline levels, so unlike the workbook it exposes each
// row's group kind (DETAIL, SUBTOTAL_TYPE, SUBTOTAL_COMPANY, GRAND_TOTAL) as
// a trailing GROUP column after the report columns.
func WriteReport(out io.Writer, report domain.Report) error {
	if _, err := out.Write(BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	w := NewWriter(out)
	if err := w.WriteHeader(report.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteRows(report.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// reportRowToRecord lays a row out in report column order. Rollup rows leave
// the key and account columns empty.
func reportRowToRecord(r *domain.ReportRow) []string {
	return []string{
		r.TaxID,
		r.Company,
		r.DocumentKey,
		r.LedgerKey,
		r.Account,
		r.SubtotalA.StringFixed(2),
		r.TotalB.StringFixed(2),
		r.Difference.StringFixed(2),
		r.Type,
		string(r.Kind),
	}
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a report title for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string) string {
	sanitized := SanitizeFilename(name)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
