package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxDocument is one row of a tax authority export or of an external document
// feed. Fields are keyed by normalized column name.
type TaxDocument struct {
	Fields map[string]string
	Key    string
}

// Get returns the value of a column, or "" when the column is absent.
func (d TaxDocument) Get(column string) string {
	if column == "" {
		return ""
	}
	return d.Fields[column]
}

// DocumentSet is an ordered collection of tax documents sharing one header.
// Keyed reports whether a reconciliation key could be derived for the set.
type DocumentSet struct {
	Columns   []string
	Documents []TaxDocument
	Keyed     bool
}

// HasColumn reports whether the set carries the given normalized column.
func (s DocumentSet) HasColumn(column string) bool {
	if column == "" {
		return false
	}
	for _, c := range s.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// LedgerLine is one accounting line from the internal ledger export.
type LedgerLine struct {
	Account     string          `json:"account"`
	AccountCode string          `json:"account_code"`
	Date        string          `json:"date"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
	Reference   string          `json:"reference"`
	TaxID       string          `json:"tax_id"`
	Name        string          `json:"name"`
	Memo        string          `json:"memo"`
}

// LedgerFields records which optional ledger columns the source provided.
type LedgerFields struct {
	Reference bool
	TaxID     bool
	Name      bool
	Memo      bool
}

// Ledger is a parsed accounting export.
type Ledger struct {
	Lines  []LedgerLine
	Fields LedgerFields
}

// AggregatedEntry collapses every ledger line sharing a reconciliation key.
// Descriptive fields carry the first value seen for the key.
type AggregatedEntry struct {
	Key     string
	Balance decimal.Decimal
	TaxID   string
	Name    string
	Account string
	Lines   int
}

// Match pairs a document with the aggregated ledger entry sharing its key.
type Match struct {
	Document   TaxDocument
	Entry      AggregatedEntry
	SubtotalA  decimal.Decimal
	TotalB     decimal.Decimal
	Difference decimal.Decimal
}

// MatchOutcome is the three-way split of a document side against a ledger side.
// OnlyLedger is reported at raw-line granularity, so several lines may share a key.
type MatchOutcome struct {
	Status        OutcomeStatus
	Reason        string
	Matched       []Match
	OnlyDocuments []TaxDocument
	OnlyLedger    []LedgerLine
	LedgerFields  LedgerFields
}

// Empty reports whether no partition holds any row.
func (o MatchOutcome) Empty() bool {
	return len(o.Matched) == 0 && len(o.OnlyDocuments) == 0 && len(o.OnlyLedger) == 0
}

// ReportRow is a detail or rollup row of a reconciliation report.
type ReportRow struct {
	Kind         GroupKind       `json:"kind"`
	TaxID        string          `json:"tax_id"`
	Company      string          `json:"company"`
	CompanyGroup string          `json:"-"`
	DocumentKey  string          `json:"document_key"`
	LedgerKey    string          `json:"ledger_key"`
	Account      string          `json:"account"`
	SubtotalA    decimal.Decimal `json:"subtotal_a"`
	TotalB       decimal.Decimal `json:"total_b"`
	Difference   decimal.Decimal `json:"difference"`
	Type         string          `json:"type"`
}

// Report is an ordered reconciliation table ready for rendering.
type Report struct {
	Kind    ReportKind    `json:"kind"`
	Title   string        `json:"title"`
	Status  OutcomeStatus `json:"status"`
	Columns []string      `json:"columns"`
	Rows    []ReportRow   `json:"rows"`
}

// GrandTotal returns the GRAND_TOTAL row, if the report has one.
func (r Report) GrandTotal() (ReportRow, bool) {
	for i := len(r.Rows) - 1; i >= 0; i-- {
		if r.Rows[i].Kind == GroupKindGrandTotal {
			return r.Rows[i], true
		}
	}
	return ReportRow{}, false
}

// Table is a plain pass-through table handed to the renderer unmodified.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// RunSummary describes a finished reconciliation run.
type RunSummary struct {
	RunID       uuid.UUID       `json:"run_id"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	Reports     []ReportSummary `json:"reports"`
	Warnings    []string        `json:"warnings,omitempty"`
	LedgerLines int             `json:"ledger_lines"`
	Documents   int             `json:"documents"`
	ArchiveURL  string          `json:"archive_url,omitempty"`
	Segments    map[Segment]int `json:"segments"`
}

// ReportSummary carries the headline numbers of one report.
type ReportSummary struct {
	Kind       ReportKind      `json:"kind"`
	Title      string          `json:"title"`
	Status     OutcomeStatus   `json:"status"`
	Matched    int             `json:"matched"`
	SurplusA   int             `json:"surplus_a"`
	SurplusB   int             `json:"surplus_b"`
	Difference decimal.Decimal `json:"difference"`
}
