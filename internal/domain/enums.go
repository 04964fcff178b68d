package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypeXLSX FileType = "xlsx"
	FileTypeXLSM FileType = "xlsm"
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"xlsx": FileTypeXLSX,
	"xlsm": FileTypeXLSM,
}

// ContentTypeXLSX is the MIME type of a generated workbook.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RowType classifies a detail row by which side(s) of the reconciliation it came from.
type RowType string

const (
	RowTypeMatch    RowType = "MATCH"
	RowTypeSurplusA RowType = "SURPLUS_A"
	RowTypeSurplusB RowType = "SURPLUS_B"
)

// Rank orders row types inside a company group: MATCH < SURPLUS_A < SURPLUS_B.
func (t RowType) Rank() int {
	switch t {
	case RowTypeMatch:
		return 1
	case RowTypeSurplusA:
		return 2
	case RowTypeSurplusB:
		return 3
	default:
		return 4
	}
}

// GroupKind tells the renderer how a report row participates in the rollup.
// It is never written as a visible column.
type GroupKind string

const (
	GroupKindDetail          GroupKind = "DETAIL"
	GroupKindSubtotalType    GroupKind = "SUBTOTAL_TYPE"
	GroupKindSubtotalCompany GroupKind = "SUBTOTAL_COMPANY"
	GroupKindGrandTotal      GroupKind = "GRAND_TOTAL"
)

// OutcomeStatus distinguishes a valid (possibly empty) reconciliation from one
// that could not be computed because a required column was missing.
type OutcomeStatus string

const (
	OutcomeReconciled OutcomeStatus = "reconciled"
	OutcomeSkipped    OutcomeStatus = "skipped"
)

// Segment is one of the mutually exclusive ledger classifications.
type Segment string

const (
	SegmentExpense       Segment = "expense"
	SegmentRevenue       Segment = "revenue"
	SegmentDeductibleTax Segment = "deductible_tax"
	SegmentGeneratedTax  Segment = "generated_tax"
)

// ReportKind identifies one of the reconciliation reports a run can produce.
type ReportKind string

const (
	ReportExpenses      ReportKind = "expenses"
	ReportRevenue       ReportKind = "revenue"
	ReportDeductibleTax ReportKind = "deductible-tax"
	ReportGeneratedTax  ReportKind = "generated-tax"
	ReportIssuedFeed    ReportKind = "issued-feed"
	ReportReceivedFeed  ReportKind = "received-feed"
)

// ReportKinds lists every report kind in workbook order.
var ReportKinds = []ReportKind{
	ReportExpenses,
	ReportRevenue,
	ReportDeductibleTax,
	ReportGeneratedTax,
	ReportIssuedFeed,
	ReportReceivedFeed,
}

// ParseReportKind validates a report slug.
func ParseReportKind(s string) (ReportKind, error) {
	for _, k := range ReportKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrUnknownReport
}
