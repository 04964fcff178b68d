package recon

import (
	"sort"

	"github.com/shopspring/decimal"

	"taxrecon/internal/domain"
	"taxrecon/internal/normalize"
)

// UnknownCompany labels document-only rows when the document side carries no
// counterparty name column.
const UnknownCompany = "DESCONOCIDO"

// Report labels.
const (
	subtotalLabel   = "SUBTOTAL "
	totalLabel      = "TOTAL "
	grandTotalLabel = "GRAND TOTAL"
)

// ReportColumns is the fixed header of every reconciliation report.
var ReportColumns = []string{
	"TAX ID", "COMPANY", "DOCUMENT KEY", "LEDGER KEY", "ACCOUNT",
	"DOCUMENT SUBTOTAL", "LEDGER TOTAL", "DIFFERENCE", "TYPE",
}

// DefaultNoiseThreshold is the magnitude at or below which a row whose both
// amounts are small is treated as rounding noise.
var DefaultNoiseThreshold = decimal.NewFromInt(1)

// ReportHints tells the assembler which document columns describe the
// counterparty and how to value a document. Empty column names mean the
// document side does not carry that column.
type ReportHints struct {
	NameColumn  string
	TaxIDColumn string
	Valuation   Valuation
}

// Assembler turns a match outcome into a flat, sorted report with a
// three-level rollup.
type Assembler struct {
	noise decimal.Decimal
}

// NewAssembler creates an assembler with the given noise threshold.
func NewAssembler(noiseThreshold decimal.Decimal) *Assembler {
	return &Assembler{noise: noiseThreshold.Abs()}
}

// Assemble builds the report for one outcome. Detail rows are ordered by
// company group, tax ID and row type; each type block is followed by its
// subtotal, each company by its total, and the report by a grand total.
// An outcome with no surviving rows yields a header-only report.
func (a *Assembler) Assemble(kind domain.ReportKind, title string, outcome domain.MatchOutcome, hints ReportHints) domain.Report {
	report := domain.Report{
		Kind:    kind,
		Title:   title,
		Status:  outcome.Status,
		Columns: ReportColumns,
	}

	details := a.dropNoise(detailRows(outcome, hints))
	if len(details) == 0 {
		return report
	}
	sortDetails(details)
	report.Rows = rollup(groupByCompany(details))
	return report
}

func detailRows(outcome domain.MatchOutcome, hints ReportHints) []domain.ReportRow {
	rows := make([]domain.ReportRow, 0, len(outcome.Matched)+len(outcome.OnlyDocuments)+len(outcome.OnlyLedger))

	for _, m := range outcome.Matched {
		company := m.Entry.Name
		if hints.NameColumn != "" {
			company = m.Document.Get(hints.NameColumn)
		}
		rows = append(rows, detail(domain.RowTypeMatch, domain.ReportRow{
			TaxID:       normalize.CleanNumericID(m.Entry.TaxID),
			Company:     company,
			DocumentKey: m.Document.Key,
			LedgerKey:   m.Entry.Key,
			Account:     m.Entry.Account,
			SubtotalA:   m.SubtotalA,
			TotalB:      m.TotalB,
			Difference:  m.Difference,
		}))
	}

	for _, doc := range outcome.OnlyDocuments {
		company := UnknownCompany
		if hints.NameColumn != "" {
			company = doc.Get(hints.NameColumn)
		}
		amount := hints.Valuation.Amount(doc)
		rows = append(rows, detail(domain.RowTypeSurplusA, domain.ReportRow{
			TaxID:       normalize.CleanNumericID(doc.Get(hints.TaxIDColumn)),
			Company:     company,
			DocumentKey: doc.Key,
			SubtotalA:   amount,
			TotalB:      decimal.Zero,
			Difference:  amount,
		}))
	}

	for _, line := range outcome.OnlyLedger {
		rows = append(rows, detail(domain.RowTypeSurplusB, domain.ReportRow{
			TaxID:      normalize.CleanNumericID(line.TaxID),
			Company:    line.Name,
			LedgerKey:  LedgerKey(line),
			Account:    line.Account,
			SubtotalA:  decimal.Zero,
			TotalB:     line.Balance,
			Difference: line.Balance.Neg(),
		}))
	}
	return rows
}

func detail(t domain.RowType, row domain.ReportRow) domain.ReportRow {
	row.Kind = domain.GroupKindDetail
	row.Type = string(t)
	row.CompanyGroup = normalize.StandardizeCompanyName(row.Company)
	return row
}

func (a *Assembler) dropNoise(rows []domain.ReportRow) []domain.ReportRow {
	kept := rows[:0:0]
	for _, r := range rows {
		if r.SubtotalA.Abs().GreaterThan(a.noise) || r.TotalB.Abs().GreaterThan(a.noise) {
			kept = append(kept, r)
		}
	}
	return kept
}

func sortDetails(rows []domain.ReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.CompanyGroup != b.CompanyGroup {
			return a.CompanyGroup < b.CompanyGroup
		}
		if a.TaxID != b.TaxID {
			return a.TaxID < b.TaxID
		}
		return domain.RowType(a.Type).Rank() < domain.RowType(b.Type).Rank()
	})
}

type typeBlock struct {
	rowType string
	rows    []domain.ReportRow
}

type companyBlock struct {
	name   string
	taxID  string
	blocks []typeBlock
}

// groupByCompany partitions sorted detail rows by company group, then by row
// type, keeping first-appearance order at both levels.
func groupByCompany(rows []domain.ReportRow) []companyBlock {
	var companies []companyBlock
	index := make(map[string]int)
	for _, r := range rows {
		ci, ok := index[r.CompanyGroup]
		if !ok {
			ci = len(companies)
			index[r.CompanyGroup] = ci
			companies = append(companies, companyBlock{name: r.CompanyGroup, taxID: r.TaxID})
		}
		c := &companies[ci]
		placed := false
		for bi := range c.blocks {
			if c.blocks[bi].rowType == r.Type {
				c.blocks[bi].rows = append(c.blocks[bi].rows, r)
				placed = true
				break
			}
		}
		if !placed {
			c.blocks = append(c.blocks, typeBlock{rowType: r.Type, rows: []domain.ReportRow{r}})
		}
	}
	return companies
}

type totals struct {
	subtotalA  decimal.Decimal
	totalB     decimal.Decimal
	difference decimal.Decimal
}

func (t totals) add(r domain.ReportRow) totals {
	return totals{
		subtotalA:  t.subtotalA.Add(r.SubtotalA),
		totalB:     t.totalB.Add(r.TotalB),
		difference: t.difference.Add(r.Difference),
	}
}

func (t totals) row(kind domain.GroupKind, taxID, company, rowType string) domain.ReportRow {
	return domain.ReportRow{
		Kind:       kind,
		TaxID:      taxID,
		Company:    company,
		SubtotalA:  t.subtotalA,
		TotalB:     t.totalB,
		Difference: t.difference,
		Type:       rowType,
	}
}

func sumRows(rows []domain.ReportRow) totals {
	t := totals{}
	for _, r := range rows {
		t = t.add(r)
	}
	return t
}

func rollup(companies []companyBlock) []domain.ReportRow {
	var out []domain.ReportRow
	var companyTotals []domain.ReportRow
	for _, c := range companies {
		rows, total := rollupCompany(c)
		out = append(out, rows...)
		out = append(out, total)
		companyTotals = append(companyTotals, total)
	}
	return append(out, sumRows(companyTotals).row(domain.GroupKindGrandTotal, "", grandTotalLabel, ""))
}

// rollupCompany emits the detail rows and type subtotals of one company and
// returns its total row separately.
func rollupCompany(c companyBlock) ([]domain.ReportRow, domain.ReportRow) {
	var out []domain.ReportRow
	var subtotals []domain.ReportRow
	for _, b := range c.blocks {
		sub := sumRows(b.rows).row(domain.GroupKindSubtotalType, c.taxID, c.name, subtotalLabel+b.rowType)
		out = append(out, b.rows...)
		out = append(out, sub)
		subtotals = append(subtotals, sub)
	}
	total := sumRows(subtotals).row(domain.GroupKindSubtotalCompany, c.taxID, totalLabel+c.name, "")
	return out, total
}
