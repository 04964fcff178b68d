package recon_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxrecon/internal/domain"
	"taxrecon/internal/recon"
)

var expenseHints = recon.ReportHints{
	NameColumn:  colIssuer,
	TaxIDColumn: colIssuerID,
	Valuation:   recon.Valuation{TotalColumn: colTotal},
}

func namedDoc(key, issuer, total string) domain.TaxDocument {
	return domain.TaxDocument{Key: key, Fields: map[string]string{
		colIssuer:   issuer,
		colIssuerID: "900.123.456-7",
		colTotal:    total,
	}}
}

func kinds(rows []domain.ReportRow) []domain.GroupKind {
	out := make([]domain.GroupKind, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Kind)
	}
	return out
}

func TestAssemble_RollupTotals(t *testing.T) {
	doc := namedDoc("FE1", "ACME S.A.S.", "100")
	outcome := domain.MatchOutcome{
		Status: domain.OutcomeReconciled,
		Matched: []domain.Match{{
			Document:   doc,
			Entry:      domain.AggregatedEntry{Key: "FE1", Balance: dec("90"), TaxID: "900123456-7", Account: "51 Gastos"},
			SubtotalA:  dec("100"),
			TotalB:     dec("90"),
			Difference: dec("10"),
		}},
		OnlyDocuments: []domain.TaxDocument{namedDoc("FE2", "Acme SAS", "50")},
	}

	report := recon.NewAssembler(recon.DefaultNoiseThreshold).Assemble(domain.ReportExpenses, "Expenses", outcome, expenseHints)

	require.Equal(t, []domain.GroupKind{
		domain.GroupKindDetail,
		domain.GroupKindSubtotalType,
		domain.GroupKindDetail,
		domain.GroupKindSubtotalType,
		domain.GroupKindSubtotalCompany,
		domain.GroupKindGrandTotal,
	}, kinds(report.Rows))

	rows := report.Rows
	assert.Equal(t, "MATCH", rows[0].Type)
	assert.Equal(t, "9001234567", rows[0].TaxID)
	assert.Equal(t, "SUBTOTAL MATCH", rows[1].Type)
	assert.True(t, rows[1].Difference.Equal(dec("10")))
	assert.Equal(t, "SURPLUS_A", rows[2].Type)
	assert.Equal(t, "9001234567", rows[2].TaxID)
	assert.Equal(t, "SUBTOTAL SURPLUS_A", rows[3].Type)
	assert.True(t, rows[3].Difference.Equal(dec("50")))
	assert.Equal(t, "TOTAL ACME", rows[4].Company)
	assert.True(t, rows[4].Difference.Equal(dec("60")))
	assert.True(t, rows[4].SubtotalA.Equal(dec("150")))
	assert.True(t, rows[4].TotalB.Equal(dec("90")))

	grand, ok := report.GrandTotal()
	require.True(t, ok)
	assert.Equal(t, "GRAND TOTAL", grand.Company)
	assert.True(t, grand.Difference.Equal(dec("60")))
}

func TestAssemble_GrandTotalSumsCompanies(t *testing.T) {
	outcome := domain.MatchOutcome{
		OnlyDocuments: []domain.TaxDocument{
			namedDoc("FE1", "Beta Ltda", "30"),
			namedDoc("FE2", "Alfa SA", "20"),
		},
		OnlyLedger: []domain.LedgerLine{
			{Name: "Gamma", Reference: "X9", Balance: dec("5"), Account: "51 Gastos"},
		},
	}

	report := recon.NewAssembler(recon.DefaultNoiseThreshold).Assemble(domain.ReportExpenses, "Expenses", outcome, expenseHints)

	var companies []string
	sum := dec("0")
	for _, r := range report.Rows {
		if r.Kind == domain.GroupKindSubtotalCompany {
			companies = append(companies, r.Company)
			sum = sum.Add(r.Difference)
		}
	}
	assert.Equal(t, []string{"TOTAL ALFA", "TOTAL BETA", "TOTAL GAMMA"}, companies)
	grand, ok := report.GrandTotal()
	require.True(t, ok)
	assert.True(t, grand.Difference.Equal(sum))
	assert.True(t, grand.Difference.Equal(dec("45")))
}

func TestAssemble_SurplusBSigns(t *testing.T) {
	outcome := domain.MatchOutcome{OnlyLedger: []domain.LedgerLine{
		{Name: "Proveedor", TaxID: "800200300.0", Reference: "fe-9", Balance: dec("75"), Account: "51 Gastos"},
	}}

	report := recon.NewAssembler(recon.DefaultNoiseThreshold).Assemble(domain.ReportExpenses, "Expenses", outcome, expenseHints)

	row := report.Rows[0]
	assert.Equal(t, "SURPLUS_B", row.Type)
	assert.Equal(t, "FE9", row.LedgerKey)
	assert.Equal(t, "8002003000", row.TaxID)
	assert.True(t, row.SubtotalA.IsZero())
	assert.True(t, row.TotalB.Equal(dec("75")))
	assert.True(t, row.Difference.Equal(dec("-75")))
}

func TestAssemble_RowTypeOrderWithinCompany(t *testing.T) {
	outcome := domain.MatchOutcome{
		OnlyLedger: []domain.LedgerLine{{Name: "ACME", TaxID: "1", Reference: "B1", Balance: dec("10")}},
		OnlyDocuments: []domain.TaxDocument{{Key: "A1", Fields: map[string]string{
			colIssuer: "ACME", colIssuerID: "1", colTotal: "10",
		}}},
		Matched: []domain.Match{{
			Document:  domain.TaxDocument{Key: "M1", Fields: map[string]string{colIssuer: "ACME"}},
			Entry:     domain.AggregatedEntry{Key: "M1", TaxID: "1"},
			SubtotalA: dec("10"), TotalB: dec("10"), Difference: dec("0"),
		}},
	}

	report := recon.NewAssembler(recon.DefaultNoiseThreshold).Assemble(domain.ReportExpenses, "Expenses", outcome, expenseHints)

	var types []string
	for _, r := range report.Rows {
		if r.Kind == domain.GroupKindDetail {
			types = append(types, r.Type)
		}
	}
	assert.Equal(t, []string{"MATCH", "SURPLUS_A", "SURPLUS_B"}, types)
}

func TestAssemble_NoiseFilter(t *testing.T) {
	outcome := domain.MatchOutcome{Matched: []domain.Match{
		{
			Document:  domain.TaxDocument{Key: "N1", Fields: map[string]string{colIssuer: "Ruido"}},
			Entry:     domain.AggregatedEntry{Key: "N1"},
			SubtotalA: dec("0.5"), TotalB: dec("0.3"), Difference: dec("0.2"),
		},
		{
			Document:  domain.TaxDocument{Key: "K1", Fields: map[string]string{colIssuer: "Real"}},
			Entry:     domain.AggregatedEntry{Key: "K1"},
			SubtotalA: dec("1.5"), TotalB: dec("0"), Difference: dec("1.5"),
		},
	}}

	report := recon.NewAssembler(recon.DefaultNoiseThreshold).Assemble(domain.ReportExpenses, "Expenses", outcome, expenseHints)

	var keys []string
	for _, r := range report.Rows {
		if r.Kind == domain.GroupKindDetail {
			keys = append(keys, r.DocumentKey)
		}
	}
	assert.Equal(t, []string{"K1"}, keys)
}

func TestAssemble_UnknownCompanyWithoutNameColumn(t *testing.T) {
	outcome := domain.MatchOutcome{OnlyDocuments: []domain.TaxDocument{keyedDoc("FE1", "10")}}
	hints := recon.ReportHints{Valuation: recon.Valuation{TotalColumn: colTotal}}

	report := recon.NewAssembler(recon.DefaultNoiseThreshold).Assemble(domain.ReportIssuedFeed, "Feed", outcome, hints)

	require.NotEmpty(t, report.Rows)
	assert.Equal(t, recon.UnknownCompany, report.Rows[0].Company)
}

func TestAssemble_MatchFallsBackToLedgerName(t *testing.T) {
	outcome := domain.MatchOutcome{Matched: []domain.Match{{
		Document:  keyedDoc("FE1", "10"),
		Entry:     domain.AggregatedEntry{Key: "FE1", Name: "Ledger Name SAS"},
		SubtotalA: dec("10"), TotalB: dec("10"),
	}}}
	hints := recon.ReportHints{Valuation: recon.Valuation{TotalColumn: colTotal}}

	report := recon.NewAssembler(recon.DefaultNoiseThreshold).Assemble(domain.ReportIssuedFeed, "Feed", outcome, hints)

	assert.Equal(t, "Ledger Name SAS", report.Rows[0].Company)
	assert.Equal(t, "TOTAL LEDGER NAME", report.Rows[2].Company)
}

func TestAssemble_EmptyOutcomeIsHeaderOnly(t *testing.T) {
	outcome := domain.MatchOutcome{Status: domain.OutcomeSkipped, Reason: "ledger has no reference column"}

	report := recon.NewAssembler(recon.DefaultNoiseThreshold).Assemble(domain.ReportRevenue, "Revenue", outcome, expenseHints)

	assert.Equal(t, recon.ReportColumns, report.Columns)
	assert.Empty(t, report.Rows)
	assert.Equal(t, domain.OutcomeSkipped, report.Status)
	_, ok := report.GrandTotal()
	assert.False(t, ok)
}

func TestAssemble_Idempotent(t *testing.T) {
	outcome := domain.MatchOutcome{
		OnlyDocuments: []domain.TaxDocument{namedDoc("FE1", "Beta", "30"), namedDoc("FE2", "Alfa", "20")},
		OnlyLedger:    []domain.LedgerLine{{Name: "Alfa", Reference: "X", Balance: dec("4")}},
	}
	a := recon.NewAssembler(recon.DefaultNoiseThreshold)

	first := a.Assemble(domain.ReportExpenses, "Expenses", outcome, expenseHints)
	second := a.Assemble(domain.ReportExpenses, "Expenses", outcome, expenseHints)

	assert.Equal(t, first, second)
}
