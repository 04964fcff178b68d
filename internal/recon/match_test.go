package recon_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxrecon/internal/domain"
	"taxrecon/internal/recon"
)

func TestAggregate(t *testing.T) {
	first := ledgerLine("51050601", "Sueldos", "fe-1", "60")
	first.Name = ""
	second := ledgerLine("51050601", "Sueldos", "FE1", "40")
	second.Name = "ACME SAS"
	other := ledgerLine("51350501", "Servicios", "FE2", "10")

	got := recon.Aggregate(domain.Ledger{Fields: allFields, Lines: []domain.LedgerLine{first, second, other}})

	require.Len(t, got, 2)
	assert.Equal(t, "FE1", got[0].Key)
	assert.True(t, got[0].Balance.Equal(dec("100")))
	assert.Equal(t, 2, got[0].Lines)
	assert.Equal(t, "ACME SAS", got[0].Name)
	assert.Equal(t, "51050601 Sueldos", got[0].Account)
	assert.Equal(t, "FE2", got[1].Key)
}

func TestAggregate_IgnoresAbsentFields(t *testing.T) {
	line := ledgerLine("51050601", "Sueldos", "FE1", "60")

	got := recon.Aggregate(domain.Ledger{Fields: domain.LedgerFields{Reference: true}, Lines: []domain.LedgerLine{line}})

	require.Len(t, got, 1)
	assert.Empty(t, got[0].TaxID)
	assert.Empty(t, got[0].Name)
}

func TestReconcile_ThreeWaySplit(t *testing.T) {
	docs := domain.DocumentSet{Keyed: true, Documents: []domain.TaxDocument{
		keyedDoc("FE1", "100"),
		keyedDoc("FE2", "50"),
	}}
	ledger := domain.Ledger{Fields: allFields, Lines: []domain.LedgerLine{
		ledgerLine("51050601", "Sueldos", "FE1", "60"),
		ledgerLine("51050601", "Sueldos", "FE1", "30"),
		ledgerLine("51050601", "Sueldos", "FE3", "20"),
		ledgerLine("51050601", "Sueldos", "FE3", "5"),
	}}

	got := recon.Reconcile(docs, ledger, recon.Valuation{TotalColumn: colTotal})

	assert.Equal(t, domain.OutcomeReconciled, got.Status)
	require.Len(t, got.Matched, 1)
	m := got.Matched[0]
	assert.Equal(t, "FE1", m.Document.Key)
	assert.True(t, m.SubtotalA.Equal(dec("100")))
	assert.True(t, m.TotalB.Equal(dec("90")))
	assert.True(t, m.Difference.Equal(dec("10")))

	require.Len(t, got.OnlyDocuments, 1)
	assert.Equal(t, "FE2", got.OnlyDocuments[0].Key)

	require.Len(t, got.OnlyLedger, 2, "ledger-only rows stay at line granularity")
	assert.Equal(t, "FE3", got.OnlyLedger[0].Reference)
	assert.Equal(t, "FE3", got.OnlyLedger[1].Reference)
}

func TestReconcile_PartitionsAreDisjointAndComplete(t *testing.T) {
	docs := domain.DocumentSet{Keyed: true, Documents: []domain.TaxDocument{
		keyedDoc("A1", "1"), keyedDoc("A2", "2"), keyedDoc("A3", "3"),
	}}
	ledger := domain.Ledger{Fields: allFields, Lines: []domain.LedgerLine{
		ledgerLine("5", "x", "A2", "1"),
		ledgerLine("5", "x", "B1", "1"),
		ledgerLine("5", "x", "A3", "1"),
		ledgerLine("5", "x", "B2", "1"),
	}}

	got := recon.Reconcile(docs, ledger, recon.Valuation{TotalColumn: colTotal})

	docSide := map[string]int{}
	for _, m := range got.Matched {
		docSide[m.Document.Key]++
	}
	for _, d := range got.OnlyDocuments {
		docSide[d.Key]++
	}
	assert.Equal(t, map[string]int{"A1": 1, "A2": 1, "A3": 1}, docSide)

	ledgerSide := map[string]int{}
	for _, m := range got.Matched {
		ledgerSide[m.Entry.Key]++
	}
	for _, l := range got.OnlyLedger {
		ledgerSide[recon.LedgerKey(l)]++
	}
	assert.Equal(t, map[string]int{"A2": 1, "A3": 1, "B1": 1, "B2": 1}, ledgerSide)
}

func TestReconcile_ValuationSubtractsTax(t *testing.T) {
	doc := domain.TaxDocument{Key: "FE1", Fields: map[string]string{colTotal: "1.190,00", colTax: "190,00"}}
	docs := domain.DocumentSet{Keyed: true, Documents: []domain.TaxDocument{doc}}
	ledger := domain.Ledger{Fields: allFields, Lines: []domain.LedgerLine{ledgerLine("5", "x", "FE1", "1000")}}

	regular := recon.Reconcile(docs, ledger, recon.Valuation{TotalColumn: colTotal, TaxColumn: colTax})
	tax := recon.Reconcile(docs, ledger, recon.Valuation{TotalColumn: colTax, TaxReport: true})

	require.Len(t, regular.Matched, 1)
	assert.True(t, regular.Matched[0].SubtotalA.Equal(dec("1000")))
	assert.True(t, regular.Matched[0].Difference.IsZero())
	require.Len(t, tax.Matched, 1)
	assert.True(t, tax.Matched[0].SubtotalA.Equal(dec("190")))
}

func TestReconcile_BlankKeysNeverJoin(t *testing.T) {
	docs := domain.DocumentSet{Keyed: true, Documents: []domain.TaxDocument{keyedDoc("", "10")}}
	ledger := domain.Ledger{Fields: allFields, Lines: []domain.LedgerLine{ledgerLine("5", "x", "", "10")}}

	got := recon.Reconcile(docs, ledger, recon.Valuation{TotalColumn: colTotal})

	assert.Empty(t, got.Matched)
	assert.Len(t, got.OnlyDocuments, 1)
	assert.Len(t, got.OnlyLedger, 1)
}

func TestReconcile_LedgerWithoutReference(t *testing.T) {
	docs := domain.DocumentSet{Keyed: true, Documents: []domain.TaxDocument{keyedDoc("FE1", "10")}}
	ledger := domain.Ledger{Lines: []domain.LedgerLine{ledgerLine("5", "x", "", "10")}}

	got := recon.Reconcile(docs, ledger, recon.Valuation{TotalColumn: colTotal})

	assert.Equal(t, domain.OutcomeSkipped, got.Status)
	assert.NotEmpty(t, got.Reason)
	assert.True(t, got.Empty())
}

func TestReconcile_UnkeyedDocuments(t *testing.T) {
	docs := domain.DocumentSet{Documents: []domain.TaxDocument{keyedDoc("", "10")}}
	ledger := domain.Ledger{Fields: allFields, Lines: []domain.LedgerLine{
		ledgerLine("5", "x", "FE1", "10"),
		ledgerLine("5", "x", "FE2", "20"),
	}}

	got := recon.Reconcile(docs, ledger, recon.Valuation{TotalColumn: colTotal})

	assert.Equal(t, domain.OutcomeSkipped, got.Status)
	assert.Empty(t, got.Matched)
	assert.Empty(t, got.OnlyDocuments)
	assert.Len(t, got.OnlyLedger, 2)
}

func TestReconcile_EmptyLedgerIsNotDegraded(t *testing.T) {
	docs := domain.DocumentSet{Keyed: true, Documents: []domain.TaxDocument{keyedDoc("FE1", "10")}}

	got := recon.Reconcile(docs, domain.Ledger{Fields: allFields}, recon.Valuation{TotalColumn: colTotal})

	assert.Equal(t, domain.OutcomeReconciled, got.Status)
	assert.Len(t, got.OnlyDocuments, 1)
	assert.Empty(t, got.OnlyLedger)
}

func TestReconcileAgainstFeed(t *testing.T) {
	feed := recon.BuildFeedKeys(domain.DocumentSet{
		Columns: []string{"serie", "numero", "total"},
		Documents: []domain.TaxDocument{
			taxDoc(map[string]string{"serie": "FV", "numero": "1", "total": "200"}),
			taxDoc(map[string]string{"serie": "FV", "numero": "2", "total": "80"}),
		},
	}, "serie", "numero", "referencia")
	ledger := domain.Ledger{Fields: allFields, Lines: []domain.LedgerLine{
		ledgerLine("41350501", "Ventas", "FV1", "200"),
		ledgerLine("41350501", "Ventas", "FV7", "15"),
	}}

	got := recon.ReconcileAgainstFeed(ledger, feed, recon.Valuation{TotalColumn: "total"})

	assert.Equal(t, domain.OutcomeReconciled, got.Status)
	require.Len(t, got.Matched, 1)
	assert.True(t, got.Matched[0].Difference.IsZero())
	require.Len(t, got.OnlyDocuments, 1)
	assert.Equal(t, "FV2", got.OnlyDocuments[0].Key)
	require.Len(t, got.OnlyLedger, 1)
	assert.Equal(t, "FV7", got.OnlyLedger[0].Reference)
}

func TestReconcileAgainstFeed_Unkeyed(t *testing.T) {
	feed := recon.BuildFeedKeys(domain.DocumentSet{
		Columns:   []string{"fecha"},
		Documents: []domain.TaxDocument{taxDoc(map[string]string{"fecha": "2024-01-01"})},
	}, "serie", "numero", "referencia")
	ledger := domain.Ledger{Fields: allFields, Lines: []domain.LedgerLine{ledgerLine("4", "x", "FV1", "1")}}

	got := recon.ReconcileAgainstFeed(ledger, feed, recon.Valuation{TotalColumn: "total"})

	assert.Equal(t, domain.OutcomeSkipped, got.Status)
	assert.Empty(t, got.Matched)
	assert.Empty(t, got.OnlyDocuments)
	assert.Len(t, got.OnlyLedger, 1)
}
