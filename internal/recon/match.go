package recon

import (
	"github.com/shopspring/decimal"

	"taxrecon/internal/domain"
	"taxrecon/internal/normalize"
)

const (
	reasonNoLedgerReference = "ledger has no reference column"
	reasonDocumentsUnkeyed  = "tax documents carry no prefix and sequence columns"
	reasonFeedUnkeyed       = "document feed carries no series, sequence or reference column"
)

// Valuation turns a document into the amount compared against the ledger.
// Regular reports compare the pre-tax subtotal (total minus tax); tax reports
// compare the tax amount itself, so TotalColumn points at the tax column and
// TaxColumn is left empty.
type Valuation struct {
	TotalColumn string
	TaxColumn   string
	TaxReport   bool
}

// Amount returns the comparable amount of a document.
func (v Valuation) Amount(doc domain.TaxDocument) decimal.Decimal {
	amount := normalize.ParseLocaleCurrency(doc.Get(v.TotalColumn))
	if !v.TaxReport && v.TaxColumn != "" {
		amount = amount.Sub(normalize.ParseLocaleCurrency(doc.Get(v.TaxColumn)))
	}
	return amount
}

// Reconcile splits a tax document set and a ledger segment into matched
// pairs, documents with no ledger counterpart and ledger lines with no
// document. The ledger is aggregated per key before joining; the ledger-only
// partition is reported at raw-line granularity.
//
// Blank keys never join. A ledger without a reference column yields an empty
// skipped outcome. An unkeyed document set yields a skipped outcome that
// reports every ledger line as ledger-only.
func Reconcile(docs domain.DocumentSet, ledger domain.Ledger, v Valuation) domain.MatchOutcome {
	return reconcile(docs, ledger, v, reasonDocumentsUnkeyed)
}

// ReconcileAgainstFeed is Reconcile with an external document feed playing
// the document side. Feed keys come from BuildFeedKeys.
func ReconcileAgainstFeed(ledger domain.Ledger, feed domain.DocumentSet, v Valuation) domain.MatchOutcome {
	return reconcile(feed, ledger, v, reasonFeedUnkeyed)
}

func reconcile(docs domain.DocumentSet, ledger domain.Ledger, v Valuation, unkeyedReason string) domain.MatchOutcome {
	out := domain.MatchOutcome{Status: domain.OutcomeReconciled, LedgerFields: ledger.Fields}

	if !ledger.Fields.Reference {
		out.Status = domain.OutcomeSkipped
		out.Reason = reasonNoLedgerReference
		return out
	}
	if !docs.Keyed {
		out.Status = domain.OutcomeSkipped
		out.Reason = unkeyedReason
		out.OnlyLedger = append([]domain.LedgerLine(nil), ledger.Lines...)
		return out
	}

	entries := Aggregate(ledger)
	byKey := make(map[string]domain.AggregatedEntry, len(entries))
	for _, e := range entries {
		if e.Key != "" {
			byKey[e.Key] = e
		}
	}

	docKeys := make(map[string]bool, len(docs.Documents))
	for _, doc := range docs.Documents {
		entry, ok := byKey[doc.Key]
		if doc.Key == "" || !ok {
			out.OnlyDocuments = append(out.OnlyDocuments, doc)
			continue
		}
		docKeys[doc.Key] = true
		subtotal := v.Amount(doc)
		out.Matched = append(out.Matched, domain.Match{
			Document:   doc,
			Entry:      entry,
			SubtotalA:  subtotal,
			TotalB:     entry.Balance,
			Difference: subtotal.Sub(entry.Balance),
		})
	}

	for _, line := range ledger.Lines {
		if !docKeys[LedgerKey(line)] {
			out.OnlyLedger = append(out.OnlyLedger, line)
		}
	}
	return out
}
