package recon

import (
	"strings"

	"taxrecon/internal/domain"
	"taxrecon/internal/normalize"
)

// Label fragments that drive classification. They match the account labels
// of the Colombian chart of accounts, so they stay in Spanish.
const (
	labelVAT            = "IVA"
	labelExchangeDiff   = "DIFERENCIA EN CAMBIO"
	labelDepreciation   = "DEPRECIACI"
	labelGenerated      = "GENERADO"
	labelSale           = "VENTA"
	labelSaleReturn     = "DEVOLUCION VENTA"
	taxAccountPrefix    = "24"
	expenseAccountClass = "5"
	revenueAccountClass = "4"
)

// DefaultExcludedExpenseAccounts lists expense accounts that never take part
// in the expense reconciliation.
var DefaultExcludedExpenseAccounts = []string{"51157001"}

// Rule selects the ledger lines that belong to one segment.
type Rule struct {
	Segment domain.Segment
	Include func(line domain.LedgerLine) bool
	// Invert flips the sign of the balance so revenue-side figures read positive.
	Invert bool
}

// Segmenter holds the four classification rules.
type Segmenter struct {
	rules map[domain.Segment]Rule
}

// NewSegmenter builds the expense, revenue, deductible-tax and generated-tax rules.
func NewSegmenter(excludedExpenseAccounts []string) *Segmenter {
	excluded := make(map[string]bool, len(excludedExpenseAccounts))
	for _, a := range excludedExpenseAccounts {
		excluded[strings.TrimSpace(a)] = true
	}

	s := &Segmenter{rules: make(map[domain.Segment]Rule)}
	s.register(Rule{
		Segment: domain.SegmentExpense,
		Include: func(l domain.LedgerLine) bool {
			return strings.HasPrefix(l.AccountCode, expenseAccountClass) &&
				!excluded[l.AccountCode] &&
				!labelHasAny(l.Account, labelVAT, labelExchangeDiff, labelDepreciation)
		},
	})
	s.register(Rule{
		Segment: domain.SegmentRevenue,
		Include: func(l domain.LedgerLine) bool {
			return strings.HasPrefix(l.AccountCode, revenueAccountClass) &&
				!labelHasAny(l.Account, labelExchangeDiff)
		},
		Invert: true,
	})
	s.register(Rule{
		Segment: domain.SegmentDeductibleTax,
		Include: func(l domain.LedgerLine) bool {
			return isTaxLine(l) && !labelHasAny(l.Account, labelGenerated, labelSale, labelSaleReturn)
		},
	})
	s.register(Rule{
		Segment: domain.SegmentGeneratedTax,
		Include: func(l domain.LedgerLine) bool {
			return isTaxLine(l) && labelHasAny(l.Account, labelGenerated)
		},
		Invert: true,
	})
	return s
}

func (s *Segmenter) register(r Rule) {
	s.rules[r.Segment] = r
}

// Classify returns a new ledger holding only the lines of the given segment,
// with balances sign-inverted when the rule asks for it.
func (s *Segmenter) Classify(segment domain.Segment, ledger domain.Ledger) domain.Ledger {
	out := domain.Ledger{Fields: ledger.Fields}
	r, ok := s.rules[segment]
	if !ok {
		return out
	}
	for _, line := range ledger.Lines {
		if !r.Include(line) {
			continue
		}
		if r.Invert {
			line.Balance = line.Balance.Neg()
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}

func isTaxLine(l domain.LedgerLine) bool {
	return strings.HasPrefix(l.AccountCode, taxAccountPrefix) || labelHasAny(l.Account, labelVAT)
}

func labelHasAny(label string, fragments ...string) bool {
	for _, f := range fragments {
		if normalize.ContainsFold(label, f) {
			return true
		}
	}
	return false
}

// Document groups and types used by the tax authority export.
const (
	groupReceived       = "recibido"
	groupIssued         = "emitido"
	typeSupportDocument = "documento soporte"
	typeNotObligated    = "no obligado"
)

// ReceivedDocuments keeps the documents on the purchase side: those received
// by the company plus support documents issued on behalf of suppliers that
// are not obliged to invoice. Without a group column the set is returned as is.
func ReceivedDocuments(set domain.DocumentSet, groupCol, typeCol string) domain.DocumentSet {
	if !set.HasColumn(groupCol) {
		return set
	}
	return filterDocuments(set, func(d domain.TaxDocument) bool {
		return groupIs(d, groupCol, groupReceived) || isSupportDocument(d, typeCol)
	})
}

// IssuedDocuments keeps the documents the company issued, excluding support documents.
func IssuedDocuments(set domain.DocumentSet, groupCol, typeCol string) domain.DocumentSet {
	if !set.HasColumn(groupCol) {
		return set
	}
	return filterDocuments(set, func(d domain.TaxDocument) bool {
		return groupIs(d, groupCol, groupIssued) && !isSupportDocument(d, typeCol)
	})
}

func groupIs(d domain.TaxDocument, groupCol, want string) bool {
	return strings.ToLower(normalize.Fold(strings.TrimSpace(d.Get(groupCol)))) == want
}

func isSupportDocument(d domain.TaxDocument, typeCol string) bool {
	if typeCol == "" {
		return false
	}
	t := d.Get(typeCol)
	return normalize.ContainsFold(t, typeSupportDocument) || normalize.ContainsFold(t, typeNotObligated)
}

func filterDocuments(set domain.DocumentSet, keep func(domain.TaxDocument) bool) domain.DocumentSet {
	out := domain.DocumentSet{Columns: set.Columns, Keyed: set.Keyed}
	for _, d := range set.Documents {
		if keep(d) {
			out.Documents = append(out.Documents, d)
		}
	}
	return out
}
