package recon

import (
	"taxrecon/internal/domain"
)

// Aggregate collapses ledger lines sharing a reconciliation key into one entry
// per key. Balances are summed; tax ID, name and account label take the first
// non-empty value seen, so they depend on input row order. Entries come out
// in first-appearance order.
func Aggregate(ledger domain.Ledger) []domain.AggregatedEntry {
	index := make(map[string]int)
	var out []domain.AggregatedEntry

	for _, line := range ledger.Lines {
		key := LedgerKey(line)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, domain.AggregatedEntry{Key: key})
		}
		e := &out[i]
		e.Balance = e.Balance.Add(line.Balance)
		e.Lines++
		if ledger.Fields.TaxID && e.TaxID == "" {
			e.TaxID = line.TaxID
		}
		if ledger.Fields.Name && e.Name == "" {
			e.Name = line.Name
		}
		if e.Account == "" {
			e.Account = line.Account
		}
	}
	return out
}
