// Package recon is the reconciliation engine: key derivation, ledger
// segmentation, aggregation, three-way matching and rollup report assembly.
// Every function is pure and returns new collections.
package recon

import (
	"strings"

	"taxrecon/internal/domain"
	"taxrecon/internal/normalize"
)

// BuildDocumentKeys derives the reconciliation key of every document from a
// prefix column and a sequence-number column. When either column is missing
// the set is returned unkeyed; matching then degrades instead of failing.
func BuildDocumentKeys(set domain.DocumentSet, prefixCol, sequenceCol string) domain.DocumentSet {
	if !set.HasColumn(prefixCol) || !set.HasColumn(sequenceCol) {
		return unkeyed(set)
	}
	return keyed(set, func(d domain.TaxDocument) string {
		return compositeKey(d.Get(prefixCol), d.Get(sequenceCol))
	})
}

// BuildFeedKeys keys an external document feed by its (series, sequence) pair,
// falling back to a single reference column when the pair is not available.
func BuildFeedKeys(set domain.DocumentSet, seriesCol, sequenceCol, referenceCol string) domain.DocumentSet {
	if set.HasColumn(seriesCol) && set.HasColumn(sequenceCol) {
		return BuildDocumentKeys(set, seriesCol, sequenceCol)
	}
	if set.HasColumn(referenceCol) {
		return keyed(set, func(d domain.TaxDocument) string {
			return normalize.Key(d.Get(referenceCol))
		})
	}
	return unkeyed(set)
}

// LedgerKey is the join key of an accounting line, taken from its reference.
func LedgerKey(line domain.LedgerLine) string {
	return normalize.Key(line.Reference)
}

func compositeKey(prefix, sequence string) string {
	return normalize.Key(strings.TrimSpace(prefix) + strings.TrimSpace(sequence))
}

func keyed(set domain.DocumentSet, keyFn func(domain.TaxDocument) string) domain.DocumentSet {
	docs := make([]domain.TaxDocument, len(set.Documents))
	for i, d := range set.Documents {
		docs[i] = domain.TaxDocument{Fields: d.Fields, Key: keyFn(d)}
	}
	return domain.DocumentSet{Columns: set.Columns, Documents: docs, Keyed: true}
}

func unkeyed(set domain.DocumentSet) domain.DocumentSet {
	docs := make([]domain.TaxDocument, len(set.Documents))
	for i, d := range set.Documents {
		docs[i] = domain.TaxDocument{Fields: d.Fields}
	}
	return domain.DocumentSet{Columns: set.Columns, Documents: docs}
}
