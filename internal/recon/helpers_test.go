package recon_test

import (
	"github.com/shopspring/decimal"

	"taxrecon/internal/domain"
)

const (
	colPrefix   = "prefijo"
	colFolio    = "folio"
	colGroup    = "grupo"
	colType     = "tipo_de_documento"
	colIssuer   = "nombre_emisor"
	colIssuerID = "nit_emisor"
	colTotal    = "total"
	colTax      = "iva"
)

var allFields = domain.LedgerFields{Reference: true, TaxID: true, Name: true, Memo: true}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ledgerLine(code, account, ref, balance string) domain.LedgerLine {
	return domain.LedgerLine{
		Account:     code + " " + account,
		AccountCode: code,
		Date:        "2024-01-31",
		Balance:     dec(balance),
		Reference:   ref,
		TaxID:       "900123456",
		Name:        "ACME SAS",
	}
}

func taxDoc(fields map[string]string) domain.TaxDocument {
	return domain.TaxDocument{Fields: fields}
}

func taxDocSet(docs ...domain.TaxDocument) domain.DocumentSet {
	return domain.DocumentSet{
		Columns:   []string{colGroup, colType, colPrefix, colFolio, colIssuer, colIssuerID, colTotal, colTax},
		Documents: docs,
	}
}

func invoice(prefix, folio, issuer, total, tax string) domain.TaxDocument {
	return taxDoc(map[string]string{
		colGroup:    "Recibido",
		colType:     "Factura electrónica",
		colPrefix:   prefix,
		colFolio:    folio,
		colIssuer:   issuer,
		colIssuerID: "900123456",
		colTotal:    total,
		colTax:      tax,
	})
}

func keyedDoc(key, total string) domain.TaxDocument {
	return domain.TaxDocument{Key: key, Fields: map[string]string{colTotal: total}}
}
