package ingest

import (
	"fmt"
	"io"

	"taxrecon/internal/domain"
)

// TaxSchema names the normalized tax-authority columns the pipeline needs.
// Empty fields mean the export does not carry that column.
type TaxSchema struct {
	Group         string
	DocumentType  string
	Prefix        string
	Sequence      string
	IssuerName    string
	IssuerTaxID   string
	ReceiverName  string
	ReceiverTaxID string
	Total         string
	Tax           string
}

// ResolveTaxSchema maps the columns of a tax-authority export to their roles.
func ResolveTaxSchema(columns []string) TaxSchema {
	total := firstColumn(columns, containsAny("total_bruto"))
	if total == "" {
		total = firstColumn(columns, containsAny("total"))
	}
	return TaxSchema{
		Group:         firstColumn(columns, containsAny("grupo")),
		DocumentType:  firstColumn(columns, all(containsAny("tipo"), containsAny("documento"))),
		Prefix:        firstColumn(columns, containsAny("prefijo")),
		Sequence:      firstColumn(columns, containsAny("folio")),
		IssuerName:    firstColumn(columns, containsAny("nombre_emisor")),
		IssuerTaxID:   firstColumn(columns, all(containsAny("emisor"), containsAny("nit", "doc"))),
		ReceiverName:  firstColumn(columns, containsAny("nombre_receptor")),
		ReceiverTaxID: firstColumn(columns, all(containsAny("receptor"), containsAny("nit", "doc"))),
		Total:         total,
		Tax:           firstColumn(columns, containsAny("iva", "impuesto")),
	}
}

// FeedSchema names the normalized columns of an external document feed.
type FeedSchema struct {
	Series    string
	Sequence  string
	Reference string
	Name      string
	TaxID     string
	Total     string
	Tax       string
}

// ResolveFeedSchema maps the columns of an external document feed to their roles.
func ResolveFeedSchema(columns []string) FeedSchema {
	return FeedSchema{
		Series:    firstColumn(columns, containsAny("serie", "prefijo")),
		Sequence:  firstColumn(columns, containsAny("folio", "numero")),
		Reference: firstColumn(columns, containsAny("referencia")),
		Name:      firstColumn(columns, containsAny("razon_social", "nombre")),
		TaxID:     firstColumn(columns, anyOf(hasToken("nit"), containsAny("identificacion"))),
		Total:     firstColumn(columns, containsAny("total")),
		Tax:       firstColumn(columns, containsAny("iva", "impuesto")),
	}
}

// ReadDocuments parses an XLSX document export whose first row is the header.
func ReadDocuments(src io.Reader) (domain.DocumentSet, error) {
	rows, err := ReadRows(src)
	if err != nil {
		return domain.DocumentSet{}, fmt.Errorf("%w: %v", domain.ErrTaxSourceUnreadable, err)
	}
	return ParseDocuments(rows)
}

// ParseDocuments builds an unkeyed document set from sheet rows. Every value
// is kept as text; blank rows are skipped.
func ParseDocuments(rows [][]string) (domain.DocumentSet, error) {
	if len(rows) == 0 || blankRow(rows[0]) {
		return domain.DocumentSet{}, fmt.Errorf("%w: missing header row", domain.ErrTaxSourceUnreadable)
	}

	columns := normalizeHeader(rows[0])
	set := domain.DocumentSet{Columns: columns}
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		fields := make(map[string]string, len(columns))
		for i, c := range columns {
			fields[c] = cell(row, i)
		}
		set.Documents = append(set.Documents, domain.TaxDocument{Fields: fields})
	}
	return set, nil
}
