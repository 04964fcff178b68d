package ingest

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"taxrecon/internal/domain"
	"taxrecon/internal/normalize"
)

// DefaultHeaderScanRows is how many leading rows are searched for the ledger header.
const DefaultHeaderScanRows = 20

// Ledger column alias rules, applied to normalized header names.
var (
	ledgerAccount   = equalsAny("cuenta", "cuenta_contable", "account")
	ledgerDate      = equalsAny("fecha", "fecha_elaboracion", "date")
	ledgerDebit     = containsAny("deb")
	ledgerCredit    = containsAny("cred")
	ledgerReference = anyOf(containsAny("numero_de_doc", "nro", "referencia"), hasToken("reference"))
	ledgerTaxID     = anyOf(containsAny("identifi"), hasToken("nit"))
	ledgerName      = containsAny("nombre")
	ledgerMemo      = containsAny("nota")
)

type ledgerLayout struct {
	account, date, debit, credit int
	reference, taxID, name, memo int
}

func (l ledgerLayout) fields() domain.LedgerFields {
	return domain.LedgerFields{
		Reference: l.reference >= 0,
		TaxID:     l.taxID >= 0,
		Name:      l.name >= 0,
		Memo:      l.memo >= 0,
	}
}

func resolveLedgerLayout(columns []string) ledgerLayout {
	return ledgerLayout{
		account:   firstIndex(columns, ledgerAccount),
		date:      firstIndex(columns, ledgerDate),
		debit:     firstIndex(columns, ledgerDebit),
		credit:    firstIndex(columns, ledgerCredit),
		reference: firstIndex(columns, ledgerReference),
		taxID:     firstIndex(columns, ledgerTaxID),
		name:      firstIndex(columns, ledgerName),
		memo:      firstIndex(columns, ledgerMemo),
	}
}

// LedgerReader parses accounting exports whose header sits somewhere in the
// first rows of the sheet, below a free-form title block.
type LedgerReader struct {
	headerScanRows int
}

// NewLedgerReader creates a reader that searches headerScanRows rows for the header.
func NewLedgerReader(headerScanRows int) *LedgerReader {
	if headerScanRows <= 0 {
		headerScanRows = DefaultHeaderScanRows
	}
	return &LedgerReader{headerScanRows: headerScanRows}
}

// Read parses an XLSX accounting export.
func (r *LedgerReader) Read(src io.Reader) (domain.Ledger, error) {
	rows, err := ReadRows(src)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("%w: %v", domain.ErrLedgerUnreadable, err)
	}
	return r.Parse(rows)
}

// Parse builds a ledger from sheet rows. Account labels appear only on the
// first line of each account block, so they are carried forward; per-account
// "Total" rows and rows without a date are dropped.
func (r *LedgerReader) Parse(rows [][]string) (domain.Ledger, error) {
	headerAt, layout, ok := r.findHeader(rows)
	if !ok {
		return domain.Ledger{}, fmt.Errorf("%w: no account and date header in the first %d rows",
			domain.ErrLedgerUnreadable, r.headerScanRows)
	}
	if layout.debit < 0 && layout.credit < 0 {
		return domain.Ledger{}, fmt.Errorf("%w: no debit or credit column", domain.ErrLedgerUnreadable)
	}

	ledger := domain.Ledger{Fields: layout.fields()}
	var account string
	for _, row := range rows[headerAt+1:] {
		rawAccount := cell(row, layout.account)
		if startsWithDigit(rawAccount) {
			account = rawAccount
		}
		if strings.HasPrefix(strings.ToLower(rawAccount), "total") {
			continue
		}
		rawDate := cell(row, layout.date)
		if rawDate == "" {
			continue
		}

		debit := normalize.ParseLocaleCurrency(cell(row, layout.debit))
		credit := normalize.ParseLocaleCurrency(cell(row, layout.credit))
		ledger.Lines = append(ledger.Lines, domain.LedgerLine{
			Account:     account,
			AccountCode: leadingDigits(account),
			Date:        ParseDate(rawDate),
			Debit:       debit,
			Credit:      credit,
			Balance:     debit.Sub(credit),
			Reference:   cell(row, layout.reference),
			TaxID:       strings.TrimSuffix(cell(row, layout.taxID), ".0"),
			Name:        cell(row, layout.name),
			Memo:        cell(row, layout.memo),
		})
	}

	if len(ledger.Lines) == 0 {
		return domain.Ledger{}, fmt.Errorf("%w: no dated lines below the header", domain.ErrLedgerUnreadable)
	}
	return ledger, nil
}

func (r *LedgerReader) findHeader(rows [][]string) (int, ledgerLayout, bool) {
	limit := min(r.headerScanRows, len(rows))
	for i := 0; i < limit; i++ {
		layout := resolveLedgerLayout(normalizeHeader(rows[i]))
		if layout.account >= 0 && layout.date >= 0 {
			return i, layout, true
		}
	}
	return 0, ledgerLayout{}, false
}

func startsWithDigit(s string) bool {
	return s != "" && unicode.IsDigit(rune(s[0]))
}

func leadingDigits(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
