package render

import (
	"github.com/xuri/excelize/v2"

	"taxrecon/internal/domain"
)

// LedgerColumns is the header of the cleaned ledger base sheet.
var LedgerColumns = []string{
	"ACCOUNT", "ACCOUNT CODE", "DATE", "REFERENCE", "TAX ID", "NAME", "MEMO", "DEBIT", "CREDIT", "BALANCE",
}

// KeyColumn is appended to document base sheets when a key could be derived.
const KeyColumn = "KEY"

// LedgerTable lays out the cleaned ledger for its base sheet.
func LedgerTable(title string, ledger domain.Ledger) domain.Table {
	t := domain.Table{Title: title, Columns: LedgerColumns}
	for _, l := range ledger.Lines {
		t.Rows = append(t.Rows, []string{
			l.Account, l.AccountCode, l.Date, l.Reference, l.TaxID, l.Name, l.Memo,
			l.Debit.StringFixed(2), l.Credit.StringFixed(2), l.Balance.StringFixed(2),
		})
	}
	return t
}

// DocumentTable lays out a document set as read, plus its key column when keyed.
func DocumentTable(title string, set domain.DocumentSet) domain.Table {
	columns := append([]string(nil), set.Columns...)
	if set.Keyed {
		columns = append(columns, KeyColumn)
	}
	t := domain.Table{Title: title, Columns: columns}
	for _, d := range set.Documents {
		row := make([]string, 0, len(columns))
		for _, c := range set.Columns {
			row = append(row, d.Get(c))
		}
		if set.Keyed {
			row = append(row, d.Key)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func writeBase(f *excelize.File, sheet string, t domain.Table, st styles) error {
	if err := writeHeader(f, sheet, t.Columns, st.header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		start, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return err
		}
	}
	if len(t.Columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(t.Columns))
		if err := f.SetColWidth(sheet, "A", last, baseColWidth); err != nil {
			return err
		}
	}
	return setTabColor(f, sheet, ColorBase)
}
