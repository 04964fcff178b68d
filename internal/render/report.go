package render

import (
	"github.com/xuri/excelize/v2"

	"taxrecon/internal/domain"
)

// money columns of a report row, 1-based
const (
	firstMoneyCol = 6
	lastMoneyCol  = 8
)

func reportValues(r domain.ReportRow) []interface{} {
	return []interface{}{
		r.TaxID,
		r.Company,
		r.DocumentKey,
		r.LedgerKey,
		r.Account,
		r.SubtotalA.InexactFloat64(),
		r.TotalB.InexactFloat64(),
		r.Difference.InexactFloat64(),
		r.Type,
	}
}

func writeReport(f *excelize.File, sheet string, report domain.Report, st styles) error {
	if err := writeHeader(f, sheet, report.Columns, st.header); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", companyColWidth); err != nil {
		return err
	}
	firstMoney, _ := excelize.ColumnNumberToName(firstMoneyCol)
	lastMoney, _ := excelize.ColumnNumberToName(lastMoneyCol)
	if err := f.SetColWidth(sheet, firstMoney, lastMoney, moneyColWidth); err != nil {
		return err
	}
	if err := f.SetColStyle(sheet, firstMoney+":"+lastMoney, st.money); err != nil {
		return err
	}

	for i, row := range report.Rows {
		excelRow := i + 2
		values := reportValues(row)
		start, _ := excelize.CoordinatesToCellName(1, excelRow)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return err
		}
		if err := styleReportRow(f, sheet, excelRow, len(values), row.Kind, st); err != nil {
			return err
		}
	}
	return setTabColor(f, sheet, ColorPrimary)
}

func styleReportRow(f *excelize.File, sheet string, excelRow, width int, kind domain.GroupKind, st styles) error {
	var text, num int
	switch kind {
	case domain.GroupKindDetail:
		if err := f.SetRowOutlineLevel(sheet, excelRow, levelDetail); err != nil {
			return err
		}
		return f.SetRowVisible(sheet, excelRow, false)
	case domain.GroupKindSubtotalType:
		if err := f.SetRowOutlineLevel(sheet, excelRow, levelSubtype); err != nil {
			return err
		}
		text, num = st.subtypeText, st.subtypeNum
	case domain.GroupKindSubtotalCompany:
		text, num = st.companyText, st.companyNum
	case domain.GroupKindGrandTotal:
		text, num = st.totalText, st.totalNum
	default:
		return nil
	}

	for col := 1; col <= width; col++ {
		style := text
		if col >= firstMoneyCol && col <= lastMoneyCol {
			style = num
		}
		cell, _ := excelize.CoordinatesToCellName(col, excelRow)
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}
