// Package render writes reconciliation reports and base tables into a styled
// XLSX workbook. Detail rows are grouped under collapsible outline levels so
// the sheet opens at subtotal granularity.
package render

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"taxrecon/internal/domain"
)

// Palette.
const (
	ColorPrimary = "7145D6"
	ColorLight   = "F3F0FA"
	ColorAccent  = "B89EF7"
	ColorWhite   = "FFFFFF"
	ColorBase    = "00B050"
)

const (
	moneyFormat      = 4 // #,##0.00
	companyColWidth  = 40
	moneyColWidth    = 18
	baseColWidth     = 15
	maxSheetNameSize = 31
)

// outline levels per row group
const (
	levelDetail  uint8 = 2
	levelSubtype uint8 = 1
)

type styles struct {
	header      int
	money       int
	subtypeText int
	subtypeNum  int
	companyText int
	companyNum  int
	totalText   int
	totalNum    int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}

	defs := []struct {
		dst   *int
		style excelize.Style
	}{
		{&s.header, excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: ColorWhite},
			Fill:      fill(ColorPrimary),
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top", WrapText: true},
		}},
		{&s.money, excelize.Style{NumFmt: moneyFormat}},
		{&s.subtypeText, excelize.Style{Font: &excelize.Font{Bold: true}, Fill: fill(ColorLight)}},
		{&s.subtypeNum, excelize.Style{Font: &excelize.Font{Bold: true}, Fill: fill(ColorLight), NumFmt: moneyFormat}},
		{&s.companyText, excelize.Style{Font: &excelize.Font{Bold: true, Color: ColorWhite}, Fill: fill(ColorAccent)}},
		{&s.companyNum, excelize.Style{Font: &excelize.Font{Bold: true, Color: ColorWhite}, Fill: fill(ColorAccent), NumFmt: moneyFormat}},
		{&s.totalText, excelize.Style{Font: &excelize.Font{Bold: true, Color: ColorWhite}, Fill: fill(ColorPrimary)}},
		{&s.totalNum, excelize.Style{Font: &excelize.Font{Bold: true, Color: ColorWhite}, Fill: fill(ColorPrimary), NumFmt: moneyFormat}},
	}
	for _, d := range defs {
		style := d.style
		id, err := f.NewStyle(&style)
		if err != nil {
			return s, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

// Workbook renders reports first, in the given order, followed by base tables.
func Workbook(reports []domain.Report, bases []domain.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	placeholder := f.GetSheetName(0)
	first := true
	addSheet := func(title string) (string, error) {
		name := SheetName(title)
		if first {
			first = false
			if err := f.SetSheetName(placeholder, name); err != nil {
				return "", err
			}
			return name, nil
		}
		_, err := f.NewSheet(name)
		return name, err
	}

	for _, r := range reports {
		name, err := addSheet(r.Title)
		if err != nil {
			return nil, fmt.Errorf("add report sheet %q: %w", r.Title, err)
		}
		if err := writeReport(f, name, r, st); err != nil {
			return nil, fmt.Errorf("write report %q: %w", r.Title, err)
		}
	}
	for _, t := range bases {
		name, err := addSheet(t.Title)
		if err != nil {
			return nil, fmt.Errorf("add base sheet %q: %w", t.Title, err)
		}
		if err := writeBase(f, name, t, st); err != nil {
			return nil, fmt.Errorf("write base %q: %w", t.Title, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// SheetName replaces the characters Excel rejects with spaces, collapses
// whitespace and trims the result to the worksheet name limit.
func SheetName(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return ' '
		}
		return r
	}, title)
	out := []rune(strings.Join(strings.Fields(cleaned), " "))
	if len(out) > maxSheetNameSize {
		out = out[:maxSheetNameSize]
	}
	name := strings.TrimSpace(string(out))
	if name == "" {
		return "Sheet"
	}
	return name
}

func writeHeader(f *excelize.File, sheet string, columns []string, style int) error {
	values := make([]interface{}, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &values); err != nil {
		return err
	}
	if len(columns) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setTabColor(f *excelize.File, sheet, color string) error {
	return f.SetSheetProps(sheet, &excelize.SheetPropsOptions{TabColorRGB: &color})
}
