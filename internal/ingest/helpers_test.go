package ingest_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// workbook writes rows into the first sheet of a new workbook.
func workbook(t *testing.T, rows [][]string) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &values))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func garbage() io.Reader {
	return strings.NewReader("not a workbook")
}
