package export

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

const (
	SheetName  = "Weather"
	NoDataText = "No weather data available"
)

// XLSX builds a single-sheet workbook: a header row plus one row per reading
// with raw cell values (absent fields become empty strings). Zero readings
// produce a sheet holding only the NoDataText row.
func XLSX(readings []types.Reading, cols []Column) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if len(readings) == 0 {
		if err := f.SetCellValue(SheetName, "A1", NoDataText); err != nil {
			return nil, fmt.Errorf("write info row: %w", err)
		}
		return f.WriteToBuffer()
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.Header
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}

	row := make([]any, len(cols))
	for i, r := range readings {
		for j, c := range cols {
			v := c.Value(r)
			if v == nil {
				v = ""
			}
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.WriteToBuffer()
}
