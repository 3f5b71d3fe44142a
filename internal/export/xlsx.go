package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"spendlog/internal/core"
)

const sheetName = "Expenses"

// WriteXLSX writes the same columns as WriteCSV into a single-sheet workbook.
// Amounts are numeric cells with a two-decimal number format.
func WriteXLSX(w io.Writer, items []core.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		amount, _ := e.Amount.Decimal().Float64()
		row := []any{e.Date.String(), string(e.Category), textCell(e.Description), amount}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	numFmt := "0.00"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("create amount style: %w", err)
	}
	if err := f.SetColStyle(sheetName, "D", style); err != nil {
		return fmt.Errorf("style amount column: %w", err)
	}
	if err := f.SetColWidth(sheetName, "C", "C", 40); err != nil {
		return fmt.Errorf("size description column: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
