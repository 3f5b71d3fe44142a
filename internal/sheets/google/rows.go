package google

import (
	"fmt"
	"strings"
	"time"

	"spendlog/internal/core"
	ports "spendlog/internal/sheets"
)

// lastColumn is the column letter of the final header cell.
const lastColumn = "F"

func headerRow() []any {
	row := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		row[i] = h
	}
	return row
}

// encodeRow renders e in header order. The amount is written as a plain
// decimal so USER_ENTERED input stores it as a number.
func encodeRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.Date.String(),
		string(e.Category),
		e.Description,
		e.Amount.String(),
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// findRow returns the 1-based sheet row holding id in column A, or 0.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// hasHeader reports whether the first row of values is the mirror header.
func hasHeader(values [][]any) bool {
	if len(values) == 0 || len(values[0]) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(fmt.Sprint(values[0][0])), ports.Header[0])
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), row, lastColumn, row)
}

func columnRange(sheet, cols string) string {
	return fmt.Sprintf("%s!%s", quoteSheet(sheet), cols)
}

// quoteSheet quotes sheet names that contain anything but letters and digits,
// as A1 notation requires.
func quoteSheet(name string) string {
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}
