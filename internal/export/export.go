// Package export renders expense listings as downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"spendlog/internal/core"
)

// Format names an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var columns = []string{"Date", "Category", "Description", "Amount"}

// ParseFormat maps a query value to a Format. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("format must be csv or xlsx")
	}
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write renders items in format f.
func Write(w io.Writer, f Format, items []core.Expense) error {
	if f == FormatXLSX {
		return WriteXLSX(w, items)
	}
	return WriteCSV(w, items)
}

// WriteCSV writes a header row and one row per expense. Amounts carry two
// decimals; quoting follows RFC 4180.
func WriteCSV(w io.Writer, items []core.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range items {
		record := []string{e.Date.String(), string(e.Category), textCell(e.Description), e.Amount.String()}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// textCell prefixes a quote to free text that a spreadsheet would otherwise
// evaluate as a formula.
func textCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
