package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/xuri/excelize/v2"

	"spendlog/internal/core"
)

func sample() []core.Expense {
	return []core.Expense{
		{ID: "1", ExpenseFields: core.ExpenseFields{
			Amount: core.Money{Cents: 10050}, Category: core.Food,
			Description: `Dinner, "Luigi's"`, Date: core.NewDate(2024, 1, 10),
		}},
		{ID: "2", ExpenseFields: core.ExpenseFields{
			Amount: core.Money{Cents: 5}, Category: core.Transport,
			Description: "Bus", Date: core.NewDate(2024, 1, 15),
		}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	want := [][]string{
		{"Date", "Category", "Description", "Amount"},
		{"2024-01-10", "Food", `Dinner, "Luigi's"`, "100.50"},
		{"2024-01-15", "Transport", "Bus", "0.05"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if records[i][j] != want[i][j] {
				t.Errorf("record %d field %d = %q, want %q", i, j, records[i][j], want[i][j])
			}
		}
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "Date,Category,Description,Amount\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sample()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 || rows[0][3] != "Amount" || rows[1][0] != "2024-01-10" || rows[2][2] != "Bus" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	raw, err := f.GetCellValue(sheetName, "D2", excelize.Options{RawCellValue: true})
	if err != nil || raw != "100.5" {
		t.Fatalf("amount cell = %q (err=%v), want numeric 100.5", raw, err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, "xlsx": FormatXLSX} {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormulaLikeDescriptionsAreQuoted(t *testing.T) {
	items := []core.Expense{
		{ID: "1", ExpenseFields: core.ExpenseFields{
			Amount: core.Money{Cents: 100}, Category: core.Other,
			Description: "=HYPERLINK(\"http://x\")", Date: core.NewDate(2024, 1, 1),
		}},
		{ID: "2", ExpenseFields: core.ExpenseFields{
			Amount: core.Money{Cents: 200}, Category: core.Other,
			Description: "@SUM(A1)", Date: core.NewDate(2024, 1, 2),
		}},
		{ID: "3", ExpenseFields: core.ExpenseFields{
			Amount: core.Money{Cents: 300}, Category: core.Other,
			Description: "Refund -5", Date: core.NewDate(2024, 1, 3),
		}},
	}
	want := []string{"'=HYPERLINK(\"http://x\")", "'@SUM(A1)", "Refund -5"}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, items); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	for i, w := range want {
		if got := records[i+1][2]; got != w {
			t.Errorf("csv description %d = %q, want %q", i, got, w)
		}
	}

	buf.Reset()
	if err := WriteXLSX(&buf, items); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	for i, w := range want {
		cell, _ := excelize.CoordinatesToCellName(3, i+2)
		if got, _ := f.GetCellValue(sheetName, cell); got != w {
			t.Errorf("xlsx %s = %q, want %q", cell, got, w)
		}
	}
}

func TestTextCell(t *testing.T) {
	cases := map[string]string{
		"":          "",
		"Lunch":     "Lunch",
		"+39 phone": "'+39 phone",
		"-5 refund": "'-5 refund",
		"=1+1":      "'=1+1",
		"\tTabbed":  "'\tTabbed",
	}
	for in, want := range cases {
		if got := textCell(in); got != want {
			t.Errorf("textCell(%q) = %q, want %q", in, got, want)
		}
	}
}
