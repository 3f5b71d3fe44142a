package memory

import (
	"context"
	"testing"

	"spendlog/internal/core"
)

func TestMirrorUpsertRemove(t *testing.T) {
	ctx := context.Background()
	m := New()

	a := core.Expense{ID: "a", ExpenseFields: core.ExpenseFields{Amount: core.Money{Cents: 1}}}
	b := core.Expense{ID: "b", ExpenseFields: core.ExpenseFields{Amount: core.Money{Cents: 2}}}
	m.Upsert(ctx, a)
	m.Upsert(ctx, b)
	a.Amount = core.Money{Cents: 5}
	m.Upsert(ctx, a)

	rows := m.Rows()
	if len(rows) != 2 || rows[0].ID != "a" || rows[0].Amount.Cents != 5 {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	m.Remove(ctx, "a")
	m.Remove(ctx, "missing")
	if rows := m.Rows(); len(rows) != 1 || rows[0].ID != "b" {
		t.Fatalf("unexpected rows after remove: %+v", rows)
	}

	m.ReplaceAll(ctx, []core.Expense{a})
	if rows := m.Rows(); len(rows) != 1 || rows[0].ID != "a" {
		t.Fatalf("unexpected rows after replace: %+v", rows)
	}

	up, rm, rep := m.Counts()
	if up != 3 || rm != 2 || rep != 1 {
		t.Fatalf("counts = %d %d %d", up, rm, rep)
	}
}
