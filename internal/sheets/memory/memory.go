// Package memory is an in-process ExpenseMirror. The worker falls back to it
// when no spreadsheet is configured, and tests use it as a fake.
package memory

import (
	"context"
	"slices"
	"sync"

	"spendlog/internal/core"
	ports "spendlog/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows []core.Expense

	upserts  int
	removes  int
	replaces int
}

var _ ports.ExpenseMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Upsert(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if i := m.index(e.ID); i >= 0 {
		m.rows[i] = e
		return nil
	}
	m.rows = append(m.rows, e)
	return nil
}

func (m *Mirror) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes++
	if i := m.index(id); i >= 0 {
		m.rows = slices.Delete(m.rows, i, i+1)
	}
	return nil
}

func (m *Mirror) ReplaceAll(_ context.Context, items []core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++
	m.rows = slices.Clone(items)
	return nil
}

// Rows returns a copy of the mirrored rows in sheet order.
func (m *Mirror) Rows() []core.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rows)
}

// Counts reports how many calls of each kind the mirror has served.
func (m *Mirror) Counts() (upserts, removes, replaces int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts, m.removes, m.replaces
}

func (m *Mirror) index(id string) int {
	return slices.IndexFunc(m.rows, func(e core.Expense) bool { return e.ID == id })
}
