// Package sheets defines the spreadsheet mirror that the worker keeps in
// step with the record store.
package sheets

import (
	"context"

	"spendlog/internal/core"
)

// Header is the first row of the mirrored sheet.
var Header = []string{"ID", "Date", "Category", "Description", "Amount", "Created At"}

// ExpenseMirror is a secondary, eventually consistent copy of the store.
// Rows are keyed by expense ID.
type ExpenseMirror interface {
	// Upsert writes e, replacing the row with the same ID if present.
	Upsert(ctx context.Context, e core.Expense) error
	// Remove deletes the row with id. A missing row is not an error.
	Remove(ctx context.Context, id string) error
	// ReplaceAll rewrites the whole sheet with items, in order.
	ReplaceAll(ctx context.Context, items []core.Expense) error
}
