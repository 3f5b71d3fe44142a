// Package storage persists expense records.
//
// Every backend enforces idempotency-key uniqueness itself: the SQL backends
// through a UNIQUE index and INSERT ... ON CONFLICT DO NOTHING, the memory
// backend under a single mutex. Callers never check-then-insert.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spendlog/internal/core"
)

// MaxIdempotencyKeyLength bounds the key accepted by every backend.
const MaxIdempotencyKeyLength = 255

// Filter narrows a List call. The zero value selects every record.
type Filter struct {
	Category core.Category
}

func (f Filter) match(e core.Expense) bool {
	return f.Category == "" || e.Category == f.Category
}

// Store is the record store contract shared by all backends.
type Store interface {
	// Create inserts a record. When key is non-empty and already stored, the
	// existing record is returned with created == false and nothing is written.
	Create(ctx context.Context, fields core.ExpenseFields, key string) (e core.Expense, created bool, err error)
	Get(ctx context.Context, id string) (core.Expense, error)
	// Update replaces the mutable fields of a record. ID, CreatedAt and
	// IdempotencyKey never change.
	Update(ctx context.Context, id string, fields core.ExpenseFields) (core.Expense, error)
	Delete(ctx context.Context, id string) error
	// List returns matching records in no particular order.
	List(ctx context.Context, f Filter) ([]core.Expense, error)
	Ping(ctx context.Context) error
	Close() error
}

func newID() string {
	return uuid.NewString()
}

// now is the creation timestamp source: UTC at microsecond precision, the
// finest resolution every backend round-trips.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func notFound(id string) error {
	return fmt.Errorf("expense %q: %w", id, core.ErrNotFound)
}

// maxCreateAttempts bounds the insert/lookup cycle of a keyed create when
// the conflicting record keeps disappearing under concurrent deletes.
const maxCreateAttempts = 2

func errKeyContended(key string) error {
	return fmt.Errorf("idempotency key %q: record deleted concurrently during create", key)
}
