package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"spendlog/internal/core"
)

func sampleFields(t *testing.T, amount string, cat core.Category, date string) core.ExpenseFields {
	t.Helper()
	f, err := core.ExpenseInput{
		Amount:      amount,
		Category:    string(cat),
		Description: "sample " + amount,
		Date:        date,
	}.Fields()
	if err != nil {
		t.Fatalf("invalid fixture: %v", err)
	}
	return f
}

// runStoreSuite exercises the behaviour every backend must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("CreateGet", func(t *testing.T) {
		s := newStore(t)
		e, created, err := s.Create(ctx, sampleFields(t, "100.50", core.Food, "2024-01-10"), "")
		if err != nil || !created {
			t.Fatalf("create: created=%v err=%v", created, err)
		}
		if e.ID == "" || e.CreatedAt.IsZero() {
			t.Fatalf("missing generated fields: %+v", e)
		}
		got, err := s.Get(ctx, e.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Amount.Cents != 10050 || got.Category != core.Food || got.Date.String() != "2024-01-10" {
			t.Fatalf("unexpected record: %+v", got)
		}
		if !got.CreatedAt.Equal(e.CreatedAt) {
			t.Fatalf("created_at changed: %v vs %v", got.CreatedAt, e.CreatedAt)
		}
	})

	t.Run("IdempotentCreate", func(t *testing.T) {
		s := newStore(t)
		first, created, err := s.Create(ctx, sampleFields(t, "10.00", core.Bills, "2024-01-01"), "k-1")
		if err != nil || !created {
			t.Fatalf("first create: created=%v err=%v", created, err)
		}
		// A replay with different fields still returns the original record.
		again, created, err := s.Create(ctx, sampleFields(t, "99.00", core.Other, "2024-02-02"), "k-1")
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if created {
			t.Fatalf("replay must not create a record")
		}
		if again.ID != first.ID || again.Amount.Cents != 1000 || again.IdempotencyKey != "k-1" {
			t.Fatalf("replay returned %+v, want %+v", again, first)
		}
		all, err := s.List(ctx, Filter{})
		if err != nil || len(all) != 1 {
			t.Fatalf("expected 1 record, got %d (err=%v)", len(all), err)
		}
	})

	t.Run("ConcurrentIdempotentCreate", func(t *testing.T) {
		s := newStore(t)
		const workers = 16
		fields := sampleFields(t, "5.00", core.Food, "2024-03-03")
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			ids      = map[string]bool{}
			newCount int
			errs     []error
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				e, created, err := s.Create(ctx, fields, "same-key")
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				ids[e.ID] = true
				if created {
					newCount++
				}
			}()
		}
		wg.Wait()
		if len(errs) > 0 {
			t.Fatalf("concurrent create errors: %v", errs)
		}
		if len(ids) != 1 || newCount != 1 {
			t.Fatalf("expected one record created once, got ids=%v created=%d", ids, newCount)
		}
		all, _ := s.List(ctx, Filter{})
		if len(all) != 1 {
			t.Fatalf("expected 1 stored record, got %d", len(all))
		}
	})

	t.Run("EmptyKeysNeverCollide", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 3; i++ {
			if _, created, err := s.Create(ctx, sampleFields(t, "1.00", core.Other, "2024-01-01"), ""); err != nil || !created {
				t.Fatalf("create %d: created=%v err=%v", i, created, err)
			}
		}
		all, _ := s.List(ctx, Filter{})
		if len(all) != 3 {
			t.Fatalf("expected 3 records, got %d", len(all))
		}
	})

	t.Run("Update", func(t *testing.T) {
		s := newStore(t)
		e, _, err := s.Create(ctx, sampleFields(t, "1.00", core.Other, "2024-01-01"), "k-up")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		upd, err := s.Update(ctx, e.ID, sampleFields(t, "2.50", core.Education, "2024-05-05"))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if upd.ID != e.ID || !upd.CreatedAt.Equal(e.CreatedAt) || upd.IdempotencyKey != "k-up" {
			t.Fatalf("immutable fields changed: %+v vs %+v", upd, e)
		}
		if upd.Amount.Cents != 250 || upd.Category != core.Education || upd.Date.String() != "2024-05-05" {
			t.Fatalf("fields not replaced: %+v", upd)
		}
		if _, err := s.Update(ctx, newID(), sampleFields(t, "1.00", core.Other, "2024-01-01")); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("update unknown id: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteThenGet", func(t *testing.T) {
		s := newStore(t)
		e, _, err := s.Create(ctx, sampleFields(t, "3.00", core.Shopping, "2024-01-01"), "")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := s.Delete(ctx, e.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.Get(ctx, e.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("get after delete: expected ErrNotFound, got %v", err)
		}
		if err := s.Delete(ctx, e.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("second delete: expected ErrNotFound, got %v", err)
		}
		if _, err := s.Get(ctx, "not-an-id"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("malformed id: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListFilter", func(t *testing.T) {
		s := newStore(t)
		for i, c := range []core.Category{core.Food, core.Food, core.Transport} {
			if _, _, err := s.Create(ctx, sampleFields(t, fmt.Sprintf("%d.00", i+1), c, "2024-01-01"), ""); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		food, err := s.List(ctx, Filter{Category: core.Food})
		if err != nil || len(food) != 2 {
			t.Fatalf("expected 2 Food records, got %d (err=%v)", len(food), err)
		}
		none, err := s.List(ctx, Filter{Category: core.Healthcare})
		if err != nil || none == nil || len(none) != 0 {
			t.Fatalf("expected empty non-nil list, got %v (err=%v)", none, err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := newStore(t).Ping(ctx); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "spendlog.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "spendlog.db")

	s, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	e, _, err := s.Create(ctx, sampleFields(t, "7.25", core.Healthcare, "2023-12-31"), "persist")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s.Close()

	// Migrations must be idempotent across restarts.
	s, err = NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Amount.Cents != 725 || !got.CreatedAt.Equal(e.CreatedAt) {
		t.Fatalf("unexpected record after reopen: %+v", got)
	}
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		ctx := context.Background()
		s, err := NewPostgresStore(ctx, url)
		if err != nil {
			t.Fatalf("open postgres: %v", err)
		}
		if _, err := s.pool.Exec(ctx, `TRUNCATE expenses`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStoreCreateAfterKeyedRecordVanishes(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "spendlog.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()

	first, _, err := s.Create(ctx, sampleFields(t, "5.00", core.Food, "2024-03-01"), "retry-key")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Delete the keyed record after the insert conflicts but before the lookup.
	deleted := false
	s.onKeyConflict = func() {
		if deleted {
			return
		}
		deleted = true
		if err := s.Delete(ctx, first.ID); err != nil {
			t.Errorf("delete: %v", err)
		}
	}

	e, created, err := s.Create(ctx, sampleFields(t, "6.00", core.Bills, "2024-03-02"), "retry-key")
	if err != nil {
		t.Fatalf("create after concurrent delete: %v", err)
	}
	if !deleted {
		t.Fatal("conflict hook never ran")
	}
	if !created || e.ID == first.ID || e.Amount.Cents != 600 || e.IdempotencyKey != "retry-key" {
		t.Fatalf("expected a fresh record for the freed key, got created=%v %+v", created, e)
	}
}
