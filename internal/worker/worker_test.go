package worker

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/sheets/memory"
	"spendlog/internal/storage"
)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func mustCreate(t *testing.T, s storage.Store, amount, date string) core.Expense {
	t.Helper()
	f, err := core.ExpenseInput{Amount: amount, Category: "Food", Description: "x", Date: date}.Fields()
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	e, _, err := s.Create(context.Background(), f, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return e
}

func TestMirrorWorker_HandleEvent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	mirror := memory.New()
	w := NewMirrorWorker(store, mirror, quietLogger())

	e := mustCreate(t, store, "10.00", "2024-01-01")
	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.EventCreated, e.ID)); err != nil {
		t.Fatalf("created: %v", err)
	}
	if rows := mirror.Rows(); len(rows) != 1 || rows[0].Amount.Cents != 1000 {
		t.Fatalf("rows after create: %+v", rows)
	}

	f, _ := core.ExpenseInput{Amount: "12.00", Category: "Bills", Description: "y", Date: "2024-01-02"}.Fields()
	if _, err := store.Update(ctx, e.ID, f); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.EventUpdated, e.ID)); err != nil {
		t.Fatalf("updated: %v", err)
	}
	if rows := mirror.Rows(); len(rows) != 1 || rows[0].Amount.Cents != 1200 || rows[0].Category != core.Bills {
		t.Fatalf("rows after update: %+v", rows)
	}

	if err := store.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// A stale "updated" event for a deleted record removes the row.
	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.EventUpdated, e.ID)); err != nil {
		t.Fatalf("stale update: %v", err)
	}
	if rows := mirror.Rows(); len(rows) != 0 {
		t.Fatalf("rows after delete: %+v", rows)
	}
	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.EventDeleted, e.ID)); err != nil {
		t.Fatalf("deleted: %v", err)
	}
}

type failingReader struct{ storage.Store }

func (failingReader) Get(context.Context, string) (core.Expense, error) {
	return core.Expense{}, errors.New("database is locked")
}

func TestMirrorWorker_StoreErrorIsReturned(t *testing.T) {
	w := NewMirrorWorker(failingReader{storage.NewMemoryStore()}, memory.New(), quietLogger())
	if err := w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.EventCreated, "x")); err == nil {
		t.Fatal("expected the store error so the message is requeued")
	}
}

func TestMirrorWorker_Reconcile(t *testing.T) {
	store := storage.NewMemoryStore()
	mirror := memory.New()
	w := NewMirrorWorker(store, mirror, quietLogger())

	mustCreate(t, store, "3.00", "2024-03-01")
	mustCreate(t, store, "1.00", "2024-01-01")
	mustCreate(t, store, "2.00", "2024-02-01")

	if err := w.Reconcile(context.Background()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	rows := mirror.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []string{"2024-01-01", "2024-02-01", "2024-03-01"} {
		if rows[i].Date.String() != want {
			t.Fatalf("row %d date = %s, want %s", i, rows[i].Date, want)
		}
	}
}

func TestScheduler(t *testing.T) {
	if _, err := NewScheduler("not a schedule", nil, quietLogger()); err == nil {
		t.Fatal("expected invalid schedule to be rejected")
	}

	var runs atomic.Int32
	s, err := NewScheduler("@every 1s", func(context.Context) error {
		runs.Add(1)
		return nil
	}, quietLogger())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Fatal("second start should fail")
	}

	deadline := time.Now().Add(5 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Fatal("job never ran")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if s.IsRunning() {
		t.Fatal("scheduler should report stopped")
	}
}
