// Package worker keeps the spreadsheet mirror in step with the record store.
package worker

import (
	"context"
	"errors"
	"fmt"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/sheets"
	"spendlog/internal/storage"
)

// ExpenseReader is the read side of storage.Store used by the worker.
type ExpenseReader interface {
	Get(ctx context.Context, id string) (core.Expense, error)
	List(ctx context.Context, f storage.Filter) ([]core.Expense, error)
}

// MirrorWorker applies change events and periodic full rewrites to a mirror.
type MirrorWorker struct {
	store  ExpenseReader
	mirror sheets.ExpenseMirror
	logger *applog.Logger
}

func NewMirrorWorker(store ExpenseReader, mirror sheets.ExpenseMirror, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &MirrorWorker{
		store:  store,
		mirror: mirror,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEvent mirrors one change. Events only carry the ID, so the current
// record is read back from the store; a record that no longer exists is
// removed whatever the event type.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	w.logger.DebugContext(ctx, "Processing expense event",
		applog.FieldEventType, string(ev.Type),
		applog.FieldExpenseID, ev.ID)

	if ev.Type == amqp.EventDeleted {
		return w.remove(ctx, ev.ID)
	}

	e, err := w.store.Get(ctx, ev.ID)
	if errors.Is(err, core.ErrNotFound) {
		return w.remove(ctx, ev.ID)
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if err := w.mirror.Upsert(ctx, e); err != nil {
		return fmt.Errorf("upsert expense in mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Expense mirrored",
		applog.FieldExpenseID, e.ID,
		applog.FieldOperation, applog.OpSync)
	return nil
}

func (w *MirrorWorker) remove(ctx context.Context, id string) error {
	if err := w.mirror.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove expense from mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Expense removed from mirror",
		applog.FieldExpenseID, id,
		applog.FieldOperation, applog.OpDelete)
	return nil
}

// Reconcile rewrites the whole mirror from the store in date_asc order,
// repairing anything lost between events.
func (w *MirrorWorker) Reconcile(ctx context.Context) error {
	items, err := w.store.List(ctx, storage.Filter{})
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	sorted := core.SortExpenses(items, "", core.SortDateAsc)
	if err := w.mirror.ReplaceAll(ctx, sorted); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Mirror reconciled",
		applog.FieldOperation, applog.OpReconcile,
		"rows", len(sorted))
	return nil
}
