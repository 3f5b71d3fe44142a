package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"spendlog/internal/amqp"
	"spendlog/internal/cache"
	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/storage"
)

const statsCacheKey = "stats"

// EventPublisher announces committed writes. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// Options tunes an ExpenseService. A zero StatsTTL disables the stats cache.
type Options struct {
	StatsTTL time.Duration
	Logger   *applog.Logger
}

// ExpenseService runs every expense operation: validation, storage, queries,
// aggregation and change events.
type ExpenseService struct {
	store     storage.Store
	publisher EventPublisher

	stats      *cache.LRUCache[core.Stats]
	statsGroup singleflight.Group
	generation atomic.Uint64

	logger *applog.Logger
	audit  *applog.StructuredLogger
}

// NewExpenseService wires a service over store. publisher may be nil.
func NewExpenseService(store storage.Store, publisher EventPublisher, opts Options) *ExpenseService {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentExpense)

	s := &ExpenseService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		audit:     applog.NewStructuredLogger(logger),
	}
	if opts.StatsTTL > 0 {
		s.stats = cache.NewLRUCache[core.Stats](1, opts.StatsTTL)
	}
	return s
}

// StatsCache exposes the stats cache for periodic cleanup. It is nil when
// caching is disabled.
func (s *ExpenseService) StatsCache() *cache.LRUCache[core.Stats] {
	return s.stats
}

// Categories returns the supported categories in display order.
func (s *ExpenseService) Categories() []core.Category {
	return core.Categories()
}

// Create validates in and stores it. When key names an existing record that
// record is returned with created == false and no event is published.
func (s *ExpenseService) Create(ctx context.Context, in core.ExpenseInput, key string) (core.Expense, bool, error) {
	key = strings.TrimSpace(key)
	fields, err := in.Fields()
	if err != nil || len(key) > storage.MaxIdempotencyKeyLength {
		return core.Expense{}, false, withKeyViolation(err, key)
	}

	e, created, err := s.store.Create(ctx, fields, key)
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("create expense: %w", err)
	}
	if !created {
		s.audit.LogReplay(ctx, e.ID, key)
		return e, false, nil
	}

	s.invalidateStats()
	s.audit.LogExpenseWrite(ctx, applog.OpCreate, e.ID, string(e.Category), e.Amount.Cents, e.Date.String())
	s.publish(ctx, amqp.EventCreated, e.ID)
	return e, true, nil
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// Update replaces every mutable field of the record with id.
func (s *ExpenseService) Update(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	fields, err := in.Fields()
	if err != nil {
		return core.Expense{}, err
	}

	e, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.invalidateStats()
	s.audit.LogExpenseWrite(ctx, applog.OpUpdate, e.ID, string(e.Category), e.Amount.Cents, e.Date.String())
	s.publish(ctx, amqp.EventUpdated, e.ID)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.invalidateStats()
	s.logger.InfoContext(ctx, "Expense deleted",
		applog.FieldExpenseID, id,
		applog.FieldOperation, applog.OpDelete)
	s.publish(ctx, amqp.EventDeleted, id)
	return nil
}

// List returns one page of records matching q.
func (s *ExpenseService) List(ctx context.Context, q core.Query) (core.Page, error) {
	items, err := s.store.List(ctx, storage.Filter{Category: q.Category})
	if err != nil {
		return core.Page{}, fmt.Errorf("list expenses: %w", err)
	}
	return core.Paginate(items, q), nil
}

// Export returns every matching record in the requested order, unpaginated.
func (s *ExpenseService) Export(ctx context.Context, category core.Category, order core.SortOrder) ([]core.Expense, error) {
	items, err := s.store.List(ctx, storage.Filter{Category: category})
	if err != nil {
		return nil, fmt.Errorf("export expenses: %w", err)
	}
	return core.SortExpenses(items, category, order), nil
}

// Stats aggregates the whole store. Results are cached until the TTL expires
// or a write goes through this service; concurrent misses share one
// computation.
func (s *ExpenseService) Stats(ctx context.Context) (core.Stats, error) {
	if s.stats != nil {
		if st, ok := s.stats.Get(statsCacheKey); ok {
			return st, nil
		}
	}

	gen := s.generation.Load()
	v, err, _ := s.statsGroup.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		items, err := s.store.List(ctx, storage.Filter{})
		if err != nil {
			return nil, err
		}
		st := core.Aggregate(items)
		// A write that landed during the computation makes the result stale.
		if s.stats != nil && s.generation.Load() == gen {
			s.stats.Set(statsCacheKey, st)
		}
		return st, nil
	})
	if err != nil {
		return core.Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	return v.(core.Stats), nil
}

func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close closes the store and, when it supports it, the publisher.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close expense service: %w", err)
	}
	return nil
}

func (s *ExpenseService) invalidateStats() {
	s.generation.Add(1)
	if s.stats != nil {
		s.stats.Purge()
	}
}

// publish reports a committed write. The write already succeeded, so a
// failure is logged and dropped; the worker's reconcile repairs the mirror.
func (s *ExpenseService) publish(ctx context.Context, t amqp.EventType, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewExpenseEvent(t, id)); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish expense event",
			applog.FieldEventType, string(t),
			applog.FieldExpenseID, id,
			applog.FieldError, err)
	}
}

// withKeyViolation adds an idempotency key violation to the validation
// result of the body, so every problem is reported together.
func withKeyViolation(err error, key string) error {
	if len(key) <= storage.MaxIdempotencyKeyLength {
		return err
	}
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		verr = &core.ValidationError{}
	}
	verr.Add("idempotency_key",
		fmt.Sprintf("idempotency key must be at most %d characters", storage.MaxIdempotencyKeyLength))
	return verr
}
