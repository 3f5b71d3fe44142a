package storage

import (
	"context"
	"sync"

	"spendlog/internal/core"
)

// MemoryStore keeps records in process. It backs tests and quick local runs.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]core.Expense
	keys  map[string]string // idempotency key -> id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]core.Expense),
		keys:  make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, fields core.ExpenseFields, key string) (core.Expense, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		if id, ok := s.keys[key]; ok {
			return s.items[id], false, nil
		}
	}

	e := core.Expense{
		ID:             newID(),
		ExpenseFields:  fields,
		CreatedAt:      now(),
		IdempotencyKey: key,
	}
	s.items[e.ID] = e
	if key != "" {
		s.keys[key] = e.ID
	}
	return e, true, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, notFound(id)
	}
	return e, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fields core.ExpenseFields) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, notFound(id)
	}
	e.ExpenseFields = fields
	s.items[id] = e
	return e, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return notFound(id)
	}
	delete(s.items, id)
	if e.IdempotencyKey != "" {
		delete(s.keys, e.IdempotencyKey)
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		if f.match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
