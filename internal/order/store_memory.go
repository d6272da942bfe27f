package order

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string]Order
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string]Order{}}
}

func (s *MemStore) Ping(context.Context) error { return nil }

// detach gives o its own Items so callers never share the stored array.
func detach(o Order) Order {
	o.Items = append([]Item(nil), o.Items...)
	return o
}

func (s *MemStore) Create(_ context.Context, o Order) error {
	o = detach(o)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[o.ID] = o
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.m[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return detach(o), nil
}

// List returns newest orders first.
func (s *MemStore) List(_ context.Context, f Filter) ([]Order, error) {
	out := []Order{}
	if f.empty() {
		return out, nil
	}

	s.mu.RLock()
	for _, o := range s.m {
		if f.match(o) {
			out = append(out, detach(o))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemStore) UpdateStatus(_ context.Context, id string, from, to Status, at time.Time) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.m[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if o.Status != from {
		return Order{}, ErrStatusConflict
	}
	o.Status = to
	o.UpdatedAt = at
	s.m[id] = o
	return detach(o), nil
}
