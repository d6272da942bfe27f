package catalog

import (
	"context"
	"sort"
	"sync"
)

type MemStore struct {
	mu       sync.RWMutex
	shops    map[string]Shop
	products map[string]Product
}

func NewMemStore() *MemStore {
	return &MemStore{
		shops:    map[string]Shop{},
		products: map[string]Product{},
	}
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) ListShops(_ context.Context, f ShopFilter) ([]Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Shop, 0, len(s.shops))
	for _, sh := range s.shops {
		if f.OwnerID != "" && sh.OwnerID != f.OwnerID {
			continue
		}
		out = append(out, sh)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) GetShop(_ context.Context, id string) (Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.shops[id]
	if !ok {
		return Shop{}, ErrShopNotFound
	}
	return sh, nil
}

func (s *MemStore) CreateShop(_ context.Context, sh Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shops[sh.ID] = sh
	return nil
}

func (s *MemStore) UpdateShop(_ context.Context, sh Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shops[sh.ID]; !ok {
		return ErrShopNotFound
	}
	s.shops[sh.ID] = sh
	return nil
}

func (s *MemStore) DeleteShop(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shops[id]; !ok {
		return ErrShopNotFound
	}
	delete(s.shops, id)
	for pid, p := range s.products {
		if p.ShopID == id {
			delete(s.products, pid)
		}
	}
	return nil
}

func (s *MemStore) ListProducts(_ context.Context, f ProductFilter) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if f.ShopID != "" && p.ShopID != f.ShopID {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) GetProduct(_ context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *MemStore) CreateProduct(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

func (s *MemStore) UpdateProduct(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return ErrProductNotFound
	}
	s.products[p.ID] = p
	return nil
}

func (s *MemStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}
