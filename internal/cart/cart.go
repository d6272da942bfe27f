package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const StorageKey = "apni-dukan-cart"

var ErrInvalidItem = errors.New("invalid cart item")

// Item prices are in paise.
type Item struct {
	ID          string `json:"id"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Image       string `json:"image,omitempty"`
	ShopID      string `json:"shopId"`
	ShopName    string `json:"shopName"`
}

type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Store is the local cart. Every mutation is written through to Storage; write
// failures are logged and the in-memory cart stays authoritative.
type Store struct {
	storage Storage
	log     *zap.Logger

	mu    sync.Mutex
	items []Item
}

func New(storage Storage, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{storage: storage, log: log, items: []Item{}}
	s.load()
	return s
}

func (s *Store) load() {
	raw, ok, err := s.storage.Get(StorageKey)
	if err != nil {
		s.log.Warn("cart load failed", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.Warn("discarding unreadable cart", zap.Error(err))
		return
	}

	s.items = s.keepValid(items, "dropping invalid stored cart item")
}

func (it Item) validate() error {
	switch {
	case it.ProductID == "":
		return fmt.Errorf("%w: missing product id", ErrInvalidItem)
	case it.Price < 0:
		return fmt.Errorf("%w: negative price for %s", ErrInvalidItem, it.ProductID)
	}
	return nil
}

func (s *Store) keepValid(items []Item, msg string) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		err := it.validate()
		if err == nil && it.Quantity < 1 {
			err = fmt.Errorf("%w: quantity %d for %s", ErrInvalidItem, it.Quantity, it.ProductID)
		}
		if err != nil {
			s.log.Warn(msg, zap.Error(err))
			continue
		}
		out = append(out, it)
	}
	return out
}

func (s *Store) persistLocked() {
	raw, err := json.Marshal(s.items)
	if err == nil {
		err = s.storage.Set(StorageKey, string(raw))
	}
	if err != nil {
		s.log.Warn("cart persist failed", zap.Error(err), zap.Int("items", len(s.items)))
	}
}

// Add puts one unit of it in the cart. A product already present gains one unit;
// otherwise it is appended with quantity 1. The returned item reflects the cart.
// Items without a product id or with a negative price are rejected with ErrInvalidItem.
func (s *Store) Add(it Item) (Item, error) {
	if err := it.validate(); err != nil {
		return Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == it.ProductID {
			s.items[i].Quantity++
			s.persistLocked()
			return s.items[i], nil
		}
	}

	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.Quantity = 1
	s.items = append(s.items, it)
	s.persistLocked()
	return it, nil
}

func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *Store) removeLocked(id string) {
	out := s.items[:0]
	for _, it := range s.items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	s.items = out
	s.persistLocked()
}

// SetQuantity removes the item when quantity <= 0.
func (s *Store) SetQuantity(id string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(id)
		return
	}
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = quantity
			s.persistLocked()
			return
		}
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []Item{}
	s.persistLocked()
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item{}, s.items...)
}

func (s *Store) Find(productID string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return Item{}, false
}

func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, it := range s.items {
		total += it.Price * int64(it.Quantity)
	}
	return total
}

// Count is the number of units, not lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Snapshot() []Item {
	return s.Items()
}

// Restore replaces the cart with items, skipping any that are invalid.
func (s *Store) Restore(items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = s.keepValid(items, "dropping invalid cart item on restore")
	s.persistLocked()
}
