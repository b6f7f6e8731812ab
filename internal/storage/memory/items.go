// Package memory implements the domain repositories on top of in-process
// maps. Every store owns its lock; no operation spans two stores.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/xenking/ecommerce-store/internal/domain"
	"github.com/xenking/ecommerce-store/internal/domain/item"
)

var _ item.Repository = (*ItemStore)(nil)

// ItemStore is the in-memory item catalog.
type ItemStore struct {
	mu    sync.RWMutex
	items map[string]item.Item
	ids   []string // insertion order
}

// NewItemStore returns an ItemStore holding the given items.
func NewItemStore(items ...item.Item) *ItemStore {
	s := &ItemStore{items: make(map[string]item.Item, len(items))}
	for _, it := range items {
		_, _ = s.Save(context.Background(), it)
	}
	return s
}

// List returns all items in insertion order.
func (s *ItemStore) List(_ context.Context) ([]item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]item.Item, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.items[id])
	}
	return out, nil
}

// FindByID returns the item or *item.NotFoundError.
func (s *ItemStore) FindByID(_ context.Context, id string) (item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return item.Item{}, &item.NotFoundError{ItemID: id}
	}
	return it, nil
}

// Exists reports whether the item is in the catalog.
func (s *ItemStore) Exists(_ context.Context, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.items[id]
	return ok
}

// CurrentStock returns the item's stock.
func (s *ItemStore) CurrentStock(ctx context.Context, id string) (int, error) {
	it, err := s.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return it.Stock, nil
}

// Save inserts or replaces an item, assigning a random ID when empty.
func (s *ItemStore) Save(_ context.Context, it item.Item) (item.Item, error) {
	if err := checkItem(it); err != nil {
		return item.Item{}, err
	}
	if it.ID == "" {
		it.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[it.ID]; !ok {
		s.ids = append(s.ids, it.ID)
	}
	s.items[it.ID] = it
	return it, nil
}

// Update applies fn to the stored item under the catalog lock, so that
// concurrent stock changes are never overwritten with a stale value.
func (s *ItemStore) Update(_ context.Context, id string, fn func(it *item.Item) error) (item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return item.Item{}, &item.NotFoundError{ItemID: id}
	}
	if err := fn(&it); err != nil {
		return item.Item{}, err
	}
	it.ID = id
	if err := checkItem(it); err != nil {
		return item.Item{}, err
	}
	s.items[id] = it
	return it, nil
}

func checkItem(it item.Item) error {
	if it.Price.IsNegative() {
		return &domain.InvalidArgumentError{Field: "price", Reason: "must not be negative"}
	}
	if it.Stock < 0 {
		return &domain.InvalidArgumentError{Field: "stock", Reason: "must not be negative"}
	}
	return nil
}

// Count returns the number of items in the catalog.
func (s *ItemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// DecreaseStock takes the requested quantities from the catalog. The whole
// batch is checked and applied under one lock: if any item is missing or short,
// nothing changes.
func (s *ItemStore) DecreaseStock(_ context.Context, changes ...item.StockChange) error {
	want, err := mergeChanges(changes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range want.ids {
		it, ok := s.items[id]
		if !ok {
			return &item.NotFoundError{ItemID: id}
		}
		if it.Stock < want.qty[id] {
			return &item.InsufficientStockError{
				ItemID:    id,
				Requested: want.qty[id],
				Available: it.Stock,
			}
		}
	}
	for _, id := range want.ids {
		it := s.items[id]
		it.Stock -= want.qty[id]
		s.items[id] = it
	}
	return nil
}

// IncreaseStock returns quantities to the catalog, all or nothing.
func (s *ItemStore) IncreaseStock(_ context.Context, changes ...item.StockChange) error {
	want, err := mergeChanges(changes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range want.ids {
		if _, ok := s.items[id]; !ok {
			return &item.NotFoundError{ItemID: id}
		}
	}
	for _, id := range want.ids {
		it := s.items[id]
		it.Stock += want.qty[id]
		s.items[id] = it
	}
	return nil
}

type mergedChanges struct {
	ids []string
	qty map[string]int
}

// mergeChanges sums quantities per item so that a batch naming the same item
// twice is checked against its combined quantity.
func mergeChanges(changes []item.StockChange) (mergedChanges, error) {
	m := mergedChanges{qty: make(map[string]int, len(changes))}
	for _, c := range changes {
		if c.Quantity <= 0 {
			return mergedChanges{}, &domain.InvalidArgumentError{Field: "quantity", Reason: "must be greater than 0"}
		}
		if _, ok := m.qty[c.ItemID]; !ok {
			m.ids = append(m.ids, c.ItemID)
		}
		m.qty[c.ItemID] += c.Quantity
	}
	return m, nil
}
