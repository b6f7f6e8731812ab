package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/ecommerce-store/internal/domain/cart"
	"github.com/xenking/ecommerce-store/internal/domain/order"
)

var _ order.Repository = (*OrderStore)(nil)

// OrderStore keeps every placed order and the global order counter. The
// counter moves under the same lock as the insert, so the n-th stored order
// always carries number n.
type OrderStore struct {
	mu      sync.RWMutex
	orders  map[string]order.Order
	ids     []string // insertion order
	counter int
	now     func() time.Time
}

// NewOrderStore returns an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]order.Order),
		now:    time.Now,
	}
}

// Save stores a copy of o. It fills ID and CreatedAt when unset and writes the
// assigned sequence number back into o.Number. Orders are immutable: saving an
// ID twice fails with order.ErrAlreadyExists and leaves o and the counter
// untouched.
func (s *OrderStore) Save(_ context.Context, o *order.Order) (int, error) {
	id := o.ID
	if id == "" {
		id = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; ok {
		return 0, errors.Wrapf(order.ErrAlreadyExists, "save %s", id)
	}

	o.ID = id
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	s.counter++
	o.Number = s.counter

	s.ids = append(s.ids, id)
	s.orders[id] = cloneOrder(*o)
	return s.counter, nil
}

// FindByID returns the order or order.ErrNotFound.
func (s *OrderStore) FindByID(_ context.Context, id string) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return cloneOrder(o), nil
}

// FindByUserID returns the user's orders, newest first.
func (s *OrderStore) FindByUserID(_ context.Context, userID string) ([]order.Order, error) {
	s.mu.RLock()
	out := make([]order.Order, 0)
	for _, id := range s.ids {
		if o := s.orders[id]; o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Number > out[j].Number
	})
	return out, nil
}

// List returns all orders in the order they were placed.
func (s *OrderStore) List(_ context.Context) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]order.Order, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, cloneOrder(s.orders[id]))
	}
	return out, nil
}

// Count returns the value of the order counter.
func (s *OrderStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counter
}

// TotalItemsPurchased sums line quantities over all orders.
func (s *OrderStore) TotalItemsPurchased(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, o := range s.orders {
		n += o.Quantity()
	}
	return n
}

// TotalPurchaseAmount sums order totals after discount.
func (s *OrderStore) TotalPurchaseAmount(_ context.Context) decimal.Decimal {
	return s.sum(func(o order.Order) decimal.Decimal { return o.Total })
}

// TotalDiscountAmount sums order discounts.
func (s *OrderStore) TotalDiscountAmount(_ context.Context) decimal.Decimal {
	return s.sum(func(o order.Order) decimal.Decimal { return o.Discount })
}

// CountWithCoupons counts orders that carry a coupon code.
func (s *OrderStore) CountWithCoupons(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, o := range s.orders {
		if o.CouponCode != "" {
			n++
		}
	}
	return n
}

func (s *OrderStore) sum(field func(order.Order) decimal.Decimal) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, o := range s.orders {
		total = total.Add(field(o))
	}
	return total
}

func cloneOrder(o order.Order) order.Order {
	o.Lines = cart.CopyLines(o.Lines)
	return o
}
