package memory

import (
	"context"
	"sync"

	"github.com/xenking/ecommerce-store/internal/domain/cart"
)

var _ cart.Repository = (*CartStore)(nil)

// CartStore keeps one cart per user. Carts are copied on the way in and out.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string]cart.Cart
}

// NewCartStore returns an empty CartStore.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]cart.Cart)}
}

// FindByUserID returns the user's cart or *cart.NotFoundError.
func (s *CartStore) FindByUserID(_ context.Context, userID string) (cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[userID]
	if !ok {
		return cart.Cart{}, &cart.NotFoundError{UserID: userID}
	}
	return c.Clone(), nil
}

// GetOrCreate returns the user's cart, storing an empty one first if needed.
func (s *CartStore) GetOrCreate(_ context.Context, userID string) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		c = cart.New(userID)
		s.carts[userID] = c
	}
	return c.Clone(), nil
}

// Save stores the cart under its user, recomputing the total.
func (s *CartStore) Save(_ context.Context, c cart.Cart) error {
	c = c.Clone()
	c.Recalculate()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[c.UserID] = c
	return nil
}

// Update applies fn to an existing cart.
func (s *CartStore) Update(_ context.Context, userID string, fn func(c *cart.Cart) error) (cart.Cart, error) {
	return s.modify(userID, false, fn)
}

// Upsert applies fn to the user's cart, creating it if needed.
func (s *CartStore) Upsert(_ context.Context, userID string, fn func(c *cart.Cart) error) (cart.Cart, error) {
	return s.modify(userID, true, fn)
}

func (s *CartStore) modify(userID string, create bool, fn func(c *cart.Cart) error) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.carts[userID]
	if !ok {
		if !create {
			return cart.Cart{}, &cart.NotFoundError{UserID: userID}
		}
		stored = cart.New(userID)
	}

	c := stored.Clone()
	if err := fn(&c); err != nil {
		return cart.Cart{}, err
	}
	c.Recalculate()
	s.carts[userID] = c
	return c.Clone(), nil
}

// Delete removes the user's cart. Deleting a missing cart is not an error.
func (s *CartStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
	return nil
}

// Count returns the number of stored carts.
func (s *CartStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts)
}
