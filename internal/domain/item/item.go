package item

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound matches any *NotFoundError.
var ErrNotFound = errors.New("item not found")

// NotFoundError indicates the item does not exist in the catalog.
type NotFoundError struct {
	ItemID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item not found: %s", e.ItemID)
}

// Is makes errors.Is(err, ErrNotFound) hold for any *NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Item is a catalog product available for purchase.
type Item struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}

// OutOfStock reports whether no units are left.
func (i Item) OutOfStock() bool {
	return i.Stock <= 0
}

// StockChange is a quantity to take from (or give back to) a single item.
type StockChange struct {
	ItemID   string
	Quantity int
}

// InsufficientStockError reports that an item cannot cover the requested
// quantity.
type InsufficientStockError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

// Repository is the item catalog.
//
// DecreaseStock is all-or-nothing: either every change is applied or none is,
// and stock never drops below zero. Missing items fail with *NotFoundError and
// short items with *InsufficientStockError. Update applies fn to a copy of
// the stored item and writes it back atomically with respect to stock
// changes; if fn fails nothing is written.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	FindByID(ctx context.Context, id string) (Item, error)
	Exists(ctx context.Context, id string) bool
	CurrentStock(ctx context.Context, id string) (int, error)
	Save(ctx context.Context, it Item) (Item, error)
	Update(ctx context.Context, id string, fn func(it *Item) error) (Item, error)
	Count(ctx context.Context) int
	DecreaseStock(ctx context.Context, changes ...StockChange) error
	IncreaseStock(ctx context.Context, changes ...StockChange) error
}
