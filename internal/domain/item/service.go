package item

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/ecommerce-store/internal/domain"
)

// Update describes a partial change to an item. Nil fields are left as is.
type Update struct {
	Name  *string
	Price *decimal.Decimal
	Stock *int
}

// Service exposes the catalog to the HTTP layer.
type Service struct {
	items Repository
}

// NewService creates a catalog Service.
func NewService(items Repository) *Service {
	return &Service{items: items}
}

// List returns every item in the catalog.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list items")
	}
	return items, nil
}

// Get returns a single item.
func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	return s.items.FindByID(ctx, id)
}

// Create adds a new item with a generated ID.
func (s *Service) Create(ctx context.Context, name string, price decimal.Decimal, stock int) (Item, error) {
	it := Item{Name: strings.TrimSpace(name), Price: price, Stock: stock}
	if err := validate(it); err != nil {
		return Item{}, err
	}

	it, err := s.items.Save(ctx, it)
	if err != nil {
		return Item{}, errors.Wrap(err, "save item")
	}
	zctx.From(ctx).Info("Item created",
		zap.String("item_id", it.ID),
		zap.String("name", it.Name),
		zap.Stringer("price", it.Price),
		zap.Int("stock", it.Stock),
	)
	return it, nil
}

// Update changes an existing item. Carts keep the name and price captured when
// the item was added, so price changes only affect later additions.
func (s *Service) Update(ctx context.Context, id string, u Update) (Item, error) {
	it, err := s.items.Update(ctx, id, func(it *Item) error {
		if u.Name != nil {
			it.Name = strings.TrimSpace(*u.Name)
		}
		if u.Price != nil {
			it.Price = *u.Price
		}
		if u.Stock != nil {
			it.Stock = *u.Stock
		}
		return validate(*it)
	})
	if err != nil {
		return Item{}, errors.Wrap(err, "update item")
	}
	zctx.From(ctx).Info("Item updated",
		zap.String("item_id", it.ID),
		zap.Stringer("price", it.Price),
		zap.Int("stock", it.Stock),
	)
	return it, nil
}

func validate(it Item) error {
	switch {
	case it.Name == "":
		return domain.Blank("name")
	case it.Price.IsNegative():
		return &domain.InvalidArgumentError{Field: "price", Reason: "must not be negative"}
	case it.Stock < 0:
		return &domain.InvalidArgumentError{Field: "stock", Reason: "must not be negative"}
	}
	return nil
}
