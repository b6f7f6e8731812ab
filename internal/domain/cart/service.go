package cart

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/ecommerce-store/internal/domain"
	"github.com/xenking/ecommerce-store/internal/domain/item"
)

// Service implements cart mutations on top of the cart and item stores.
type Service struct {
	carts Repository
	items item.Repository
}

// NewService creates a cart Service.
func NewService(carts Repository, items item.Repository) *Service {
	return &Service{carts: carts, items: items}
}

// AddItem puts quantity units of the item into the user's cart, creating the
// cart on first use. Adding an item that is already in the cart increases the
// existing line's quantity and keeps its original name and price snapshot.
func (s *Service) AddItem(ctx context.Context, userID, itemID string, quantity int) (Cart, error) {
	if err := validateUser(userID); err != nil {
		return Cart{}, err
	}
	if err := validateQuantity(quantity); err != nil {
		return Cart{}, err
	}

	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return Cart{}, errors.Wrapf(err, "find item %s", itemID)
	}

	c, err := s.carts.Upsert(ctx, userID, func(c *Cart) error {
		if i := c.lineIndex(itemID); i >= 0 {
			c.Lines[i].Quantity += quantity
		} else {
			c.Lines = append(c.Lines, Line{
				ItemID:   it.ID,
				Name:     it.Name,
				Price:    it.Price,
				Quantity: quantity,
			})
		}
		c.Recalculate()
		return nil
	})
	if err != nil {
		return Cart{}, errors.Wrap(err, "add to cart")
	}

	zctx.From(ctx).Debug("Item added to cart",
		zap.String("user_id", userID),
		zap.String("item_id", itemID),
		zap.Int("quantity", quantity),
	)
	return c, nil
}

// RemoveItem drops the item's line from the user's cart.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (Cart, error) {
	if err := validateUser(userID); err != nil {
		return Cart{}, err
	}

	c, err := s.carts.Update(ctx, userID, func(c *Cart) error {
		i := c.lineIndex(itemID)
		if i < 0 {
			return ErrLineNotFound
		}
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		c.Recalculate()
		return nil
	})
	if err != nil {
		return Cart{}, errors.Wrap(err, "remove from cart")
	}
	return c, nil
}

// UpdateQuantity replaces the quantity of an existing line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (Cart, error) {
	if err := validateUser(userID); err != nil {
		return Cart{}, err
	}
	if err := validateQuantity(quantity); err != nil {
		return Cart{}, err
	}

	c, err := s.carts.Update(ctx, userID, func(c *Cart) error {
		i := c.lineIndex(itemID)
		if i < 0 {
			return ErrLineNotFound
		}
		c.Lines[i].Quantity = quantity
		c.Recalculate()
		return nil
	})
	if err != nil {
		return Cart{}, errors.Wrap(err, "update cart quantity")
	}
	return c, nil
}

// Get returns the user's cart, creating an empty one if needed.
func (s *Service) Get(ctx context.Context, userID string) (Cart, error) {
	if err := validateUser(userID); err != nil {
		return Cart{}, err
	}
	return s.carts.GetOrCreate(ctx, userID)
}

// Clear deletes the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	return s.carts.Delete(ctx, userID)
}

func validateUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.Blank("user id")
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return &domain.InvalidArgumentError{Field: "quantity", Reason: "must be greater than 0"}
	}
	return nil
}
