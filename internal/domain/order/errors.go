package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrEmptyCart is returned when checking out a cart without lines.
var ErrEmptyCart = errors.New("cannot checkout with empty cart")

// ErrAlreadyExists is returned when saving an order whose ID is taken.
var ErrAlreadyExists = errors.New("order already exists")

// ItemUnavailableError indicates a cart line references an item that is no
// longer in the catalog.
type ItemUnavailableError struct {
	ItemID string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("item no longer available: %s", e.ItemID)
}
