package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("cart not found")
	// ErrLineNotFound is returned when the cart has no line for the item.
	ErrLineNotFound = errors.New("item not found in cart")
)

// NotFoundError indicates the user has no cart.
type NotFoundError struct {
	UserID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cart not found for user %s", e.UserID)
}

// Is makes errors.Is(err, ErrNotFound) hold for any *NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Line is a cart entry. Name and Price are captured when the item is added
// and are never re-read from the catalog.
type Line struct {
	ItemID   string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// Subtotal returns Price * Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the mutable basket owned by a single user.
type Cart struct {
	UserID string
	Lines  []Line
	Total  decimal.Decimal
}

// New returns an empty cart for the user.
func New(userID string) Cart {
	return Cart{UserID: userID, Lines: []Line{}, Total: decimal.Zero}
}

// Recalculate sets Total to the sum of the line subtotals. Every mutation of
// Lines must be followed by a call to Recalculate.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	c.Total = total
}

// Quantity returns the number of units across all lines.
func (c Cart) Quantity() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Clone returns a deep copy that shares no line storage with c.
func (c Cart) Clone() Cart {
	out := c
	out.Lines = CopyLines(c.Lines)
	return out
}

// CopyLines returns a fresh slice holding copies of lines.
func CopyLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

func (c *Cart) lineIndex(itemID string) int {
	for i, l := range c.Lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

// Repository stores one cart per user. Implementations hand out copies, so a
// returned Cart may be mutated freely without affecting stored state.
//
// Update and Upsert run fn against the stored cart atomically with respect to
// other calls for the same user; if fn fails nothing is written. Update fails
// with *NotFoundError when the user has no cart, Upsert creates one.
type Repository interface {
	FindByUserID(ctx context.Context, userID string) (Cart, error)
	GetOrCreate(ctx context.Context, userID string) (Cart, error)
	Save(ctx context.Context, c Cart) error
	Update(ctx context.Context, userID string, fn func(c *Cart) error) (Cart, error)
	Upsert(ctx context.Context, userID string, fn func(c *Cart) error) (Cart, error)
	Delete(ctx context.Context, userID string) error
	Count(ctx context.Context) int
}
