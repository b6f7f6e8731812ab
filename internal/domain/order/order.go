package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/ecommerce-store/internal/domain/cart"
)

// ErrNotFound is returned when an order does not exist.
var ErrNotFound = errors.New("order not found")

// PaymentStatus tracks the payment state of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Order is an immutable snapshot of a checked-out cart.
type Order struct {
	ID     string
	Number int
	UserID string
	// Lines is a deep copy of the cart lines at checkout time.
	Lines         []cart.Line
	Total         decimal.Decimal
	Discount      decimal.Decimal
	CouponCode    string
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
}

// CouponApplied reports whether a coupon reduced the order total.
func (o Order) CouponApplied() bool {
	return o.CouponCode != "" && o.Discount.IsPositive()
}

// Quantity returns the number of units ordered.
func (o Order) Quantity() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// Repository persists orders and owns the global order counter.
//
// Save assigns an ID when missing, stores the order and returns its sequence
// number: the post-increment value of the counter. Sequence numbers are unique,
// strictly increasing and gap-free.
type Repository interface {
	Save(ctx context.Context, o *Order) (int, error)
	FindByID(ctx context.Context, id string) (Order, error)
	// FindByUserID returns the user's orders, newest first.
	FindByUserID(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	Count(ctx context.Context) int

	TotalItemsPurchased(ctx context.Context) int
	TotalPurchaseAmount(ctx context.Context) decimal.Decimal
	TotalDiscountAmount(ctx context.Context) decimal.Decimal
	CountWithCoupons(ctx context.Context) int
}
