package coupon

import (
	"context"
	"fmt"
	"time"
)

// CodePrefix is prepended to the zero-padded order number to form a code.
const CodePrefix = "SAVE10-"

// Coupon is the single system-wide discount code.
type Coupon struct {
	Code             string
	Used             bool
	GeneratedAtOrder int
	CreatedAt        time.Time
}

// Valid reports whether the coupon can still be redeemed.
func (c Coupon) Valid() bool {
	return !c.Used
}

// Code formats the coupon code for the given order number, e.g. SAVE10-005.
func Code(orderNumber int) string {
	return fmt.Sprintf("%s%03d", CodePrefix, orderNumber)
}

// ValidationResult is the outcome of redeeming a code.
type ValidationResult int

const (
	// Valid means the code matched the active coupon, which is now used.
	Valid ValidationResult = iota
	// NoActiveCoupon means no coupon has been generated yet.
	NoActiveCoupon
	// InvalidCode means the code does not match the active coupon.
	InvalidCode
	// AlreadyUsed means the active coupon was redeemed before.
	AlreadyUsed
)

func (r ValidationResult) String() string {
	switch r {
	case Valid:
		return "VALID"
	case NoActiveCoupon:
		return "NO_ACTIVE_COUPON"
	case InvalidCode:
		return "INVALID_CODE"
	case AlreadyUsed:
		return "ALREADY_USED"
	default:
		return fmt.Sprintf("ValidationResult(%d)", int(r))
	}
}

// Error is returned by checkout when a supplied code cannot be redeemed.
type Error struct {
	Code   string
	Result ValidationResult
}

func (e *Error) Error() string {
	return e.Reason()
}

// Reason returns a user-facing explanation of the rejection.
func (e *Error) Reason() string {
	switch e.Result {
	case NoActiveCoupon:
		return "no active coupon available"
	case AlreadyUsed:
		return fmt.Sprintf("coupon code already used: %s", e.Code)
	default:
		return fmt.Sprintf("invalid coupon code: %s", e.Code)
	}
}

// Store holds at most one active coupon and the history of generated codes.
//
// Generate and ValidateAndUse are mutually exclusive: a code is redeemed by at
// most one caller, and a redemption racing a replacement observes either the
// old or the new coupon, never a mix.
type Store interface {
	// Active returns the current coupon; ok is false when none was generated.
	Active(ctx context.Context) (c Coupon, ok bool)
	// Generate replaces the active coupon, used or not, with a fresh one.
	Generate(ctx context.Context, orderNumber int) Coupon
	// ValidateAndUse redeems code if it exactly matches the unused active coupon.
	ValidateAndUse(ctx context.Context, code string) ValidationResult
	// Check returns what ValidateAndUse would return for code, without
	// redeeming it.
	Check(ctx context.Context, code string) ValidationResult
	// IsValid reports whether Check returns Valid.
	IsValid(ctx context.Context, code string) bool
	Generated(ctx context.Context) []string
	GeneratedCount(ctx context.Context) int
}
