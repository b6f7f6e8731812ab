package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xenking/ecommerce-store/internal/domain/coupon"
)

var _ coupon.Store = (*CouponStore)(nil)

// CouponStore holds the single active coupon. One mutex serializes every
// read-check-write sequence on it.
type CouponStore struct {
	mu      sync.Mutex
	active  *coupon.Coupon
	history []string
	now     func() time.Time
}

// NewCouponStore returns a CouponStore with no active coupon.
func NewCouponStore() *CouponStore {
	return &CouponStore{now: time.Now}
}

// Active returns a copy of the active coupon.
func (s *CouponStore) Active(_ context.Context) (coupon.Coupon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return coupon.Coupon{}, false
	}
	return *s.active, true
}

// Generate discards the active coupon and installs a new one.
func (s *CouponStore) Generate(_ context.Context, orderNumber int) coupon.Coupon {
	c := coupon.Coupon{
		Code:             coupon.Code(orderNumber),
		GeneratedAtOrder: orderNumber,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.CreatedAt = s.now()
	s.active = &c
	s.history = append(s.history, c.Code)
	return c
}

// ValidateAndUse redeems code. The comparison is exact: no trimming or case
// folding.
func (s *CouponStore) ValidateAndUse(_ context.Context, code string) coupon.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.check(code)
	if res == coupon.Valid {
		s.active.Used = true
	}
	return res
}

// Check reports how ValidateAndUse would treat code, without redeeming it.
func (s *CouponStore) Check(_ context.Context, code string) coupon.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.check(code)
}

// IsValid reports whether code would be redeemed, without redeeming it.
func (s *CouponStore) IsValid(ctx context.Context, code string) bool {
	return s.Check(ctx, code) == coupon.Valid
}

// Generated returns all generated codes, oldest first.
func (s *CouponStore) Generated(_ context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// GeneratedCount returns the number of generated codes.
func (s *CouponStore) GeneratedCount(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// check must be called with s.mu held.
func (s *CouponStore) check(code string) coupon.ValidationResult {
	switch {
	case s.active == nil:
		return coupon.NoActiveCoupon
	case s.active.Code != code:
		return coupon.InvalidCode
	case !s.active.Valid():
		return coupon.AlreadyUsed
	default:
		return coupon.Valid
	}
}
