// Package admin provides read-only reporting over orders and coupons, plus
// manual coupon generation.
package admin

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/ecommerce-store/internal/domain/coupon"
	"github.com/xenking/ecommerce-store/internal/domain/order"
)

// Stats is a rollup over every stored order and the coupon history.
type Stats struct {
	TotalItemsPurchased int
	TotalPurchaseAmount decimal.Decimal
	TotalDiscountAmount decimal.Decimal
	TotalOrders         int
	OrdersWithCoupons   int
	CouponsGenerated    int
	// ActiveCoupon is empty when no coupon was generated yet.
	ActiveCoupon string
}

// Service implements the admin reporting surface.
type Service struct {
	orders  order.Repository
	coupons coupon.Store
}

// NewService creates an admin Service.
func NewService(orders order.Repository, coupons coupon.Store) *Service {
	return &Service{orders: orders, coupons: coupons}
}

// Stats folds over all orders. The folds are independent scans, so under
// concurrent checkouts the figures may come from slightly different moments.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		TotalItemsPurchased: s.orders.TotalItemsPurchased(ctx),
		TotalPurchaseAmount: s.orders.TotalPurchaseAmount(ctx),
		TotalDiscountAmount: s.orders.TotalDiscountAmount(ctx),
		TotalOrders:         len(orders),
		OrdersWithCoupons:   s.orders.CountWithCoupons(ctx),
		CouponsGenerated:    s.coupons.GeneratedCount(ctx),
	}
	if c, ok := s.coupons.Active(ctx); ok {
		st.ActiveCoupon = c.Code
	}
	return st, nil
}

// Coupons returns every generated code, oldest first.
func (s *Service) Coupons(ctx context.Context) []string {
	return s.coupons.Generated(ctx)
}

// ActiveCoupon returns the current coupon, if any.
func (s *Service) ActiveCoupon(ctx context.Context) (coupon.Coupon, bool) {
	return s.coupons.Active(ctx)
}

// GenerateCoupon replaces the active coupon with one keyed to the current
// order count.
func (s *Service) GenerateCoupon(ctx context.Context) coupon.Coupon {
	c := s.coupons.Generate(ctx, s.orders.Count(ctx))
	zctx.From(ctx).Info("Coupon generated manually",
		zap.String("code", c.Code),
		zap.Int("order_number", c.GeneratedAtOrder),
	)
	return c
}
