package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/ecommerce-store/internal/domain"
	"github.com/xenking/ecommerce-store/internal/domain/cart"
	"github.com/xenking/ecommerce-store/internal/domain/coupon"
	"github.com/xenking/ecommerce-store/internal/domain/item"
)

const instrumentationName = "github.com/xenking/ecommerce-store/internal/domain/order"

// Config holds the coupon policy applied during checkout.
type Config struct {
	// NthOrder triggers coupon generation on every NthOrder-th order.
	NthOrder int
	// DiscountPercentage is taken off the subtotal when a coupon is redeemed.
	DiscountPercentage int
}

// Option configures a Service.
type Option func(*Service)

// WithMeterProvider sets the meter provider for checkout metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider for checkout spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// WithClock overrides the time source used for order timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// CheckoutRequest holds the input for a checkout. An empty or blank
// CouponCode means no coupon.
type CheckoutRequest struct {
	UserID     string
	CouponCode string
}

// CheckoutResult holds the created order and the remaining stock of each
// ordered item right after the checkout.
type CheckoutResult struct {
	Order *Order
	Stock map[string]int
}

// Service turns carts into orders.
type Service struct {
	carts   cart.Repository
	items   item.Repository
	coupons coupon.Store
	orders  Repository
	cfg     Config
	now     func() time.Time

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer

	checkouts        metric.Int64Counter
	couponRejections metric.Int64Counter
	couponsGenerated metric.Int64Counter
	stockReleases    metric.Int64Counter
}

// NewService creates a checkout Service with the required stores.
func NewService(
	carts cart.Repository,
	items item.Repository,
	coupons coupon.Store,
	orders Repository,
	cfg Config,
	opts ...Option,
) (*Service, error) {
	if cfg.NthOrder <= 0 {
		return nil, errors.Errorf("nth order must be positive, got %d", cfg.NthOrder)
	}
	if cfg.DiscountPercentage < 0 || cfg.DiscountPercentage > 100 {
		return nil, errors.Errorf("discount percentage must be within [0, 100], got %d", cfg.DiscountPercentage)
	}

	s := &Service{
		carts:          carts,
		items:          items,
		coupons:        coupons,
		orders:         orders,
		cfg:            cfg,
		now:            time.Now,
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, o := range opts {
		o(s)
	}

	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	meter := s.meterProvider.Meter(instrumentationName)

	var err error
	if s.checkouts, err = meter.Int64Counter("store.checkout.count",
		metric.WithDescription("Checkout attempts by result"),
	); err != nil {
		return nil, errors.Wrap(err, "checkout counter")
	}
	if s.couponRejections, err = meter.Int64Counter("store.coupon.rejected",
		metric.WithDescription("Coupon redemptions rejected by reason"),
	); err != nil {
		return nil, errors.Wrap(err, "coupon rejection counter")
	}
	if s.couponsGenerated, err = meter.Int64Counter("store.coupon.generated",
		metric.WithDescription("Coupons generated by the Nth-order rule"),
	); err != nil {
		return nil, errors.Wrap(err, "coupon generation counter")
	}
	if s.stockReleases, err = meter.Int64Counter("store.stock.released",
		metric.WithDescription("Stock reservations returned after a failed checkout"),
	); err != nil {
		return nil, errors.Wrap(err, "stock release counter")
	}

	return s, nil
}

// Checkout converts the user's cart into an order.
//
// Failures before the order is saved leave every store as it was: stock taken
// for the order is returned and the cart is kept. A rejected coupon is never
// consumed. Once the order is saved the remaining steps are not rolled back.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (_ *CheckoutResult, rerr error) {
	ctx, span := s.tracer.Start(ctx, "Checkout",
		trace.WithAttributes(attribute.String("user.id", req.UserID)),
	)
	defer func() {
		result := "ok"
		if rerr != nil {
			result = errorKind(rerr)
			span.RecordError(rerr)
			span.SetStatus(codes.Error, result)
		}
		s.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
		span.End()
	}()

	if strings.TrimSpace(req.UserID) == "" {
		return nil, domain.Blank("user id")
	}
	lg := zctx.From(ctx).With(zap.String("user_id", req.UserID))

	c, err := s.carts.FindByUserID(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "find cart")
	}
	if c.Empty() {
		return nil, ErrEmptyCart
	}

	if err := s.checkAvailability(ctx, c.Lines); err != nil {
		return nil, err
	}

	// Reject codes that cannot be redeemed before taking any stock, so a bad
	// code never holds units other checkouts could buy.
	code := req.CouponCode
	hasCoupon := strings.TrimSpace(code) != ""
	if hasCoupon {
		if res := s.coupons.Check(ctx, code); res != coupon.Valid {
			return nil, s.rejectCoupon(ctx, lg, code, res)
		}
	}

	// Take the stock now so that concurrent checkouts of the last units cannot
	// both pass the availability check above.
	changes := stockChanges(c.Lines)
	if err := s.items.DecreaseStock(ctx, changes...); err != nil {
		return nil, reservationError(err)
	}

	subtotal := c.Total
	discount := decimal.Zero
	couponCode := ""
	if hasCoupon {
		// The code may have been redeemed or replaced since the check above.
		if res := s.coupons.ValidateAndUse(ctx, code); res != coupon.Valid {
			s.releaseStock(ctx, lg, changes)
			return nil, s.rejectCoupon(ctx, lg, code, res)
		}
		discount = coupon.PercentageDiscount(subtotal, s.cfg.DiscountPercentage)
		couponCode = code
	}

	o := &Order{
		UserID:        req.UserID,
		Lines:         cart.CopyLines(c.Lines),
		Total:         subtotal.Sub(discount),
		Discount:      discount,
		CouponCode:    couponCode,
		PaymentStatus: PaymentPaid,
		CreatedAt:     s.now(),
	}

	seq, err := s.orders.Save(ctx, o)
	if err != nil {
		// A redeemed coupon stays used: coupons are never revived.
		s.releaseStock(ctx, lg, changes)
		return nil, errors.Wrap(err, "save order")
	}
	span.SetAttributes(attribute.String("order.id", o.ID), attribute.Int("order.number", seq))

	if seq%s.cfg.NthOrder == 0 {
		generated := s.coupons.Generate(ctx, seq)
		s.couponsGenerated.Add(ctx, 1)
		lg.Info("Coupon generated",
			zap.String("code", generated.Code),
			zap.Int("order_number", seq),
		)
	}

	if err := s.carts.Delete(ctx, req.UserID); err != nil {
		lg.Warn("Clear cart after checkout", zap.Error(err), zap.String("order_id", o.ID))
	}

	lg.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.Int("order_number", seq),
		zap.Stringer("total", o.Total),
		zap.Stringer("discount", o.Discount),
		zap.String("coupon", couponCode),
	)

	return &CheckoutResult{
		Order: o,
		Stock: s.stockOf(ctx, o.Lines),
	}, nil
}

// History returns the user's orders, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.Blank("user id")
	}
	orders, err := s.orders.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "find orders")
	}
	return orders, nil
}

// StockOf returns the current stock of the items referenced by lines. Items
// that left the catalog report zero.
func (s *Service) StockOf(ctx context.Context, lines []cart.Line) map[string]int {
	return s.stockOf(ctx, lines)
}

func (s *Service) stockOf(ctx context.Context, lines []cart.Line) map[string]int {
	out := make(map[string]int, len(lines))
	for _, l := range lines {
		n, err := s.items.CurrentStock(ctx, l.ItemID)
		if err != nil {
			n = 0
		}
		out[l.ItemID] = n
	}
	return out
}

// checkAvailability verifies every line against the catalog without
// modifying it, so that obviously failing checkouts touch nothing.
func (s *Service) checkAvailability(ctx context.Context, lines []cart.Line) error {
	for _, l := range lines {
		it, err := s.items.FindByID(ctx, l.ItemID)
		if err != nil {
			if errors.Is(err, item.ErrNotFound) {
				return &ItemUnavailableError{ItemID: l.ItemID}
			}
			return errors.Wrapf(err, "find item %s", l.ItemID)
		}
		if it.Stock < l.Quantity {
			return &item.InsufficientStockError{
				ItemID:    l.ItemID,
				Requested: l.Quantity,
				Available: it.Stock,
			}
		}
	}
	return nil
}

func (s *Service) rejectCoupon(ctx context.Context, lg *zap.Logger, code string, res coupon.ValidationResult) error {
	s.couponRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", res.String())))
	lg.Info("Coupon rejected", zap.String("code", code), zap.Stringer("result", res))
	return &coupon.Error{Code: code, Result: res}
}

func (s *Service) releaseStock(ctx context.Context, lg *zap.Logger, changes []item.StockChange) {
	if err := s.items.IncreaseStock(ctx, changes...); err != nil {
		lg.Error("Release reserved stock", zap.Error(err))
		return
	}
	s.stockReleases.Add(ctx, 1)
}

func stockChanges(lines []cart.Line) []item.StockChange {
	changes := make([]item.StockChange, len(lines))
	for i, l := range lines {
		changes[i] = item.StockChange{ItemID: l.ItemID, Quantity: l.Quantity}
	}
	return changes
}

func reservationError(err error) error {
	var nf *item.NotFoundError
	if errors.As(err, &nf) {
		return &ItemUnavailableError{ItemID: nf.ItemID}
	}
	var ise *item.InsufficientStockError
	if errors.As(err, &ise) {
		return ise
	}
	return errors.Wrap(err, "reserve stock")
}

func errorKind(err error) string {
	var (
		invalid     *domain.InvalidArgumentError
		unavailable *ItemUnavailableError
		stock       *item.InsufficientStockError
		couponErr   *coupon.Error
	)
	switch {
	case errors.As(err, &invalid):
		return "invalid_argument"
	case errors.Is(err, cart.ErrNotFound):
		return "cart_not_found"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &unavailable):
		return "item_unavailable"
	case errors.As(err, &stock):
		return "insufficient_stock"
	case errors.As(err, &couponErr):
		return "coupon_invalid"
	default:
		return "error"
	}
}
