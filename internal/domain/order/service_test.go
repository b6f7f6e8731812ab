package order_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/ecommerce-store/internal/domain"
	"github.com/xenking/ecommerce-store/internal/domain/cart"
	"github.com/xenking/ecommerce-store/internal/domain/coupon"
	"github.com/xenking/ecommerce-store/internal/domain/item"
	"github.com/xenking/ecommerce-store/internal/domain/order"
	"github.com/xenking/ecommerce-store/internal/storage/memory"
)

// --- Helpers ---

type env struct {
	items   *memory.ItemStore
	carts   *memory.CartStore
	coupons *memory.CouponStore
	orders  *memory.OrderStore

	cartSvc *cart.Service
	svc     *order.Service
}

func newEnv(t *testing.T, items ...item.Item) *env {
	t.Helper()
	return newEnvWithOrders(t, nil, items...)
}

func newEnvWithOrders(t *testing.T, orders order.Repository, items ...item.Item) *env {
	t.Helper()

	e := &env{
		items:   memory.NewItemStore(items...),
		carts:   memory.NewCartStore(),
		coupons: memory.NewCouponStore(),
		orders:  memory.NewOrderStore(),
	}
	if orders == nil {
		orders = e.orders
	}
	e.cartSvc = cart.NewService(e.carts, e.items)

	svc, err := order.NewService(e.carts, e.items, e.coupons, orders, order.Config{
		NthOrder:           5,
		DiscountPercentage: 10,
	})
	require.NoError(t, err)
	e.svc = svc
	return e
}

func (e *env) add(t *testing.T, userID, itemID string, qty int) {
	t.Helper()
	_, err := e.cartSvc.AddItem(context.Background(), userID, itemID, qty)
	require.NoError(t, err)
}

func (e *env) stock(t *testing.T, itemID string) int {
	t.Helper()
	n, err := e.items.CurrentStock(context.Background(), itemID)
	require.NoError(t, err)
	return n
}

func testItem(id, price string, stock int) item.Item {
	return item.Item{ID: id, Name: id, Price: decimal.RequireFromString(price), Stock: stock}
}

type failingOrders struct {
	order.Repository
	err error
}

func (f *failingOrders) Save(context.Context, *order.Order) (int, error) {
	return 0, f.err
}

// hookedCoupons runs a callback once, before the first Check or
// ValidateAndUse reaches the store.
type hookedCoupons struct {
	*memory.CouponStore
	onCheck func()
	onUse   func()
	once    sync.Once
}

func (h *hookedCoupons) Check(ctx context.Context, code string) coupon.ValidationResult {
	if h.onCheck != nil {
		h.once.Do(h.onCheck)
	}
	return h.CouponStore.Check(ctx, code)
}

func (h *hookedCoupons) ValidateAndUse(ctx context.Context, code string) coupon.ValidationResult {
	if h.onUse != nil {
		h.once.Do(h.onUse)
	}
	return h.CouponStore.ValidateAndUse(ctx, code)
}

func (e *env) withCoupons(t *testing.T, coupons coupon.Store) *order.Service {
	t.Helper()
	svc, err := order.NewService(e.carts, e.items, coupons, e.orders, order.Config{
		NthOrder:           5,
		DiscountPercentage: 10,
	})
	require.NoError(t, err)
	return svc
}

// --- Tests ---

func TestNewService_InvalidConfig(t *testing.T) {
	for name, cfg := range map[string]order.Config{
		"zero nth":          {NthOrder: 0, DiscountPercentage: 10},
		"negative percent":  {NthOrder: 5, DiscountPercentage: -1},
		"percent above 100": {NthOrder: 5, DiscountPercentage: 101},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := order.NewService(nil, nil, nil, nil, cfg)
			require.Error(t, err)
		})
	}
}

func TestCheckout_NoCoupon(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, testItem("laptop", "999.99", 5))
	e.add(t, "alice", "laptop", 1)

	res, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice"})
	require.NoError(t, err)

	o := res.Order
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, 1, o.Number)
	assert.Equal(t, "alice", o.UserID)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("999.99")))
	assert.True(t, o.Discount.IsZero())
	assert.Empty(t, o.CouponCode)
	assert.False(t, o.CouponApplied())
	assert.Equal(t, order.PaymentPaid, o.PaymentStatus)
	require.Len(t, o.Lines, 1)

	assert.Equal(t, 4, e.stock(t, "laptop"))
	assert.Equal(t, map[string]int{"laptop": 4}, res.Stock)

	_, err = e.carts.FindByUserID(ctx, "alice")
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestCheckout_WithCoupon(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, testItem("book", "50.00", 10))
	generated := e.coupons.Generate(ctx, 5)
	e.add(t, "alice", "book", 2)

	res, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice", CouponCode: generated.Code})
	require.NoError(t, err)

	assert.True(t, res.Order.Discount.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, res.Order.Total.Equal(decimal.RequireFromString("90.00")))
	assert.Equal(t, generated.Code, res.Order.CouponCode)
	assert.True(t, res.Order.CouponApplied())

	active, ok := e.coupons.Active(ctx)
	require.True(t, ok)
	assert.True(t, active.Used)
}

func TestCheckout_BlankCouponMeansNone(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, testItem("book", "50.00", 10))
	e.add(t, "alice", "book", 1)

	res, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice", CouponCode: "   "})
	require.NoError(t, err)
	assert.Empty(t, res.Order.CouponCode)
	assert.True(t, res.Order.Total.Equal(decimal.RequireFromString("50.00")))
}

func TestCheckout_CouponRejected(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(ctx context.Context, e *env) string
		result coupon.ValidationResult
	}{
		{
			name:   "no active coupon",
			setup:  func(context.Context, *env) string { return "SAVE10-005" },
			result: coupon.NoActiveCoupon,
		},
		{
			name: "invalid code",
			setup: func(ctx context.Context, e *env) string {
				e.coupons.Generate(ctx, 5)
				return "SAVE10-999"
			},
			result: coupon.InvalidCode,
		},
		{
			name: "already used",
			setup: func(ctx context.Context, e *env) string {
				c := e.coupons.Generate(ctx, 5)
				e.coupons.ValidateAndUse(ctx, c.Code)
				return c.Code
			},
			result: coupon.AlreadyUsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			e := newEnv(t, testItem("book", "50.00", 10))
			code := tt.setup(ctx, e)
			e.add(t, "alice", "book", 3)

			_, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice", CouponCode: code})

			var couponErr *coupon.Error
			require.ErrorAs(t, err, &couponErr)
			assert.Equal(t, tt.result, couponErr.Result)
			assert.Equal(t, code, couponErr.Code)

			c, err := e.carts.FindByUserID(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, 3, c.Quantity())
			assert.Equal(t, 0, e.orders.Count(ctx))
			assert.Equal(t, 10, e.stock(t, "book"))
		})
	}
}

func TestCheckout_ValidationErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("blank user", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: " "})
		var invalid *domain.InvalidArgumentError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("no cart", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice"})
		require.ErrorIs(t, err, cart.ErrNotFound)
	})

	t.Run("empty cart", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.carts.GetOrCreate(ctx, "alice")
		require.NoError(t, err)

		_, err = e.svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice"})
		require.ErrorIs(t, err, order.ErrEmptyCart)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		e := newEnv(t, testItem("laptop", "999.99", 2))
		e.add(t, "alice", "laptop", 3)

		_, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice"})
		var ise *item.InsufficientStockError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, 3, ise.Requested)
		assert.Equal(t, 2, ise.Available)
		assert.Equal(t, 2, e.stock(t, "laptop"))
	})

	t.Run("item left the catalog", func(t *testing.T) {
		e := newEnv(t, testItem("laptop", "999.99", 2))
		require.NoError(t, e.carts.Save(ctx, cart.Cart{
			UserID: "alice",
			Lines:  []cart.Line{{ItemID: "ghost", Name: "Ghost", Price: decimal.NewFromInt(1), Quantity: 1}},
		}))

		_, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice"})
		var unavailable *order.ItemUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, "ghost", unavailable.ItemID)
	})
}

func TestCheckout_SaveFailureReleasesStock(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	e := newEnvWithOrders(t, &failingOrders{err: boom}, testItem("laptop", "999.99", 2))
	e.add(t, "alice", "laptop", 2)

	_, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice"})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 2, e.stock(t, "laptop"))
	_, err = e.carts.FindByUserID(ctx, "alice")
	require.NoError(t, err)
}

func TestCheckout_NthOrderGeneratesCoupon(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, testItem("book", "10.00", 100))

	for i := 1; i <= 15; i++ {
		e.add(t, "alice", "book", 1)
		res, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice"})
		require.NoError(t, err)
		require.Equal(t, i, res.Order.Number)

		active, ok := e.coupons.Active(ctx)
		switch {
		case i < 5:
			assert.False(t, ok, "order %d", i)
		case i < 10:
			assert.Equal(t, "SAVE10-005", active.Code, "order %d", i)
		case i < 15:
			assert.Equal(t, "SAVE10-010", active.Code, "order %d", i)
		default:
			assert.Equal(t, "SAVE10-015", active.Code, "order %d", i)
		}
	}
	assert.Equal(t, []string{"SAVE10-005", "SAVE10-010", "SAVE10-015"}, e.coupons.Generated(ctx))
}

func TestCheckout_OrderIsSnapshot(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, testItem("book", "10.00", 100))
	e.add(t, "alice", "book", 2)

	res, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice"})
	require.NoError(t, err)

	// Refill the cart and change the catalog price: the stored order must not move.
	e.add(t, "alice", "book", 7)
	_, err = e.items.Save(ctx, testItem("book", "99.00", 100))
	require.NoError(t, err)

	history, err := e.svc.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.Order.ID, history[0].ID)
	assert.Equal(t, 2, history[0].Lines[0].Quantity)
	assert.True(t, history[0].Lines[0].Price.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, history[0].Total.Equal(decimal.RequireFromString("20.00")))
}

func TestCheckout_ConcurrentLastUnit(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, testItem("watch", "299.99", 1))
	e.add(t, "alice", "watch", 1)
	e.add(t, "bob", "watch", 1)

	var ok, short atomic.Int64
	var g errgroup.Group
	for _, user := range []string{"alice", "bob"} {
		g.Go(func() error {
			_, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: user})
			var ise *item.InsufficientStockError
			switch {
			case err == nil:
				ok.Add(1)
			case errors.As(err, &ise):
				short.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 1, short.Load())
	assert.Equal(t, 0, e.stock(t, "watch"))
	assert.Equal(t, 1, e.orders.Count(ctx))
}

func TestCheckout_ConcurrentCouponUsedOnce(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, testItem("book", "100.00", 100))
	c := e.coupons.Generate(ctx, 5)

	users := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"}
	for _, u := range users {
		e.add(t, u, "book", 1)
	}

	var discounted atomic.Int64
	var g errgroup.Group
	for _, u := range users {
		g.Go(func() error {
			res, err := e.svc.Checkout(ctx, order.CheckoutRequest{UserID: u, CouponCode: c.Code})
			var couponErr *coupon.Error
			switch {
			case err == nil:
				if res.Order.CouponApplied() {
					discounted.Add(1)
				}
			case errors.As(err, &couponErr):
				if couponErr.Result != coupon.AlreadyUsed {
					return errors.Errorf("unexpected result %s", couponErr.Result)
				}
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, discounted.Load())
	assert.Equal(t, 1, e.orders.CountWithCoupons(ctx))
	assert.Equal(t, 99, e.stock(t, "book"))
}

func TestCheckout_Clock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	items := memory.NewItemStore(testItem("book", "1.00", 1))
	carts := memory.NewCartStore()
	svc, err := order.NewService(carts, items, memory.NewCouponStore(), memory.NewOrderStore(),
		order.Config{NthOrder: 5, DiscountPercentage: 10},
		order.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	_, err = cart.NewService(carts, items).AddItem(ctx, "alice", "book", 1)
	require.NoError(t, err)

	res, err := svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, now, res.Order.CreatedAt)
}

func TestHistory_BlankUser(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.History(context.Background(), "")
	var invalid *domain.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
}

func TestCheckout_RejectedCouponHoldsNoStock(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, testItem("a", "10.00", 1))
	e.add(t, "alice", "a", 1)
	e.add(t, "bob", "a", 1)

	var (
		bobResult *order.CheckoutResult
		bobErr    error
	)
	hooked := &hookedCoupons{CouponStore: e.coupons}
	svc := e.withCoupons(t, hooked)
	// Bob checks out while Alice's code is being looked at.
	hooked.onCheck = func() {
		bobResult, bobErr = svc.Checkout(ctx, order.CheckoutRequest{UserID: "bob"})
	}

	_, err := svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice", CouponCode: "BOGUS"})
	var couponErr *coupon.Error
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, coupon.NoActiveCoupon, couponErr.Result)

	require.NoError(t, bobErr)
	require.NotNil(t, bobResult)
	assert.Equal(t, 0, e.stock(t, "a"))
}

func TestCheckout_CouponRedeemedAfterCheckReleasesStock(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, testItem("a", "10.00", 4))
	code := e.coupons.Generate(ctx, 5).Code
	e.add(t, "alice", "a", 2)

	hooked := &hookedCoupons{CouponStore: e.coupons}
	// Another buyer redeems the code after Alice's check passed.
	hooked.onUse = func() {
		require.Equal(t, coupon.Valid, e.coupons.ValidateAndUse(ctx, code))
	}
	svc := e.withCoupons(t, hooked)

	_, err := svc.Checkout(ctx, order.CheckoutRequest{UserID: "alice", CouponCode: code})
	var couponErr *coupon.Error
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, coupon.AlreadyUsed, couponErr.Result)

	assert.Equal(t, 4, e.stock(t, "a"))
	assert.Zero(t, e.orders.Count(ctx))
	c, err := e.carts.FindByUserID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Lines[0].Quantity)
}
