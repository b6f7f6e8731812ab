package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/ecommerce-store/internal/domain/cart"
	"github.com/xenking/ecommerce-store/internal/domain/order"
)

func newTestOrder(userID, total, discount, code string, qty int) *order.Order {
	return &order.Order{
		UserID: userID,
		Lines: []cart.Line{{
			ItemID:   "laptop",
			Name:     "Laptop",
			Price:    decimal.RequireFromString(total),
			Quantity: qty,
		}},
		Total:         decimal.RequireFromString(total).Sub(decimal.RequireFromString(discount)),
		Discount:      decimal.RequireFromString(discount),
		CouponCode:    code,
		PaymentStatus: order.PaymentPaid,
	}
}

func TestOrderStore_Save(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()

	o := newTestOrder("alice", "10", "0", "", 1)
	seq, err := s.Save(ctx, o)
	require.NoError(t, err)

	assert.Equal(t, 1, seq)
	assert.Equal(t, 1, o.Number)
	assert.NotEmpty(t, o.ID)
	assert.False(t, o.CreatedAt.IsZero())

	got, err := s.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, *o, got)

	_, err = s.FindByID(ctx, "missing")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrderStore_SaveDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()

	first := newTestOrder("alice", "10", "0", "", 1)
	_, err := s.Save(ctx, first)
	require.NoError(t, err)

	dup := newTestOrder("bob", "20", "0", "", 2)
	dup.ID = first.ID
	_, err = s.Save(ctx, dup)
	require.ErrorIs(t, err, order.ErrAlreadyExists)
	assert.Zero(t, dup.Number)
	assert.True(t, dup.CreatedAt.IsZero())

	next := newTestOrder("carol", "5", "0", "", 1)
	seq, err := s.Save(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, 2, seq, "a rejected save does not consume a number")

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for i, o := range all {
		assert.Equal(t, i+1, o.Number)
	}

	got, err := s.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
}

func TestOrderStore_StoresCopy(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()

	o := newTestOrder("alice", "10", "0", "", 1)
	_, err := s.Save(ctx, o)
	require.NoError(t, err)
	o.Lines[0].Quantity = 42

	got, err := s.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Lines[0].Quantity)
}

func TestOrderStore_FindByUserIDNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, user := range []string{"alice", "bob", "alice", "alice"} {
		o := newTestOrder(user, "10", "0", "", 1)
		o.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_, err := s.Save(ctx, o)
		require.NoError(t, err)
	}

	orders, err := s.FindByUserID(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []int{4, 3, 1}, []int{orders[0].Number, orders[1].Number, orders[2].Number})

	orders, err = s.FindByUserID(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderStore_Folds(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()

	for _, o := range []*order.Order{
		newTestOrder("alice", "100.00", "10.00", "SAVE10-005", 2),
		newTestOrder("bob", "999.99", "0", "", 1),
		newTestOrder("carol", "50.00", "5.00", "SAVE10-010", 3),
	} {
		_, err := s.Save(ctx, o)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, s.Count(ctx))
	assert.Equal(t, 6, s.TotalItemsPurchased(ctx))
	assert.True(t, s.TotalPurchaseAmount(ctx).Equal(decimal.RequireFromString("1134.99")), s.TotalPurchaseAmount(ctx).String())
	assert.True(t, s.TotalDiscountAmount(ctx).Equal(decimal.RequireFromString("15.00")))
	assert.Equal(t, 2, s.CountWithCoupons(ctx))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alice", all[0].UserID)
}

func TestOrderStore_CounterIsGapFree(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()

	const n = 200
	seqs := make([]int, n)
	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			seq, err := s.Save(ctx, newTestOrder("alice", "1", "0", "", 1))
			seqs[i] = seq
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[int]bool, n)
	for _, seq := range seqs {
		assert.False(t, seen[seq], "duplicate sequence %d", seq)
		seen[seq] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[i], "missing sequence %d", i)
	}
	assert.Equal(t, n, s.Count(ctx))
}
