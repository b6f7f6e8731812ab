package handler

import (
	"github.com/go-faster/jx"

	"github.com/xenking/ecommerce-store/internal/domain/admin"
	"github.com/xenking/ecommerce-store/internal/domain/cart"
	"github.com/xenking/ecommerce-store/internal/domain/coupon"
	"github.com/xenking/ecommerce-store/internal/domain/item"
	"github.com/xenking/ecommerce-store/internal/domain/order"
)

func encodeItem(e *jx.Encoder, it item.Item) {
	e.ObjStart()
	e.FieldStart("itemId")
	e.Str(it.ID)
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("price")
	encodeMoney(e, it.Price)
	e.FieldStart("stock")
	e.Int(it.Stock)
	e.FieldStart("outOfStock")
	e.Bool(it.OutOfStock())
	e.ObjEnd()
}

// encodeLine writes a cart or order line. stock < 0 omits currentStock.
func encodeLine(e *jx.Encoder, l cart.Line, stock int) {
	e.ObjStart()
	e.FieldStart("itemId")
	e.Str(l.ItemID)
	e.FieldStart("itemName")
	e.Str(l.Name)
	e.FieldStart("itemPrice")
	encodeMoney(e, l.Price)
	e.FieldStart("quantity")
	e.Int(l.Quantity)
	e.FieldStart("subtotal")
	encodeMoney(e, l.Subtotal())
	if stock >= 0 {
		e.FieldStart("currentStock")
		e.Int(stock)
	}
	e.ObjEnd()
}

func encodeCart(e *jx.Encoder, c cart.Cart) {
	e.ObjStart()
	e.FieldStart("userId")
	e.Str(c.UserID)
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range c.Lines {
		encodeLine(e, l, -1)
	}
	e.ArrEnd()
	e.FieldStart("totalItems")
	e.Int(c.Quantity())
	e.FieldStart("totalAmount")
	encodeMoney(e, c.Total)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o order.Order, stock map[string]int) {
	e.ObjStart()
	e.FieldStart("orderId")
	e.Str(o.ID)
	e.FieldStart("orderNumber")
	e.Int(o.Number)
	e.FieldStart("userId")
	e.Str(o.UserID)
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range o.Lines {
		encodeLine(e, l, stock[l.ItemID])
	}
	e.ArrEnd()
	e.FieldStart("totalAmount")
	encodeMoney(e, o.Total)
	e.FieldStart("discountAmount")
	encodeMoney(e, o.Discount)
	e.FieldStart("couponCode")
	encodeOptStr(e, o.CouponCode)
	e.FieldStart("paymentStatus")
	e.Str(string(o.PaymentStatus))
	e.FieldStart("createdAt")
	encodeTime(e, o.CreatedAt)
	e.ObjEnd()
}

func encodeCoupon(e *jx.Encoder, c coupon.Coupon) {
	e.ObjStart()
	e.FieldStart("code")
	e.Str(c.Code)
	e.FieldStart("isUsed")
	e.Bool(c.Used)
	e.FieldStart("generatedAtOrderNumber")
	e.Int(c.GeneratedAtOrder)
	e.FieldStart("createdAt")
	encodeTime(e, c.CreatedAt)
	e.ObjEnd()
}

func encodeStats(e *jx.Encoder, st admin.Stats) {
	e.ObjStart()
	e.FieldStart("totalItemsPurchased")
	e.Int(st.TotalItemsPurchased)
	e.FieldStart("totalPurchaseAmount")
	encodeMoney(e, st.TotalPurchaseAmount)
	e.FieldStart("totalDiscountAmount")
	encodeMoney(e, st.TotalDiscountAmount)
	e.FieldStart("totalOrders")
	e.Int(st.TotalOrders)
	e.FieldStart("ordersWithCoupons")
	e.Int(st.OrdersWithCoupons)
	e.FieldStart("totalCouponsGenerated")
	e.Int(st.CouponsGenerated)
	e.FieldStart("activeCoupon")
	encodeOptStr(e, st.ActiveCoupon)
	e.ObjEnd()
}
