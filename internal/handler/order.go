package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/ecommerce-store/internal/domain/order"
)

// Checkout converts the user's cart into an order, optionally redeeming a
// coupon.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := h.decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.orders.Checkout(r.Context(), order.CheckoutRequest{
		UserID:     req.UserID,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, *res.Order, res.Stock) })
}

// OrderHistory returns the user's orders, newest first.
func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orders, err := h.orders.History(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	stocks := make([]map[string]int, len(orders))
	for i, o := range orders {
		stocks[i] = h.orders.StockOf(ctx, o.Lines)
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i, o := range orders {
			encodeOrder(e, o, stocks[i])
		}
		e.ArrEnd()
	})
}
