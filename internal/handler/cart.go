package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/ecommerce-store/internal/domain/cart"
)

// GetCart returns the user's cart, creating an empty one on first access.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), chi.URLParam(r, "userId"))
	h.respondCart(w, r, c, err)
}

// ClearCart deletes the user's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), chi.URLParam(r, "userId")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddToCart adds an item to the user's cart.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := h.decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	c, err := h.carts.AddItem(r.Context(), chi.URLParam(r, "userId"), req.ItemID, req.Quantity)
	h.respondCart(w, r, c, err)
}

// UpdateCartItem sets the quantity of a line in the user's cart.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := h.decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(),
		chi.URLParam(r, "userId"),
		chi.URLParam(r, "itemId"),
		req.Quantity,
	)
	h.respondCart(w, r, c, err)
}

// RemoveFromCart drops a line from the user's cart.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveItem(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "itemId"))
	h.respondCart(w, r, c, err)
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, c cart.Cart, err error) {
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, c) })
}
