package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/ecommerce-store/internal/domain/item"
)

// ListItems returns the whole catalog.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, it := range items {
			encodeItem(e, it)
		}
		e.ArrEnd()
	})
}

// GetItem returns a single catalog item.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.items.Get(r.Context(), chi.URLParam(r, "itemId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeItem(e, it) })
}

// CreateItem adds an item to the catalog.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := h.decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	it, err := h.items.Create(r.Context(), req.Name, req.Price, req.Stock)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeItem(e, it) })
}

// UpdateItem changes an item's name, price or stock.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := h.decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	it, err := h.items.Update(r.Context(), chi.URLParam(r, "itemId"), item.Update{
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeItem(e, it) })
}
