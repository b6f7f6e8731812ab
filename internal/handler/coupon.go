package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// ActiveCoupon returns the current coupon or 404 when none was generated yet.
func (h *Handler) ActiveCoupon(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin.ActiveCoupon(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, kindNotFound, "no active coupon available")
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCoupon(e, c) })
}

// AdminActiveCoupon returns the current coupon, or null when there is none.
func (h *Handler) AdminActiveCoupon(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin.ActiveCoupon(r.Context())
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		if !ok {
			e.Null()
			return
		}
		encodeCoupon(e, c)
	})
}

// ListCoupons returns every generated coupon code.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	codes := h.admin.Coupons(r.Context())
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("coupons")
		e.ArrStart()
		for _, c := range codes {
			e.Str(c)
		}
		e.ArrEnd()
		e.FieldStart("totalGenerated")
		e.Int(len(codes))
		e.ObjEnd()
	})
}

// GenerateCoupon replaces the active coupon with a new one.
func (h *Handler) GenerateCoupon(w http.ResponseWriter, r *http.Request) {
	c := h.admin.GenerateCoupon(r.Context())
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCoupon(e, c) })
}

// Stats returns the store statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.admin.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeStats(e, st) })
}
