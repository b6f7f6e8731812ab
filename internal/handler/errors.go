package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/ecommerce-store/internal/domain"
	"github.com/xenking/ecommerce-store/internal/domain/cart"
	"github.com/xenking/ecommerce-store/internal/domain/coupon"
	"github.com/xenking/ecommerce-store/internal/domain/item"
	"github.com/xenking/ecommerce-store/internal/domain/order"
)

// Error kinds reported in the "error" field of error responses.
const (
	kindValidation        = "VALIDATION_ERROR"
	kindInvalidJSON       = "INVALID_JSON"
	kindNotFound          = "NOT_FOUND"
	kindCartNotFound      = "CART_NOT_FOUND"
	kindEmptyCart         = "EMPTY_CART"
	kindItemUnavailable   = "ITEM_UNAVAILABLE"
	kindInsufficientStock = "INSUFFICIENT_STOCK"
	kindCouponInvalid     = "COUPON_INVALID"
	kindInternal          = "INTERNAL_ERROR"
)

// bodyError wraps failures to read or parse a request body.
type bodyError struct {
	err error
}

func (e *bodyError) Error() string { return "invalid request body: " + e.err.Error() }

func (e *bodyError) Unwrap() error { return e.err }

// respondError maps err to a status code and writes the error body. Unknown
// errors are logged and reported without their details.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		body        *bodyError
		invalid     *domain.InvalidArgumentError
		unavailable *order.ItemUnavailableError
		stock       *item.InsufficientStockError
		couponErr   *coupon.Error
	)
	switch {
	case errors.As(err, &body):
		writeError(w, http.StatusBadRequest, kindInvalidJSON, body.Error())
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, kindValidation, invalid.Error())
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, kindEmptyCart, order.ErrEmptyCart.Error())
	case errors.As(err, &couponErr):
		writeError(w, http.StatusBadRequest, kindCouponInvalid, couponErr.Reason())
	case errors.As(err, &unavailable):
		writeError(w, http.StatusUnprocessableEntity, kindItemUnavailable, unavailable.Error())
	case errors.As(err, &stock):
		writeError(w, http.StatusConflict, kindInsufficientStock, stock.Error())
	case errors.Is(err, cart.ErrNotFound):
		writeError(w, http.StatusNotFound, kindCartNotFound, cartNotFoundMessage(err))
	case errors.Is(err, item.ErrNotFound):
		writeError(w, http.StatusNotFound, kindNotFound, itemNotFoundMessage(err))
	case errors.Is(err, cart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, kindNotFound, "Item not found in cart")
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		writeError(w, http.StatusInternalServerError, kindInternal, "internal server error")
	}
}

func cartNotFoundMessage(err error) string {
	var nf *cart.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return cart.ErrNotFound.Error()
}

func itemNotFoundMessage(err error) string {
	var nf *item.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return item.ErrNotFound.Error()
}

// writeError writes {"code": status, "error": kind, "message": msg}.
func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("error")
		e.Str(kind)
		e.FieldStart("message")
		e.Str(msg)
		e.ObjEnd()
	})
}
