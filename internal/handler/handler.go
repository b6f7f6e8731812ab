// Package handler exposes the store over HTTP. Routing is done with chi,
// request and response bodies are encoded with jx.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/ecommerce-store/internal/domain/admin"
	"github.com/xenking/ecommerce-store/internal/domain/cart"
	"github.com/xenking/ecommerce-store/internal/domain/item"
	"github.com/xenking/ecommerce-store/internal/domain/order"
)

// Services bundles the domain services served by the Handler.
type Services struct {
	Items  *item.Service
	Carts  *cart.Service
	Orders *order.Service
	Admin  *admin.Service
}

// Handler serves the REST API, delegating business logic to the domain
// services.
type Handler struct {
	items    *item.Service
	carts    *cart.Service
	orders   *order.Service
	admin    *admin.Service
	validate *validator.Validate
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(s Services) *Handler {
	return &Handler{
		items:    s.Items,
		carts:    s.Carts,
		orders:   s.Orders,
		admin:    s.Admin,
		validate: newValidator(),
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/items", h.ListItems)
		r.Get("/items/{itemId}", h.GetItem)

		r.Route("/cart/{userId}", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddToCart)
			r.Put("/items/{itemId}", h.UpdateCartItem)
			r.Delete("/items/{itemId}", h.RemoveFromCart)
		})

		r.Post("/orders/checkout", h.Checkout)
		r.Get("/orders/{userId}", h.OrderHistory)

		r.Get("/coupons/active", h.ActiveCoupon)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/items", h.CreateItem)
			r.Put("/items/{itemId}", h.UpdateItem)
			r.Get("/stats", h.Stats)
			r.Get("/coupons", h.ListCoupons)
			r.Get("/coupons/active", h.AdminActiveCoupon)
			r.Post("/coupons/generate", h.GenerateCoupon)
		})
	})
}

// Routes returns a router serving the API. Callers may mount more routes on
// it, such as the health endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, kindNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	h.Register(r)
	return r
}
