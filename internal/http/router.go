// Package http exposes the storefront JSON API.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Auth     *AuthHandler
	Sessions SessionResolver
}

func NewRouter(cfg RouterConfig, h Handlers, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(h.Sessions))

		r.Get("/products", h.Products.ListProducts)
		r.Get("/products/{product_id}", h.Products.GetProduct)
		r.Get("/categories", h.Products.ListCategories)

		r.Route("/cart", func(r chi.Router) {
			r.Use(CartOwnerMiddleware)
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", h.Cart.RemoveItem)
			r.Post("/open", h.Cart.Open)
			r.Post("/close", h.Cart.Close)
			r.Post("/import", h.Cart.Import)
		})

		r.With(CartOwnerMiddleware).Post("/checkout", h.Checkout.Submit)

		r.Get("/orders/{order_id}", h.Orders.GetOrder)
		r.With(RequireSession).Get("/orders", h.Orders.ListOrders)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/otp/send", h.Auth.SendOTP)
			r.Post("/otp/verify", h.Auth.VerifyOTP)
			r.With(RequireSession).Post("/logout", h.Auth.Logout)
		})
	})

	return otelhttp.NewHandler(r, "storefront",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}
