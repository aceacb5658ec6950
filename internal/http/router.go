// Package http exposes the storefront cart, catalog and checkout over a JSON API.
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
	Products       *ProductHandler
	Cart           *CartHandler
	Checkout       *CheckoutHandler
	Waitlist       *WaitlistHandler
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.Products.List)
			r.Get("/{id}", cfg.Products.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cfg.Cart.GetCart)
				r.Delete("/", cfg.Cart.ClearCart)
				r.Post("/items", cfg.Cart.AddItem)
				r.Put("/items", cfg.Cart.UpdateQuantity)
				r.Delete("/items", cfg.Cart.RemoveItem)
				r.Post("/promo", cfg.Cart.ApplyPromo)
				r.Delete("/promo", cfg.Cart.RemovePromo)
			})

			r.Post("/checkout", cfg.Checkout.PlaceOrder)
			r.Get("/orders/{id}", cfg.Checkout.GetOrder)
		})

		r.Get("/checkout/options", cfg.Checkout.Options)
		r.Post("/waitlist", cfg.Waitlist.Join)
	})

	return otelhttp.NewHandler(r, "storefront")
}
