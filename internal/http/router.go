// Package http serves the storefront, webhook and admin endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Products   *ProductHandler
	Checkout   *CheckoutHandler
	Orders     *OrdersHandler
	Webhooks   *WebhookHandler
	Admin      *AdminHandler
	Metrics    http.Handler
	DB         Pinger
	AdminToken string
	Log        *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := cfg.DB.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", cfg.Metrics)

	r.Post("/webhooks/payments", cfg.Webhooks.Receive)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.Products.List)
			r.Get("/{product_id}", cfg.Products.Get)
		})
		r.Post("/checkout", cfg.Checkout.Checkout)
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", cfg.Orders.CustomerHistory)
			r.Get("/{order_id}", cfg.Orders.Get)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminTokenMiddleware(cfg.AdminToken))
		r.Get("/orders", cfg.Orders.List)
		r.Get("/orders/{order_id}", cfg.Orders.Get)
		r.Patch("/orders/{order_id}/status", cfg.Admin.UpdateStatus)
		r.Get("/stats", cfg.Orders.Stats)
		r.Put("/products/{product_id}/price", cfg.Admin.UpdatePrice)
		r.Post("/products/{product_id}/restock", cfg.Admin.Restock)
		r.Get("/inventory/reconcile", cfg.Admin.Reconcile)
	})

	return otelhttp.NewHandler(r, "storefront",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/metrics" && r.URL.Path != "/healthz" }))
}
