package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxRequestBodySize = 1 << 20 // 1MB

// NewRouter mounts the checkout and order routes.
func NewRouter(checkout *CheckoutHandler, orders *OrdersHandler, timeout time.Duration, log *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.RequestSize(maxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(UserMiddleware)

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/summary", checkout.GetSummary)
				r.Post("/", checkout.Checkout)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orders.ListOrders)
				r.Get("/{order_id}", orders.GetOrder)
				r.Post("/{order_id}/cancel", orders.CancelOrder)
			})
		})

		r.Route("/admin/orders", func(r chi.Router) {
			r.Patch("/{order_id}/status", orders.UpdateStatus)
			r.Post("/bulk-status", orders.BulkUpdateStatus)
		})
	})

	return r
}
