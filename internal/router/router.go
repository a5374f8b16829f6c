package router

import (
	"encoding/json"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Product  *handler.ProductHandler
	Order    *handler.OrderHandler
	Discount *handler.DiscountHandler
	Voucher  *handler.VoucherHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(
	h Handlers,
	tokens *auth.TokenManager,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: RequestID -> Recovery -> Logging -> CORS -> Metrics
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.Metrics(m))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "NOT_FOUND", Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{Error: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.Product.GetAll)
		r.Get("/products/{id}", h.Product.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(tokens, logger))

			r.Post("/vouchers/validate", h.Voucher.Validate)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.Order.Create)
				r.Get("/", h.Order.ListMine)
				r.Get("/{id}", h.Order.GetByID)
				r.Post("/{id}/cancel", h.Order.Cancel)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/orders", h.Order.List)
				r.Patch("/orders/{id}/status", h.Order.UpdateStatus)

				r.Route("/discounts", func(r chi.Router) {
					r.Get("/", h.Discount.List)
					r.Post("/", h.Discount.Create)
					r.Get("/{id}", h.Discount.GetByID)
					r.Put("/{id}", h.Discount.Update)
					r.Delete("/{id}", h.Discount.Delete)
				})

				r.Route("/vouchers", func(r chi.Router) {
					r.Get("/", h.Voucher.List)
					r.Post("/", h.Voucher.Create)
					r.Get("/{id}", h.Voucher.GetByID)
					r.Put("/{id}", h.Voucher.Update)
					r.Delete("/{id}", h.Voucher.Delete)
				})
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
