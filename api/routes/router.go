package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kestrelpay/switchboard-backend/api/controllers"
	"github.com/kestrelpay/switchboard-backend/api/middleware"
	"github.com/kestrelpay/switchboard-backend/internal/customers"
	"github.com/kestrelpay/switchboard-backend/internal/payments"
	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/pkg/config"
	"github.com/kestrelpay/switchboard-backend/pkg/db"
	"github.com/kestrelpay/switchboard-backend/pkg/logger"
)

// NewRouter assembles the API surface: health and metrics unauthenticated,
// everything under /v1 behind merchant API-key auth.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP db.Pinger,
	store storage.Store,
	paymentService *payments.Service,
	customerService *customers.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.MerchantAuth(store, logg))

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.PaymentCreate(paymentService, logg))
			r.Get("/{paymentId}", controllers.PaymentSync(paymentService, logg))
			r.Post("/{paymentId}/confirm", controllers.PaymentConfirm(paymentService, logg))
			r.Post("/{paymentId}/capture", controllers.PaymentCapture(paymentService, logg))
			r.Post("/{paymentId}/cancel", controllers.PaymentCancel(paymentService, logg))
			r.Post("/{paymentId}/reject", controllers.PaymentReject(paymentService, logg))
			r.Post("/{paymentId}/incremental_authorization", controllers.PaymentExpandAuthorization(paymentService, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.CustomerCreate(customerService, logg))
			r.Get("/", controllers.CustomerList(customerService, logg))
			r.Get("/{customerId}", controllers.CustomerRetrieve(customerService, logg))
			r.Post("/{customerId}", controllers.CustomerUpdate(customerService, logg))
			r.Delete("/{customerId}", controllers.CustomerDelete(customerService, logg))
		})
	})

	return r
}
