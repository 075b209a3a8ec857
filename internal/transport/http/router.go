// Package httptransport assembles the service's HTTP surface: platform
// middleware, health and metrics endpoints, and the module handlers.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bookinghandler "fleetbook/internal/booking/handler"
	identityhandler "fleetbook/internal/identity/handler"
	"fleetbook/internal/platform/metrics"
	"fleetbook/internal/platform/middleware"
)

// Deps carries everything the router mounts.
type Deps struct {
	Booking  *bookinghandler.Handler
	Identity *identityhandler.Handler
	JWT      middleware.JWTValidator
	Logger   *slog.Logger
	Metrics  *metrics.Metrics

	// RequestTimeout bounds each request; zero disables the limit.
	RequestTimeout time.Duration
}

// NewRouter wires all endpoints. Public routes carry the full platform
// middleware chain; the confirm and delegation endpoints additionally
// require a service token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Observe(deps.Metrics))
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	deps.Booking.Register(r)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(deps.JWT, deps.Logger))
		deps.Booking.RegisterProtected(protected)
		deps.Identity.Register(protected)
	})

	return r
}
