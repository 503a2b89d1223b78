package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/FACorreiaa/utility-bill-sync/pkg/httpx"
)

// NewRouter mounts every route. Middleware order: request id, recoverer,
// request logging, CORS, rate limit.
func NewRouter(d *Dependencies) http.Handler {
	cfg := d.Config.Server

	r := chi.NewRouter()
	r.Use(
		httpx.RequestID,
		httpx.Recoverer(d.Logger),
		httpx.Logger(d.Logger, d.Metrics),
		cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"*"},
			ExposedHeaders: []string{httpx.RequestIDHeader},
		}).Handler,
		httpx.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
	)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Config.Metrics.Enabled && d.Registry != nil {
		r.Method(http.MethodGet, d.Config.Metrics.Path, promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/electric-bills", func(r chi.Router) {
		d.ElectricImports.Routes(r)
		d.ElectricBills.Routes(r)
	})
	r.Route("/water-bills", func(r chi.Router) {
		d.WaterImports.Routes(r)
		d.WaterBills.Routes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}
