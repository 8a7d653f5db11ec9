package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ellistech/leadgate/internal/lead_service/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries what NewRouter wires together.
type RouterConfig struct {
	Forms          *FormHandler
	Admin          *AdminHandler
	AdminJWTSecret string
	// RequestTimeout bounds each request; it must exceed the delivery timeout.
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter builds the lead API routes.
func NewRouter(cfg RouterConfig) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))
	r.Use(PrometheusMetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	cfg.Forms.RegisterRoutes(r)

	if cfg.Admin != nil {
		r.Route("/admin", func(ar chi.Router) {
			ar.Use(middleware.AdminAuth(cfg.AdminJWTSecret, logger))
			cfg.Admin.RegisterRoutes(ar)
		})
	}
	return r
}
