package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/daun-gatal/chouse-ui-sub004/internal/metrics"
	"github.com/daun-gatal/chouse-ui-sub004/internal/middleware"
)

// RouterConfig carries what the router needs beyond the handler.
type RouterConfig struct {
	Logger         *slog.Logger
	Authenticator  *middleware.Authenticator
	RateLimit      middleware.RateLimitConfig
	AllowedOrigins []string
	// Ready reports whether the service can take traffic; nil means always.
	Ready func(ctx context.Context) error
}

// NewRouter builds the HTTP router. /healthz and /metrics are public;
// everything under /v1 requires a bearer token.
func NewRouter(ctx context.Context, h *Handler, cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader, SessionHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil {
			if err := cfg.Ready(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.RateLimit.RequestsPerSecond > 0 {
			r.Use(middleware.RateLimiter(ctx, cfg.RateLimit))
		}
		r.Use(cfg.Authenticator.Middleware())
		h.Routes(r)
	})
	return r
}

// Routes mounts the authenticated endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/query", h.ExecuteQuery)

	r.Get("/queries/live", h.ListLiveQueries)
	r.Post("/queries/live/{queryID}/kill", h.KillQuery)
	r.Get("/queries/history", h.ListQueryHistory)

	r.Get("/connections", h.ListConnections)
	r.Post("/connections", h.CreateConnection)
	r.Post("/connections/{connectionID}/sessions", h.Connect)
	r.Delete("/sessions/{sessionID}", h.Disconnect)

	r.Get("/audit", h.ListAuditEvents)
}
