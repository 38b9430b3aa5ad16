// Package httptransport assembles the service router from the domain handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"enroll/internal/platform/metrics"
	"enroll/internal/platform/middleware"
	"enroll/pkg/platform/httputil"
	"enroll/pkg/platform/middleware/metadata"
	"enroll/pkg/platform/middleware/requesttime"
)

// Routes is implemented by each domain handler.
type Routes interface {
	Register(r chi.Router)
	RegisterAdmin(r chi.Router)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	AdminTokens    *middleware.AdminTokens
	CORSOrigins    []string
	RequestTimeout time.Duration
	// MetricsHandler serves /metrics; defaults to the global Prometheus registry.
	MetricsHandler http.Handler
	Health         map[string]HealthCheck
	// RateLimit wraps every API route except gateway webhooks.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter mounts public routes for every handler and, behind admin bearer
// auth, their admin routes. Without AdminTokens the admin routes answer 401.
func NewRouter(opts Options, handlers ...Routes) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.Logger(opts.Logger))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", healthHandler(opts.Health))
	r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Use(exceptPrefix(webhookPrefix, middleware.ContentTypeJSON))
		r.Use(middleware.LatencyMiddleware(opts.Metrics))
		if opts.RateLimit != nil {
			r.Use(exceptPrefix(webhookPrefix, opts.RateLimit))
		}
		for _, h := range handlers {
			h.Register(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(opts.AdminTokens, opts.Logger))
			for _, h := range handlers {
				h.RegisterAdmin(r)
			}
		})
	})
	return r
}

// Gateway notifications must be acknowledged whatever their content type.
const webhookPrefix = "/webhooks/"

func exceptPrefix(prefix string, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
