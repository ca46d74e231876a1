// Package httptransport assembles the HTTP surface: global middleware, the
// public and authenticated route groups, health and metrics.
package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"market/internal/access"
	authhandler "market/internal/auth/handler"
	"market/internal/auth/models"
	itemshandler "market/internal/items/handler"
	"market/internal/platform/metrics"
	ratelimit "market/internal/ratelimit/middleware"
	usershandler "market/internal/users/handler"
	dErrors "market/pkg/domain-errors"
	"market/pkg/platform/httputil"
	authmw "market/pkg/platform/middleware/auth"
	"market/pkg/platform/middleware/metadata"
	"market/pkg/platform/middleware/requesttime"
)

// Config carries everything the router needs. Metrics and Gatherer may be nil.
type Config struct {
	Logger      *slog.Logger
	Environment string
	ClientURLs  []string
	BodyLimit   int64
	StartedAt   time.Time
	// TrustedProxies gate X-Forwarded-For; empty keys clients by socket address.
	TrustedProxies []netip.Prefix

	Resolver  authmw.IdentityResolver
	RateLimit *ratelimit.Middleware
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer

	Auth  *authhandler.Handler
	Users *usershandler.Handler
	Items *itemshandler.Handler
}

type healthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	Uptime      float64   `json:"uptime"`
}

func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	// request id first so the access line and any recovered panic carry it
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(metadata.TrustedProxies(cfg.TrustedProxies))
	r.Use(requesttime.Middleware)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.ClientURLs,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.BodyLimit > 0 {
		r.Use(limitBody(cfg.BodyLimit))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, &healthResponse{
			Status:      "OK",
			Timestamp:   time.Now().UTC(),
			Environment: cfg.Environment,
			Uptime:      time.Since(cfg.StartedAt).Seconds(),
		})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	var recorder authmw.DecisionRecorder
	if cfg.Metrics != nil {
		recorder = cfg.Metrics
	}
	requireAuth := authmw.RequireAuth(cfg.Resolver, cfg.Logger, recorder)
	adminOnly := access.NewMiddleware(cfg.Logger, recorder).RequireRoles(models.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit.Limit("api"))
		}

		// public
		r.Post("/auth/register", cfg.Auth.HandleRegister)
		r.Post("/auth/login", cfg.Auth.HandleLogin)
		r.Get("/items", cfg.Items.HandleList)
		r.Get("/items/{id}", cfg.Items.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/auth/me", cfg.Auth.HandleMe)
			r.Post("/auth/logout", cfg.Auth.HandleLogout)
			r.Put("/auth/password", cfg.Auth.HandleChangePassword)

			r.Post("/items", cfg.Items.HandleCreate)
			r.Put("/items/{id}", cfg.Items.HandleUpdate)
			r.Patch("/items/{id}", cfg.Items.HandleUpdate)
			r.Delete("/items/{id}", cfg.Items.HandleDelete)

			r.Route("/users", func(r chi.Router) {
				cfg.Users.Register(r, adminOnly)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Route "+r.URL.Path+" not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"error":             "method_not_allowed",
			"error_description": r.Method + " is not supported on " + r.URL.Path,
		})
	})

	return r
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// limitBody caps request bodies; oversized JSON fails to decode as payload_too_large.
func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
