// Package middleware applies per-client rate limits ahead of the auth
// pipeline.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"market/internal/ratelimit/models"
	dErrors "market/pkg/domain-errors"
	"market/pkg/platform/circuit"
	"market/pkg/platform/httputil"
	"market/pkg/requestcontext"
)

// Store admits or rejects one request for key.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

// Recorder receives rejection counts and degraded-mode transitions. Nil disables it.
type Recorder interface {
	IncrementRateLimited(route string)
	SetRateLimitDegraded(degraded bool)
}

type Middleware struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	limit    int
	window   time.Duration
	logger   *slog.Logger
	recorder Recorder
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithFallback sets a local store used while the primary keeps failing.
// Without one, failures let requests through.
func WithFallback(store Store, breaker *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.fallback = store
		m.breaker = breaker
	}
}

func WithRecorder(r Recorder) Option {
	return func(m *Middleware) {
		m.recorder = r
	}
}

func New(primary Store, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		primary: primary,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fallback != nil && m.breaker == nil {
		m.breaker = circuit.New("ratelimit")
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit rejects a client once it exceeds the configured requests per window.
// route labels the rejection metric.
func (m *Middleware) Limit(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)

			result, degraded, err := m.check(ctx, models.ClientKey(ip))
			if err != nil {
				m.logger.ErrorContext(ctx, "rate limit check failed, allowing request",
					"error", err,
					"client_ip", ip,
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}
			if !result.Allowed {
				if m.recorder != nil {
					m.recorder.IncrementRateLimited(route)
				}
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"client_ip", ip,
					"route", route,
				)
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// check consults the primary store. With a fallback configured, primary
// failures trip the breaker and the fallback answers until the primary has
// recovered for long enough.
func (m *Middleware) check(ctx context.Context, key string) (*models.Result, bool, error) {
	if m.fallback == nil {
		res, err := m.primary.Allow(ctx, key, m.limit, m.window)
		return res, false, err
	}

	res, err := m.primary.Allow(ctx, key, m.limit, m.window)
	if err != nil {
		useFallback, change := m.breaker.RecordFailure()
		if change.Opened {
			m.logger.WarnContext(ctx, "rate limit store failing, switching to in-memory fallback", "error", err)
			m.setDegraded(true)
		}
		if !useFallback {
			return nil, false, err
		}
		fb, fbErr := m.fallback.Allow(ctx, key, m.limit, m.window)
		return fb, true, fbErr
	}

	usePrimary, change := m.breaker.RecordSuccess()
	if change.Closed {
		m.logger.InfoContext(ctx, "rate limit store recovered")
		m.setDegraded(false)
	}
	if usePrimary {
		return res, false, nil
	}
	fb, fbErr := m.fallback.Allow(ctx, key, m.limit, m.window)
	return fb, true, fbErr
}

func (m *Middleware) setDegraded(degraded bool) {
	if m.recorder != nil {
		m.recorder.SetRateLimitDegraded(degraded)
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:            string(dErrors.CodeTooManyRequests),
		ErrorDescription: "Too many requests, please try again later.",
		RetryAfter:       result.RetryAfter,
	})
}
