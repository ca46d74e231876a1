// Package auth is the authentication stage of the request pipeline. It
// resolves the bearer credential and attaches the account for later stages.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"market/internal/auth/denial"
	"market/internal/auth/models"
	dErrors "market/pkg/domain-errors"
	"market/pkg/platform/httputil"
)

// IdentityResolver maps an Authorization header to an active account.
type IdentityResolver interface {
	Resolve(ctx context.Context, authorization string) (*models.Account, error)
}

// DecisionRecorder counts outcomes. Nil disables recording.
type DecisionRecorder interface {
	ObserveDecision(kind string)
	ObserveResolve(seconds float64)
}

type contextKeyAccount struct{}

// AccountFromContext returns the authenticated account, if any.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	a, ok := ctx.Value(contextKeyAccount{}).(*models.Account)
	return a, ok && a != nil
}

// WithAccount attaches an account. Only RequireAuth and tests call this.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, contextKeyAccount{}, account)
}

// RequireAuth rejects the request unless the Authorization header resolves
// to an active account. Nothing is attached on failure.
func RequireAuth(resolver IdentityResolver, logger *slog.Logger, recorder DecisionRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			account, err := resolver.Resolve(ctx, r.Header.Get("Authorization"))
			if recorder != nil {
				recorder.ObserveResolve(time.Since(start).Seconds())
			}
			if err != nil {
				RespondError(w, r, logger, recorder, err)
				return
			}
			if recorder != nil {
				recorder.ObserveDecision("allowed")
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(ctx, account)))
		})
	}
}

// RespondError logs a failed decision and writes its external form. Coded
// client errors pass through quietly; anything else is an internal fault.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, recorder DecisionRecorder, err error) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	kind, isDenial := denial.KindOf(err)
	switch {
	case isDenial && kind == denial.CredentialComputationFailure:
		logger.ErrorContext(ctx, "credential computation failure",
			"error", err,
			"request_id", requestID,
		)
	case isDenial:
		logger.WarnContext(ctx, "request denied",
			"kind", string(kind),
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
		)
	case isClientError(err):
		// validation and not-found style errors are not auth events
	default:
		logger.ErrorContext(ctx, "request failed",
			"error", err,
			"request_id", requestID,
			"path", r.URL.Path,
		)
		if recorder != nil {
			recorder.ObserveDecision("error")
		}
	}
	if isDenial && recorder != nil {
		recorder.ObserveDecision(string(kind))
	}
	httputil.WriteError(w, err)
}

func isClientError(err error) bool {
	code, ok := dErrors.CodeOf(err)
	return ok && dErrors.ToHTTPStatus(code) < http.StatusInternalServerError
}
