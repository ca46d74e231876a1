package access

import (
	"log/slog"
	"net/http"

	"market/internal/auth/denial"
	"market/internal/auth/models"
	authmw "market/pkg/platform/middleware/auth"
)

// Middleware runs role checks after authentication in a route group.
type Middleware struct {
	logger   *slog.Logger
	recorder authmw.DecisionRecorder
}

func NewMiddleware(logger *slog.Logger, recorder authmw.DecisionRecorder) *Middleware {
	return &Middleware{logger: logger, recorder: recorder}
}

// RequireRoles must be mounted after authmw.RequireAuth.
func (m *Middleware) RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := authmw.AccountFromContext(r.Context())
			if !ok {
				authmw.RespondError(w, r, m.logger, m.recorder, denial.New(denial.NoCredential))
				return
			}
			if err := RequireRole(actor, roles...); err != nil {
				authmw.RespondError(w, r, m.logger, m.recorder, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
