package handler

import (
	"context"
	"log/slog"
	"net/http"

	"market/internal/auth/models"
	"market/pkg/platform/httputil"
	authmw "market/pkg/platform/middleware/auth"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
	ChangePassword(ctx context.Context, actor *models.Account, req *models.ChangePasswordRequest) (*models.AuthResult, error)
}

// Handler is the thin HTTP layer over the auth service.
type Handler struct {
	auth     Service
	logger   *slog.Logger
	recorder authmw.DecisionRecorder
}

func New(auth Service, logger *slog.Logger, recorder authmw.DecisionRecorder) *Handler {
	return &Handler{auth: auth, logger: logger, recorder: recorder}
}

// HandleRegister creates an account. Public.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		authmw.RespondError(w, r, h.logger, h.recorder, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAuthResponse(res))
}

// HandleLogin exchanges credentials for a token. Public.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		authmw.RespondError(w, r, h.logger, h.recorder, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuthResponse(res))
}

// HandleMe returns the authenticated account.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := authmw.AccountFromContext(r.Context())
	if !ok {
		h.missingIdentity(w, r)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.AccountResponse{Success: true, User: models.ToView(actor)})
}

// HandleLogout acknowledges a logout. Tokens are stateless, so the client
// discards its copy; the token stays valid until it expires.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Logged out successfully"})
}

func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := authmw.AccountFromContext(r.Context())
	if !ok {
		h.missingIdentity(w, r)
		return
	}
	var req models.ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.auth.ChangePassword(r.Context(), actor, &req)
	if err != nil {
		authmw.RespondError(w, r, h.logger, h.recorder, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuthResponse(res))
}

func (h *Handler) missingIdentity(w http.ResponseWriter, r *http.Request) {
	h.logger.ErrorContext(r.Context(), "protected handler reached without identity", "path", r.URL.Path)
	authmw.RespondError(w, r, h.logger, h.recorder, errNoIdentity)
}

func toAuthResponse(res *models.AuthResult) models.AuthResponse {
	return models.AuthResponse{
		Success:   true,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      models.ToView(res.Account),
	}
}
