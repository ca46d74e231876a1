package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"market/internal/auth/models"
	usersvc "market/internal/users/service"
	id "market/pkg/domain"
	"market/pkg/platform/httputil"
	authmw "market/pkg/platform/middleware/auth"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	List(ctx context.Context, actor *models.Account, offset, limit int) (*usersvc.ListResult, error)
	Get(ctx context.Context, actor *models.Account, targetID id.AccountID) (*models.Account, error)
	Update(ctx context.Context, actor *models.Account, targetID id.AccountID, req *models.UpdateAccountRequest) (*models.Account, error)
	AuthorizeUpdate(ctx context.Context, actor *models.Account, targetID id.AccountID) error
	Delete(ctx context.Context, actor *models.Account, targetID id.AccountID) error
}

type Handler struct {
	users    Service
	logger   *slog.Logger
	recorder authmw.DecisionRecorder
}

func New(users Service, logger *slog.Logger, recorder authmw.DecisionRecorder) *Handler {
	return &Handler{users: users, logger: logger, recorder: recorder}
}

// Register mounts the account routes. The caller is responsible for placing
// them behind authentication; adminOnly guards listing and deletion.
func (h *Handler) Register(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.With(adminOnly).Get("/", h.HandleList)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Patch("/{id}", h.HandleUpdate)
	r.With(adminOnly).Delete("/{id}", h.HandleDelete)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, _ := authmw.AccountFromContext(r.Context())
	page := httputil.ParsePage(r, defaultPageSize, maxPageSize)

	res, err := h.users.List(r.Context(), actor, page.Offset(), page.Limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views := make([]models.AccountView, 0, len(res.Accounts))
	for _, a := range res.Accounts {
		views = append(views, models.ToView(a))
	}
	httputil.WriteJSON(w, http.StatusOK, models.AccountListResponse{
		Success:    true,
		Count:      len(views),
		Total:      res.Total,
		Page:       page.Number,
		TotalPages: page.TotalPages(res.Total),
		Users:      views,
	})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	targetID, err := id.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := authmw.AccountFromContext(r.Context())
	account, err := h.users.Get(r.Context(), actor, targetID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.AccountResponse{Success: true, User: models.ToView(account)})
}

// HandleUpdate serves both PUT and PATCH; either way only the fields present
// in the body are changed.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	targetID, err := id.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := authmw.AccountFromContext(r.Context())
	var req models.UpdateAccountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		if authErr := h.users.AuthorizeUpdate(r.Context(), actor, targetID); authErr != nil {
			h.fail(w, r, authErr)
			return
		}
		httputil.WriteError(w, err)
		return
	}
	account, err := h.users.Update(r.Context(), actor, targetID, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.AccountResponse{Success: true, User: models.ToView(account)})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	targetID, err := id.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := authmw.AccountFromContext(r.Context())
	if err := h.users.Delete(r.Context(), actor, targetID); err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "User deleted"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	authmw.RespondError(w, r, h.logger, h.recorder, err)
}
