package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authmodels "market/internal/auth/models"
	"market/internal/items/models"
	itemsvc "market/internal/items/service"
	id "market/pkg/domain"
	dErrors "market/pkg/domain-errors"
	"market/pkg/platform/httputil"
	authmw "market/pkg/platform/middleware/auth"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	List(ctx context.Context, filter models.Filter) (*itemsvc.ListResult, error)
	Get(ctx context.Context, itemID id.ItemID) (*models.Item, error)
	Create(ctx context.Context, actor *authmodels.Account, req *models.CreateItemRequest) (*models.Item, error)
	Update(ctx context.Context, actor *authmodels.Account, itemID id.ItemID, req *models.UpdateItemRequest) (*models.Item, error)
	AuthorizeUpdate(ctx context.Context, actor *authmodels.Account, itemID id.ItemID) error
	Delete(ctx context.Context, actor *authmodels.Account, itemID id.ItemID) error
}

type Handler struct {
	items    Service
	logger   *slog.Logger
	recorder authmw.DecisionRecorder
}

func New(items Service, logger *slog.Logger, recorder authmw.DecisionRecorder) *Handler {
	return &Handler{items: items, logger: logger, recorder: recorder}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := httputil.ParsePage(r, defaultPageSize, maxPageSize)
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter.Offset = page.Offset()
	filter.Limit = page.Limit

	res, err := h.items.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views := make([]models.ItemView, 0, len(res.Items))
	for _, item := range res.Items {
		views = append(views, models.ToView(item))
	}
	httputil.WriteJSON(w, http.StatusOK, models.ItemListResponse{
		Success:    true,
		Count:      len(views),
		Total:      res.Total,
		Page:       page.Number,
		TotalPages: page.TotalPages(res.Total),
		Items:      views,
	})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	itemID, err := id.ParseItemID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	item, err := h.items.Get(r.Context(), itemID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ItemResponse{Success: true, Item: models.ToView(item)})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := authmw.AccountFromContext(r.Context())
	item, err := h.items.Create(r.Context(), actor, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.ItemResponse{Success: true, Item: models.ToView(item)})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	itemID, err := id.ParseItemID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := authmw.AccountFromContext(r.Context())
	var req models.UpdateItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		// not-found and ownership outrank a bad body
		if authErr := h.items.AuthorizeUpdate(r.Context(), actor, itemID); authErr != nil {
			h.fail(w, r, authErr)
			return
		}
		httputil.WriteError(w, err)
		return
	}
	item, err := h.items.Update(r.Context(), actor, itemID, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ItemResponse{Success: true, Item: models.ToView(item)})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	itemID, err := id.ParseItemID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := authmw.AccountFromContext(r.Context())
	if err := h.items.Delete(r.Context(), actor, itemID); err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, authmodels.MessageResponse{Success: true, Message: "Item deleted"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	authmw.RespondError(w, r, h.logger, h.recorder, err)
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	filter := models.Filter{
		Category: models.Category(q.Get("category")),
		Search:   q.Get("search"),
		Sort:     models.SortOrder(q.Get("sort")),
	}
	var err error
	if filter.MinPrice, err = parsePrice(q.Get("minPrice"), "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = parsePrice(q.Get("maxPrice"), "maxPrice"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parsePrice(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, name+" must be a non-negative number")
	}
	return &v, nil
}
