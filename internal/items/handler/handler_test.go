package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"market/internal/auth/denial"
	authmodels "market/internal/auth/models"
	"market/internal/items/handler/mocks"
	"market/internal/items/models"
	itemsvc "market/internal/items/service"
	id "market/pkg/domain"
	dErrors "market/pkg/domain-errors"
	authmw "market/pkg/platform/middleware/auth"
	"market/pkg/testutil"
)

func setup(t *testing.T, actor *authmodels.Account) (*mocks.MockService, http.Handler) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	h := New(svc, slog.Default(), nil)

	r := chi.NewRouter()
	r.Get("/api/items", h.HandleList)
	r.Get("/api/items/{id}", h.HandleGet)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(authmw.WithAccount(req.Context(), actor)))
			})
		})
		r.Post("/api/items", h.HandleCreate)
		r.Put("/api/items/{id}", h.HandleUpdate)
		r.Delete("/api/items/{id}", h.HandleDelete)
	})
	return svc, r
}

func sampleItem(owner id.AccountID) *models.Item {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.Item{
		ID: id.NewItemID(), Title: "Lamp", Price: 20, Category: models.CategoryOther,
		Published: true, Slug: "lamp-1", CreatedBy: owner, CreatedAt: now, UpdatedAt: now,
	}
}

func TestHandleList(t *testing.T) {
	t.Run("translates the query string", func(t *testing.T) {
		svc, router := setup(t, nil)
		svc.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, f models.Filter) (*itemsvc.ListResult, error) {
			assert.Equal(t, models.CategoryBooks, f.Category)
			assert.Equal(t, "novel", f.Search)
			assert.Equal(t, models.SortPriceAsc, f.Sort)
			require.NotNil(t, f.MinPrice)
			assert.Equal(t, 5.0, *f.MinPrice)
			assert.Nil(t, f.MaxPrice)
			assert.Equal(t, 12, f.Offset)
			assert.Equal(t, 12, f.Limit)
			return &itemsvc.ListResult{Items: []*models.Item{sampleItem(id.NewAccountID())}, Total: 13}, nil
		})

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/items?page=2&category=books&search=novel&sort=price&minPrice=5"))
		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[models.ItemListResponse](t, rr)
		assert.Equal(t, 13, got.Total)
		assert.Equal(t, 2, got.TotalPages)
		assert.Equal(t, 1, got.Count)
		assert.Equal(t, []string{}, got.Items[0].Tags)
	})

	t.Run("bad price never reaches the service", func(t *testing.T) {
		svc, router := setup(t, nil)
		svc.EXPECT().List(gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/items?maxPrice=cheap"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})
}

func TestHandleGet(t *testing.T) {
	svc, router := setup(t, nil)
	missing := id.NewItemID()
	svc.EXPECT().Get(gomock.Any(), missing).Return(nil, dErrors.New(dErrors.CodeNotFound, "Item not found"))

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/items/"+missing.String()))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestHandleCreate(t *testing.T) {
	actor := &authmodels.Account{ID: id.NewAccountID(), Role: authmodels.RoleUser, Active: true}
	svc, router := setup(t, actor)
	item := sampleItem(actor.ID)
	svc.EXPECT().Create(gomock.Any(), actor, gomock.Any()).Return(item, nil)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/items", map[string]any{
		"title": "Lamp", "price": 20,
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	got := testutil.UnmarshalResponse[models.ItemResponse](t, rr)
	assert.Equal(t, actor.ID.String(), got.Item.CreatedBy)
}

func TestHandleUpdateAndDelete(t *testing.T) {
	actor := &authmodels.Account{ID: id.NewAccountID(), Role: authmodels.RoleUser, Active: true}
	itemID := id.NewItemID()

	t.Run("not owner", func(t *testing.T) {
		svc, router := setup(t, actor)
		svc.EXPECT().Update(gomock.Any(), actor, itemID, gomock.Any()).Return(nil, denial.New(denial.NotResourceOwner))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/api/items/"+itemID.String(), map[string]any{"price": 1}))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "not_resource_owner")
	})

	t.Run("malformed body from a non-owner is forbidden", func(t *testing.T) {
		svc, router := setup(t, actor)
		svc.EXPECT().AuthorizeUpdate(gomock.Any(), actor, itemID).Return(denial.New(denial.NotResourceOwner))
		svc.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPut, "/api/items/"+itemID.String(), "{not json"))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "not_resource_owner")
	})

	t.Run("malformed body for a missing item is not found", func(t *testing.T) {
		svc, router := setup(t, actor)
		svc.EXPECT().AuthorizeUpdate(gomock.Any(), actor, itemID).Return(dErrors.New(dErrors.CodeNotFound, "Item not found"))

		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPut, "/api/items/"+itemID.String(), "{not json"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("malformed body from the owner", func(t *testing.T) {
		svc, router := setup(t, actor)
		svc.EXPECT().AuthorizeUpdate(gomock.Any(), actor, itemID).Return(nil)
		svc.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPut, "/api/items/"+itemID.String(), "{not json"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("delete", func(t *testing.T) {
		svc, router := setup(t, actor)
		svc.EXPECT().Delete(gomock.Any(), actor, itemID).Return(nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/api/items/"+itemID.String()))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "message", "Item deleted")
	})

	t.Run("invalid id", func(t *testing.T) {
		_, router := setup(t, actor)
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/api/items/123"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}
