package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market/internal/items/models"
	id "market/pkg/domain"
	"market/pkg/platform/sentinel"
)

var itemCols = []string{"id", "title", "description", "price", "category", "stock", "tags", "published", "slug", "created_by", "created_at", "updated_at"}

func newMockStore(t *testing.T) (*PostgresItemStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresCreateItem(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	item := &models.Item{
		ID: id.NewItemID(), Title: "Lamp", Price: 20, Category: models.CategoryOther,
		Tags: []string{"home"}, Published: true, Slug: "lamp-1", CreatedBy: id.NewAccountID(),
		CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO items")).
		WithArgs(item.ID.String(), "Lamp", "", 20.0, "other", 0, sqlmock.AnyArg(), true, "lamp-1", item.CreatedBy.String(), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Create(context.Background(), item))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateItemDuplicateSlug(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO items")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "items_slug_idx"})

	err := store.Create(context.Background(), &models.Item{ID: id.NewItemID(), CreatedBy: id.NewAccountID()})
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestPostgresFindItem(t *testing.T) {
	store, mock := newMockStore(t)
	itemID := id.NewItemID()
	owner := id.NewAccountID()
	now := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM items WHERE id = $1")).
		WithArgs(itemID.String()).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(itemID.String(), "Lamp", "warm", 19.99, "other", 3, "{home,light}", true, "lamp-1", owner.String(), now, now))

	item, err := store.FindByID(context.Background(), itemID)
	require.NoError(t, err)
	assert.Equal(t, itemID, item.ID)
	assert.Equal(t, owner, item.CreatedBy)
	assert.Equal(t, []string{"home", "light"}, item.Tags)
	assert.InDelta(t, 19.99, item.Price, 0.0001)
}

func TestPostgresFindItemNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM items WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows(itemCols))

	_, err := store.FindByID(context.Background(), id.NewItemID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresListItemsBuildsFilter(t *testing.T) {
	store, mock := newMockStore(t)
	min := 10.0

	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE published = TRUE AND category = $1 AND price >= $2 AND (title ILIKE $3 OR description ILIKE $3 OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $3)) ORDER BY price DESC, id LIMIT $4 OFFSET $5`)).
		WithArgs("books", 10.0, `%50\%%`, 12, 24).
		WillReturnRows(sqlmock.NewRows(itemCols))

	items, err := store.List(context.Background(), models.Filter{
		Category: models.CategoryBooks,
		MinPrice: &min,
		Search:   "50%",
		Sort:     models.SortPriceDesc,
		Offset:   24,
		Limit:    12,
	})
	require.NoError(t, err)
	assert.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListItemsUnknownSortFallsBack(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE published = TRUE ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`)).
		WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows(itemCols))

	_, err := store.List(context.Background(), models.Filter{Sort: "; DROP TABLE items"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCountItems(t *testing.T) {
	store, mock := newMockStore(t)
	max := 99.0
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM items WHERE published = TRUE AND price <= $1`)).
		WithArgs(99.0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := store.Count(context.Background(), models.Filter{MaxPrice: &max})
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestPostgresUpdateItem(t *testing.T) {
	store, mock := newMockStore(t)
	itemID := id.NewItemID()
	now := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	stock := 5

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE items SET")).
		WithArgs(itemID.String(), nil, nil, nil, nil, 5, nil, nil, now).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(itemID.String(), "Lamp", "", 20.0, "other", 5, "{}", true, "lamp-1", id.NewAccountID().String(), now, now))

	item, err := store.Update(context.Background(), itemID, models.Patch{Stock: &stock}, now)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Stock)
	assert.Empty(t, item.Tags)
}

func TestPostgresDeleteItem(t *testing.T) {
	store, mock := newMockStore(t)
	itemID := id.NewItemID()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM items WHERE id = $1")).
		WithArgs(itemID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.Delete(context.Background(), itemID), sentinel.ErrNotFound)
}
