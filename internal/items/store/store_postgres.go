package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"market/internal/items/models"
	id "market/pkg/domain"
	"market/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

const itemColumns = `id, title, description, price, category, stock, tags, published, slug, created_by, created_at, updated_at`

// orderBy is the whitelist of listing orders; user input never reaches SQL.
var orderBy = map[models.SortOrder]string{
	models.SortNewest:    "created_at DESC, id",
	models.SortOldest:    "created_at ASC, id",
	models.SortPriceAsc:  "price ASC, id",
	models.SortPriceDesc: "price DESC, id",
}

type PostgresItemStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresItemStore {
	return &PostgresItemStore{db: db}
}

func (s *PostgresItemStore) Create(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		item.ID.String(),
		item.Title,
		item.Description,
		item.Price,
		string(item.Category),
		item.Stock,
		pq.Array(nonNil(item.Tags)),
		item.Published,
		item.Slug,
		item.CreatedBy.String(),
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create item: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (s *PostgresItemStore) FindByID(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, itemID.String())
	return scanItem(row)
}

func (s *PostgresItemStore) Update(ctx context.Context, itemID id.ItemID, patch models.Patch, at time.Time) (*models.Item, error) {
	var (
		category *string
		tags     any
	)
	if patch.Category != nil {
		c := string(*patch.Category)
		category = &c
	}
	if patch.Tags != nil {
		tags = pq.Array(nonNil(*patch.Tags))
	}
	query := `
		UPDATE items SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			category = COALESCE($5, category),
			stock = COALESCE($6, stock),
			tags = COALESCE($7, tags),
			published = COALESCE($8, published),
			updated_at = $9
		WHERE id = $1
		RETURNING ` + itemColumns
	row := s.db.QueryRowContext(ctx, query,
		itemID.String(), patch.Title, patch.Description, patch.Price, category, patch.Stock, tags, patch.Published, at)
	return scanItem(row)
}

func (s *PostgresItemStore) Delete(ctx context.Context, itemID id.ItemID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, itemID.String())
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete item: %w", sentinel.ErrNotFound)
	}
	return nil
}

// DeleteByOwner removes every item created by accountID. Deleting the
// account row cascades the same way.
func (s *PostgresItemStore) DeleteByOwner(ctx context.Context, accountID id.AccountID) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE created_by = $1`, accountID.String())
	if err != nil {
		return 0, fmt.Errorf("delete items by owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete items by owner: %w", err)
	}
	return int(n), nil
}

func (s *PostgresItemStore) List(ctx context.Context, filter models.Filter) ([]*models.Item, error) {
	where, args := buildWhere(filter)
	order, ok := orderBy[filter.Sort]
	if !ok {
		order = orderBy[models.SortNewest]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	query := `SELECT ` + itemColumns + ` FROM items WHERE ` + where +
		` ORDER BY ` + order +
		` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := []*models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return out, nil
}

func (s *PostgresItemStore) Count(ctx context.Context, filter models.Filter) (int, error) {
	where, args := buildWhere(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// buildWhere renders filter as positional predicates.
func buildWhere(filter models.Filter) (string, []any) {
	conds := []string{"published = TRUE"}
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.Category != "" {
		conds = append(conds, "category = "+next(string(filter.Category)))
	}
	if filter.MinPrice != nil {
		conds = append(conds, "price >= "+next(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "price <= "+next(*filter.MaxPrice))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		p := next("%" + escapeLike(search) + "%")
		conds = append(conds, "(title ILIKE "+p+" OR description ILIKE "+p+
			" OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE "+p+"))")
	}
	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*models.Item, error) {
	var (
		rawID, createdBy uuid.UUID
		category         string
		item             models.Item
	)
	err := row.Scan(&rawID, &item.Title, &item.Description, &item.Price, &category, &item.Stock,
		pq.Array(&item.Tags), &item.Published, &item.Slug, &createdBy, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}
	item.ID = id.ItemID(rawID)
	item.CreatedBy = id.AccountID(createdBy)
	item.Category = models.Category(category)
	return &item, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
