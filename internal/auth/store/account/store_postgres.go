package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"market/internal/auth/models"
	id "market/pkg/domain"
	"market/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

const publicColumns = `id, email, name, role, avatar, active, last_authenticated_at, created_at, updated_at`
const secretColumns = `id, email, name, role, avatar, active, last_authenticated_at, created_at, updated_at, password_hash`

// PostgresAccountStore persists accounts in PostgreSQL. Email uniqueness is a
// unique index on lower(email).
type PostgresAccountStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresAccountStore {
	return &PostgresAccountStore{db: db}
}

func (s *PostgresAccountStore) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, email, name, password_hash, role, avatar, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		account.ID.String(),
		models.NormalizeEmail(account.Email),
		account.Name,
		account.PasswordHash,
		string(account.Role),
		account.Avatar,
		account.Active,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create account: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresAccountStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+publicColumns+` FROM accounts WHERE id = $1`, accountID.String())
	return scanAccount(row, false)
}

func (s *PostgresAccountStore) FindCredentialsByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+secretColumns+` FROM accounts WHERE id = $1`, accountID.String())
	return scanAccount(row, true)
}

func (s *PostgresAccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+secretColumns+` FROM accounts WHERE lower(email) = $1`, models.NormalizeEmail(email))
	return scanAccount(row, true)
}

func (s *PostgresAccountStore) UpdateFields(ctx context.Context, accountID id.AccountID, patch models.AccountPatch, at time.Time) (*models.Account, error) {
	var role *string
	if patch.Role != nil {
		r := string(*patch.Role)
		role = &r
	}
	query := `
		UPDATE accounts SET
			name = COALESCE($2, name),
			avatar = COALESCE($3, avatar),
			role = COALESCE($4, role),
			active = COALESCE($5, active),
			updated_at = $6
		WHERE id = $1
		RETURNING ` + publicColumns
	row := s.db.QueryRowContext(ctx, query, accountID.String(), patch.Name, patch.Avatar, role, patch.Active, at)
	return scanAccount(row, false)
}

func (s *PostgresAccountStore) UpdatePasswordHash(ctx context.Context, accountID id.AccountID, hash string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`, accountID.String(), hash, at)
	return expectOneRow(res, err, "update password")
}

func (s *PostgresAccountStore) TouchLastAuthenticated(ctx context.Context, accountID id.AccountID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET last_authenticated_at = $2 WHERE id = $1`, accountID.String(), at)
	return expectOneRow(res, err, "touch last authenticated")
}

func (s *PostgresAccountStore) List(ctx context.Context, params ListParams) ([]*models.Account, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+publicColumns+` FROM accounts ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := []*models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

func (s *PostgresAccountStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

func (s *PostgresAccountStore) Delete(ctx context.Context, accountID id.AccountID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, accountID.String())
	return expectOneRow(res, err, "delete account")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner, withSecret bool) (*models.Account, error) {
	var (
		rawID    uuid.UUID
		role     string
		lastAuth sql.NullTime
		a        models.Account
	)
	dest := []any{&rawID, &a.Email, &a.Name, &role, &a.Avatar, &a.Active, &lastAuth, &a.CreatedAt, &a.UpdatedAt}
	if withSecret {
		dest = append(dest, &a.PasswordHash)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.ID = id.AccountID(rawID)
	a.Role = models.Role(role)
	if lastAuth.Valid {
		t := lastAuth.Time
		a.LastAuthenticatedAt = &t
	}
	return &a, nil
}

func expectOneRow(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
