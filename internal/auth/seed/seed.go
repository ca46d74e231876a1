// Package seed bootstraps accounts, typically the first administrator, from
// a YAML file at startup.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"market/internal/auth/models"
	id "market/pkg/domain"
	"market/pkg/email"
	"market/pkg/platform/sentinel"
)

type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// Entry is one account in the seed file. A missing name is derived from the
// email address.
type Entry struct {
	Name     string      `yaml:"name"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
}

type File struct {
	Accounts []Entry `yaml:"accounts"`
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, e := range f.Accounts {
		if e.Name == "" {
			f.Accounts[i].Name = email.DisplayName(e.Email)
		}
		if e.Role == "" {
			f.Accounts[i].Role = models.RoleUser
		} else if !e.Role.IsValid() {
			return nil, fmt.Errorf("seed account %d: invalid role %q", i, e.Role)
		}
	}
	return &f, nil
}

// Apply creates every entry whose email is not yet registered. Entries go
// through the same validation as public registration. Returns the number of
// accounts created.
func Apply(ctx context.Context, f *File, accounts AccountStore, hasher PasswordHasher, logger *slog.Logger) (int, error) {
	created := 0
	for _, e := range f.Accounts {
		req := models.RegisterRequest{Name: e.Name, Email: e.Email, Password: e.Password}
		req.Normalize()
		if err := req.Validate(); err != nil {
			return created, fmt.Errorf("seed account %q: %w", e.Email, err)
		}

		if _, err := accounts.FindByEmail(ctx, req.Email); err == nil {
			logger.DebugContext(ctx, "seed account exists", "email", req.Email)
			continue
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return created, fmt.Errorf("look up seed account: %w", err)
		}

		hash, err := hasher.Hash(req.Password)
		if err != nil {
			return created, fmt.Errorf("hash seed password: %w", err)
		}
		now := time.Now().UTC()
		account := &models.Account{
			ID:           id.NewAccountID(),
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			Role:         e.Role,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := accounts.Create(ctx, account); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				continue
			}
			return created, fmt.Errorf("create seed account: %w", err)
		}
		logger.InfoContext(ctx, "seeded account",
			"account_id", account.ID.String(),
			"role", string(account.Role),
		)
		created++
	}
	return created, nil
}
