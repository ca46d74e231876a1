package account

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"market/internal/auth/models"
	id "market/pkg/domain"
	"market/pkg/platform/sentinel"
)

// InMemoryAccountStore keeps accounts in process memory. Intended for
// development and tests.
type InMemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*models.Account
	byEmail  map[string]id.AccountID
}

func New() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		accounts: make(map[id.AccountID]*models.Account),
		byEmail:  make(map[string]id.AccountID),
	}
}

func (s *InMemoryAccountStore) Create(_ context.Context, account *models.Account) error {
	email := models.NormalizeEmail(account.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[email]; taken {
		return fmt.Errorf("email %s: %w", email, sentinel.ErrConflict)
	}
	if _, exists := s.accounts[account.ID]; exists {
		return fmt.Errorf("account %s: %w", account.ID, sentinel.ErrConflict)
	}
	stored := *account
	stored.Email = email
	s.accounts[account.ID] = &stored
	s.byEmail[email] = account.ID
	return nil
}

// FindByID returns the account without its password hash.
func (s *InMemoryAccountStore) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, sentinel.ErrNotFound)
	}
	return a.WithoutSecret(), nil
}

// FindCredentialsByID returns the account including its password hash.
func (s *InMemoryAccountStore) FindCredentialsByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, sentinel.ErrNotFound)
	}
	clone := *a
	return &clone, nil
}

// FindByEmail returns the account including its password hash. Login only.
func (s *InMemoryAccountStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("email: %w", sentinel.ErrNotFound)
	}
	clone := *s.accounts[accountID]
	return &clone, nil
}

func (s *InMemoryAccountStore) UpdateFields(_ context.Context, accountID id.AccountID, patch models.AccountPatch, at time.Time) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, sentinel.ErrNotFound)
	}
	if patch.Name != nil {
		a.Name = *patch.Name
	}
	if patch.Avatar != nil {
		a.Avatar = *patch.Avatar
	}
	if patch.Role != nil {
		a.Role = *patch.Role
	}
	if patch.Active != nil {
		a.Active = *patch.Active
	}
	a.UpdatedAt = at
	return a.WithoutSecret(), nil
}

func (s *InMemoryAccountStore) UpdatePasswordHash(_ context.Context, accountID id.AccountID, hash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, sentinel.ErrNotFound)
	}
	a.PasswordHash = hash
	a.UpdatedAt = at
	return nil
}

func (s *InMemoryAccountStore) TouchLastAuthenticated(_ context.Context, accountID id.AccountID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, sentinel.ErrNotFound)
	}
	a.LastAuthenticatedAt = &at
	return nil
}

func (s *InMemoryAccountStore) List(_ context.Context, params ListParams) ([]*models.Account, error) {
	s.mu.RLock()
	all := make([]*models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		all = append(all, a.WithoutSecret())
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if params.Offset < 0 || params.Offset >= len(all) {
		return []*models.Account{}, nil
	}
	end := len(all)
	if params.Limit > 0 && params.Limit < end-params.Offset {
		end = params.Offset + params.Limit
	}
	return all[params.Offset:end], nil
}

func (s *InMemoryAccountStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

func (s *InMemoryAccountStore) Delete(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, sentinel.ErrNotFound)
	}
	delete(s.byEmail, a.Email)
	delete(s.accounts, accountID)
	return nil
}
