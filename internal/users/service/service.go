// Package service implements account administration: listing, reading,
// updating and deleting accounts on behalf of an authenticated actor.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"market/internal/access"
	"market/internal/audit"
	"market/internal/auth/models"
	accountstore "market/internal/auth/store/account"
	id "market/pkg/domain"
	dErrors "market/pkg/domain-errors"
	"market/pkg/platform/sentinel"
	"market/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AccountStore

type AccountStore interface {
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	List(ctx context.Context, params accountstore.ListParams) ([]*models.Account, error)
	Count(ctx context.Context) (int, error)
	UpdateFields(ctx context.Context, accountID id.AccountID, patch models.AccountPatch, at time.Time) (*models.Account, error)
	Delete(ctx context.Context, accountID id.AccountID) error
}

// ItemRemover deletes the items an account owns.
type ItemRemover interface {
	DeleteByOwner(ctx context.Context, accountID id.AccountID) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

var errUserNotFound = dErrors.New(dErrors.CodeNotFound, "User not found")

type Service struct {
	accounts AccountStore
	logger   *slog.Logger
	auditor  AuditPublisher
	items    ItemRemover
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithItemRemover(items ItemRemover) Option {
	return func(s *Service) {
		s.items = items
	}
}

func New(accounts AccountStore, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListResult is one page of accounts plus the overall total.
type ListResult struct {
	Accounts []*models.Account
	Total    int
}

// List returns accounts newest first. Administrators only.
func (s *Service) List(ctx context.Context, actor *models.Account, offset, limit int) (*ListResult, error) {
	if err := access.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		accounts []*models.Account
		total    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.accounts.List(gctx, accountstore.ListParams{Offset: offset, Limit: limit})
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.accounts.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	return &ListResult{Accounts: accounts, Total: total}, nil
}

// Get returns one account to itself or to an administrator. A missing
// account is reported before authorization is checked.
func (s *Service) Get(ctx context.Context, actor *models.Account, targetID id.AccountID) (*models.Account, error) {
	account, err := s.find(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := access.AuthorizeSelf(actor, targetID); err != nil {
		return nil, err
	}
	return account, nil
}

// Update applies a partial update. Role and active-state changes from
// non-administrators are dropped silently, never rejected.
// AuthorizeUpdate reports whether actor may update targetID at all.
func (s *Service) AuthorizeUpdate(_ context.Context, actor *models.Account, targetID id.AccountID) error {
	return access.AuthorizeSelf(actor, targetID)
}

func (s *Service) Update(ctx context.Context, actor *models.Account, targetID id.AccountID, req *models.UpdateAccountRequest) (*models.Account, error) {
	if err := s.AuthorizeUpdate(ctx, actor, targetID); err != nil {
		return nil, err
	}

	req.AccountPatch = access.FilterAccountUpdate(actor, req.AccountPatch)
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		return s.find(ctx, targetID)
	}

	updated, err := s.accounts.UpdateFields(ctx, targetID, req.AccountPatch, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
	}

	s.auditUpdate(ctx, actor, updated, req.AccountPatch)
	return updated, nil
}

// Delete removes an account. Administrators only. Items owned by the account
// go with it.
func (s *Service) Delete(ctx context.Context, actor *models.Account, targetID id.AccountID) error {
	if err := access.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, targetID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return errUserNotFound
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete account")
	}

	removed := 0
	if s.items != nil {
		n, err := s.items.DeleteByOwner(ctx, targetID)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to remove items of deleted account",
				"error", err,
				"account_id", targetID.String(),
			)
		}
		removed = n
	}

	s.logger.InfoContext(ctx, "account deleted",
		"account_id", targetID.String(),
		"actor_id", actor.ID.String(),
		"items_removed", removed,
	)
	s.emit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Action:    audit.ActionAccountDeleted,
		AccountID: targetID.String(),
		ActorID:   actor.ID.String(),
	})
	return nil
}

func (s *Service) find(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

func (s *Service) auditUpdate(ctx context.Context, actor, account *models.Account, patch models.AccountPatch) {
	base := audit.Event{
		Category:  audit.CategorySecurity,
		AccountID: account.ID.String(),
		ActorID:   actor.ID.String(),
	}
	if patch.Role != nil {
		e := base
		e.Action = audit.ActionRoleChanged
		e.Reason = string(*patch.Role)
		s.emit(ctx, e)
	}
	if patch.Active != nil {
		e := base
		e.Action = audit.ActionActiveChanged
		if *patch.Active {
			e.Reason = "activated"
		} else {
			e.Reason = "deactivated"
		}
		s.emit(ctx, e)
	}
	if patch.Name != nil || patch.Avatar != nil {
		e := base
		e.Category = audit.CategoryCompliance
		e.Action = audit.ActionAccountUpdated
		s.emit(ctx, e)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	s.auditor.Emit(ctx, event)
}
