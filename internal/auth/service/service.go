package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"market/internal/audit"
	"market/internal/auth/denial"
	"market/internal/auth/models"
	id "market/pkg/domain"
	dErrors "market/pkg/domain-errors"
	"market/pkg/platform/sentinel"
	"market/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AccountStore,PasswordHasher,TokenIssuer

type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindCredentialsByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	TouchLastAuthenticated(ctx context.Context, accountID id.AccountID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, accountID id.AccountID, hash string, at time.Time) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

type TokenIssuer interface {
	Issue(accountID id.AccountID) (string, time.Time, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

type Metrics interface {
	IncrementAccountsRegistered()
	ObserveLogin(outcome string)
}

// Service owns registration and credential checks. Transport concerns stay
// in the handler.
type Service struct {
	accounts AccountStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	logger   *slog.Logger
	auditor  AuditPublisher
	metrics  Metrics
	tracer   trace.Tracer

	dummyOnce sync.Once
	dummyHash string
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

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(accounts AccountStore, hasher PasswordHasher, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		logger:   slog.Default(),
		tracer:   otel.Tracer("market/auth/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a standard, active account and issues its first token.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if _, ok := dErrors.CodeOf(err); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	account := &models.Account{
		ID:           id.NewAccountID(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, denial.Wrap(denial.DuplicateEmail, err)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	token, expiresAt, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	if s.metrics != nil {
		s.metrics.IncrementAccountsRegistered()
	}
	s.emit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Action:    audit.ActionAccountRegistered,
		AccountID: account.ID.String(),
		Email:     account.Email,
	})

	return &models.AuthResult{Token: token, ExpiresAt: expiresAt, Account: account.WithoutSecret()}, nil
}

// Login checks an email and password. Unknown email and wrong password are
// indistinguishable to the caller and cost the same bcrypt work.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
		}
		// equalise timing with the found path
		_, _ = s.hasher.Verify(req.Password, s.timingHash())
		return nil, s.loginFailed(ctx, span, "", denial.New(denial.UnknownEmail))
	}

	ok, err := s.hasher.Verify(req.Password, account.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored credential unusable",
			"error", err,
			"account_id", account.ID.String(),
		)
		return nil, s.loginFailed(ctx, span, account.ID.String(), denial.Wrap(denial.CredentialComputationFailure, err))
	}
	if !ok {
		return nil, s.loginFailed(ctx, span, account.ID.String(), denial.New(denial.PasswordMismatch))
	}
	if !account.Active {
		return nil, s.loginFailed(ctx, span, account.ID.String(), denial.New(denial.AccountDeactivated))
	}

	now := requestcontext.Now(ctx)
	if err := s.accounts.TouchLastAuthenticated(ctx, account.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record last authentication",
			"error", err,
			"account_id", account.ID.String(),
		)
	} else {
		account.LastAuthenticatedAt = &now
	}

	token, expiresAt, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	span.SetAttributes(attribute.String("auth.account_id", account.ID.String()))
	if s.metrics != nil {
		s.metrics.ObserveLogin("success")
	}
	s.emit(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		Action:    audit.ActionLoginSucceeded,
		AccountID: account.ID.String(),
		Decision:  "granted",
	})

	return &models.AuthResult{Token: token, ExpiresAt: expiresAt, Account: account.WithoutSecret()}, nil
}

// ChangePassword re-hashes after verifying the current password and returns
// a fresh token. Previously issued tokens stay valid until they expire.
func (s *Service) ChangePassword(ctx context.Context, actor *models.Account, req *models.ChangePasswordRequest) (*models.AuthResult, error) {
	if actor == nil {
		return nil, denial.New(denial.NoCredential)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindCredentialsByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, denial.Wrap(denial.SubjectNotFound, err)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	ok, err := s.hasher.Verify(req.CurrentPassword, account.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored credential unusable",
			"error", err,
			"account_id", account.ID.String(),
		)
		return nil, denial.Wrap(denial.CredentialComputationFailure, err)
	}
	if !ok {
		return nil, denial.New(denial.PasswordMismatch)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		if _, coded := dErrors.CodeOf(err); coded {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	now := requestcontext.Now(ctx)
	if err := s.accounts.UpdatePasswordHash(ctx, account.ID, hash, now); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, denial.Wrap(denial.SubjectNotFound, err)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}

	token, expiresAt, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.emit(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		Action:    audit.ActionPasswordChanged,
		AccountID: account.ID.String(),
	})
	account.UpdatedAt = now
	return &models.AuthResult{Token: token, ExpiresAt: expiresAt, Account: account.WithoutSecret()}, nil
}

func (s *Service) loginFailed(ctx context.Context, span trace.Span, accountID string, d *denial.Denial) error {
	span.SetAttributes(attribute.String("auth.denial", string(d.Kind)))
	if s.metrics != nil {
		s.metrics.ObserveLogin(string(d.Kind))
	}
	s.emit(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		Action:    audit.ActionLoginFailed,
		AccountID: accountID,
		Decision:  "denied",
		Reason:    string(d.Kind),
	})
	return d
}

// timingHash is a throwaway hash at the configured cost, computed once.
func (s *Service) timingHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("timing-equalisation-placeholder")
		if err != nil {
			s.logger.Error("failed to prepare timing hash", "error", err)
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	s.auditor.Emit(ctx, event)
}
