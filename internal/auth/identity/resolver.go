// Package identity turns an Authorization header into an active account.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"market/internal/auth/denial"
	"market/internal/auth/models"
	jwttoken "market/internal/jwt_token"
	id "market/pkg/domain"
	"market/pkg/platform/sentinel"
)

const bearerPrefix = "Bearer "

// TokenVerifier validates a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (id.AccountID, error)
}

// AccountFinder loads an account by id. The returned account carries no
// password hash.
type AccountFinder interface {
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
}

type Resolver struct {
	tokens   TokenVerifier
	accounts AccountFinder
	tracer   trace.Tracer
}

func NewResolver(tokens TokenVerifier, accounts AccountFinder) *Resolver {
	return &Resolver{
		tokens:   tokens,
		accounts: accounts,
		tracer:   otel.Tracer("market/auth/identity"),
	}
}

// Resolve runs the gate in order: credential present, token valid, account
// exists, account active. The first failure is returned as a *denial.Denial;
// any other error is an infrastructure fault.
func (r *Resolver) Resolve(ctx context.Context, authorization string) (*models.Account, error) {
	ctx, span := r.tracer.Start(ctx, "identity.Resolve")
	defer span.End()

	account, err := r.resolve(ctx, authorization)
	if err != nil {
		if kind, ok := denial.KindOf(err); ok {
			span.SetAttributes(attribute.String("auth.denial", string(kind)))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, "identity resolution failed")
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("auth.account_id", account.ID.String()))
	return account, nil
}

func (r *Resolver) resolve(ctx context.Context, authorization string) (*models.Account, error) {
	token, ok := strings.CutPrefix(authorization, bearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return nil, denial.New(denial.NoCredential)
	}

	accountID, err := r.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, jwttoken.ErrExpired) {
			return nil, denial.Wrap(denial.ExpiredToken, err)
		}
		return nil, denial.Wrap(denial.MalformedToken, err)
	}

	account, err := r.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, denial.Wrap(denial.SubjectNotFound, err)
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if !account.Active {
		return nil, denial.New(denial.AccountDeactivated)
	}
	return account, nil
}
