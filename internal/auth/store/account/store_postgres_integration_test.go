//go:build integration

package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"market/internal/auth/models"
	"market/internal/platform/postgres"
	id "market/pkg/domain"
	"market/pkg/platform/sentinel"
	"market/pkg/testutil/containers"
)

type PostgresAccountStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresAccountStore
	ctx   context.Context
}

func TestPostgresAccountStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresAccountStoreSuite))
}

func (s *PostgresAccountStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.Migrate(s.ctx, s.pg.DB))
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresAccountStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(s.ctx, `TRUNCATE accounts CASCADE`)
	s.Require().NoError(err)
}

func (s *PostgresAccountStoreSuite) TestRoundTripAndUniqueness() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	a := &models.Account{ID: id.NewAccountID(), Email: "Int@Example.com", Name: "Int", PasswordHash: "h", Role: models.RoleUser, Active: true, CreatedAt: now, UpdatedAt: now}
	s.Require().NoError(s.store.Create(s.ctx, a))

	found, err := s.store.FindByEmail(s.ctx, "int@example.COM")
	s.Require().NoError(err)
	s.Equal(a.ID, found.ID)
	s.Equal("h", found.PasswordHash)

	dup := *a
	dup.ID = id.NewAccountID()
	dup.Email = "INT@example.com"
	s.ErrorIs(s.store.Create(s.ctx, &dup), sentinel.ErrConflict)
}

func (s *PostgresAccountStoreSuite) TestUpdateAndDelete() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	a := &models.Account{ID: id.NewAccountID(), Email: "upd@example.com", Name: "Upd", PasswordHash: "h", Role: models.RoleUser, Active: true, CreatedAt: now, UpdatedAt: now}
	s.Require().NoError(s.store.Create(s.ctx, a))

	inactive := false
	updated, err := s.store.UpdateFields(s.ctx, a.ID, models.AccountPatch{Active: &inactive}, now.Add(time.Minute))
	s.Require().NoError(err)
	s.False(updated.Active)
	s.Equal("Upd", updated.Name)

	s.Require().NoError(s.store.TouchLastAuthenticated(s.ctx, a.ID, now))
	s.Require().NoError(s.store.Delete(s.ctx, a.ID))
	_, err = s.store.FindByID(s.ctx, a.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
