package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"market/internal/auth/denial"
	"market/internal/auth/models"
	id "market/pkg/domain"
	"market/pkg/testutil"
)

func account(role models.Role) *models.Account {
	return &models.Account{ID: id.NewAccountID(), Role: role, Active: true}
}

func ptr[T any](v T) *T { return &v }

func assertDenied(t *testing.T, err error, kind denial.Kind) {
	t.Helper()
	got, ok := denial.KindOf(err)
	if assert.True(t, ok, "expected denial, got %v", err) {
		assert.Equal(t, kind, got)
	}
}

func TestRequireRole(t *testing.T) {
	testutil.Given(t, "a standard account", func(t *testing.T) {
		user := account(models.RoleUser)
		testutil.Then(t, "admin-only actions are denied with insufficient_role", func(t *testing.T) {
			assertDenied(t, RequireRole(user, models.RoleAdmin), denial.InsufficientRole)
		})
		testutil.Then(t, "any-of checks pass when one role matches", func(t *testing.T) {
			assert.NoError(t, RequireRole(user, models.RoleAdmin, models.RoleUser))
		})
	})

	testutil.Given(t, "an administrator", func(t *testing.T) {
		assert.NoError(t, RequireRole(account(models.RoleAdmin), models.RoleAdmin))
	})

	testutil.Given(t, "no resolved identity", func(t *testing.T) {
		assertDenied(t, RequireRole(nil, models.RoleUser), denial.NoCredential)
	})
}

func TestOwnership(t *testing.T) {
	owner := account(models.RoleUser)
	other := account(models.RoleUser)
	admin := account(models.RoleAdmin)

	assert.True(t, OwnerOrRole(owner, owner.ID, models.RoleAdmin))
	assert.True(t, OwnerOrRole(admin, owner.ID, models.RoleAdmin))
	assert.False(t, OwnerOrRole(other, owner.ID, models.RoleAdmin))
	assert.False(t, OwnerOrRole(nil, owner.ID, models.RoleAdmin))

	assert.NoError(t, AuthorizeOwner(owner, owner.ID))
	assert.NoError(t, AuthorizeOwner(admin, owner.ID))
	assertDenied(t, AuthorizeOwner(other, owner.ID), denial.NotResourceOwner)
	assertDenied(t, AuthorizeOwner(nil, owner.ID), denial.NoCredential)
}

func TestAuthorizeSelf(t *testing.T) {
	self := account(models.RoleUser)
	assert.NoError(t, AuthorizeSelf(self, self.ID))
	assert.NoError(t, AuthorizeSelf(account(models.RoleAdmin), self.ID))
	assertDenied(t, AuthorizeSelf(account(models.RoleUser), self.ID), denial.NotResourceOwner)
}

func TestFilterAccountUpdate(t *testing.T) {
	patch := models.AccountPatch{
		Name:   ptr("New Name"),
		Avatar: ptr("https://img.example.com/a.png"),
		Role:   ptr(models.RoleAdmin),
		Active: ptr(false),
	}

	testutil.When(t, "a standard account sends privileged fields", func(t *testing.T) {
		got := FilterAccountUpdate(account(models.RoleUser), patch)
		assert.Nil(t, got.Role)
		assert.Nil(t, got.Active)
		assert.Equal(t, "New Name", *got.Name)
		assert.Equal(t, "https://img.example.com/a.png", *got.Avatar)
		assert.NotNil(t, patch.Role, "input is not mutated")
	})

	testutil.When(t, "an administrator sends them", func(t *testing.T) {
		got := FilterAccountUpdate(account(models.RoleAdmin), patch)
		assert.Equal(t, models.RoleAdmin, *got.Role)
		assert.False(t, *got.Active)
	})
}
