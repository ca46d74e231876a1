package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "market/pkg/domain-errors"
)

func TestRegisterRequestValidate(t *testing.T) {
	valid := func() RegisterRequest {
		return RegisterRequest{Name: " Ann ", Email: " Ann@Example.COM ", Password: "correct-horse"}
	}

	t.Run("normalizes email and name", func(t *testing.T) {
		req := valid()
		req.Normalize()
		assert.Equal(t, "ann@example.com", req.Email)
		assert.Equal(t, "Ann", req.Name)
		require.NoError(t, req.Validate())
	})

	cases := map[string]func(r *RegisterRequest){
		"missing name":   func(r *RegisterRequest) { r.Name = "" },
		"long name":      func(r *RegisterRequest) { r.Name = strings.Repeat("a", 101) },
		"bad email":      func(r *RegisterRequest) { r.Email = "not-an-email" },
		"short password": func(r *RegisterRequest) { r.Password = "1234567" },
		"long password":  func(r *RegisterRequest) { r.Password = strings.Repeat("p", 73) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := valid()
			req.Normalize()
			mutate(&req)
			err := req.Validate()
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

func TestUpdateAccountRequestValidate(t *testing.T) {
	bogus := Role("root")
	empty := "   "
	req := UpdateAccountRequest{AccountPatch{Role: &bogus}}
	assert.Error(t, req.Validate())

	req = UpdateAccountRequest{AccountPatch{Name: &empty}}
	req.Normalize()
	assert.Error(t, req.Validate())

	name := "Bea"
	req = UpdateAccountRequest{AccountPatch{Name: &name}}
	assert.NoError(t, req.Validate())
}

func TestAccountHelpers(t *testing.T) {
	a := &Account{Name: "Ann Lee", Role: RoleUser, PasswordHash: "h"}
	assert.False(t, a.IsAdmin())
	assert.True(t, a.HasRole(RoleAdmin, RoleUser))
	assert.Contains(t, a.ProfileURL(), "ui-avatars.com")
	assert.Contains(t, a.ProfileURL(), "name=Ann+Lee")

	clean := a.WithoutSecret()
	assert.Empty(t, clean.PasswordHash)
	assert.Equal(t, "h", a.PasswordHash)

	var nilAccount *Account
	assert.False(t, nilAccount.HasRole(RoleUser))
}
