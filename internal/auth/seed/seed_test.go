package seed

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market/internal/auth/credential"
	"market/internal/auth/models"
	accountstore "market/internal/auth/store/account"
)

const sample = `
accounts:
  - name: Root
    email: "  Root@Example.com "
    password: correct-horse
    role: admin
  - email: sam.jones@example.com
    password: battery-staple
`

func TestParseDefaultsRole(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, f.Accounts, 2)
	assert.Equal(t, models.RoleAdmin, f.Accounts[0].Role)
	assert.Equal(t, models.RoleUser, f.Accounts[1].Role)
	assert.Equal(t, "Sam Jones", f.Accounts[1].Name)
}

func TestParseRejectsUnknownRole(t *testing.T) {
	_, err := Parse([]byte("accounts:\n  - name: A\n    email: a@example.com\n    password: 12345678\n    role: owner\n"))
	assert.ErrorContains(t, err, "invalid role")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	f, err := Load(path)
	require.NoError(t, err)

	store := accountstore.New()
	hasher := credential.NewHasher(4)
	ctx := context.Background()

	n, err := Apply(ctx, f, store, hasher, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	root, err := store.FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, root.Role)
	assert.True(t, root.Active)
	ok, err := hasher.Verify("correct-horse", root.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err = Apply(ctx, f, store, hasher, slog.Default())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApplyValidatesEntries(t *testing.T) {
	f := &File{Accounts: []Entry{{Name: "Short", Email: "s@example.com", Password: "short", Role: models.RoleAdmin}}}
	_, err := Apply(context.Background(), f, accountstore.New(), credential.NewHasher(4), slog.Default())
	assert.Error(t, err)
}
