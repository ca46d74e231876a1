package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "market/pkg/domain-errors"
)

// IDs arrive from URL paths and token subjects, so parsing is a trust boundary.
func TestParseAccountID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAccountID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects braced and urn forms", func(t *testing.T) {
		u := uuid.New().String()
		for _, in := range []string{"{" + u + "}", "urn:uuid:" + u, strings.ReplaceAll(u, "-", "")} {
			_, err := ParseAccountID(in)
			assert.Error(t, err, in)
		}
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAccountID(uuid.Nil.String())
		require.Error(t, err)
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		u := uuid.New()
		got, err := ParseAccountID(u.String())
		require.NoError(t, err)
		assert.Equal(t, AccountID(u), got)
	})
}

func TestIDJSON(t *testing.T) {
	type payload struct {
		Owner AccountID `json:"owner"`
		Item  ItemID    `json:"item"`
	}
	in := payload{Owner: NewAccountID(), Item: NewItemID()}

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), in.Owner.String())

	var out payload
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	err = json.Unmarshal([]byte(`{"owner":"nope"}`), &out)
	assert.Error(t, err)
}
