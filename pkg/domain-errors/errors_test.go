package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodedErrors(t *testing.T) {
	t.Run("HasCode sees through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("load: %w", New(CodeNotFound, "item not found"))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("Wrap keeps the cause reachable but out of the code", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeInternal, "failed to load account")
		require.ErrorIs(t, err, cause)
		code, ok := CodeOf(err)
		require.True(t, ok)
		assert.Equal(t, CodeInternal, code)
	})

	t.Run("errors.Is compares code and message", func(t *testing.T) {
		err := New(CodeValidation, "name is required")
		assert.ErrorIs(t, err, New(CodeValidation, "name is required"))
		assert.NotErrorIs(t, err, New(CodeValidation, "email is required"))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		_, ok := CodeOf(errors.New("boom"))
		assert.False(t, ok)
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNoCredential:       http.StatusUnauthorized,
		CodeInvalidCredential:  http.StatusUnauthorized,
		CodeAccountDeactivated: http.StatusForbidden,
		CodeInsufficientRole:   http.StatusForbidden,
		CodeNotResourceOwner:   http.StatusForbidden,
		CodeDuplicateEmail:     http.StatusBadRequest,
		CodeValidation:         http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeTooManyRequests:    http.StatusTooManyRequests,
		CodePayloadTooLarge:    http.StatusRequestEntityTooLarge,
		CodeInternal:           http.StatusInternalServerError,
		Code("something_new"):  http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
