package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"ann.lee@example.com":      "Ann Lee",
		"ann.lee+shop@example.com": "Ann Lee",
		"BOB_smith-jr@example.com": "Bob Smith Jr",
		"root@example.com":         "Root",
		"@example.com":             "User",
		"+tag@example.com":         "User",
	}
	for in, want := range cases {
		assert.Equal(t, want, DisplayName(in), in)
	}
}
