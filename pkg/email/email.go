// Package email holds helpers for working with email addresses.
package email

import (
	"strings"
	"unicode"
)

// DisplayName guesses a human name from the local part of an address:
// "ann.lee+shop@example.com" becomes "Ann Lee". Falls back to "User".
func DisplayName(address string) string {
	local, _, _ := strings.Cut(address, "@")
	local, _, _ = strings.Cut(local, "+")

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	if len(parts) == 0 {
		return "User"
	}
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
