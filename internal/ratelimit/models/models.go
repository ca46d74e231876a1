// Package models holds rate-limit results and their wire shapes.
package models

import (
	"strings"
	"time"
)

// Result is the outcome of one rate-limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is whole seconds until the window frees a slot; zero when allowed.
	RetryAfter int
}

// ExceededResponse is the 429 body. It shares the error/error_description
// shape of every other error response.
type ExceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}

// ClientKey is the bucket key for a client address.
func ClientKey(ip string) string {
	return "ip:" + SanitizeKeySegment(ip)
}

// SanitizeKeySegment escapes the key delimiter so an identifier cannot spill
// into an adjacent key segment.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// RetryAfterSeconds rounds d up to whole seconds, never below one.
func RetryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
