package models

import (
	"strconv"
	"strings"
	"time"
)

// Slugify lowercases title, collapses every run of characters outside
// [a-z0-9] to a single hyphen and appends the millisecond timestamp.
func Slugify(title string, at time.Time) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	if b.Len() > 0 {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatInt(at.UnixMilli(), 10))
	return b.String()
}
