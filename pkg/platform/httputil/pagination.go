package httputil

import (
	"math"
	"net/http"
	"strconv"
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// TotalPages is the number of pages needed to show total records.
func (p Page) TotalPages(total int) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// ParsePage reads page and limit from the query string. Missing or unusable
// values fall back to page 1 and defaultLimit; limit is capped at maxLimit
// and page is capped so Offset cannot overflow.
func ParsePage(r *http.Request, defaultLimit, maxLimit int) Page {
	q := r.URL.Query()
	p := Page{Number: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Limit > 0 && p.Number > math.MaxInt/p.Limit {
		p.Number = math.MaxInt / p.Limit
	}
	return p
}
