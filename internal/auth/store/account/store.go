// Package account persists accounts. Email uniqueness is enforced here, not
// by callers: a duplicate surfaces as sentinel.ErrConflict.
package account

// ListParams pages through accounts, newest first.
type ListParams struct {
	Offset int
	Limit  int
}
