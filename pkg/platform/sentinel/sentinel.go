package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into coded domain errors or auth denials.
//
//   - ErrNotFound: record does not exist (or was deleted)
//   - ErrConflict: a uniqueness constraint was violated (duplicate email, slug)
//   - ErrUnavailable: backing store or cache cannot be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
