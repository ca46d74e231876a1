package handler

import "market/internal/auth/denial"

// errNoIdentity only occurs when a protected route was mounted without
// RequireAuth.
var errNoIdentity = denial.New(denial.NoCredential)
