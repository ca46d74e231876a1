// Package denial names every way an authentication or authorization check can
// fail. The internal kind is for logs and metrics; clients only ever see the
// external reason from the mapping table.
package denial

import (
	"errors"

	dErrors "market/pkg/domain-errors"
)

type Kind string

const (
	NoCredential                 Kind = "no_credential"
	MalformedToken               Kind = "malformed_token"
	ExpiredToken                 Kind = "expired_token"
	SubjectNotFound              Kind = "subject_not_found"
	UnknownEmail                 Kind = "unknown_email"
	PasswordMismatch             Kind = "password_mismatch"
	CredentialComputationFailure Kind = "credential_computation_failure"
	AccountDeactivated           Kind = "account_deactivated"
	InsufficientRole             Kind = "insufficient_role"
	NotResourceOwner             Kind = "not_resource_owner"
	DuplicateEmail               Kind = "duplicate_email"
)

type external struct {
	code    dErrors.Code
	message string
}

// table is the only place internal kinds meet external reasons. Every
// invalid-credential variant shares one message so responses cannot be told
// apart.
var table = map[Kind]external{
	NoCredential:                 {dErrors.CodeNoCredential, "authentication required"},
	MalformedToken:               {dErrors.CodeInvalidCredential, "invalid credentials"},
	ExpiredToken:                 {dErrors.CodeInvalidCredential, "invalid credentials"},
	SubjectNotFound:              {dErrors.CodeInvalidCredential, "invalid credentials"},
	UnknownEmail:                 {dErrors.CodeInvalidCredential, "invalid credentials"},
	PasswordMismatch:             {dErrors.CodeInvalidCredential, "invalid credentials"},
	CredentialComputationFailure: {dErrors.CodeInvalidCredential, "invalid credentials"},
	AccountDeactivated:           {dErrors.CodeAccountDeactivated, "account has been deactivated"},
	InsufficientRole:             {dErrors.CodeInsufficientRole, "insufficient role for this action"},
	NotResourceOwner:             {dErrors.CodeNotResourceOwner, "not authorized to act on this resource"},
	DuplicateEmail:               {dErrors.CodeDuplicateEmail, "email is already registered"},
}

// Kinds lists every kind in the table.
func Kinds() []Kind {
	out := make([]Kind, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	return out
}

// Denial is a failed auth decision.
type Denial struct {
	Kind  Kind
	cause error
}

func New(kind Kind) *Denial {
	return &Denial{Kind: kind}
}

// Wrap records cause for logging. It is never rendered to clients.
func Wrap(kind Kind, cause error) *Denial {
	return &Denial{Kind: kind, cause: cause}
}

func (d *Denial) Error() string {
	if d.cause != nil {
		return string(d.Kind) + ": " + d.cause.Error()
	}
	return string(d.Kind)
}

func (d *Denial) Unwrap() error { return d.cause }

// Is matches another Denial of the same kind.
func (d *Denial) Is(target error) bool {
	var t *Denial
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == d.Kind
}

// External is the client-facing form consumed by httputil.WriteError.
func (d *Denial) External() error {
	ext, ok := table[d.Kind]
	if !ok {
		return dErrors.New(dErrors.CodeInternal, "internal error")
	}
	return dErrors.New(ext.code, ext.message)
}

// Code is the external reason for the kind.
func (d *Denial) Code() dErrors.Code {
	if ext, ok := table[d.Kind]; ok {
		return ext.code
	}
	return dErrors.CodeInternal
}

// KindOf returns the kind of the first Denial in err's chain.
func KindOf(err error) (Kind, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d.Kind, true
	}
	return "", false
}

// Is reports whether err is a Denial of kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
