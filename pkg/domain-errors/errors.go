// Package domainerrors defines coded errors shared by services and transport.
// Services return them; pkg/platform/httputil turns them into JSON responses.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code is the stable, machine-checkable reason string sent to clients.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTooManyRequests    Code = "rate_limit_exceeded"
	CodePayloadTooLarge    Code = "payload_too_large"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"

	// Auth surface. These are the only reasons an auth failure may carry.
	CodeNoCredential       Code = "no_credential"
	CodeInvalidCredential  Code = "invalid_credential"
	CodeAccountDeactivated Code = "account_deactivated"
	CodeInsufficientRole   Code = "insufficient_role"
	CodeNotResourceOwner   Code = "not_resource_owner"
	CodeDuplicateEmail     Code = "duplicate_email"
)

// Error carries a code, a client-safe message and an optional cause that is
// never rendered to clients.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code and message so tests can compare against New(...).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the outermost coded error in err's chain.
func CodeOf(err error) (Code, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

func HasCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// ToHTTPStatus maps a code to its status class. Unknown codes are 500s.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeValidation, CodeDuplicateEmail:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized, CodeNoCredential, CodeInvalidCredential:
		return http.StatusUnauthorized
	case CodeForbidden, CodeAccountDeactivated, CodeInsufficientRole, CodeNotResourceOwner:
		return http.StatusForbidden
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
