package models

import (
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"

	dErrors "market/pkg/domain-errors"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit
	MaxNameLength     = 100
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
}

func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if utf8.RuneCountInString(r.Name) > MaxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name cannot exceed 100 characters")
	}
	if r.Email == "" || !govalidator.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	return validatePassword(r.Password)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" {
		return dErrors.New(dErrors.CodeValidation, "current password is required")
	}
	return validatePassword(r.NewPassword)
}

// UpdateAccountRequest is the wire form of an account update. Fields the
// caller may not change are stripped later, not rejected here.
type UpdateAccountRequest struct {
	AccountPatch
}

func (r *UpdateAccountRequest) Normalize() {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	if r.Avatar != nil {
		trimmed := strings.TrimSpace(*r.Avatar)
		r.Avatar = &trimmed
	}
}

func (r *UpdateAccountRequest) Validate() error {
	if r.Name != nil {
		if *r.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "name cannot be empty")
		}
		if utf8.RuneCountInString(*r.Name) > MaxNameLength {
			return dErrors.New(dErrors.CodeValidation, "name cannot exceed 100 characters")
		}
	}
	if r.Avatar != nil && *r.Avatar != "" && !govalidator.IsURL(*r.Avatar) {
		return dErrors.New(dErrors.CodeValidation, "avatar must be a URL")
	}
	if r.Role != nil && !r.Role.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "role must be user or admin")
	}
	return nil
}

func validatePassword(p string) error {
	if len(p) < MinPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if len(p) > MaxPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password cannot exceed 72 bytes")
	}
	return nil
}
