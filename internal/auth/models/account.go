package models

import (
	"net/url"
	"strings"
	"time"

	id "market/pkg/domain"
)

// Role is the coarse privilege level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is a registered principal. PasswordHash is only populated by the
// store lookups used for login and must never be serialised.
type Account struct {
	ID                  id.AccountID
	Email               string
	Name                string
	PasswordHash        string `json:"-"`
	Role                Role
	Avatar              string
	Active              bool
	LastAuthenticatedAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// HasRole reports whether the account holds any of the given roles.
func (a *Account) HasRole(roles ...Role) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// WithoutSecret returns a copy with the password hash cleared.
func (a Account) WithoutSecret() *Account {
	a.PasswordHash = ""
	return &a
}

// ProfileURL is the avatar when set, otherwise a generated initials image.
func (a *Account) ProfileURL() string {
	if a.Avatar != "" {
		return a.Avatar
	}
	q := url.Values{}
	q.Set("name", a.Name)
	q.Set("background", "random")
	return "https://ui-avatars.com/api/?" + q.Encode()
}

// AccountPatch lists the mutable account fields. Nil means "leave unchanged".
type AccountPatch struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
	Role   *Role   `json:"role,omitempty"`
	Active *bool   `json:"isActive,omitempty"`
}

func (p AccountPatch) IsEmpty() bool {
	return p.Name == nil && p.Avatar == nil && p.Role == nil && p.Active == nil
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
