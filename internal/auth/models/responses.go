package models

import "time"

// AccountView is the public representation of an account.
type AccountView struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Role                Role       `json:"role"`
	Avatar              string     `json:"avatar"`
	ProfileURL          string     `json:"profileUrl"`
	IsActive            bool       `json:"isActive"`
	LastAuthenticatedAt *time.Time `json:"lastLogin,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func ToView(a *Account) AccountView {
	return AccountView{
		ID:                  a.ID.String(),
		Name:                a.Name,
		Email:               a.Email,
		Role:                a.Role,
		Avatar:              a.Avatar,
		ProfileURL:          a.ProfileURL(),
		IsActive:            a.Active,
		LastAuthenticatedAt: a.LastAuthenticatedAt,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *Account
}

type AuthResponse struct {
	Success   bool        `json:"success"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      AccountView `json:"user"`
}

type AccountResponse struct {
	Success bool        `json:"success"`
	User    AccountView `json:"user"`
}

type AccountListResponse struct {
	Success    bool          `json:"success"`
	Count      int           `json:"count"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"pages"`
	Users      []AccountView `json:"users"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
