// Package access decides whether a resolved account may perform an action.
// Every check takes the actor explicitly; an unresolved actor is always
// denied with NoCredential.
package access

import (
	"market/internal/auth/denial"
	"market/internal/auth/models"
	id "market/pkg/domain"
)

// RequireRole allows the actor when it holds any of roles.
func RequireRole(actor *models.Account, roles ...models.Role) error {
	if actor == nil {
		return denial.New(denial.NoCredential)
	}
	if !actor.HasRole(roles...) {
		return denial.New(denial.InsufficientRole)
	}
	return nil
}

// OwnerOrRole is the single ownership predicate: the actor owns the
// resource, or holds role.
func OwnerOrRole(actor *models.Account, ownerID id.AccountID, role models.Role) bool {
	if actor == nil {
		return false
	}
	return actor.ID == ownerID || actor.Role == role
}

// AuthorizeOwner allows the resource owner or an administrator.
func AuthorizeOwner(actor *models.Account, ownerID id.AccountID) error {
	if actor == nil {
		return denial.New(denial.NoCredential)
	}
	if !OwnerOrRole(actor, ownerID, models.RoleAdmin) {
		return denial.New(denial.NotResourceOwner)
	}
	return nil
}

// AuthorizeSelf allows an account to act on itself, or an administrator on
// any account.
func AuthorizeSelf(actor *models.Account, targetID id.AccountID) error {
	return AuthorizeOwner(actor, targetID)
}

// FilterAccountUpdate drops privileged fields the actor may not change. The
// request is never rejected for carrying them.
func FilterAccountUpdate(actor *models.Account, patch models.AccountPatch) models.AccountPatch {
	if actor.IsAdmin() {
		return patch
	}
	patch.Role = nil
	patch.Active = nil
	return patch
}
