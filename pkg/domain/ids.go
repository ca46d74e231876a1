// Package domain holds typed identifiers shared across packages. Distinct
// types keep an item id from being passed where an account id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "market/pkg/domain-errors"
)

type (
	AccountID uuid.UUID
	ItemID    uuid.UUID
)

func NewAccountID() AccountID { return AccountID(uuid.New()) }
func NewItemID() ItemID       { return ItemID(uuid.New()) }

func (id AccountID) String() string { return uuid.UUID(id).String() }
func (id AccountID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id AccountID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *AccountID) UnmarshalText(b []byte) error {
	parsed, err := ParseAccountID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ItemID) String() string { return uuid.UUID(id).String() }
func (id ItemID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id ItemID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ItemID) UnmarshalText(b []byte) error {
	parsed, err := ParseItemID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseAccountID accepts only canonical, non-nil UUIDs.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account id")
	return AccountID(u), err
}

func ParseItemID(s string) (ItemID, error) {
	u, err := parseUUID(s, "item id")
	return ItemID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil || len(s) != 36 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	return u, nil
}
