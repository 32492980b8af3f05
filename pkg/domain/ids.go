// Package domain defines typed identifiers shared across the engine.
//
// IDs are distinct types over uuid.UUID so the compiler rejects cross-type
// assignment. Parse functions enforce the trust-boundary invariant that IDs
// are valid, non-empty, non-nil UUIDs.
package domain

import (
	"strings"

	"github.com/google/uuid"

	derrors "entgate/pkg/domain-errors"
)

// UserID identifies a user account owned by the external account system.
type UserID uuid.UUID

// RecordID identifies a single entitlement record.
type RecordID uuid.UUID

func (id UserID) String() string   { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) String() string { return uuid.UUID(id).String() }
func (id RecordID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewRecordID returns a fresh random record identifier.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// ParseUserID parses and validates a user ID at a trust boundary.
func ParseUserID(raw string) (UserID, error) {
	u, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

func parseUUID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, "id is required")
	}
	// uuid.Parse accepts URN and braced forms; reject anything longer than
	// the canonical representations before parsing.
	if len(raw) > 45 {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, "id is malformed")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, derrors.Wrap(err, derrors.CodeInvalidInput, "id is malformed")
	}
	if u == uuid.Nil {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, "id must not be the nil uuid")
	}
	return u, nil
}
