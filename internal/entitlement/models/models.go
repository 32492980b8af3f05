// Package models defines the entitlement aggregate persisted by the stores.
package models

import (
	"encoding/json"
	"time"

	"entgate/internal/catalog"
	id "entgate/pkg/domain"
	derrors "entgate/pkg/domain-errors"
)

// EntitlementRecord is one grant of a feature or quota to a user.
//
// Invariants:
//   - Config validates against the catalog definition for (Feature, Version)
//     at write time; unknown features are rejected before any write
//   - Records are never mutated in place: a new grant appends a new record,
//     a revocation sets RevokedAt on the active record (tombstone)
//   - Multiple records may exist per (user, feature); for quota-kind entries
//     the most recently granted active record is the single active quota
//
// The tombstone keeps older quota records around for audit while making
// subsequent resolution treat the grant as absent.
type EntitlementRecord struct {
	ID        id.RecordID         `json:"id"`
	UserID    id.UserID           `json:"user_id"`
	Feature   catalog.FeatureName `json:"feature"`
	Kind      catalog.Kind        `json:"kind"`
	Version   int                 `json:"version"`
	Config    json.RawMessage     `json:"config"`
	GrantedAt time.Time           `json:"granted_at"`
	RevokedAt *time.Time          `json:"revoked_at,omitempty"`
}

// IsActive reports whether this record still confers its grant.
func (r *EntitlementRecord) IsActive() bool {
	return r.RevokedAt == nil
}

// NewRecord builds a record from an already-validated config.
func NewRecord(userID id.UserID, def catalog.FeatureDefinition, cfg catalog.Config, now time.Time) (*EntitlementRecord, error) {
	if userID.IsNil() {
		return nil, derrors.New(derrors.CodeBadRequest, "user ID is required")
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "encode entitlement config")
	}
	return &EntitlementRecord{
		ID:        id.NewRecordID(),
		UserID:    userID,
		Feature:   def.Name,
		Kind:      def.Kind,
		Version:   def.Version,
		Config:    raw,
		GrantedAt: now,
	}, nil
}
