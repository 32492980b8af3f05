package handler

import (
	"encoding/json"
	"strings"
	"time"

	"entgate/internal/catalog"
	"entgate/internal/entitlement/models"
	id "entgate/pkg/domain"
	derrors "entgate/pkg/domain-errors"
)

// GrantRequest is the admin payload for granting a feature or quota.
// Config is passed through opaquely; the catalog validates it against the
// feature's declared shape.
type GrantRequest struct {
	UserID  string          `json:"user_id"`
	Feature string          `json:"feature"`
	Config  json.RawMessage `json:"config,omitempty"`
}

func (r *GrantRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Feature = strings.TrimSpace(r.Feature)
}

func (r *GrantRequest) Validate() error {
	if r.UserID == "" {
		return derrors.New(derrors.CodeBadRequest, "user_id is required")
	}
	if r.Feature == "" {
		return derrors.New(derrors.CodeBadRequest, "feature is required")
	}
	return nil
}

// RevokeRequest is the admin payload for revoking an active grant.
type RevokeRequest struct {
	UserID  string `json:"user_id"`
	Feature string `json:"feature"`
}

func (r *RevokeRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Feature = strings.TrimSpace(r.Feature)
}

func (r *RevokeRequest) Validate() error {
	if r.UserID == "" {
		return derrors.New(derrors.CodeBadRequest, "user_id is required")
	}
	if r.Feature == "" {
		return derrors.New(derrors.CodeBadRequest, "feature is required")
	}
	return nil
}

type entitlementResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Feature   string          `json:"feature"`
	Kind      string          `json:"kind"`
	Version   int             `json:"version"`
	Config    json.RawMessage `json:"config"`
	GrantedAt time.Time       `json:"granted_at"`
	RevokedAt *time.Time      `json:"revoked_at,omitempty"`
}

func toEntitlementResponse(rec *models.EntitlementRecord) entitlementResponse {
	return entitlementResponse{
		ID:        rec.ID.String(),
		UserID:    rec.UserID.String(),
		Feature:   string(rec.Feature),
		Kind:      string(rec.Kind),
		Version:   rec.Version,
		Config:    rec.Config,
		GrantedAt: rec.GrantedAt,
		RevokedAt: rec.RevokedAt,
	}
}

type revokeResponse struct {
	Revoked bool `json:"revoked"`
}

type earlyAccessUsersResponse struct {
	Users []string `json:"users"`
}

func toEarlyAccessUsersResponse(users []id.UserID) earlyAccessUsersResponse {
	out := earlyAccessUsersResponse{Users: make([]string, len(users))}
	for i, u := range users {
		out.Users[i] = u.String()
	}
	return out
}

type earlyAccessCheckResponse struct {
	EarlyAccess bool `json:"early_access"`
}

type quotaResponse struct {
	Feature string              `json:"feature"`
	Version int                 `json:"version"`
	Default bool                `json:"default"`
	Quota   catalog.QuotaConfig `json:"quota"`
}
