package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"entgate/internal/catalog"
	"entgate/internal/entitlement/models"
	"entgate/internal/entitlement/quota"
	id "entgate/pkg/domain"
	derrors "entgate/pkg/domain-errors"
	"entgate/pkg/platform/audit"
	"entgate/pkg/platform/sentinel"
	"entgate/pkg/requestcontext"
)

// Grant appends an entitlement for the latest catalog version of feature.
// Staff-only. A nil raw config takes the definition default; duplicate
// grants of the same feature append history rather than erroring.
func (s *Service) Grant(ctx context.Context, caller Caller, userID id.UserID, feature catalog.FeatureName, raw json.RawMessage) (*models.EntitlementRecord, error) {
	ctx, span := s.tracer.Start(ctx, "entitlement.Grant",
		trace.WithAttributes(attribute.String("feature", string(feature))))
	defer span.End()
	defer s.observe(OpGrant, time.Now())

	if err := s.requireStaff(ctx, caller, OpGrant, userID); err != nil {
		return nil, err
	}
	if userID.IsNil() {
		return nil, derrors.New(derrors.CodeBadRequest, "user ID is required")
	}
	if s.directory != nil {
		exists, err := s.directory.Exists(ctx, userID)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to look up user")
		}
		if !exists {
			return nil, derrors.New(derrors.CodeNotFound, "user not found")
		}
	}

	def, err := s.catalog.DefinitionFor(feature)
	if err != nil {
		s.metrics.IncrementWrite("grant", string(feature), "rejected")
		return nil, err
	}
	cfg, err := s.catalog.Validate(def.Kind, def.Name, def.Version, raw)
	if err != nil {
		s.metrics.IncrementWrite("grant", string(feature), "rejected")
		return nil, err
	}

	record, err := models.NewRecord(userID, def, cfg, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, record); err != nil {
		span.RecordError(err)
		s.metrics.IncrementWrite("grant", string(feature), "error")
		return nil, storeFault(err, "failed to store entitlement")
	}

	s.emitAudit(ctx, audit.Event{
		UserID:     userID,
		Action:     string(audit.EventEntitlementGranted),
		Feature:    string(feature),
		Decision:   "allow",
		ActorEmail: actorEmail(ctx, caller),
	})
	s.metrics.IncrementWrite("grant", string(feature), "ok")
	return record, nil
}

// Revoke tombstones the active grant of feature for userID. Staff-only.
// Revoking an absent or already-revoked grant reports false without error,
// so revocation is safe to retry.
func (s *Service) Revoke(ctx context.Context, caller Caller, userID id.UserID, feature catalog.FeatureName) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "entitlement.Revoke",
		trace.WithAttributes(attribute.String("feature", string(feature))))
	defer span.End()
	defer s.observe(OpRevoke, time.Now())

	if err := s.requireStaff(ctx, caller, OpRevoke, userID); err != nil {
		return false, err
	}
	if userID.IsNil() {
		return false, derrors.New(derrors.CodeBadRequest, "user ID is required")
	}
	if _, err := s.catalog.DefinitionFor(feature); err != nil {
		return false, err
	}

	revoked, err := s.store.DeleteActive(ctx, userID, feature)
	if err != nil {
		span.RecordError(err)
		s.metrics.IncrementWrite("revoke", string(feature), "error")
		return false, storeFault(err, "failed to revoke entitlement")
	}
	if !revoked {
		s.metrics.IncrementWrite("revoke", string(feature), "absent")
		return false, nil
	}

	s.emitAudit(ctx, audit.Event{
		UserID:     userID,
		Action:     string(audit.EventEntitlementRevoked),
		Feature:    string(feature),
		Decision:   "allow",
		ActorEmail: actorEmail(ctx, caller),
	})
	s.metrics.IncrementWrite("revoke", string(feature), "ok")
	return true, nil
}

// ListEarlyAccess returns the users holding an active early_access grant.
// Staff-only.
func (s *Service) ListEarlyAccess(ctx context.Context, caller Caller) ([]id.UserID, error) {
	ctx, span := s.tracer.Start(ctx, "entitlement.ListEarlyAccess")
	defer span.End()
	defer s.observe(OpListEarlyAccess, time.Now())

	if err := s.requireStaff(ctx, caller, OpListEarlyAccess, id.UserID{}); err != nil {
		return nil, err
	}
	users, err := s.store.ListEarlyAccessUsers(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, storeFault(err, "failed to list early-access users")
	}
	s.emitAudit(ctx, audit.Event{
		Action:     string(audit.EventEarlyAccessListed),
		ActorEmail: actorEmail(ctx, caller),
	})
	return users, nil
}

// ListEntitlements returns the full grant history for a user, tombstones
// included. Staff-only.
func (s *Service) ListEntitlements(ctx context.Context, caller Caller, userID id.UserID) ([]models.EntitlementRecord, error) {
	ctx, span := s.tracer.Start(ctx, "entitlement.ListEntitlements")
	defer span.End()
	defer s.observe(OpListEntitlements, time.Now())

	if err := s.requireStaff(ctx, caller, OpListEntitlements, userID); err != nil {
		return nil, err
	}
	if userID.IsNil() {
		return nil, derrors.New(derrors.CodeBadRequest, "user ID is required")
	}
	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, storeFault(err, "failed to list entitlements")
	}
	return records, nil
}

// HasEarlyAccess reports whether email is covered by early access, either
// through the allow list or an explicit active grant. It never fails: any
// lookup problem reads as "no access" so the check stays cheap to call from
// hot paths.
func (s *Service) HasEarlyAccess(ctx context.Context, email string) bool {
	ctx, span := s.tracer.Start(ctx, "entitlement.HasEarlyAccess")
	defer span.End()
	defer s.observe(OpCheckEarlyAccess, time.Now())

	email = strings.TrimSpace(email)
	if email == "" {
		s.metrics.IncrementEarlyAccessCheck(false)
		return false
	}
	if s.gate.Matches(email) {
		s.metrics.IncrementEarlyAccessCheck(true)
		return true
	}
	if s.directory == nil {
		s.metrics.IncrementEarlyAccessCheck(false)
		return false
	}

	userID, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) && !derrors.HasCode(err, derrors.CodeNotFound) {
			s.logger.WarnContext(ctx, "early-access user lookup failed",
				slog.String("error", err.Error()))
		}
		s.metrics.IncrementEarlyAccessCheck(false)
		return false
	}
	records, err := s.store.ListByUser(ctx, userID, catalog.KindFeature)
	if err != nil {
		s.logger.WarnContext(ctx, "early-access grant lookup failed", slog.String("error", err.Error()))
		s.metrics.IncrementEarlyAccessCheck(false)
		return false
	}
	for i := range records {
		if records[i].Feature == catalog.FeatureEarlyAccess && records[i].IsActive() {
			s.metrics.IncrementEarlyAccessCheck(true)
			return true
		}
	}
	s.metrics.IncrementEarlyAccessCheck(false)
	return false
}

// ResolveQuota returns the user's effective quota tier. It never fails:
// store trouble or an empty history degrades to the catalog default.
func (s *Service) ResolveQuota(ctx context.Context, userID id.UserID) quota.Resolution {
	ctx, span := s.tracer.Start(ctx, "entitlement.ResolveQuota")
	defer span.End()
	defer s.observe(OpResolveQuota, time.Now())

	res := s.resolver.Resolve(ctx, userID)
	s.metrics.IncrementQuotaResolution(res.Defaulted)
	if res.Defaulted {
		s.emitAudit(ctx, audit.Event{
			UserID:   userID,
			Action:   string(audit.EventQuotaDefaulted),
			Feature:  string(res.Feature),
			Decision: "default",
		})
	}
	span.SetAttributes(attribute.String("quota", string(res.Feature)))
	return res
}

func actorEmail(ctx context.Context, caller Caller) string {
	if caller.Email != "" {
		return caller.Email
	}
	return requestcontext.CallerEmail(ctx)
}

// storeFault maps infrastructure facts from the store to API error codes.
func storeFault(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return derrors.Wrap(err, derrors.CodeUnavailable, msg)
	case errors.Is(err, sentinel.ErrConflict):
		return derrors.Wrap(err, derrors.CodeConflict, msg)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return derrors.Wrap(err, derrors.CodeUnavailable, msg)
	default:
		return derrors.Wrap(err, derrors.CodeInternal, msg)
	}
}
