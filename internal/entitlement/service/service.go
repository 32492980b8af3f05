package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"entgate/internal/catalog"
	"entgate/internal/entitlement/earlyaccess"
	"entgate/internal/entitlement/metrics"
	"entgate/internal/entitlement/models"
	"entgate/internal/entitlement/quota"
	id "entgate/pkg/domain"
	derrors "entgate/pkg/domain-errors"
	"entgate/pkg/platform/audit"
	"entgate/pkg/requestcontext"
)

// Operation names. Each service operation is externally nameable so rate
// limiting and metrics can address it as a unit.
const (
	OpGrant            = "entitlement_grant"
	OpRevoke           = "entitlement_revoke"
	OpListEarlyAccess  = "early_access_list"
	OpCheckEarlyAccess = "early_access_check"
	OpResolveQuota     = "quota_resolve"
	OpListEntitlements = "entitlement_history"
)

type EntitlementStore interface {
	Insert(ctx context.Context, record *models.EntitlementRecord) error
	ListByUser(ctx context.Context, userID id.UserID, kinds ...catalog.Kind) ([]models.EntitlementRecord, error)
	DeleteActive(ctx context.Context, userID id.UserID, feature catalog.FeatureName) (bool, error)
	ListEarlyAccessUsers(ctx context.Context) ([]id.UserID, error)
}

// StaffChecker answers whether a caller may use administrative operations.
type StaffChecker interface {
	IsStaff(ctx context.Context, email string) (bool, error)
}

// UserDirectory resolves users managed elsewhere. Grants target existing
// users only; this service never creates accounts.
type UserDirectory interface {
	Exists(ctx context.Context, userID id.UserID) (bool, error)
	// FindByEmail returns the user for an email address, or an error
	// wrapping sentinel.ErrNotFound when no such user exists.
	FindByEmail(ctx context.Context, email string) (id.UserID, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Caller identifies who invoked an operation. Administrative operations act
// on a user's behalf, so the actor and the subject are distinct.
type Caller struct {
	Email string
}

// Service orchestrates entitlement grants, revocations and reads.
type Service struct {
	store          EntitlementStore
	catalog        *catalog.Catalog
	staff          StaffChecker
	directory      UserDirectory
	resolver       *quota.Resolver
	gate           *earlyaccess.Gate
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithUserDirectory(directory UserDirectory) Option {
	return func(s *Service) {
		s.directory = directory
	}
}

// New constructs a Service. The early-access gate is built once from the
// catalog's early_access definition; an absent definition leaves the gate
// matching nothing.
func New(store EntitlementStore, cat *catalog.Catalog, staff StaffChecker, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, derrors.New(derrors.CodeInternal, "entitlement store is required")
	}
	if cat == nil {
		return nil, derrors.New(derrors.CodeInternal, "catalog is required")
	}
	if staff == nil {
		return nil, derrors.New(derrors.CodeInternal, "staff checker is required")
	}
	s := &Service{
		store:   store,
		catalog: cat,
		staff:   staff,
		tracer:  otel.Tracer("entgate/entitlement"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.resolver = quota.New(store, cat, s.logger)

	var whitelist []string
	if def, err := cat.DefinitionFor(catalog.FeatureEarlyAccess); err == nil {
		if cfg, ok := def.DefaultConfig.(catalog.EarlyAccessConfig); ok {
			whitelist = cfg.Whitelist
		}
	}
	s.gate = earlyaccess.NewGate(whitelist)
	return s, nil
}

// requireStaff gates administrative operations. Checker failures fail
// closed. A rejection is itself an auditable security event.
func (s *Service) requireStaff(ctx context.Context, caller Caller, op string, userID id.UserID) error {
	email := caller.Email
	if email == "" {
		email = requestcontext.CallerEmail(ctx)
	}
	if email == "" {
		return derrors.New(derrors.CodeUnauthorized, "caller identity is required")
	}
	isStaff, err := s.staff.IsStaff(ctx, email)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to verify staff privilege")
	}
	if !isStaff {
		s.metrics.IncrementForbidden(op)
		s.emitAudit(ctx, audit.Event{
			UserID:     userID,
			Action:     string(audit.EventEntitlementForbidden),
			Decision:   "deny",
			Reason:     op,
			ActorEmail: email,
		})
		return derrors.New(derrors.CodeForbidden, "operation requires staff privilege")
	}
	return nil
}

// emitAudit records an audit event. Emission failures are logged, never
// propagated: the domain operation already happened.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	s.logger.InfoContext(ctx, event.Action,
		slog.String("user_id", event.UserID.String()),
		slog.String("feature", event.Feature),
		slog.String("actor", event.ActorEmail),
		slog.String("request_id", event.RequestID),
		slog.String("log_type", "audit"))
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish audit event",
			slog.String("action", event.Action),
			slog.String("error", err.Error()))
	}
}

func (s *Service) observe(op string, started time.Time) {
	s.metrics.ObserveOperationLatency(op, time.Since(started))
}
