package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks EntitlementStore,StaffChecker,UserDirectory,AuditPublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"entgate/internal/catalog"
	"entgate/internal/entitlement/models"
	"entgate/internal/entitlement/service/mocks"
	id "entgate/pkg/domain"
	derrors "entgate/pkg/domain-errors"
	"entgate/pkg/platform/audit"
	"entgate/pkg/platform/sentinel"
	"entgate/pkg/requestcontext"
)

const staffEmail = "ops@example.com"

type EntitlementServiceSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	mockStore     *mocks.MockEntitlementStore
	mockStaff     *mocks.MockStaffChecker
	mockDirectory *mocks.MockUserDirectory
	mockAudit     *mocks.MockAuditPublisher
	service       *Service
	userID        id.UserID
	caller        Caller
}

func TestEntitlementServiceSuite(t *testing.T) {
	suite.Run(t, new(EntitlementServiceSuite))
}

func (s *EntitlementServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockEntitlementStore(s.ctrl)
	s.mockStaff = mocks.NewMockStaffChecker(s.ctrl)
	s.mockDirectory = mocks.NewMockUserDirectory(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)

	cat, err := catalog.Builtin()
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service, err = New(
		s.mockStore,
		cat,
		s.mockStaff,
		WithLogger(logger),
		WithAuditPublisher(s.mockAudit),
		WithUserDirectory(s.mockDirectory),
	)
	s.Require().NoError(err)

	s.userID = id.UserID(uuid.New())
	s.caller = Caller{Email: staffEmail}
}

func (s *EntitlementServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *EntitlementServiceSuite) expectStaff(isStaff bool) {
	s.mockStaff.EXPECT().IsStaff(gomock.Any(), staffEmail).Return(isStaff, nil)
}

func (s *EntitlementServiceSuite) expectUserExists() {
	s.mockDirectory.EXPECT().Exists(gomock.Any(), s.userID).Return(true, nil)
}

func auditAction(action audit.AuditEvent) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		event, ok := x.(audit.Event)
		return ok && event.Action == string(action)
	})
}

func (s *EntitlementServiceSuite) TestNew() {
	cat, err := catalog.Builtin()
	s.Require().NoError(err)

	s.Run("nil store returns error", func() {
		_, err := New(nil, cat, s.mockStaff)
		s.Error(err)
		s.Contains(err.Error(), "entitlement store is required")
	})

	s.Run("nil catalog returns error", func() {
		_, err := New(s.mockStore, nil, s.mockStaff)
		s.Error(err)
		s.Contains(err.Error(), "catalog is required")
	})

	s.Run("nil staff checker returns error", func() {
		_, err := New(s.mockStore, cat, nil)
		s.Error(err)
		s.Contains(err.Error(), "staff checker is required")
	})

	s.Run("valid deps returns configured service", func() {
		svc, err := New(s.mockStore, cat, s.mockStaff)
		s.NoError(err)
		s.NotNil(svc)
	})
}

func (s *EntitlementServiceSuite) TestGrant() {
	s.Run("grants latest version with default config when raw is nil", func() {
		s.expectStaff(true)
		s.expectUserExists()
		var stored *models.EntitlementRecord
		s.mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, rec *models.EntitlementRecord) error {
				stored = rec
				return nil
			})
		s.mockAudit.EXPECT().Emit(gomock.Any(), auditAction(audit.EventEntitlementGranted)).Return(nil)

		record, err := s.service.Grant(context.Background(), s.caller, s.userID, catalog.FeatureFreePlan, nil)

		s.Require().NoError(err)
		s.Equal(stored, record)
		s.Equal(catalog.FeatureFreePlan, record.Feature)
		s.Equal(2, record.Version)
		s.Equal(catalog.KindQuota, record.Kind)
		s.True(record.IsActive())
	})

	s.Run("uses request-scoped time for granted_at", func() {
		pinned := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), pinned)
		s.expectStaff(true)
		s.expectUserExists()
		s.mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		record, err := s.service.Grant(ctx, s.caller, s.userID, catalog.FeatureCopilot, nil)

		s.Require().NoError(err)
		s.True(record.GrantedAt.Equal(pinned))
	})

	s.Run("validates explicit config against the feature shape", func() {
		s.expectStaff(true)
		s.expectUserExists()

		_, err := s.service.Grant(context.Background(), s.caller, s.userID,
			catalog.FeatureCopilot, json.RawMessage(`{"surprise": true}`))

		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeValidation))
	})

	s.Run("unknown feature is rejected before any write", func() {
		s.expectStaff(true)
		s.expectUserExists()

		_, err := s.service.Grant(context.Background(), s.caller, s.userID, "time_travel", nil)

		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})

	s.Run("unknown user is rejected before any write", func() {
		s.expectStaff(true)
		s.mockDirectory.EXPECT().Exists(gomock.Any(), s.userID).Return(false, nil)

		_, err := s.service.Grant(context.Background(), s.caller, s.userID, catalog.FeatureCopilot, nil)

		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})

	s.Run("non-staff caller is forbidden with zero store interaction", func() {
		s.expectStaff(false)
		s.mockAudit.EXPECT().Emit(gomock.Any(), auditAction(audit.EventEntitlementForbidden)).Return(nil)

		_, err := s.service.Grant(context.Background(), s.caller, s.userID, catalog.FeatureCopilot, nil)

		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeForbidden))
	})

	s.Run("staff check failure fails closed", func() {
		s.mockStaff.EXPECT().IsStaff(gomock.Any(), staffEmail).Return(false, fmt.Errorf("directory down"))

		_, err := s.service.Grant(context.Background(), s.caller, s.userID, catalog.FeatureCopilot, nil)

		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeInternal))
	})

	s.Run("anonymous caller is unauthorized", func() {
		_, err := s.service.Grant(context.Background(), Caller{}, s.userID, catalog.FeatureCopilot, nil)

		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("store unavailability surfaces as unavailable", func() {
		s.expectStaff(true)
		s.expectUserExists()
		s.mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).
			Return(fmt.Errorf("insert: %w", sentinel.ErrUnavailable))

		_, err := s.service.Grant(context.Background(), s.caller, s.userID, catalog.FeatureCopilot, nil)

		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnavailable))
	})

	s.Run("cancelled context does not report success", func() {
		s.expectStaff(true)
		s.expectUserExists()
		s.mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(context.Canceled)

		_, err := s.service.Grant(context.Background(), s.caller, s.userID, catalog.FeatureCopilot, nil)

		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnavailable))
	})
}

func (s *EntitlementServiceSuite) TestRevoke() {
	s.Run("revokes an active grant", func() {
		s.expectStaff(true)
		s.mockStore.EXPECT().DeleteActive(gomock.Any(), s.userID, catalog.FeatureCopilot).Return(true, nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), auditAction(audit.EventEntitlementRevoked)).Return(nil)

		revoked, err := s.service.Revoke(context.Background(), s.caller, s.userID, catalog.FeatureCopilot)

		s.NoError(err)
		s.True(revoked)
	})

	s.Run("absent grant reports false without error", func() {
		s.expectStaff(true)
		s.mockStore.EXPECT().DeleteActive(gomock.Any(), s.userID, catalog.FeatureCopilot).Return(false, nil)

		revoked, err := s.service.Revoke(context.Background(), s.caller, s.userID, catalog.FeatureCopilot)

		s.NoError(err)
		s.False(revoked)
	})

	s.Run("unknown feature is rejected", func() {
		s.expectStaff(true)

		_, err := s.service.Revoke(context.Background(), s.caller, s.userID, "time_travel")

		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})

	s.Run("non-staff caller is forbidden with zero store interaction", func() {
		s.expectStaff(false)
		s.mockAudit.EXPECT().Emit(gomock.Any(), auditAction(audit.EventEntitlementForbidden)).Return(nil)

		_, err := s.service.Revoke(context.Background(), s.caller, s.userID, catalog.FeatureCopilot)

		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeForbidden))
	})
}

func (s *EntitlementServiceSuite) TestListEarlyAccess() {
	s.Run("returns early-access holders for staff", func() {
		want := []id.UserID{s.userID}
		s.expectStaff(true)
		s.mockStore.EXPECT().ListEarlyAccessUsers(gomock.Any()).Return(want, nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), auditAction(audit.EventEarlyAccessListed)).Return(nil)

		users, err := s.service.ListEarlyAccess(context.Background(), s.caller)

		s.NoError(err)
		s.Equal(want, users)
	})

	s.Run("non-staff caller is forbidden", func() {
		s.expectStaff(false)
		s.mockAudit.EXPECT().Emit(gomock.Any(), auditAction(audit.EventEntitlementForbidden)).Return(nil)

		_, err := s.service.ListEarlyAccess(context.Background(), s.caller)

		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeForbidden))
	})
}

func (s *EntitlementServiceSuite) TestListEntitlements() {
	s.Run("returns full history including tombstones", func() {
		revokedAt := time.Now()
		want := []models.EntitlementRecord{
			{ID: id.NewRecordID(), UserID: s.userID, Feature: catalog.FeatureCopilot},
			{ID: id.NewRecordID(), UserID: s.userID, Feature: catalog.FeatureProPlan, RevokedAt: &revokedAt},
		}
		s.expectStaff(true)
		s.mockStore.EXPECT().ListByUser(gomock.Any(), s.userID).Return(want, nil)

		records, err := s.service.ListEntitlements(context.Background(), s.caller, s.userID)

		s.NoError(err)
		s.Equal(want, records)
	})

	s.Run("non-staff caller is forbidden", func() {
		s.expectStaff(false)
		s.mockAudit.EXPECT().Emit(gomock.Any(), auditAction(audit.EventEntitlementForbidden)).Return(nil)

		_, err := s.service.ListEntitlements(context.Background(), s.caller, s.userID)

		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeForbidden))
	})
}

func (s *EntitlementServiceSuite) TestHasEarlyAccess() {
	s.Run("allowlisted domain needs no directory lookup", func() {
		s.True(s.service.HasEarlyAccess(context.Background(), "dev@toeverything.info"))
	})

	s.Run("explicit active grant admits an off-domain email", func() {
		s.mockDirectory.EXPECT().FindByEmail(gomock.Any(), "vip@example.com").Return(s.userID, nil)
		s.mockStore.EXPECT().ListByUser(gomock.Any(), s.userID, catalog.KindFeature).
			Return([]models.EntitlementRecord{
				{UserID: s.userID, Feature: catalog.FeatureEarlyAccess, Kind: catalog.KindFeature},
			}, nil)

		s.True(s.service.HasEarlyAccess(context.Background(), "vip@example.com"))
	})

	s.Run("revoked grant reads as no access", func() {
		revokedAt := time.Now()
		s.mockDirectory.EXPECT().FindByEmail(gomock.Any(), "vip@example.com").Return(s.userID, nil)
		s.mockStore.EXPECT().ListByUser(gomock.Any(), s.userID, catalog.KindFeature).
			Return([]models.EntitlementRecord{
				{UserID: s.userID, Feature: catalog.FeatureEarlyAccess, Kind: catalog.KindFeature, RevokedAt: &revokedAt},
			}, nil)

		s.False(s.service.HasEarlyAccess(context.Background(), "vip@example.com"))
	})

	s.Run("unknown user reads as no access", func() {
		s.mockDirectory.EXPECT().FindByEmail(gomock.Any(), "nobody@example.com").
			Return(id.UserID{}, fmt.Errorf("lookup: %w", sentinel.ErrNotFound))

		s.False(s.service.HasEarlyAccess(context.Background(), "nobody@example.com"))
	})

	s.Run("store failure reads as no access, never an error", func() {
		s.mockDirectory.EXPECT().FindByEmail(gomock.Any(), "vip@example.com").Return(s.userID, nil)
		s.mockStore.EXPECT().ListByUser(gomock.Any(), s.userID, catalog.KindFeature).
			Return(nil, fmt.Errorf("list: %w", sentinel.ErrUnavailable))

		s.False(s.service.HasEarlyAccess(context.Background(), "vip@example.com"))
	})

	s.Run("empty email reads as no access", func() {
		s.False(s.service.HasEarlyAccess(context.Background(), "  "))
	})
}

func (s *EntitlementServiceSuite) TestResolveQuota() {
	s.Run("serves the active quota grant", func() {
		def, err := s.service.catalog.Definition(catalog.FeatureProPlan, 1)
		s.Require().NoError(err)
		raw, err := json.Marshal(def.DefaultConfig)
		s.Require().NoError(err)
		s.mockStore.EXPECT().ListByUser(gomock.Any(), s.userID, catalog.KindQuota).
			Return([]models.EntitlementRecord{
				{UserID: s.userID, Feature: catalog.FeatureProPlan, Kind: catalog.KindQuota,
					Version: 1, Config: raw, GrantedAt: time.Now()},
			}, nil)

		res := s.service.ResolveQuota(context.Background(), s.userID)

		s.False(res.Defaulted)
		s.Equal(catalog.FeatureProPlan, res.Feature)
	})

	s.Run("degrades to the default quota on store failure", func() {
		s.mockStore.EXPECT().ListByUser(gomock.Any(), s.userID, catalog.KindQuota).
			Return(nil, fmt.Errorf("list: %w", sentinel.ErrUnavailable))
		s.mockAudit.EXPECT().Emit(gomock.Any(), auditAction(audit.EventQuotaDefaulted)).Return(nil)

		res := s.service.ResolveQuota(context.Background(), s.userID)

		s.True(res.Defaulted)
		s.Equal(s.service.catalog.DefaultQuota().Name, res.Feature)
	})
}
