package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"entgate/internal/catalog"
	"entgate/internal/entitlement/models"
	"entgate/internal/entitlement/quota"
	"entgate/internal/entitlement/service"
	"entgate/internal/platform/middleware"
	id "entgate/pkg/domain"
	derrors "entgate/pkg/domain-errors"
	"entgate/pkg/platform/httputil"
	"entgate/pkg/requestcontext"
)

// Service defines the interface for entitlement operations.
type Service interface {
	Grant(ctx context.Context, caller service.Caller, userID id.UserID, feature catalog.FeatureName, raw json.RawMessage) (*models.EntitlementRecord, error)
	Revoke(ctx context.Context, caller service.Caller, userID id.UserID, feature catalog.FeatureName) (bool, error)
	ListEarlyAccess(ctx context.Context, caller service.Caller) ([]id.UserID, error)
	ListEntitlements(ctx context.Context, caller service.Caller, userID id.UserID) ([]models.EntitlementRecord, error)
	HasEarlyAccess(ctx context.Context, email string) bool
	ResolveQuota(ctx context.Context, userID id.UserID) quota.Resolution
}

// Limiter wraps routes with per-operation rate buckets.
type Limiter interface {
	Limit(bucket string) func(http.Handler) http.Handler
}

// Handler exposes the entitlement API.
type Handler struct {
	logger       *slog.Logger
	service      Service
	jwtValidator middleware.JWTValidator
	limiter      Limiter
}

// New creates a new entitlement Handler.
func New(svc Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, limiter Limiter) *Handler {
	return &Handler{
		logger:       logger,
		service:      svc,
		jwtValidator: jwtValidator,
		limiter:      limiter,
	}
}

// Register registers the entitlement routes with the chi router.
// Administrative routes require a bearer token; the service re-checks staff
// membership on every call. Read routes are public but rate limited.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequestID)
		api.Use(middleware.RequestTime)

		api.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
			admin.With(h.limit(service.OpGrant)).
				Post("/admin/entitlements", h.handleGrant)
			admin.With(h.limit(service.OpRevoke)).
				Delete("/admin/entitlements", h.handleRevoke)
			admin.With(h.limit(service.OpListEarlyAccess)).
				Get("/admin/early-access/users", h.handleListEarlyAccess)
			admin.With(h.limit(service.OpListEntitlements)).
				Get("/users/{userID}/entitlements", h.handleListEntitlements)
		})

		api.Group(func(public chi.Router) {
			public.With(h.limit(service.OpCheckEarlyAccess)).
				Get("/early-access", h.handleCheckEarlyAccess)
			public.With(h.limit(service.OpResolveQuota)).
				Get("/users/{userID}/quota", h.handleResolveQuota)
		})
	})
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Grant(ctx, h.caller(ctx), userID, catalog.FeatureName(req.Feature), req.Config)
	if err != nil {
		h.logFailure(ctx, "grant entitlement", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toEntitlementResponse(record))
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	revoked, err := h.service.Revoke(ctx, h.caller(ctx), userID, catalog.FeatureName(req.Feature))
	if err != nil {
		h.logFailure(ctx, "revoke entitlement", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, revokeResponse{Revoked: revoked})
}

func (h *Handler) handleListEarlyAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.service.ListEarlyAccess(ctx, h.caller(ctx))
	if err != nil {
		h.logFailure(ctx, "list early-access users", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEarlyAccessUsersResponse(users))
}

func (h *Handler) handleListEntitlements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.service.ListEntitlements(ctx, h.caller(ctx), userID)
	if err != nil {
		h.logFailure(ctx, "list entitlements", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]entitlementResponse, len(records))
	for i := range records {
		out[i] = toEntitlementResponse(&records[i])
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entitlements": out})
}

func (h *Handler) handleCheckEarlyAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "email query parameter is required"))
		return
	}
	allowed := h.service.HasEarlyAccess(ctx, email)
	httputil.WriteJSON(w, http.StatusOK, earlyAccessCheckResponse{EarlyAccess: allowed})
}

func (h *Handler) handleResolveQuota(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res := h.service.ResolveQuota(ctx, userID)
	httputil.WriteJSON(w, http.StatusOK, quotaResponse{
		Feature: string(res.Feature),
		Version: res.Version,
		Default: res.Defaulted,
		Quota:   res.Config,
	})
}

func (h *Handler) caller(ctx context.Context) service.Caller {
	return service.Caller{Email: requestcontext.CallerEmail(ctx)}
}

func (h *Handler) limit(bucket string) func(http.Handler) http.Handler {
	if h.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.limiter.Limit(bucket)
}

func (h *Handler) logFailure(ctx context.Context, op string, err error) {
	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("request_id", requestcontext.RequestID(ctx)),
	}
	switch derrors.CodeOf(err) {
	case derrors.CodeInternal, derrors.CodeUnavailable:
		h.logger.ErrorContext(ctx, "failed to "+op, attrs...)
	default:
		h.logger.WarnContext(ctx, "rejected "+op, attrs...)
	}
}

