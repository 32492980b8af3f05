package middleware

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"entgate/internal/ratelimit/models"
	"entgate/internal/ratelimit/store/bucket"
	"entgate/pkg/requestcontext"
)

type RateLimitMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestRateLimitMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(RateLimitMiddlewareSuite))
}

func (s *RateLimitMiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RateLimitMiddlewareSuite) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (s *RateLimitMiddlewareSuite) request(caller string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/users/x/quota", nil)
	if caller != "" {
		req = req.WithContext(requestcontext.WithCallerEmail(req.Context(), caller))
	}
	return req
}

func (s *RateLimitMiddlewareSuite) TestAllowsWithinBudget() {
	m := New(bucket.NewInMemoryBucketStore(), s.logger,
		WithLimit("quota_resolve", models.Limit{Limit: 2, Window: time.Minute}))
	h := m.Limit("quota_resolve")(s.handler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request("a@example.com"))

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("2", rec.Header().Get("X-RateLimit-Limit"))
	s.Equal("1", rec.Header().Get("X-RateLimit-Remaining"))
}

func (s *RateLimitMiddlewareSuite) TestRejectsOverBudget() {
	m := New(bucket.NewInMemoryBucketStore(), s.logger,
		WithLimit("entitlement_grant", models.Limit{Limit: 1, Window: time.Minute}))
	h := m.Limit("entitlement_grant")(s.handler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request("a@example.com"))
	s.Equal(http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, s.request("a@example.com"))
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.NotEmpty(rec.Header().Get("Retry-After"))
}

func (s *RateLimitMiddlewareSuite) TestCallersHaveIndependentBudgets() {
	m := New(bucket.NewInMemoryBucketStore(), s.logger,
		WithLimit("entitlement_grant", models.Limit{Limit: 1, Window: time.Minute}))
	h := m.Limit("entitlement_grant")(s.handler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request("a@example.com"))
	s.Equal(http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, s.request("b@example.com"))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RateLimitMiddlewareSuite) TestBucketsHaveIndependentBudgets() {
	store := bucket.NewInMemoryBucketStore()
	m := New(store, s.logger,
		WithLimit("entitlement_grant", models.Limit{Limit: 1, Window: time.Minute}),
		WithLimit("entitlement_revoke", models.Limit{Limit: 1, Window: time.Minute}))

	grant := m.Limit("entitlement_grant")(s.handler())
	revoke := m.Limit("entitlement_revoke")(s.handler())

	rec := httptest.NewRecorder()
	grant.ServeHTTP(rec, s.request("a@example.com"))
	s.Equal(http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	revoke.ServeHTTP(rec, s.request("a@example.com"))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RateLimitMiddlewareSuite) TestFailsOpenOnStoreError() {
	m := New(failingBucketStore{}, s.logger)
	h := m.Limit("entitlement_grant")(s.handler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request("a@example.com"))

	s.Equal(http.StatusOK, rec.Code)
}

func (s *RateLimitMiddlewareSuite) TestDisabledSkipsStore() {
	m := New(failingBucketStore{}, s.logger, WithDisabled(true))
	h := m.Limit("entitlement_grant")(s.handler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request("a@example.com"))

	s.Equal(http.StatusOK, rec.Code)
}

func (s *RateLimitMiddlewareSuite) TestAnonymousCallerKeysOnIP() {
	m := New(bucket.NewInMemoryBucketStore(), s.logger,
		WithFallbackLimit(models.Limit{Limit: 1, Window: time.Minute}))
	h := m.Limit("early_access_check")(s.handler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request(""))
	s.Equal(http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, s.request(""))
	s.Equal(http.StatusTooManyRequests, rec.Code)
}

type failingBucketStore struct{}

func (failingBucketStore) Allow(context.Context, string, models.Limit) (*models.Result, error) {
	return nil, fmt.Errorf("bucket store unavailable")
}
