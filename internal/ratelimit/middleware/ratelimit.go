// Package middleware rate-limits HTTP requests per operation bucket.
package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"entgate/internal/ratelimit/models"
	"entgate/pkg/platform/httputil"
	"entgate/pkg/requestcontext"
)

// BucketStore counts requests within sliding windows. Implementations:
// bucket.InMemoryBucketStore and bucket.RedisBucketStore.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit models.Limit) (*models.Result, error)
}

type Middleware struct {
	store    BucketStore
	limits   map[string]models.Limit
	fallback models.Limit
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithLimit sets the budget for one named bucket.
func WithLimit(bucket string, limit models.Limit) Option {
	return func(m *Middleware) {
		m.limits[bucket] = limit
	}
}

// WithFallbackLimit sets the budget for buckets without an explicit limit.
func WithFallbackLimit(limit models.Limit) Option {
	return func(m *Middleware) {
		m.fallback = limit
	}
}

func New(store BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:    store,
		limits:   make(map[string]models.Limit),
		fallback: models.Limit{Limit: 100, Window: time.Minute},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit returns middleware limiting the named operation bucket. Each
// authenticated caller gets an independent budget; anonymous requests fall
// back to the client IP. Limiter failures fail open so an unavailable
// bucket store never takes the API down with it.
func (m *Middleware) Limit(bucket string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			caller := requestcontext.CallerEmail(ctx)
			if caller == "" {
				caller = clientIP(r)
			}

			limit, ok := m.limits[bucket]
			if !ok {
				limit = m.fallback
			}

			result, err := m.store.Allow(ctx, models.Key(bucket, caller), limit)
			if err != nil {
				m.logger.ErrorContext(ctx, "rate limit check failed, failing open",
					slog.String("bucket", bucket),
					slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)

			if !result.Allowed {
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":       "rate_limit_exceeded",
		"message":     "You have exceeded your request quota for this operation.",
		"retry_after": retryAfter,
	})
}
