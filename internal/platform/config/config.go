package config

import (
	"os"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
}

// Storage selects the entitlement store backend. An empty DSN runs the
// in-memory store, which is fine for development and tests only.
type Storage struct {
	PostgresDSN string
}

// RedisConfig tunes the shared rate-limit bucket store. An empty URL
// falls back to per-process in-memory buckets.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Audit selects the audit sink. Without brokers events stay in the
// in-process store.
type Audit struct {
	KafkaBrokers []string
	Topic        string
}

// Staff lists who may call administrative operations: exact emails plus
// whole domains ("@example.com").
type Staff struct {
	Emails  []string
	Domains []string
}

// RateLimit holds the per-operation budgets.
type RateLimit struct {
	Disabled bool
}

type Config struct {
	Server    Server
	Storage   Storage
	Redis     RedisConfig
	Audit     Audit
	Staff     Staff
	RateLimit RateLimit
}

// FromEnv builds the full configuration from environment variables so main
// stays lean.
func FromEnv() Config {
	addr := os.Getenv("ENTGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("AUDIT_KAFKA_TOPIC")
	if topic == "" {
		topic = "entgate.audit.events"
	}

	return Config{
		Server: Server{
			Addr:          addr,
			JWTSigningKey: jwtSigningKey,
			JWTIssuer:     envOr("JWT_ISSUER", "entgate"),
			JWTAudience:   envOr("JWT_AUDIENCE", "entgate-api"),
		},
		Storage: Storage{
			PostgresDSN: os.Getenv("POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Audit: Audit{
			KafkaBrokers: splitList(os.Getenv("AUDIT_KAFKA_BROKERS")),
			Topic:        topic,
		},
		Staff: Staff{
			Emails:  splitList(os.Getenv("STAFF_EMAILS")),
			Domains: splitList(os.Getenv("STAFF_DOMAINS")),
		},
		RateLimit: RateLimit{
			Disabled: os.Getenv("RATE_LIMIT_DISABLED") == "true",
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
