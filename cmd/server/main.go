package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"entgate/internal/catalog"
	"entgate/internal/directory"
	"entgate/internal/entitlement/handler"
	"entgate/internal/entitlement/metrics"
	"entgate/internal/entitlement/service"
	storememory "entgate/internal/entitlement/store/memory"
	storepostgres "entgate/internal/entitlement/store/postgres"
	"entgate/internal/platform/config"
	"entgate/internal/platform/httpserver"
	"entgate/internal/platform/logger"
	jwttoken "entgate/internal/platform/jwt"
	platformredis "entgate/internal/platform/redis"
	ratelimitmw "entgate/internal/ratelimit/middleware"
	"entgate/internal/ratelimit/models"
	"entgate/internal/ratelimit/store/bucket"
	"entgate/internal/staff"
	"entgate/pkg/platform/audit/publisher"
	auditkafka "entgate/pkg/platform/audit/publishers/kafka"
	auditmemory "entgate/pkg/platform/audit/store/memory"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Builtin()
	if err != nil {
		return err
	}

	store, userDir, cleanup, storeCheck, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	auditPub, closeAudit, err := buildAuditPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	checker := staff.NewChecker(cfg.Staff)
	svc, err := service.New(store, cat, checker,
		service.WithLogger(log),
		service.WithAuditPublisher(auditPub),
		service.WithMetrics(metrics.New()),
		service.WithUserDirectory(userDir),
	)
	if err != nil {
		return err
	}

	limiter, redisCheck, err := buildLimiter(cfg, log)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)

	router := chi.NewRouter()
	router.Get("/healthz", healthHandler(storeCheck, redisCheck))
	router.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log, jwttoken.NewJWTServiceAdapter(jwtService), limiter).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting entgate", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// healthCheck is a named readiness probe for one backing dependency.
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

func healthHandler(checks ...*healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, c := range checks {
			if c == nil {
				continue
			}
			if err := c.check(ctx); err != nil {
				http.Error(w, c.name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// buildStores selects Postgres when a DSN is configured, otherwise the
// in-memory twins for development.
func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (service.EntitlementStore, service.UserDirectory, func(), *healthCheck, error) {
	if cfg.Storage.PostgresDSN == "" {
		log.Warn("no postgres DSN configured, using in-memory stores")
		return storememory.NewInMemory(), directory.NewInMemoryDirectory(), func() {}, nil, nil
	}

	db, err := sql.Open("postgres", cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, nil, nil, err
	}

	store := storepostgres.New(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, nil, nil, err
	}
	userDir := directory.NewPostgres(db)
	if err := userDir.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, nil, nil, err
	}
	check := &healthCheck{name: "postgres", check: db.PingContext}
	return store, userDir, func() { db.Close() }, check, nil
}

// buildAuditPublisher fans audit events into Kafka when brokers are
// configured, otherwise keeps them in process.
func buildAuditPublisher(ctx context.Context, cfg config.Config, log *slog.Logger) (service.AuditPublisher, func(), error) {
	if len(cfg.Audit.KafkaBrokers) == 0 {
		log.Warn("no kafka brokers configured, audit events stay in process")
		pub := publisher.NewPublisher(auditmemory.NewInMemoryStore(),
			publisher.WithLogger(log), publisher.WithAsyncBuffer(256))
		return pub, pub.Close, nil
	}

	sink, err := auditkafka.New(cfg.Audit.KafkaBrokers,
		auditkafka.WithTopic(cfg.Audit.Topic), auditkafka.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	if err := sink.EnsureTopic(ctx, 1); err != nil {
		sink.Close()
		return nil, nil, err
	}
	return sink, sink.Close, nil
}

// buildLimiter shares buckets through Redis when configured; single-node
// deployments fall back to in-memory buckets.
func buildLimiter(cfg config.Config, log *slog.Logger) (*ratelimitmw.Middleware, *healthCheck, error) {
	var store ratelimitmw.BucketStore = bucket.NewInMemoryBucketStore()
	var check *healthCheck
	if cfg.Redis.URL != "" {
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		store = bucket.NewRedisBucketStore(client.Client)
		check = &healthCheck{name: "redis", check: client.Health}
	}

	return ratelimitmw.New(store, log,
		ratelimitmw.WithDisabled(cfg.RateLimit.Disabled),
		ratelimitmw.WithLimit(service.OpGrant, models.Limit{Limit: 30, Window: time.Minute}),
		ratelimitmw.WithLimit(service.OpRevoke, models.Limit{Limit: 30, Window: time.Minute}),
		ratelimitmw.WithLimit(service.OpListEarlyAccess, models.Limit{Limit: 10, Window: time.Minute}),
		ratelimitmw.WithLimit(service.OpListEntitlements, models.Limit{Limit: 60, Window: time.Minute}),
		ratelimitmw.WithLimit(service.OpCheckEarlyAccess, models.Limit{Limit: 120, Window: time.Minute}),
		ratelimitmw.WithLimit(service.OpResolveQuota, models.Limit{Limit: 300, Window: time.Minute}),
	), check, nil
}
