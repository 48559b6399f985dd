package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"cockpit/internal/access"
	"cockpit/internal/documents"
	givvehandler "cockpit/internal/givve/handler"
	givvemetrics "cockpit/internal/givve/metrics"
	givveservice "cockpit/internal/givve/service"
	givvestore "cockpit/internal/givve/store"
	httpapi "cockpit/internal/http"
	jwttoken "cockpit/internal/jwt_token"
	onboardinghandler "cockpit/internal/onboarding/handler"
	onboardingmetrics "cockpit/internal/onboarding/metrics"
	onboardingservice "cockpit/internal/onboarding/service"
	"cockpit/internal/onboarding/store/progress"
	"cockpit/internal/platform/config"
	"cockpit/internal/platform/metrics"
	"cockpit/internal/platform/postgres"
	"cockpit/internal/platform/redis"
	"cockpit/internal/session"
	"cockpit/internal/session/revocation"
	"cockpit/internal/status"
	audit "cockpit/pkg/platform/audit"
	"cockpit/pkg/platform/audit/publisher"
	auditmemory "cockpit/pkg/platform/audit/store/memory"
	auditpostgres "cockpit/pkg/platform/audit/store/postgres"
	"cockpit/pkg/platform/tx"
)

type app struct {
	router  http.Handler
	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// stores groups the persistence backends. Postgres is used when DATABASE_URL is set.
type stores struct {
	progress   onboardingservice.Store
	givve      givveservice.Store
	membership access.MembershipStore
	audit      audit.Store
}

func buildApp(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	a := &app{}
	health := map[string]httpapi.HealthCheck{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	st, err := openStores(ctx, cfg, log, a, health)
	if err != nil {
		a.close()
		return nil, err
	}

	trl, err := openRevocations(ctx, cfg, log, reg, a, health)
	if err != nil {
		a.close()
		return nil, err
	}

	auditPublisher := publisher.NewPublisher(st.audit, publisher.WithLogger(log))
	resolver := access.NewResolver(st.membership, log)

	onboarding := onboardingservice.New(st.progress, resolver,
		onboardingservice.WithLogger(log),
		onboardingservice.WithAuditPublisher(auditPublisher),
		onboardingservice.WithMetrics(onboardingmetrics.New(reg)),
	)
	givve := givveservice.New(st.givve, resolver,
		givveservice.WithLogger(log),
		givveservice.WithAuditPublisher(auditPublisher),
		givveservice.WithMetrics(givvemetrics.New(reg)),
	)
	givveHandler := givvehandler.New(givve, log)

	modules := []httpapi.Registrar{
		onboardinghandler.New(onboarding, log),
		givveHandler,
		status.NewHandler(status.NewService(onboarding, givve), log),
		session.NewHandler(session.NewService(trl, log, auditPublisher), log),
	}

	if cfg.Documents.Bucket != "" {
		client, err := documents.NewS3Client(ctx, cfg.Documents)
		if err != nil {
			a.close()
			return nil, err
		}
		docs := documents.NewService(cfg.Documents.Bucket, cfg.Documents.URLTTL,
			s3.NewPresignClient(client), client, resolver,
			documents.WithLogger(log),
		)
		modules = append(modules, documents.NewHandler(docs, log))
	} else {
		log.WarnContext(ctx, "DOCUMENT_BUCKET not set, document routes disabled")
	}

	if cfg.AdminAPIToken == "" {
		log.WarnContext(ctx, "ADMIN_API_TOKEN not set, admin routes reject every request")
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	a.router = httpapi.NewRouter(httpapi.Dependencies{
		Logger:       log,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		Validator:    jwttoken.NewJWTServiceAdapter(jwtService),
		Revocations:  trl,
		AdminToken:   cfg.AdminAPIToken,
		Modules:      modules,
		AdminModules: []httpapi.AdminRegistrar{givveHandler},
		HealthChecks: health,
	})
	return a, nil
}

func openStores(ctx context.Context, cfg config.Server, log *slog.Logger, a *app, health map[string]httpapi.HealthCheck) (*stores, error) {
	if cfg.Database.URL == "" {
		log.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
		return &stores{
			progress:   progress.NewInMemory(),
			givve:      givvestore.NewInMemory(),
			membership: access.NewInMemory(),
			audit:      auditmemory.NewInMemoryStore(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	health["postgres"] = db.PingContext

	applied, err := postgres.Migrate(ctx, db, log)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.InfoContext(ctx, "database ready", "migrations_applied", applied)
	return postgresStores(db, cfg), nil
}

func postgresStores(db *sqlx.DB, cfg config.Server) *stores {
	return &stores{
		progress:   progress.NewPostgres(db, cfg.StoreTxTimeout),
		givve:      givvestore.NewPostgres(db, tx.NewRunner(db, cfg.StoreTxTimeout)),
		membership: access.NewPostgres(db),
		audit:      auditpostgres.New(db),
	}
}

type revocationList interface {
	session.RevocationList
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func openRevocations(ctx context.Context, cfg config.Server, log *slog.Logger, reg prometheus.Registerer, a *app, health map[string]httpapi.HealthCheck) (revocationList, error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.WarnContext(ctx, "REDIS_URL not set, sign-out revocations are kept in memory")
		return revocation.NewInMemoryTRL(), nil
	}
	a.closers = append(a.closers, client.Close)
	health["redis"] = client.Health
	return revocation.NewRedisTRL(client.Client, revocation.WithRegisterer(reg)), nil
}
