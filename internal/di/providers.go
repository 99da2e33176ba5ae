package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"go-domain-routing-service/internal/app"
	"go-domain-routing-service/internal/config"
	"go-domain-routing-service/internal/database"
	"go-domain-routing-service/internal/edge"
	"go-domain-routing-service/internal/http/handler"
	"go-domain-routing-service/internal/http/middleware"
	"go-domain-routing-service/internal/http/router"
	"go-domain-routing-service/internal/observability"
	"go-domain-routing-service/internal/repository"
	"go-domain-routing-service/internal/security"
	"go-domain-routing-service/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	observability.NewLogger,
	provideRuntime,
)

var RuntimeInfraSet = wire.NewSet(
	provideOpenDB,
	provideRedisClient,
)

var RepositorySet = wire.NewSet(
	repository.NewDomainRepository,
	repository.NewFeedbackRepository,
)

var SecuritySet = wire.NewSet(provideJWTManager)

var ServiceSet = wire.NewSet(
	provideHostnameClient,
	provideRoutingTable,
	provideFeedbackSink,
	provideLinkIdempotencyStore,
	provideDomainService,
)

var HTTPSet = wire.NewSet(
	provideDomainHandler,
	handler.NewHealthHandler,
	provideLimiter,
	provideRouterDependencies,
	router.New,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideRuntime(cfg *config.Config, logger *slog.Logger) (*observability.Runtime, error) {
	return observability.InitRuntime(context.Background(), cfg, logger)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config) (redis.UniversalClient, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret)
}

func provideHostnameClient(cfg *config.Config) edge.HostnameProvisioner {
	return edge.NewHostnameClient(cfg)
}

func provideRoutingTable(cfg *config.Config) edge.RoutingPublisher {
	return edge.NewRoutingTable(cfg)
}

func provideFeedbackSink(repo repository.FeedbackRepository, logger *slog.Logger) service.FeedbackSink {
	return service.NewDBFeedbackSink(repo, logger)
}

func provideLinkIdempotencyStore(client redis.UniversalClient) service.LinkIdempotencyStore {
	if client == nil {
		return nil
	}
	return service.NewRedisLinkIdempotencyStore(client, "linkidem")
}

func provideDomainService(
	repo repository.DomainRepository,
	hostnames edge.HostnameProvisioner,
	routing edge.RoutingPublisher,
	feedback service.FeedbackSink,
	logger *slog.Logger,
) service.DomainServiceInterface {
	return service.NewDomainService(repo, hostnames, routing, feedback, logger)
}

func provideDomainHandler(svc service.DomainServiceInterface, idem service.LinkIdempotencyStore, cfg *config.Config) *handler.DomainHandler {
	return handler.NewDomainHandler(svc, idem, cfg.LinkIdempotencyTTL)
}

func provideLimiter(client redis.UniversalClient, cfg *config.Config) middleware.Limiter {
	if client == nil {
		return middleware.NewLocalFixedWindowLimiter()
	}
	return middleware.NewRedisLimiterAdapter(middleware.NewRedisRateLimiter(client, "rl"), cfg.RateLimitBurst)
}

func provideRouterDependencies(
	domainHandler *handler.DomainHandler,
	healthHandler *handler.HealthHandler,
	jwtMgr *security.JWTManager,
	limiter middleware.Limiter,
	cfg *config.Config,
) router.Dependencies {
	bypass := middleware.NewRequestBypassEvaluator(middleware.RequestBypassConfig{
		EnableInternalProbeBypass: true,
	}, jwtMgr)
	return router.Dependencies{
		Domain:            domainHandler,
		Health:            healthHandler,
		JWT:               jwtMgr,
		Limiter:           limiter,
		Bypass:            bypass,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		RateLimitFailOpen: cfg.RateLimitFailOpen,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// MigrationRunner applies schema migrations and exits, for use as a
// pre-deploy step.
type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (m *MigrationRunner) Run() error {
	return database.Migrate(m.db)
}
