// Package app wires configuration, infrastructure adapters, the assessment
// service, and the HTTP interface into a runnable application.  Both the
// apiserver binary and the CLI serve command build on it.
package app

import (
	"context"
	"net/http"

	"github.com/propshield/climarisk/internal/application/assessment"
	"github.com/propshield/climarisk/internal/application/ingest"
	"github.com/propshield/climarisk/internal/config"
	"github.com/propshield/climarisk/internal/infrastructure/database/postgres"
	"github.com/propshield/climarisk/internal/infrastructure/database/postgres/repositories"
	"github.com/propshield/climarisk/internal/infrastructure/database/redis"
	"github.com/propshield/climarisk/internal/infrastructure/messaging/kafka"
	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
	"github.com/propshield/climarisk/internal/infrastructure/monitoring/prometheus"
	"github.com/propshield/climarisk/internal/infrastructure/providers"
	"github.com/propshield/climarisk/internal/infrastructure/storage/minio"
	httpiface "github.com/propshield/climarisk/internal/interfaces/http"
	"github.com/propshield/climarisk/internal/interfaces/http/handlers"
	"github.com/propshield/climarisk/internal/interfaces/http/middleware"
)

// Application holds every long-lived component of the service.
type Application struct {
	Config  *config.Config
	Logger  logging.Logger
	Service assessment.Service

	server   *httpiface.Server
	router   http.Handler
	pool     *postgres.Pool
	redis    *redis.Client
	producer *kafka.Producer
}

// New wires the full application.  PostgreSQL is required; redis, kafka, and
// minio degrade to noop behavior when unavailable or disabled, so a dev
// instance can run against a database alone.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*Application, error) {
	a := &Application{Config: cfg, Logger: log}

	// Metrics.
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "climarisk",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, log)
	if err != nil {
		return nil, err
	}
	appMetrics := prometheus.NewAppMetrics(collector)

	// PostgreSQL.
	pgCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.DBName,
		Username:        cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	pool, err := postgres.NewPool(ctx, pgCfg, log)
	if err != nil {
		return nil, err
	}
	a.pool = pool

	if err := postgres.RunMigrations(pgCfg.DSN(), cfg.Database.MigrationPath); err != nil {
		pool.Close()
		return nil, err
	}
	repo := repositories.NewAssessmentRepository(pool, log)

	// Redis cache.  Optional: a miss-only service still works.
	var cache assessment.Cache
	redisClient, err := redis.NewClient(redis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		KeyPrefix:    cfg.Redis.KeyPrefix,
	}, log)
	if err != nil {
		log.Warn("redis unavailable, running without assessment cache", logging.Err(err))
	} else {
		a.redis = redisClient
		cache = redis.NewAssessmentCache(redisClient)
	}

	// Kafka lifecycle events.
	var publisher assessment.EventPublisher
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			WriteTimeout: cfg.Kafka.WriteTimeout,
			MaxRetries:   cfg.Kafka.MaxRetries,
		}, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.producer = producer
		publisher = kafka.NewEventPublisher(producer)
	}

	// MinIO payload archive.
	var archiver assessment.PayloadArchiver
	if cfg.MinIO.Enabled {
		archive, err := minio.NewPayloadArchive(ctx, minio.Config{
			Endpoint:        cfg.MinIO.Endpoint,
			AccessKeyID:     cfg.MinIO.AccessKey,
			SecretAccessKey: cfg.MinIO.SecretKey,
			UseSSL:          cfg.MinIO.UseSSL,
			Bucket:          cfg.MinIO.Bucket,
		}, log)
		if err != nil {
			log.Warn("minio unavailable, running without payload archive", logging.Err(err))
		} else {
			archiver = archive
		}
	}

	// Assessment service.
	service, err := assessment.NewService(
		cfg.Engine.Hazards,
		cfg.Engine.Reliabilities,
		cfg.Engine.Bands,
		repo,
		cache,
		publisher,
		archiver,
		prometheus.NewServiceMetrics(appMetrics),
		log,
		assessment.ServiceConfig{CacheTTL: cfg.Engine.CacheTTL},
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Service = service

	// Provider coordinator.
	var coordinator *ingest.Coordinator
	if len(cfg.Ingest.Providers) > 0 {
		clients := make([]ingest.ProviderClient, 0, len(cfg.Ingest.Providers))
		for _, p := range cfg.Ingest.Providers {
			clients = append(clients, providers.NewHTTPProvider(p.SourceID, p.URL, p.APIKey, nil))
		}
		coordinator = ingest.NewCoordinator(clients, log, prometheus.NewServiceMetrics(appMetrics), ingest.CoordinatorConfig{
			ProviderTimeout: cfg.Ingest.ProviderTimeout,
			Concurrency:     cfg.Ingest.Concurrency,
		})
	}

	// HTTP interface.
	checks := map[string]handlers.Pinger{
		"postgres": pool.Ping,
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Ping
	}

	a.router = httpiface.NewRouter(httpiface.RouterConfig{
		AssessmentHandler: handlers.NewAssessmentHandler(service, coordinator),
		HealthHandler:     handlers.NewHealthHandler(checks),
		CORS:              &middleware.CORSConfig{},
		Logger:            log,
		Metrics:           appMetrics,
		MetricsAPI:        collector.Handler(),
		Mode:              cfg.Server.Mode,
	})

	a.server = httpiface.NewServer(httpiface.ServerConfig{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, a.router, log)

	return a, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and
// releases every resource.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		a.Close()
		return err
	case <-ctx.Done():
	}

	if err := a.server.Stop(context.Background()); err != nil {
		a.Logger.Error("http shutdown failed", logging.Err(err))
	}
	a.Close()
	return nil
}

// Handler exposes the assembled route tree, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.router
}

// Close releases infrastructure connections.  Safe to call more than once.
func (a *Application) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.Logger.Warn("kafka producer close failed", logging.Err(err))
		}
		a.producer = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("redis close failed", logging.Err(err))
		}
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
