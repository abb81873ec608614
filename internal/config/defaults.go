package config

import (
	"time"

	"github.com/propshield/climarisk/internal/domain/risk"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "climarisk"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "climarisk:"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "assessment.events"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "climarisk-payloads"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultEngineCacheTTL = time.Hour

	DefaultProviderTimeout   = 10 * time.Second
	DefaultIngestConcurrency = 8
)

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields already set by the caller are left unchanged so that
// explicit configuration always wins.  It must be called after unmarshalling
// and before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "file://migrations"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	if len(cfg.Engine.Hazards) == 0 {
		cfg.Engine.Hazards = risk.DefaultHazardConfigs()
	}
	if len(cfg.Engine.Reliabilities) == 0 {
		cfg.Engine.Reliabilities = risk.DefaultSourceReliabilities()
	}
	if len(cfg.Engine.Bands) == 0 {
		cfg.Engine.Bands = risk.DefaultRiskLevelBands()
	}
	if cfg.Engine.CacheTTL == 0 {
		cfg.Engine.CacheTTL = DefaultEngineCacheTTL
	}

	// ── Ingest ────────────────────────────────────────────────────────────────
	if cfg.Ingest.ProviderTimeout == 0 {
		cfg.Ingest.ProviderTimeout = DefaultProviderTimeout
	}
	if cfg.Ingest.Concurrency == 0 {
		cfg.Ingest.Concurrency = DefaultIngestConcurrency
	}
}
