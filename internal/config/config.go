// Package config defines all configuration structures for the climarisk
// service.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/propshield/climarisk/internal/domain/risk"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for the assessment cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the lifecycle-event producer parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// MinIOConfig holds the raw-payload archive parameters.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
}

// EngineConfig holds the scoring-engine configuration: which providers are
// authoritative per hazard, how reliable each provider is, the risk-level
// scale, and the assessment cache TTL.  Empty hazard/band/reliability tables
// fall back to the built-in defaults from the risk package.
type EngineConfig struct {
	Hazards       risk.HazardConfigSet   `mapstructure:"hazards"`
	Reliabilities risk.SourceReliability `mapstructure:"reliabilities"`
	Bands         risk.RiskLevelBands    `mapstructure:"bands"`
	CacheTTL      time.Duration          `mapstructure:"cache_ttl"`
}

// ProviderEndpoint describes one external risk data provider.  The sourceID
// must match the identifiers used in the hazard configuration.
type ProviderEndpoint struct {
	SourceID string `mapstructure:"source_id"`
	URL      string `mapstructure:"url"`
	APIKey   string `mapstructure:"api_key"`
}

// IngestConfig holds provider fan-out parameters.
type IngestConfig struct {
	ProviderTimeout time.Duration      `mapstructure:"provider_timeout"`
	Concurrency     int                `mapstructure:"concurrency"`
	Providers       []ProviderEndpoint `mapstructure:"providers"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the whole service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Log      LogConfig      `mapstructure:"log"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.  Engine-table validation is a
// structural check in the sense of the scoring contract: it must fail before
// any scoring occurs.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}

	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range", c.Database.Port)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.enabled is true but kafka.brokers is empty")
	}
	if c.MinIO.Enabled && c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.enabled is true but minio.endpoint is empty")
	}

	if err := c.Engine.Hazards.Validate(); err != nil {
		return fmt.Errorf("config: engine.hazards: %w", err)
	}
	if err := c.Engine.Reliabilities.Validate(); err != nil {
		return fmt.Errorf("config: engine.reliabilities: %w", err)
	}
	if err := c.Engine.Bands.Validate(); err != nil {
		return fmt.Errorf("config: engine.bands: %w", err)
	}

	if c.Ingest.Concurrency < 0 {
		return fmt.Errorf("config: ingest.concurrency %d is negative", c.Ingest.Concurrency)
	}
	for i, p := range c.Ingest.Providers {
		if p.SourceID == "" || p.URL == "" {
			return fmt.Errorf("config: ingest.providers[%d] needs both source_id and url", i)
		}
	}
	return nil
}
