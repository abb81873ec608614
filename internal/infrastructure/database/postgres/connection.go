// Package postgres manages the PostgreSQL connection pool and schema
// migrations for the assessment store.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
	"github.com/propshield/climarisk/pkg/errors"
)

// Config holds the database connection settings.
type Config struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// DSN renders the config as a postgres URL.
func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// Pool wraps the pgx connection pool.
type Pool struct {
	pool   *pgxpool.Pool
	config Config
	logger logging.Logger
}

// NewPool connects to PostgreSQL and verifies the connection with a ping.
func NewPool(ctx context.Context, cfg Config, log logging.Logger) (*Pool, error) {
	if log == nil {
		log = logging.NewNop()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfiguration, "invalid postgres configuration")
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	} else {
		poolCfg.MaxConns = 25
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to ping database")
	}

	log.Info("postgres connection established",
		logging.String("host", cfg.Host),
		logging.String("database", cfg.Database),
	)
	return &Pool{pool: pool, config: cfg, logger: log.Named("postgres")}, nil
}

// Raw exposes the underlying pool for repositories.
func (p *Pool) Raw() *pgxpool.Pool { return p.pool }

// Ping verifies the pool is healthy.
func (p *Pool) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

// Close drains the pool.
func (p *Pool) Close() { p.pool.Close() }
