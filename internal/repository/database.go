package repository

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"nhl_sync/ingestion/internal/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Database owns the pgx pool behind the document store
type Database struct {
	Pool *pgxpool.Pool

	Documents *DocumentRepository
}

// Config holds database connection settings
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// DSN builds the postgres:// URL for cfg. Credentials are escaped.
func (cfg Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.Database,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.SSLMode),
	}
	return u.String()
}

// PoolConfig parses cfg into pool settings sized for a single sequential
// writer plus the health checks
func (cfg Config) PoolConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 && cfg.MinConns <= poolConfig.MaxConns {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	return poolConfig, nil
}

// NewDatabase opens the pool and verifies it with a ping
func NewDatabase(ctx context.Context, cfg Config) (*Database, error) {
	poolConfig, err := cfg.PoolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("port", cfg.Port).
		Str("database", cfg.Database).
		Int32("max_conns", poolConfig.MaxConns).
		Msg("Successfully connected to database")

	db := &Database{Pool: pool}
	db.Documents = &DocumentRepository{db: db}
	return db, nil
}

// Close releases every pooled connection
func (db *Database) Close() {
	if db.Pool == nil {
		return
	}
	db.Pool.Close()
	log.Info().Msg("Database connection pool closed")
}

// Health pings the database with a short deadline
func (db *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// PoolStats is a snapshot of pool usage
type PoolStats struct {
	Total    int32
	Acquired int32
	Idle     int32
	Max      int32
}

// Stats snapshots the pool
func (db *Database) Stats() PoolStats {
	stat := db.Pool.Stat()
	return PoolStats{
		Total:    stat.TotalConns(),
		Acquired: stat.AcquiredConns(),
		Idle:     stat.IdleConns(),
		Max:      stat.MaxConns(),
	}
}

// RecordPoolStats publishes pool usage to the connection gauges
func (db *Database) RecordPoolStats() {
	stats := db.Stats()
	metrics.UpdateDBConnectionStats(stats.Acquired, stats.Idle)
}
