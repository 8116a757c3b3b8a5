package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	// NHL web API
	NHLAPIBaseURL    string        `envconfig:"NHL_API_BASE_URL" default:"https://api-web.nhle.com/v1" validate:"required,url"`
	NHLAPITimeout    time.Duration `envconfig:"NHL_API_TIMEOUT" default:"30s" validate:"gt=0"`
	NHLAPIMaxRetries int           `envconfig:"NHL_API_MAX_RETRIES" default:"3" validate:"min=0,max=10"`
	NHLAPIRateLimit  int           `envconfig:"NHL_API_RATE_LIMIT" default:"5" validate:"min=1,max=100"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost" validate:"required"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432" validate:"min=1,max=65535"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"nhl_sync" validate:"required"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"nhl_user" validate:"required"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:""`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10" validate:"min=1"`

	// Redis
	RedisEnabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379" validate:"min=1,max=65535"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"min=0"`

	// Caching TTL for final boxscores
	CacheTTLBoxscore time.Duration `envconfig:"CACHE_TTL_BOXSCORE" default:"168h" validate:"gt=0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development" validate:"oneof=development test staging production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Timezone string `envconfig:"TIMEZONE" default:"America/New_York" validate:"required"`

	// Collections
	TeamsCollection string `envconfig:"TEAMS_COLLECTION" default:"teams" validate:"required"`
	GamesCollection string `envconfig:"GAMES_COLLECTION" default:"games" validate:"required"`

	// Ingestion window for scheduled runs
	IngestDays int `envconfig:"INGEST_DAYS" default:"1" validate:"min=0,max=365"`

	// Scheduler
	EnableScheduler    bool          `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled bool          `envconfig:"INITIAL_SYNC_ENABLED" default:"true"`
	NightlyIngestCron  string        `envconfig:"NIGHTLY_INGEST_CRON" default:"0 4 * * *" validate:"required"`
	LivePollInterval   time.Duration `envconfig:"LIVE_POLL_INTERVAL" default:"60s" validate:"gte=0"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090" validate:"min=1,max=65535"`
}

var validate = validator.New()

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks struct tags and the rules tags cannot express
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a known location: %w", c.Timezone, err)
	}

	if _, err := cron.ParseStandard(c.NightlyIngestCron); err != nil {
		return fmt.Errorf("NIGHTLY_INGEST_CRON %q is invalid: %w", c.NightlyIngestCron, err)
	}

	if c.TeamsCollection == c.GamesCollection {
		return fmt.Errorf("TEAMS_COLLECTION and GAMES_COLLECTION must differ")
	}

	if c.IsProduction() && c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required in production")
	}

	return nil
}

// Location returns the configured time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabasePortString returns the database port for connection strings
func (c *Config) DatabasePortString() string {
	return strconv.Itoa(c.DatabasePort)
}

// RedisPortString returns the Redis port for connection strings
func (c *Config) RedisPortString() string {
	return strconv.Itoa(c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
