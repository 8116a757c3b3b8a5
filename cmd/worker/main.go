package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"nhl_sync/ingestion/internal/cache"
	"nhl_sync/ingestion/internal/client"
	"nhl_sync/ingestion/internal/config"
	"nhl_sync/ingestion/internal/ingest"
	"nhl_sync/ingestion/internal/logging"
	"nhl_sync/ingestion/internal/metrics"
	"nhl_sync/ingestion/internal/repository"
	"nhl_sync/ingestion/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Setup logger
	logging.Setup(cfg.AppEnv, cfg.LogLevel)

	log.Info().Msg("Starting NHL Data Ingestion Worker")
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("timezone", cfg.Timezone).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Initialize NHL API client
	var fetcher ingest.Fetcher = client.NewClient(cfg.NHLAPIBaseURL, client.Options{
		Timeout:    cfg.NHLAPITimeout,
		MaxRetries: cfg.NHLAPIMaxRetries,
		RateLimit:  cfg.NHLAPIRateLimit,
	})
	log.Info().Str("base_url", cfg.NHLAPIBaseURL).Msg("NHL API client initialized")

	// Initialize database connection
	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePortString(),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
		MaxConns: cfg.DatabaseMaxConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Documents.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare document schema")
	}
	log.Info().Msg("Database connection established")

	// Initialize Redis client
	checks := map[string]func(context.Context) error{
		"database": db.Health,
	}
	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(ctx, cache.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPortString(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			defer redisCache.Close()
			fetcher = client.NewCachingFetcher(fetcher, redisCache, cfg.CacheTTLBoxscore)
			checks["redis"] = redisCache.HealthCheck
			log.Info().Msg("Redis cache connected")
		}
	}

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort, checks)
	}

	// Update system uptime and pool metrics
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				db.RecordPoolStats()
			case <-ctx.Done():
				return
			}
		}
	}()

	coordinator := ingest.NewCoordinator(fetcher, db.Documents, ingest.Options{
		TeamsCollection: cfg.TeamsCollection,
		GamesCollection: cfg.GamesCollection,
		Location:        cfg.Location(),
	})

	// Create and start scheduler
	sched := scheduler.NewScheduler(scheduler.Config{
		NightlyCron:      cfg.NightlyIngestCron,
		IngestDays:       cfg.IngestDays,
		LivePollInterval: cfg.LivePollInterval,
	}, coordinator)

	if cfg.EnableScheduler {
		log.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	// Run initial sync if enabled
	if cfg.InitialSyncEnabled {
		log.Info().Int("days", cfg.IngestDays).Msg("Running initial data sync...")
		if err := sched.RunNow(ctx, scheduler.SyncInitial, cfg.IngestDays); err != nil {
			log.Error().Err(err).Msg("Initial sync failed, continuing anyway...")
		} else {
			log.Info().Msg("Initial sync completed successfully")
		}
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// startMetricsServer serves Prometheus metrics and the health endpoint
func startMetricsServer(port int, checks map[string]func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/health", healthHandler(checks))

	addr := fmt.Sprintf(":%d", port)
	log.Info().Int("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}

// healthHandler reports healthy only when every dependency check passes
func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "healthy"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}
