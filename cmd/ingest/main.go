package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"nhl_sync/ingestion/internal/cache"
	"nhl_sync/ingestion/internal/client"
	"nhl_sync/ingestion/internal/config"
	"nhl_sync/ingestion/internal/ingest"
	"nhl_sync/ingestion/internal/logging"
	"nhl_sync/ingestion/internal/repository"
	"nhl_sync/ingestion/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "ingest [days]",
		Short: "Ingest NHL standings and games for today and the previous days",
		Long: "Fetches standings and the game schedule for every date from [days] days ago\n" +
			"through today and upserts teams and games into the document store.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := parseDays(args)
			if err != nil {
				return err
			}
			// Arguments are fine from here on, runtime errors should not print usage
			cmd.SilenceUsage = true

			cfg := config.MustLoad()
			logging.Setup(cfg.AppEnv, cfg.LogLevel)

			if days > ingest.MaxDaysToIngest {
				log.Warn().
					Int("days", days).
					Int("max", ingest.MaxDaysToIngest).
					Msg("Requested window exceeds the maximum number of days")
			}

			// Reject the window before any connection is opened
			if _, err := ingest.DateRange(time.Now(), days); err != nil {
				log.Error().Err(err).Int("days", days).Msg("Invalid ingestion window")
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, days, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Ingest into an in-memory store instead of Postgres")
	return cmd
}

// parseDays reads the optional days argument. No argument means today only.
func parseDays(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}

	days, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("days must be an integer, got %q", args[0])
	}
	if days < 0 {
		return 0, fmt.Errorf("days must not be negative, got %d", days)
	}
	return days, nil
}

func run(ctx context.Context, cfg *config.Config, days int, dryRun bool) error {
	var fetcher ingest.Fetcher = client.NewClient(cfg.NHLAPIBaseURL, client.Options{
		Timeout:    cfg.NHLAPITimeout,
		MaxRetries: cfg.NHLAPIMaxRetries,
		RateLimit:  cfg.NHLAPIRateLimit,
	})

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
			log.Info().Msg("Redis cache connected")
		}
	}

	var docs store.Store
	if dryRun {
		docs = store.NewMemoryStore(nil)
		log.Info().Msg("Dry run: documents are kept in memory only")
	} else {
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
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := db.Documents.EnsureSchema(ctx); err != nil {
			return err
		}
		docs = db.Documents
	}

	coordinator := ingest.NewCoordinator(fetcher, docs, ingest.Options{
		TeamsCollection: cfg.TeamsCollection,
		GamesCollection: cfg.GamesCollection,
		Location:        cfg.Location(),
	})

	summary, err := coordinator.Run(ctx, days)
	if err != nil {
		if verr, ok := ingest.AsValidationError(err); ok {
			log.Error().Str("field", verr.Field).Msg(verr.Message)
		}
		return err
	}

	if failed := summary.FailedDates(); len(failed) > 0 {
		log.Warn().Strs("dates", failed).Msg("Some dates did not complete")
	}
	return nil
}
