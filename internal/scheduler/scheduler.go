package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nhl_sync/ingestion/internal/ingest"
	"nhl_sync/ingestion/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sync types used in logs and metrics
const (
	SyncNightly = "nightly"
	SyncLive    = "live"
	SyncInitial = "initial"
)

// Runner runs one ingestion over a window of days
type Runner interface {
	Run(ctx context.Context, days int) (ingest.Summary, error)
}

// Config controls what runs when
type Config struct {
	NightlyCron      string
	IngestDays       int
	LivePollInterval time.Duration
}

// Scheduler manages background ingestion:
// - nightly ingestion of the configured window
// - polling of today's games while they are in progress
// Runs never overlap.
type Scheduler struct {
	cfg      Config
	runner   Runner
	cron     *cron.Cron
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
	runMu    sync.Mutex
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg Config, runner Runner) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		runner:   runner,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	// Setup nightly ingestion cron job
	if _, err := s.cron.AddFunc(s.cfg.NightlyCron, func() {
		log.Info().Int("days", s.cfg.IngestDays).Msg("Running nightly ingestion...")
		if err := s.RunNow(ctx, SyncNightly, s.cfg.IngestDays); err != nil {
			log.Error().Err(err).Msg("Nightly ingestion failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule nightly ingestion: %w", err)
	}

	// Start cron scheduler
	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.NightlyCron).
		Msg("Nightly ingestion scheduled")

	if s.cfg.LivePollInterval <= 0 {
		log.Info().Msg("Live polling disabled")
		return nil
	}

	s.ticker = time.NewTicker(s.cfg.LivePollInterval)
	log.Info().
		Dur("interval", s.cfg.LivePollInterval).
		Msg("Live game polling started")

	// Start polling goroutine
	s.wg.Add(1)
	go s.pollToday(ctx)

	return nil
}

// Stop stops the scheduler and waits for a running ingestion to finish
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		log.Info().Msg("Stopping scheduler...")

		<-s.cron.Stop().Done()

		if s.ticker != nil {
			s.ticker.Stop()
		}

		close(s.stopChan)
		s.wg.Wait()
		log.Info().Msg("Scheduler stopped")
	})
}

// RunNow runs one ingestion of days immediately, waiting for any run in
// progress to finish first
func (s *Scheduler) RunNow(ctx context.Context, syncType string, days int) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	summary, err := s.runner.Run(ctx, days)
	duration := time.Since(start)

	status := "success"
	switch {
	case err != nil:
		status = "failed"
	case !summary.OK():
		status = "partial"
	}
	metrics.RecordSync(syncType, status, duration.Seconds())

	if err != nil {
		metrics.RecordError("scheduler", syncType)
		return fmt.Errorf("%s ingestion failed: %w", syncType, err)
	}

	teamsOK, teamsFailed, gamesOK, gamesFailed := summary.Totals()
	log.Info().
		Str("type", syncType).
		Str("status", status).
		Int("teams", teamsOK).
		Int("teams_failed", teamsFailed).
		Int("games", gamesOK).
		Int("games_failed", gamesFailed).
		Dur("duration", duration).
		Msg("Ingestion complete")

	return nil
}

// pollToday re-ingests today's date on every tick
func (s *Scheduler) pollToday(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping live game polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping live game polling")
			return
		case <-s.ticker.C:
			start := time.Now()
			if err := s.RunNow(ctx, SyncLive, 0); err != nil {
				log.Error().Err(err).Msg("Failed to poll today's games")
			}
			metrics.RecordWorkerIteration(time.Since(start).Seconds())
		}
	}
}
