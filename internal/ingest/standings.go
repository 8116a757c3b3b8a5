package ingest

import (
	"context"

	"nhl_sync/ingestion/internal/metrics"
	"nhl_sync/ingestion/internal/models"
	"nhl_sync/ingestion/internal/store"

	"github.com/rs/zerolog/log"
)

// StandingsIngestor writes the standings of one date into the teams
// collection
type StandingsIngestor struct {
	fetcher    Fetcher
	upserter   *store.Upserter
	collection string
}

// NewStandingsIngestor creates a new standings ingestor
func NewStandingsIngestor(fetcher Fetcher, upserter *store.Upserter, collection string) *StandingsIngestor {
	return &StandingsIngestor{
		fetcher:    fetcher,
		upserter:   upserter,
		collection: collection,
	}
}

// IngestStandings fetches, transforms and upserts every standings entry for
// date in upstream order. A failing team is logged and counted, and the
// batch moves on. Only context cancellation ends the batch early.
func (si *StandingsIngestor) IngestStandings(ctx context.Context, date string) (BatchResult, error) {
	log.Info().Str("date", date).Msg("Starting team standings ingestion")

	entries := listOf(si.fetcher.FetchStandings(ctx, date), "standings")
	result := BatchResult{Found: len(entries)}
	log.Info().Str("date", date).Int("count", len(entries)).Msg("Standings fetched")

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		team, err := models.TransformTeam(entry)
		if err != nil {
			log.Warn().Err(err).Str("date", date).Msg("Failed to transform team")
			metrics.RecordEntity("team", "transform_error")
			result.fail(err)
			continue
		}

		team.ComputeFullName()

		if err := si.upserter.UpsertPreservingCreatedAt(ctx, si.collection, team.ID, team.Document()); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			log.Error().Err(err).Str("date", date).Str("team_id", team.ID).Msg("Failed to save team")
			metrics.RecordEntity("team", "storage_error")
			result.fail(err)
			continue
		}

		metrics.RecordEntity("team", "success")
		result.Succeeded++
		log.Debug().
			Str("date", date).
			Str("team_id", team.ID).
			Str("team", team.FullName).
			Msg("Team saved")
	}

	log.Info().
		Str("date", date).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("Teams saved to database")

	return result, nil
}
