package ingest

import (
	"context"

	"nhl_sync/ingestion/internal/metrics"
	"nhl_sync/ingestion/internal/models"
	"nhl_sync/ingestion/internal/store"

	"github.com/rs/zerolog/log"
)

// GameIngestor writes the schedule of one date into the games collection
type GameIngestor struct {
	fetcher    Fetcher
	upserter   *store.Upserter
	collection string
}

// NewGameIngestor creates a new game ingestor
func NewGameIngestor(fetcher Fetcher, upserter *store.Upserter, collection string) *GameIngestor {
	return &GameIngestor{
		fetcher:    fetcher,
		upserter:   upserter,
		collection: collection,
	}
}

// IngestGames fetches the schedule for date, flattens its game weeks and
// upserts each game in order. The boxscore is fetched only for games that
// have started.
func (gi *GameIngestor) IngestGames(ctx context.Context, date string) (BatchResult, error) {
	games := flattenGameWeek(gi.fetcher.FetchSchedule(ctx, date))
	result := BatchResult{Found: len(games)}
	log.Info().Str("date", date).Int("count", len(games)).Msg("Game schedule fetched")

	for _, raw := range games {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		boxscore := gi.fetchDetail(ctx, raw)

		game, err := models.TransformGame(raw, boxscore)
		if err != nil {
			log.Warn().Err(err).Str("date", date).Msg("Failed to transform game")
			metrics.RecordEntity("game", "transform_error")
			result.fail(err)
			continue
		}

		if err := gi.upserter.Upsert(ctx, gi.collection, game.Key(), game.Document()); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			log.Error().Err(err).Str("date", date).Int64("game_id", game.GameID).Msg("Failed to save game")
			metrics.RecordEntity("game", "storage_error")
			result.fail(err)
			continue
		}

		metrics.RecordEntity("game", "success")
		result.Succeeded++
		log.Debug().
			Str("date", date).
			Int64("game_id", game.GameID).
			Str("status", game.Status).
			Str("matchup", extractTeamAbbrev(raw, "awayTeam")+" @ "+extractTeamAbbrev(raw, "homeTeam")).
			Msg("Game saved")
	}

	log.Info().
		Str("date", date).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("Games saved to database")

	return result, nil
}

// fetchDetail returns the boxscore for detail-eligible games and an empty
// payload otherwise.
func (gi *GameIngestor) fetchDetail(ctx context.Context, raw models.Payload) models.Payload {
	if !models.IsDetailEligible(extractString(raw, "gameState")) {
		return models.Payload{}
	}

	gameID, ok := extractGameID(raw)
	if !ok {
		return models.Payload{}
	}

	boxscore := gi.fetcher.FetchGameDetail(ctx, gameID)
	if boxscore == nil {
		return models.Payload{}
	}
	return boxscore
}
