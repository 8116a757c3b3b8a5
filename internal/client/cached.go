package client

import (
	"context"
	"fmt"
	"time"

	"nhl_sync/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// Fetcher is the set of upstream calls the ingestion pipeline makes
type Fetcher interface {
	FetchSchedule(ctx context.Context, date string) models.Payload
	FetchGameDetail(ctx context.Context, gameID int64) models.Payload
	FetchStandings(ctx context.Context, date string) models.Payload
}

// DetailCache is a JSON key/value cache with expiry
type DetailCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachingFetcher serves boxscores of finished games from a cache. Live
// boxscores and schedule/standings calls always go upstream.
type CachingFetcher struct {
	Fetcher
	cache DetailCache
	ttl   time.Duration
}

// NewCachingFetcher wraps next with a boxscore cache
func NewCachingFetcher(next Fetcher, cache DetailCache, ttl time.Duration) *CachingFetcher {
	return &CachingFetcher{
		Fetcher: next,
		cache:   cache,
		ttl:     ttl,
	}
}

func boxscoreKey(gameID int64) string {
	return fmt.Sprintf("nhl:boxscore:%d", gameID)
}

// FetchGameDetail returns the cached boxscore when present. A fetched
// boxscore is cached only once its game state is final. Cache failures
// fall through to upstream.
func (cf *CachingFetcher) FetchGameDetail(ctx context.Context, gameID int64) models.Payload {
	key := boxscoreKey(gameID)

	var cached models.Payload
	found, err := cf.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Int64("game_id", gameID).Msg("Failed to read boxscore cache")
	} else if found && len(cached) > 0 {
		log.Debug().Int64("game_id", gameID).Msg("Boxscore served from cache")
		return cached
	}

	boxscore := cf.Fetcher.FetchGameDetail(ctx, gameID)

	state, _ := boxscore["gameState"].(string)
	if !models.IsFinalState(state) {
		return boxscore
	}

	if err := cf.cache.SetJSON(ctx, key, boxscore, cf.ttl); err != nil {
		log.Warn().Err(err).Int64("game_id", gameID).Msg("Failed to cache boxscore")
	}
	return boxscore
}
