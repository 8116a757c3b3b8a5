package ingest

import (
	"context"

	"nhl_sync/ingestion/internal/models"
)

// Fetcher is the upstream collaborator. Implementations absorb transport
// and HTTP failures and return an empty payload instead of an error, so
// an empty result is a valid, possibly degraded, outcome.
type Fetcher interface {
	FetchSchedule(ctx context.Context, date string) models.Payload
	FetchGameDetail(ctx context.Context, gameID int64) models.Payload
	FetchStandings(ctx context.Context, date string) models.Payload
}

// listOf extracts a list of objects stored under key. Entries that are not
// objects come back as nil so the transformer rejects them and the batch
// keeps its positions.
func listOf(payload models.Payload, key string) []models.Payload {
	switch items := payload[key].(type) {
	case []interface{}:
		out := make([]models.Payload, 0, len(items))
		for _, item := range items {
			entry, _ := item.(map[string]interface{})
			out = append(out, entry)
		}
		return out
	case []map[string]interface{}:
		return items
	default:
		return nil
	}
}

// flattenGameWeek joins gameWeek[].games[] into one sequence, keeping the
// upstream order of weeks and of games within a week.
func flattenGameWeek(schedule models.Payload) []models.Payload {
	var games []models.Payload
	for _, week := range listOf(schedule, "gameWeek") {
		games = append(games, listOf(week, "games")...)
	}
	return games
}

func extractString(payload models.Payload, key string) string {
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}

func extractGameID(payload models.Payload) (int64, bool) {
	switch v := payload["id"].(type) {
	case float64:
		return int64(v), v != 0
	case int64:
		return v, v != 0
	case int:
		return int64(v), v != 0
	default:
		return 0, false
	}
}

func extractTeamAbbrev(payload models.Payload, side string) string {
	team, ok := payload[side].(map[string]interface{})
	if !ok {
		return ""
	}
	return extractString(team, "abbrev")
}
