package ingest

import (
	"context"
	"testing"
	"time"

	"nhl_sync/ingestion/internal/models"
	"nhl_sync/ingestion/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runClock = time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)

func newTestCoordinator(fetcher Fetcher, s store.Store) *Coordinator {
	return NewCoordinator(fetcher, s, Options{
		Location: time.UTC,
		Now:      func() time.Time { return runClock },
	})
}

func TestCoordinatorEndToEnd(t *testing.T) {
	ctx := context.Background()
	fetcher := newStubFetcher()
	for i, date := range []string{"2024-01-14", "2024-01-15"} {
		final := int64(100 + i*10)
		future := final + 1
		fetcher.standings[date] = standingsPayload("BOS")
		fetcher.schedules[date] = schedulePayload([]interface{}{
			gamePayload(final, models.GameStateFinal),
			gamePayload(future, models.GameStateFuture),
		})
		fetcher.details[final] = boxscorePayload(4, 1)
	}
	s := newRecordingStore(tickingClock(runClock))

	summary, err := newTestCoordinator(fetcher, s).Run(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"BOS", "BOS"}, s.setsTo(DefaultTeamsCollection), "One team upsert per date")
	assert.Len(t, s.setsTo(DefaultGamesCollection), 4)
	assert.Equal(t, 1, s.Len(DefaultTeamsCollection))

	withDetail := 0
	for _, id := range s.IDs(DefaultGamesCollection) {
		doc, _, err := s.Get(ctx, DefaultGamesCollection, id)
		require.NoError(t, err)
		if len(doc["raw"].(store.Document)["boxscore"].(store.Document)) > 0 {
			withDetail++
		}
	}
	assert.Equal(t, 2, withDetail, "Exactly one game per date should carry a boxscore")

	team, _, err := s.Get(ctx, DefaultTeamsCollection, "BOS")
	require.NoError(t, err)
	assert.True(t, team["updatedAt"].(time.Time).After(team[store.FieldCreatedAt].(time.Time)),
		"createdAt should stay at the first write")

	require.Len(t, summary.Dates, 2)
	assert.Equal(t, "2024-01-14", summary.Dates[0].Date)
	assert.Equal(t, "2024-01-15", summary.Dates[1].Date)
	teamsOK, teamsFailed, gamesOK, gamesFailed := summary.Totals()
	assert.Equal(t, 2, teamsOK)
	assert.Equal(t, 0, teamsFailed)
	assert.Equal(t, 4, gamesOK)
	assert.Equal(t, 0, gamesFailed)
	assert.True(t, summary.OK())
}

func TestCoordinatorOrdersStandingsBeforeGames(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.schedules["2024-01-14"] = schedulePayload([]interface{}{gamePayload(7, models.GameStateOfficial)})

	_, err := newTestCoordinator(fetcher, newRecordingStore(nil)).Run(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"standings:2024-01-14",
		"schedule:2024-01-14",
		"detail:7",
		"standings:2024-01-15",
		"schedule:2024-01-15",
	}, fetcher.calls)
}

func TestCoordinatorSurvivesFailedScheduleFetch(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.standings["2024-01-13"] = standingsPayload("BOS")
	fetcher.standings["2024-01-14"] = standingsPayload("BOS")
	fetcher.standings["2024-01-15"] = standingsPayload("BOS")
	fetcher.schedules["2024-01-13"] = schedulePayload([]interface{}{gamePayload(1, models.GameStateFuture)})
	fetcher.schedules["2024-01-15"] = schedulePayload([]interface{}{gamePayload(3, models.GameStateFuture)})
	s := newRecordingStore(nil)

	summary, err := newTestCoordinator(fetcher, s).Run(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, summary.Dates, 3)
	assert.Equal(t, 0, summary.Dates[1].Games.Found)
	assert.NoError(t, summary.Dates[1].Err)
	assert.Equal(t, []string{"1", "3"}, s.setsTo(DefaultGamesCollection))
	assert.True(t, summary.OK())
}

func TestCoordinatorRecoversFromPanickingDate(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.standings["2024-01-15"] = standingsPayload("BOS")
	fetcher.onCall = func(call string) {
		if call == "schedule:2024-01-14" {
			panic("unexpected payload")
		}
	}
	s := newRecordingStore(nil)

	summary, err := newTestCoordinator(fetcher, s).Run(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, summary.Dates, 2)
	require.Error(t, summary.Dates[0].Err)
	assert.Contains(t, summary.Dates[0].Err.Error(), "2024-01-14")
	assert.NoError(t, summary.Dates[1].Err)
	assert.Equal(t, []string{"2024-01-14"}, summary.FailedDates())
	assert.Equal(t, []string{"BOS"}, s.setsTo(DefaultTeamsCollection), "Next date should still run")
	assert.False(t, summary.OK())
	assert.Len(t, summary.Errors(), 1)
}

func TestCoordinatorRejectsInvalidDays(t *testing.T) {
	fetcher := newStubFetcher()

	for _, days := range []int{-1, MaxDaysToIngest + 1} {
		summary, err := newTestCoordinator(fetcher, newRecordingStore(nil)).Run(context.Background(), days)

		_, ok := AsValidationError(err)
		assert.True(t, ok)
		assert.Empty(t, summary.Dates)
	}
	assert.Empty(t, fetcher.calls, "Nothing should be fetched before validation passes")
}

func TestCoordinatorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := newStubFetcher()
	fetcher.standings["2024-01-13"] = standingsPayload("BOS", "TOR")
	fetcher.onCall = func(call string) {
		if call == "standings:2024-01-13" {
			cancel()
		}
	}

	summary, err := newTestCoordinator(fetcher, newRecordingStore(nil)).Run(ctx, 2)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, summary.Dates, 1)
	assert.ErrorIs(t, summary.Dates[0].Err, context.Canceled)
	assert.Equal(t, []string{"standings:2024-01-13"}, fetcher.calls)
}

func TestCoordinatorUsesConfiguredCollections(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.standings["2024-01-15"] = standingsPayload("BOS")
	fetcher.schedules["2024-01-15"] = schedulePayload([]interface{}{gamePayload(5, models.GameStateFuture)})
	s := newRecordingStore(nil)

	coordinator := NewCoordinator(fetcher, s, Options{
		TeamsCollection: "nhl_teams",
		GamesCollection: "nhl_games",
		Location:        time.UTC,
		Now:             func() time.Time { return runClock },
	})
	_, err := coordinator.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"BOS"}, s.setsTo("nhl_teams"))
	assert.Equal(t, []string{"5"}, s.setsTo("nhl_games"))
}
