package ingest

import (
	"context"
	"fmt"
	"time"

	"nhl_sync/ingestion/internal/metrics"
	"nhl_sync/ingestion/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	DefaultTeamsCollection = "teams"
	DefaultGamesCollection = "games"
)

// Options configures a Coordinator. Zero values fall back to defaults.
type Options struct {
	TeamsCollection string
	GamesCollection string

	// Location decides which calendar day "today" is
	Location *time.Location

	Now func() time.Time
}

// Coordinator runs standings then games for every date of a window
type Coordinator struct {
	standings *StandingsIngestor
	games     *GameIngestor
	location  *time.Location
	now       func() time.Time
}

// NewCoordinator wires both ingestors over a single store handle.
func NewCoordinator(fetcher Fetcher, s store.Store, opts Options) *Coordinator {
	if opts.TeamsCollection == "" {
		opts.TeamsCollection = DefaultTeamsCollection
	}
	if opts.GamesCollection == "" {
		opts.GamesCollection = DefaultGamesCollection
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	upserter := store.NewUpserter(s)
	return &Coordinator{
		standings: NewStandingsIngestor(fetcher, upserter, opts.TeamsCollection),
		games:     NewGameIngestor(fetcher, upserter, opts.GamesCollection),
		location:  opts.Location,
		now:       opts.Now,
	}
}

// Run ingests the last days days plus today, oldest first. An invalid days
// returns a ValidationError before anything is fetched. A failing date is
// logged and recorded in the summary and the run continues with the next
// date. Only context cancellation stops the run early.
func (c *Coordinator) Run(ctx context.Context, days int) (Summary, error) {
	start := time.Now()

	dates, err := DateRange(c.now().In(c.location), days)
	if err != nil {
		return Summary{}, err
	}

	log.Info().
		Int("count", len(dates)).
		Strs("dates", dates).
		Msg("Starting combined NHL data ingestion")

	summary := Summary{Dates: make([]DateResult, 0, len(dates))}
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		summary.Dates = append(summary.Dates, c.ingestDate(ctx, date))
	}
	summary.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	teamsOK, teamsFailed, gamesOK, gamesFailed := summary.Totals()
	log.Info().
		Int("dates", len(summary.Dates)).
		Int("teams_succeeded", teamsOK).
		Int("teams_failed", teamsFailed).
		Int("games_succeeded", gamesOK).
		Int("games_failed", gamesFailed).
		Strs("failed_dates", summary.FailedDates()).
		Dur("duration", summary.Duration).
		Msg("Combined ingestion process finished")

	return summary, nil
}

// ingestDate runs the unit for one date. Panics are recovered into the
// result so the next date still runs.
func (c *Coordinator) ingestDate(ctx context.Context, date string) (result DateResult) {
	result.Date = date

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("panic processing date %s: %v", date, r)
		}
		if result.Err != nil {
			log.Error().Err(result.Err).Str("date", date).Msg("Critical error processing date")
			metrics.RecordDateFailure()
		}
	}()

	log.Info().Str("date", date).Msg("Starting processing for date")

	standings, err := c.standings.IngestStandings(ctx, date)
	result.Standings = standings
	if err != nil {
		result.Err = fmt.Errorf("failed to ingest standings for %s: %w", date, err)
		return result
	}

	games, err := c.games.IngestGames(ctx, date)
	result.Games = games
	if err != nil {
		result.Err = fmt.Errorf("failed to ingest games for %s: %w", date, err)
		return result
	}

	return result
}
