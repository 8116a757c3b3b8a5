package ingest

import (
	"time"
)

// BatchResult counts the outcome of one standings or games batch
type BatchResult struct {
	Found     int
	Succeeded int
	Failed    int
	Errors    []error
}

func (r *BatchResult) fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err)
}

// DateResult is the outcome of the standings-then-games unit for one date.
// Err is set when the unit itself was cut short.
type DateResult struct {
	Date      string
	Standings BatchResult
	Games     BatchResult
	Err       error
}

// Failed reports whether anything for the date did not make it to the store
func (r DateResult) Failed() bool {
	return r.Err != nil || r.Standings.Failed > 0 || r.Games.Failed > 0
}

// Summary aggregates a whole run
type Summary struct {
	Dates    []DateResult
	Duration time.Duration
}

// Totals returns succeeded/failed counts for teams and games across dates
func (s Summary) Totals() (teamsOK, teamsFailed, gamesOK, gamesFailed int) {
	for _, d := range s.Dates {
		teamsOK += d.Standings.Succeeded
		teamsFailed += d.Standings.Failed
		gamesOK += d.Games.Succeeded
		gamesFailed += d.Games.Failed
	}
	return teamsOK, teamsFailed, gamesOK, gamesFailed
}

// FailedDates lists dates whose unit was aborted
func (s Summary) FailedDates() []string {
	var dates []string
	for _, d := range s.Dates {
		if d.Err != nil {
			dates = append(dates, d.Date)
		}
	}
	return dates
}

// Errors flattens every error recorded during the run, in order
func (s Summary) Errors() []error {
	var errs []error
	for _, d := range s.Dates {
		errs = append(errs, d.Standings.Errors...)
		errs = append(errs, d.Games.Errors...)
		if d.Err != nil {
			errs = append(errs, d.Err)
		}
	}
	return errs
}

// OK reports whether every date and entity succeeded
func (s Summary) OK() bool {
	for _, d := range s.Dates {
		if d.Failed() {
			return false
		}
	}
	return true
}
