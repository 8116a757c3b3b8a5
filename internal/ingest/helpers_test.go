package ingest

import (
	"context"
	"fmt"
	"time"

	"nhl_sync/ingestion/internal/models"
	"nhl_sync/ingestion/internal/store"
)

type stubFetcher struct {
	standings map[string]models.Payload
	schedules map[string]models.Payload
	details   map[int64]models.Payload

	// onCall runs before every fetch and may panic or cancel
	onCall func(call string)

	calls []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		standings: make(map[string]models.Payload),
		schedules: make(map[string]models.Payload),
		details:   make(map[int64]models.Payload),
	}
}

func (f *stubFetcher) record(call string) {
	f.calls = append(f.calls, call)
	if f.onCall != nil {
		f.onCall(call)
	}
}

func (f *stubFetcher) FetchSchedule(ctx context.Context, date string) models.Payload {
	f.record("schedule:" + date)
	if payload, ok := f.schedules[date]; ok {
		return payload
	}
	return models.Payload{}
}

func (f *stubFetcher) FetchGameDetail(ctx context.Context, gameID int64) models.Payload {
	f.record(fmt.Sprintf("detail:%d", gameID))
	if payload, ok := f.details[gameID]; ok {
		return payload
	}
	return models.Payload{}
}

func (f *stubFetcher) FetchStandings(ctx context.Context, date string) models.Payload {
	f.record("standings:" + date)
	if payload, ok := f.standings[date]; ok {
		return payload
	}
	return models.Payload{}
}

type setCall struct {
	collection string
	id         string
}

// recordingStore records every successful Set and fails the keys in failSet
type recordingStore struct {
	*store.MemoryStore
	failSet map[string]error
	sets    []setCall
}

func newRecordingStore(now func() time.Time) *recordingStore {
	return &recordingStore{
		MemoryStore: store.NewMemoryStore(now),
		failSet:     make(map[string]error),
	}
}

func (s *recordingStore) Set(ctx context.Context, collection, id string, doc store.Document, merge bool) error {
	if err, ok := s.failSet[collection+"/"+id]; ok {
		return err
	}
	s.sets = append(s.sets, setCall{collection: collection, id: id})
	return s.MemoryStore.Set(ctx, collection, id, doc, merge)
}

func (s *recordingStore) setsTo(collection string) []string {
	var ids []string
	for _, call := range s.sets {
		if call.collection == collection {
			ids = append(ids, call.id)
		}
	}
	return ids
}

// tickingClock advances one minute on every call
func tickingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func standingsPayload(abbrevs ...string) models.Payload {
	entries := make([]interface{}, 0, len(abbrevs))
	for _, abbrev := range abbrevs {
		entries = append(entries, map[string]interface{}{
			"teamAbbrev": map[string]interface{}{"default": abbrev},
			"teamName":   map[string]interface{}{"default": "Team " + abbrev},
			"placeName":  map[string]interface{}{"default": "City " + abbrev},
			"wins":       10.0,
			"losses":     5.0,
			"otLosses":   2.0,
			"points":     22.0,
		})
	}
	return models.Payload{"standings": entries}
}

func schedulePayload(weeks ...[]interface{}) models.Payload {
	gameWeek := make([]interface{}, 0, len(weeks))
	for _, games := range weeks {
		gameWeek = append(gameWeek, map[string]interface{}{"games": games})
	}
	return models.Payload{"gameWeek": gameWeek}
}

func gamePayload(id int64, state string) map[string]interface{} {
	return map[string]interface{}{
		"id":           float64(id),
		"gameState":    state,
		"startTimeUTC": "2024-01-15T00:00:00Z",
		"homeTeam": map[string]interface{}{
			"id":     6.0,
			"name":   map[string]interface{}{"default": "Bruins"},
			"abbrev": "BOS",
			"score":  1.0,
		},
		"awayTeam": map[string]interface{}{
			"id":     10.0,
			"abbrev": "TOR",
			"score":  0.0,
		},
	}
}

func boxscorePayload(home, away float64) models.Payload {
	return models.Payload{
		"homeTeam": map[string]interface{}{"score": home},
		"awayTeam": map[string]interface{}{"score": away},
	}
}
