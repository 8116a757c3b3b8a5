package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"nhl_sync/ingestion/internal/models"
	"nhl_sync/ingestion/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestStandings(t *testing.T) {
	ctx := context.Background()
	fetcher := newStubFetcher()
	fetcher.standings["2024-01-15"] = standingsPayload("BOS", "TOR")
	s := newRecordingStore(nil)

	ingestor := NewStandingsIngestor(fetcher, store.NewUpserter(s), "teams")
	result, err := ingestor.IngestStandings(ctx, "2024-01-15")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []string{"BOS", "TOR"}, s.setsTo("teams"), "Teams should be written in upstream order")

	doc, ok, err := s.Get(ctx, "teams", "BOS")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "City BOS Team BOS", doc["fullName"])
	assert.Equal(t, 2, doc["overtimeLosses"])
	assert.NotNil(t, doc[store.FieldCreatedAt])
}

func TestIngestStandingsContinuesAfterTransformFailure(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.standings["2024-01-15"] = standingsPayload("BOS", "", "TOR")
	s := newRecordingStore(nil)

	result, err := NewStandingsIngestor(fetcher, store.NewUpserter(s), "teams").IngestStandings(context.Background(), "2024-01-15")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Found)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	_, isTransform := models.AsTransformError(result.Errors[0])
	assert.True(t, isTransform)
	assert.Equal(t, []string{"BOS", "TOR"}, s.setsTo("teams"))
}

func TestIngestStandingsContinuesAfterStorageFailure(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.standings["2024-01-15"] = standingsPayload("BOS", "MTL", "TOR")
	s := newRecordingStore(nil)
	s.failSet["teams/MTL"] = errors.New("write rejected")

	result, err := NewStandingsIngestor(fetcher, store.NewUpserter(s), "teams").IngestStandings(context.Background(), "2024-01-15")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	storageErr, ok := store.AsStorageError(result.Errors[0])
	require.True(t, ok)
	assert.Equal(t, "MTL", storageErr.ID)
	assert.Equal(t, []string{"BOS", "TOR"}, s.setsTo("teams"))
}

func TestIngestStandingsEmptyPayload(t *testing.T) {
	fetcher := newStubFetcher()
	s := newRecordingStore(nil)

	result, err := NewStandingsIngestor(fetcher, store.NewUpserter(s), "teams").IngestStandings(context.Background(), "2024-01-15")
	require.NoError(t, err)

	assert.Equal(t, BatchResult{}, result)
	assert.Empty(t, s.sets)
}

func TestIngestStandingsPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	fetcher := newStubFetcher()
	fetcher.standings["2024-01-14"] = standingsPayload("BOS")
	fetcher.standings["2024-01-15"] = standingsPayload("BOS")
	s := newRecordingStore(tickingClock(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)))
	ingestor := NewStandingsIngestor(fetcher, store.NewUpserter(s), "teams")

	_, err := ingestor.IngestStandings(ctx, "2024-01-14")
	require.NoError(t, err)
	first, _, err := s.Get(ctx, "teams", "BOS")
	require.NoError(t, err)

	_, err = ingestor.IngestStandings(ctx, "2024-01-15")
	require.NoError(t, err)
	second, _, err := s.Get(ctx, "teams", "BOS")
	require.NoError(t, err)

	assert.Equal(t, first[store.FieldCreatedAt], second[store.FieldCreatedAt])
	assert.True(t, second["updatedAt"].(time.Time).After(first["updatedAt"].(time.Time)))
}

func TestIngestStandingsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := newStubFetcher()
	fetcher.standings["2024-01-15"] = standingsPayload("BOS", "TOR")
	fetcher.onCall = func(string) { cancel() }
	s := newRecordingStore(nil)

	result, err := NewStandingsIngestor(fetcher, store.NewUpserter(s), "teams").IngestStandings(ctx, "2024-01-15")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Succeeded)
	assert.Empty(t, s.sets)
}
