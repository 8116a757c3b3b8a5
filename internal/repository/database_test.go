//go:build integration

package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: go test -v -tags=integration ./internal/repository/...
// DATABASE_* variables point the tests at a scratch database.

func openTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(context.Background(), Config{
		Host:     envOr("DATABASE_HOST", "localhost"),
		Port:     envOr("DATABASE_PORT", "5432"),
		Database: envOr("DATABASE_NAME", "nhl_sync_test"),
		User:     envOr("DATABASE_USER", "nhl_user"),
		Password: envOr("DATABASE_PASSWORD", "nhl_password"),
		SSLMode:  "disable",
		MaxConns: 4,
	})
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(db.Close)

	require.NoError(t, db.Documents.EnsureSchema(context.Background()))
	return db
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func TestDatabaseHealth(t *testing.T) {
	db := openTestDB(t)

	assert.NoError(t, db.Health(context.Background()))

	stats := db.Stats()
	assert.Equal(t, int32(4), stats.Max)
	assert.GreaterOrEqual(t, stats.Total, stats.Idle)
}

func TestEnsureSchemaIsRepeatable(t *testing.T) {
	db := openTestDB(t)

	assert.NoError(t, db.Documents.EnsureSchema(context.Background()))
}
