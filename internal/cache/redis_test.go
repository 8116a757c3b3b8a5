//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests against a local Redis
// Run with: go test -v -tags=integration ./internal/cache/...

func setupTestCache(t *testing.T) (*RedisCache, context.Context) {
	ctx := context.Background()

	rc, err := NewRedisCache(ctx, Config{Host: "localhost", Port: "6379", DB: 15})
	require.NoError(t, err, "Failed to connect to test redis")

	t.Cleanup(func() { rc.Close() })
	return rc, ctx
}

func TestRedisCacheJSONRoundTrip(t *testing.T) {
	rc, ctx := setupTestCache(t)
	key := "nhl:test:boxscore:1"
	defer rc.Delete(ctx, key)

	value := map[string]interface{}{"gameState": "OFF", "homeTeam": map[string]interface{}{"score": 3.0}}
	require.NoError(t, rc.SetJSON(ctx, key, value, time.Minute))

	var got map[string]interface{}
	found, err := rc.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, value, got)
}

func TestRedisCacheMiss(t *testing.T) {
	rc, ctx := setupTestCache(t)

	var got map[string]interface{}
	found, err := rc.GetJSON(ctx, "nhl:test:missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestRedisCacheHealthCheck(t *testing.T) {
	rc, ctx := setupTestCache(t)
	assert.NoError(t, rc.HealthCheck(ctx))
}
