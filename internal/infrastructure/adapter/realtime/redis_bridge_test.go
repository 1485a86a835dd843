package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/logger"
)

// unreachableRedis never answers; tests that touch it expect an error
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisBridge_Push(t *testing.T) {
	ctx := context.Background()

	t.Run("local connection skips redis", func(t *testing.T) {
		hub := NewHub(4, logger.NewNoopLogger())
		stream := hub.Attach("conn-1")
		client := unreachableRedis()
		defer client.Close()
		bridge := NewRedisBridge(hub, client, "", logger.NewNoopLogger())

		require.NoError(t, bridge.Push(ctx, "conn-1", testEvent("n-1")))
		assert.Len(t, stream, 1)
	})

	t.Run("remote connection publishes", func(t *testing.T) {
		hub := NewHub(4, logger.NewNoopLogger())
		client := unreachableRedis()
		defer client.Close()
		bridge := NewRedisBridge(hub, client, "test-channel", logger.NewNoopLogger())

		err := bridge.Push(ctx, "conn-remote", testEvent("n-1"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to publish live event")
	})
}

func TestRedisBridge_Relay(t *testing.T) {
	hub := NewHub(4, logger.NewNoopLogger())
	stream := hub.Attach("conn-1")
	client := unreachableRedis()
	defer client.Close()
	bridge := NewRedisBridge(hub, client, "", logger.NewNoopLogger())

	payload, err := json.Marshal(envelope{ConnectionID: "conn-1", Event: testEvent("n-1")})
	require.NoError(t, err)
	other, err := json.Marshal(envelope{ConnectionID: "conn-elsewhere", Event: testEvent("n-2")})
	require.NoError(t, err)

	bridge.relay(context.Background(), string(payload))
	bridge.relay(context.Background(), string(other))
	bridge.relay(context.Background(), "{broken")

	require.Len(t, stream, 1)
	got := <-stream
	assert.Equal(t, "n-1", got.ID)
	assert.Equal(t, "pay-1", got.EntityID)
	assert.True(t, got.CreatedAt.Equal(testEvent("n-1").CreatedAt))
}
