package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/realtime"
)

// DefaultChannel is the pub/sub channel shared by all portal instances
const DefaultChannel = "client-portal:notifications"

type envelope struct {
	ConnectionID string         `json:"connection_id"`
	Event        realtime.Event `json:"event"`
}

// RedisBridge delivers pushes for connections held by other instances.
// Local connections are served straight from the hub; anything else is
// published on a Redis channel that every instance relays into its own hub.
type RedisBridge struct {
	hub     *Hub
	client  redis.UniversalClient
	channel string
	logger  core.Logger
}

var _ realtime.Pusher = (*RedisBridge)(nil)

// NewRedisBridge wraps hub with cross-instance fan-out over client
func NewRedisBridge(hub *Hub, client redis.UniversalClient, channel string, logger core.Logger) *RedisBridge {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBridge{
		hub:     hub,
		client:  client,
		channel: channel,
		logger:  logger.With(map[string]any{"component": "realtime_redis", "channel": channel}),
	}
}

// Push delivers locally when possible, otherwise publishes for the other instances
func (b *RedisBridge) Push(ctx context.Context, connectionID string, event realtime.Event) error {
	err := b.hub.Push(ctx, connectionID, event)
	if err == nil || !errors.Is(err, errs.ErrConnectionNotFound) {
		return err
	}

	payload, err := json.Marshal(envelope{ConnectionID: connectionID, Event: event})
	if err != nil {
		return fmt.Errorf("failed to encode live event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish live event: %w", err)
	}
	return nil
}

// Run relays published events into the local hub until ctx is done
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed so pushes are not lost at startup
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	b.logger.Info("Relaying live events", nil)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.relay(ctx, msg.Payload)
		}
	}
}

func (b *RedisBridge) relay(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("Dropping undecodable live event", map[string]any{"error": err.Error()})
		return
	}

	// Every instance sees every message; only the one holding the connection delivers
	if !b.hub.Has(env.ConnectionID) {
		return
	}
	if err := b.hub.Push(ctx, env.ConnectionID, env.Event); err != nil {
		b.logger.Warn("Failed to relay live event", map[string]any{
			"connection_id": env.ConnectionID,
			"error":         err.Error(),
		})
	}
}

// Ping checks the Redis connection
func (b *RedisBridge) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
