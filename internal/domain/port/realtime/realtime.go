package realtime

import (
	"context"
	"time"
)

// Event is what gets pushed down a live connection
type Event struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	EntityID  string    `json:"entity_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LiveConnectionRegistry tracks at most one live connection per user
type LiveConnectionRegistry interface {
	// Connect registers connectionID for userID, replacing any previous connection
	Connect(ctx context.Context, userID, connectionID string) error
	// Disconnect forgets connectionID; unknown ids are ignored
	Disconnect(ctx context.Context, connectionID string) error
	// Lookup returns the user's connection id, or false when the user is offline
	Lookup(ctx context.Context, userID string) (string, bool, error)
}

// Pusher delivers an event to one live connection
type Pusher interface {
	Push(ctx context.Context, connectionID string, event Event) error
}
