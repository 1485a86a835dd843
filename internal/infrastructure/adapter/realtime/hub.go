package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/realtime"
)

// DefaultBufferSize is the per-connection event buffer
const DefaultBufferSize = 32

// ErrBufferFull is returned when a slow stream cannot take another event
var ErrBufferFull = errors.New("live connection buffer is full")

// Hub holds the event streams of the connections served by this process
type Hub struct {
	mu          sync.RWMutex
	connections map[string]chan realtime.Event
	bufferSize  int
	logger      core.Logger
}

var _ realtime.Pusher = (*Hub)(nil)

// NewHub creates an empty hub
func NewHub(bufferSize int, logger core.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		connections: make(map[string]chan realtime.Event),
		bufferSize:  bufferSize,
		logger:      logger.With(map[string]any{"component": "realtime_hub"}),
	}
}

// Attach opens the event stream for connectionID. Attaching an id twice
// closes the older stream.
func (h *Hub) Attach(connectionID string) <-chan realtime.Event {
	ch := make(chan realtime.Event, h.bufferSize)

	h.mu.Lock()
	if old, ok := h.connections[connectionID]; ok {
		close(old)
	}
	h.connections[connectionID] = ch
	h.mu.Unlock()

	h.logger.Debug("Live connection attached", map[string]any{"connection_id": connectionID})
	return ch
}

// Detach closes the stream of connectionID, if it is served here
func (h *Hub) Detach(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.connections[connectionID]
	if !ok {
		return
	}
	delete(h.connections, connectionID)
	close(ch)

	h.logger.Debug("Live connection detached", map[string]any{"connection_id": connectionID})
}

// Has reports whether connectionID is served by this process
func (h *Hub) Has(connectionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[connectionID]
	return ok
}

// Push hands event to the connection's stream without blocking
func (h *Hub) Push(_ context.Context, connectionID string, event realtime.Event) error {
	// The read lock is held across the send so Detach cannot close the channel under us
	h.mu.RLock()
	defer h.mu.RUnlock()

	ch, ok := h.connections[connectionID]
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrConnectionNotFound, connectionID)
	}

	select {
	case ch <- event:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrBufferFull, connectionID)
	}
}

// Close ends every stream
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.connections {
		close(ch)
		delete(h.connections, id)
	}
}
