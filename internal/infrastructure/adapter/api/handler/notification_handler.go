package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/realtime"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/middleware"
)

const (
	defaultHeartbeat  = 25 * time.Second
	disconnectTimeout = 5 * time.Second
)

// StreamHub serves the event streams of connections held by this process
type StreamHub interface {
	Attach(connectionID string) <-chan realtime.Event
	Detach(connectionID string)
}

// NotificationHandler serves the notification inbox and the live stream
type NotificationHandler struct {
	notifications usecase.NotificationUseCase
	registry      realtime.LiveConnectionRegistry
	hub           StreamHub
	heartbeat     time.Duration
	logger        coreport.Logger
}

// NewNotificationHandler creates a new notification handler instance
func NewNotificationHandler(
	notifications usecase.NotificationUseCase,
	registry realtime.LiveConnectionRegistry,
	hub StreamHub,
	heartbeat time.Duration,
	logger coreport.Logger,
) *NotificationHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &NotificationHandler{
		notifications: notifications,
		registry:      registry,
		hub:           hub,
		heartbeat:     heartbeat,
		logger:        logger,
	}
}

// List handles GET /notifications?unread=true&limit=N
func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	notifications, err := h.notifications.List(c.Request.Context(), middleware.IdentityFrom(c), unreadOnly, limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToNotificationResponses(notifications))
}

// MarkRead handles PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Stream handles GET /notifications/stream. The connection is registered for
// the caller while the stream is open and forgotten when it closes.
func (h *NotificationHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	caller := middleware.IdentityFrom(c)
	connectionID := uuid.NewString()

	events := h.hub.Attach(connectionID)
	if err := h.registry.Connect(ctx, caller.ID, connectionID); err != nil {
		h.hub.Detach(connectionID)
		writeError(c, h.logger, err)
		return
	}
	defer h.close(ctx, caller.ID, connectionID)

	// The server write timeout would otherwise cut long-lived streams
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("Write deadline not adjustable for stream", map[string]any{"error": err.Error()})
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("connected", gin.H{"connection_id": connectionID})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("notification", event)
			return true
		case now := <-ticker.C:
			c.SSEvent("heartbeat", now.UTC().Format(time.RFC3339))
			return true
		}
	})
}

func (h *NotificationHandler) close(ctx context.Context, userID, connectionID string) {
	h.hub.Detach(connectionID)

	// The request context is already canceled once the client has gone
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
	defer cancel()
	if err := h.registry.Disconnect(cleanupCtx, connectionID); err != nil {
		h.logger.Warn("Failed to unregister live connection", map[string]any{
			"user_id":       userID,
			"connection_id": connectionID,
			"error":         err.Error(),
		})
	}
}
