package notification

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/realtime"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
	"github.com/google/uuid"
)

// Dispatcher persists notifications and pushes them to users who are online.
// The row is written in the caller's transaction; the push happens after commit
// and its failures are only logged.
type Dispatcher struct {
	uow          persistence.UnitOfWork
	registry     realtime.LiveConnectionRegistry
	pusher       realtime.Pusher
	timeProvider coreport.TimeProvider
	logger       coreport.Logger

	newID func() string
}

var _ usecase.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(
	uow persistence.UnitOfWork,
	registry realtime.LiveConnectionRegistry,
	pusher realtime.Pusher,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Dispatcher {
	return &Dispatcher{
		uow:          uow,
		registry:     registry,
		pusher:       pusher,
		timeProvider: timeProvider,
		logger:       logger.With(map[string]any{"component": "notification"}),
		newID:        uuid.NewString,
	}
}

// Notify stores the notification and schedules its live delivery
func (d *Dispatcher) Notify(ctx context.Context, req usecase.NotifyRequest) (*entity.Notification, error) {
	notification, err := entity.NewNotification(
		d.newID(), req.Type, req.Description, req.TargetUserID, req.EntityID, req.FromUserID, d.timeProvider.Now(),
	)
	if err != nil {
		return nil, err
	}

	err = d.uow.Do(ctx, func(ctx context.Context) error {
		if err := d.uow.GetNotificationRepository(ctx).Create(ctx, notification); err != nil {
			return err
		}
		d.uow.AfterCommit(ctx, func(ctx context.Context) {
			d.deliver(ctx, notification)
		})
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to persist notification", map[string]any{
			"type":           notification.Type,
			"target_user_id": notification.TargetUserID,
			"entity_id":      notification.EntityID,
			"error":          err.Error(),
		})
		return nil, err
	}
	return notification, nil
}

func (d *Dispatcher) deliver(ctx context.Context, n *entity.Notification) {
	connectionID, online, err := d.registry.Lookup(ctx, n.TargetUserID)
	if err != nil {
		d.logger.Warn("Live connection lookup failed", map[string]any{
			"notification_id": n.ID,
			"target_user_id":  n.TargetUserID,
			"error":           err.Error(),
		})
		return
	}
	if !online {
		d.logger.Debug("User offline, notification kept for later", map[string]any{
			"notification_id": n.ID,
			"target_user_id":  n.TargetUserID,
		})
		return
	}

	event := realtime.Event{
		Type:      string(n.Type),
		ID:        n.ID,
		Message:   n.Description,
		EntityID:  n.EntityID,
		CreatedAt: n.CreatedAt,
	}
	if err := d.pusher.Push(ctx, connectionID, event); err != nil {
		d.logger.Warn("Live notification delivery failed", map[string]any{
			"notification_id": n.ID,
			"target_user_id":  n.TargetUserID,
			"connection_id":   connectionID,
			"error":           err.Error(),
		})
	}
}
