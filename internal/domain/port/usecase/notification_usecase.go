package usecase

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
)

// NotifyRequest describes one notification to raise
type NotifyRequest struct {
	Type         entity.NotificationType
	Description  string
	TargetUserID string
	EntityID     string
	FromUserID   string
}

// Notifier persists a notification and attempts live delivery
type Notifier interface {
	Notify(ctx context.Context, req NotifyRequest) (*entity.Notification, error)
}

// NotificationUseCase is the notification inbox as seen by the API layer
type NotificationUseCase interface {
	Notifier
	List(ctx context.Context, caller entity.Identity, unreadOnly bool, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, caller entity.Identity, notificationID string) error
}
