package persistence

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
)

// NotificationRepository stores notifications independently of their delivery
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error

	// ListByUser returns a user's notifications, newest first
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*entity.Notification, error)

	// MarkRead flips is_read on a notification owned by userID
	//
	// Possible errors:
	// - ErrNotificationNotFound: If no such notification belongs to the user
	MarkRead(ctx context.Context, id, userID string) error
}

// ConnectionRepository stores the live connection registered for each user
type ConnectionRepository interface {
	// Upsert replaces whatever row userID had with connectionID
	Upsert(ctx context.Context, connection *entity.ConnectedUser) error

	// DeleteByConnectionID removes the row holding connectionID and reports whether one existed
	DeleteByConnectionID(ctx context.Context, connectionID string) (bool, error)

	// GetByUserID returns the user's live connection
	//
	// Possible errors:
	// - ErrConnectionNotFound: If the user has no live connection
	GetByUserID(ctx context.Context, userID string) (*entity.ConnectedUser, error)
}
