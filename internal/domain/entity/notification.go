package entity

import (
	"fmt"
	"time"

	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
)

// NotificationType classifies what a notification is about
type NotificationType string

const (
	NotificationPaymentCreated   NotificationType = "PAYMENT_CREATED"
	NotificationPaymentCompleted NotificationType = "PAYMENT_COMPLETED"
	NotificationPartialPayment   NotificationType = "PARTIAL_PAYMENT_RECEIVED"
	NotificationPaymentFailed    NotificationType = "PAYMENT_FAILED"
	NotificationTopUpInitiated   NotificationType = "TOP_UP_INITIATED"
	NotificationReviewRequired   NotificationType = "PAYMENT_REVIEW_REQUIRED"
)

// Notification is a durable message for one user. It exists whether or not the
// user was online when it was raised.
type Notification struct {
	ID           string
	Type         NotificationType
	Description  string
	TargetUserID string
	EntityID     string
	FromUserID   string
	IsRead       bool
	CreatedAt    time.Time
}

// NewNotification validates and builds an unread notification
func NewNotification(
	id string,
	notificationType NotificationType,
	description string,
	targetUserID string,
	entityID string,
	fromUserID string,
	now time.Time,
) (*Notification, error) {
	if id == "" || targetUserID == "" {
		return nil, fmt.Errorf("%w: notification id and target user are required", errs.ErrInvalidRequest)
	}
	if notificationType == "" || description == "" {
		return nil, fmt.Errorf("%w: notification type and description are required", errs.ErrInvalidRequest)
	}
	return &Notification{
		ID:           id,
		Type:         notificationType,
		Description:  description,
		TargetUserID: targetUserID,
		EntityID:     entityID,
		FromUserID:   fromUserID,
		CreatedAt:    now,
	}, nil
}

// ConnectedUser is the live connection currently registered for a user
type ConnectedUser struct {
	UserID       string
	ConnectionID string
	ConnectedAt  time.Time
}
