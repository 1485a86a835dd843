package dto

import (
	"time"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
)

// NotificationResponse is the API view of a notification
type NotificationResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	EntityID    string    `json:"entity_id,omitempty"`
	FromUserID  string    `json:"from_user_id,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToNotificationResponses maps notifications onto their API view
func ToNotificationResponses(notifications []*entity.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, NotificationResponse{
			ID:          n.ID,
			Type:        string(n.Type),
			Description: n.Description,
			EntityID:    n.EntityID,
			FromUserID:  n.FromUserID,
			IsRead:      n.IsRead,
			CreatedAt:   n.CreatedAt,
		})
	}
	return out
}
