package model

import "time"

// Notification represents a persisted user notification
type Notification struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	Type         string    `gorm:"type:varchar(64);not null"`
	Description  string    `gorm:"type:text;not null"`
	TargetUserID string    `gorm:"type:varchar(36);not null;index:idx_notifications_target_created,priority:1"`
	EntityID     string    `gorm:"type:varchar(36)"`
	FromUserID   string    `gorm:"type:varchar(36)"`
	IsRead       bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;index:idx_notifications_target_created,priority:2"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// ConnectedUser is the live connection row of a user; the primary key keeps it to one per user
type ConnectedUser struct {
	UserID       string    `gorm:"primaryKey;type:varchar(36)"`
	ConnectionID string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	ConnectedAt  time.Time `gorm:"not null"`
}

// TableName specifies the table name for ConnectedUser
func (ConnectedUser) TableName() string {
	return "connected_users"
}
