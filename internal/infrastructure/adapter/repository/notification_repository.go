package repository

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository implements persistence.NotificationRepository using GORM
type NotificationRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewNotificationRepository creates a new NotificationRepository instance
func NewNotificationRepository(db *gorm.DB, logger coreport.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, logger: logger, errorClassifier: NewErrorClassifier()}
}

// Create saves a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	m := model.Notification{
		ID:           n.ID,
		Type:         string(n.Type),
		Description:  n.Description,
		TargetUserID: n.TargetUserID,
		EntityID:     n.EntityID,
		FromUserID:   n.FromUserID,
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		r.logger.Error("Failed to create notification", map[string]any{
			"target_user_id": n.TargetUserID,
			"error":          err.Error(),
		})
		return r.errorClassifier.wrap(err)
	}
	return nil
}

// ListByUser returns a user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	query := r.db.WithContext(ctx).Where("target_user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.Notification
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, r.errorClassifier.wrap(err)
	}

	notifications := make([]*entity.Notification, 0, len(rows))
	for _, m := range rows {
		notifications = append(notifications, &entity.Notification{
			ID:           m.ID,
			Type:         entity.NotificationType(m.Type),
			Description:  m.Description,
			TargetUserID: m.TargetUserID,
			EntityID:     m.EntityID,
			FromUserID:   m.FromUserID,
			IsRead:       m.IsRead,
			CreatedAt:    m.CreatedAt,
		})
	}
	return notifications, nil
}

// MarkRead flips is_read on a notification owned by userID
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	result := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND target_user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return r.errorClassifier.wrap(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotificationNotFound
	}
	return nil
}

// ConnectionRepository implements persistence.ConnectionRepository using GORM
type ConnectionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewConnectionRepository creates a new ConnectionRepository instance
func NewConnectionRepository(db *gorm.DB, logger coreport.Logger) *ConnectionRepository {
	return &ConnectionRepository{db: db, logger: logger, errorClassifier: NewErrorClassifier()}
}

// Upsert replaces whatever row the user had with the new connection in one statement
func (r *ConnectionRepository) Upsert(ctx context.Context, c *entity.ConnectedUser) error {
	m := model.ConnectedUser{
		UserID:       c.UserID,
		ConnectionID: c.ConnectionID,
		ConnectedAt:  c.ConnectedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"connection_id", "connected_at"}),
	}).Create(&m).Error
	if err != nil {
		return r.errorClassifier.wrap(err)
	}
	return nil
}

// DeleteByConnectionID removes the row holding connectionID
func (r *ConnectionRepository) DeleteByConnectionID(ctx context.Context, connectionID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Delete(&model.ConnectedUser{})
	if result.Error != nil {
		return false, r.errorClassifier.wrap(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetByUserID returns the user's live connection
func (r *ConnectionRepository) GetByUserID(ctx context.Context, userID string) (*entity.ConnectedUser, error) {
	var m model.ConnectedUser
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrConnectionNotFound
		}
		return nil, r.errorClassifier.wrap(err)
	}
	return &entity.ConnectedUser{
		UserID:       m.UserID,
		ConnectionID: m.ConnectionID,
		ConnectedAt:  m.ConnectedAt,
	}, nil
}
