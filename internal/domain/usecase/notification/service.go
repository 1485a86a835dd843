package notification

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Service is the notification inbox: the dispatcher plus the owner's read side
type Service struct {
	*Dispatcher

	uow    persistence.UnitOfWork
	logger coreport.Logger
}

var _ usecase.NotificationUseCase = (*Service)(nil)

// NewService creates a new notification service around dispatcher
func NewService(uow persistence.UnitOfWork, dispatcher *Dispatcher, logger coreport.Logger) *Service {
	return &Service{
		Dispatcher: dispatcher,
		uow:        uow,
		logger:     logger,
	}
}

// List returns the caller's notifications, newest first
func (s *Service) List(ctx context.Context, caller entity.Identity, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	if caller.ID == "" {
		return nil, errs.ErrUnauthorized
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.uow.GetNotificationRepository(ctx).ListByUser(ctx, caller.ID, unreadOnly, limit)
}

// MarkRead flips is_read on one of the caller's notifications
func (s *Service) MarkRead(ctx context.Context, caller entity.Identity, notificationID string) error {
	if caller.ID == "" {
		return errs.ErrUnauthorized
	}
	if err := s.uow.GetNotificationRepository(ctx).MarkRead(ctx, notificationID, caller.ID); err != nil {
		return err
	}

	s.logger.Debug("Notification marked read", map[string]any{
		"notification_id": notificationID,
		"user_id":         caller.ID,
	})
	return nil
}
