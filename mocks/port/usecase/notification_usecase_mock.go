package usecase

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	port "github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
	"github.com/stretchr/testify/mock"
)

// MockNotificationUseCase is a mock implementation of usecase.NotificationUseCase
type MockNotificationUseCase struct {
	mock.Mock
}

var _ port.NotificationUseCase = (*MockNotificationUseCase)(nil)

// NewMockNotificationUseCase creates a mock whose expectations are asserted on cleanup
func NewMockNotificationUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNotificationUseCase {
	m := &MockNotificationUseCase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNotificationUseCase) Notify(ctx context.Context, req port.NotifyRequest) (*entity.Notification, error) {
	args := m.Called(ctx, req)
	var n *entity.Notification
	if v := args.Get(0); v != nil {
		n = v.(*entity.Notification)
	}
	return n, args.Error(1)
}

func (m *MockNotificationUseCase) List(ctx context.Context, caller entity.Identity, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	args := m.Called(ctx, caller, unreadOnly, limit)
	var list []*entity.Notification
	if v := args.Get(0); v != nil {
		list = v.([]*entity.Notification)
	}
	return list, args.Error(1)
}

func (m *MockNotificationUseCase) MarkRead(ctx context.Context, caller entity.Identity, notificationID string) error {
	args := m.Called(ctx, caller, notificationID)
	return args.Error(0)
}
