// Package messaging holds testify mocks for the event publisher port.
package messaging

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	port "github.com/amirhossein-jamali/client-portal/internal/domain/port/messaging"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock implementation of messaging.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

var _ port.EventPublisher = (*MockEventPublisher)(nil)

// NewMockEventPublisher creates a mock whose expectations are asserted on cleanup
func NewMockEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEventPublisher {
	m := &MockEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockEventPublisher) PublishPaymentEvent(ctx context.Context, event entity.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
