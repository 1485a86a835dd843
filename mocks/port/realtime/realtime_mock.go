// Package realtime holds testify mocks for the live delivery ports.
package realtime

import (
	"context"

	port "github.com/amirhossein-jamali/client-portal/internal/domain/port/realtime"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockPusher is a mock implementation of realtime.Pusher
type MockPusher struct {
	mock.Mock
}

var _ port.Pusher = (*MockPusher)(nil)

// NewMockPusher creates a mock whose expectations are asserted on cleanup
func NewMockPusher(t testingT) *MockPusher {
	m := &MockPusher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPusher) Push(ctx context.Context, connectionID string, event port.Event) error {
	args := m.Called(ctx, connectionID, event)
	return args.Error(0)
}

// MockLiveConnectionRegistry is a mock implementation of realtime.LiveConnectionRegistry
type MockLiveConnectionRegistry struct {
	mock.Mock
}

var _ port.LiveConnectionRegistry = (*MockLiveConnectionRegistry)(nil)

// NewMockLiveConnectionRegistry creates a mock whose expectations are asserted on cleanup
func NewMockLiveConnectionRegistry(t testingT) *MockLiveConnectionRegistry {
	m := &MockLiveConnectionRegistry{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockLiveConnectionRegistry) Connect(ctx context.Context, userID, connectionID string) error {
	args := m.Called(ctx, userID, connectionID)
	return args.Error(0)
}

func (m *MockLiveConnectionRegistry) Disconnect(ctx context.Context, connectionID string) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

func (m *MockLiveConnectionRegistry) Lookup(ctx context.Context, userID string) (string, bool, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Bool(1), args.Error(2)
}
