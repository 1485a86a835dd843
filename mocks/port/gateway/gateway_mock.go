// Package gateway holds testify mocks for the payment gateway port.
package gateway

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	port "github.com/amirhossein-jamali/client-portal/internal/domain/port/gateway"
	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock implementation of gateway.Gateway
type MockGateway struct {
	mock.Mock
}

var _ port.Gateway = (*MockGateway)(nil)

// NewMockGateway creates a mock whose expectations are asserted on cleanup
func NewMockGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGateway {
	m := &MockGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockGateway) CreateCheckout(ctx context.Context, req port.CheckoutRequest) (*entity.Checkout, error) {
	args := m.Called(ctx, req)
	var checkout *entity.Checkout
	if v := args.Get(0); v != nil {
		checkout = v.(*entity.Checkout)
	}
	return checkout, args.Error(1)
}

func (m *MockGateway) VerifyWebhookSignature(signature string, rawBody []byte) bool {
	args := m.Called(signature, rawBody)
	return args.Bool(0)
}

func (m *MockGateway) ParseWebhook(rawBody []byte) (*port.WebhookEvent, error) {
	args := m.Called(rawBody)
	var event *port.WebhookEvent
	if v := args.Get(0); v != nil {
		event = v.(*port.WebhookEvent)
	}
	return event, args.Error(1)
}
