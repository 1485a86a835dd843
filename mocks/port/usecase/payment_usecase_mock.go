// Package usecase holds testify mocks for the use case ports consumed by the API.
package usecase

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	port "github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
	"github.com/stretchr/testify/mock"
)

// MockPaymentUseCase is a mock implementation of usecase.PaymentUseCase
type MockPaymentUseCase struct {
	mock.Mock
}

var _ port.PaymentUseCase = (*MockPaymentUseCase)(nil)

// NewMockPaymentUseCase creates a mock whose expectations are asserted on cleanup
func NewMockPaymentUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPaymentUseCase {
	m := &MockPaymentUseCase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPaymentUseCase) CreatePayment(ctx context.Context, caller entity.Identity, req port.CreatePaymentRequest) (*port.PaymentResult, error) {
	args := m.Called(ctx, caller, req)
	return paymentResult(args.Get(0)), args.Error(1)
}

func (m *MockPaymentUseCase) HandleWebhook(ctx context.Context, signature string, rawBody []byte) (*port.WebhookResult, error) {
	args := m.Called(ctx, signature, rawBody)
	var result *port.WebhookResult
	if v := args.Get(0); v != nil {
		result = v.(*port.WebhookResult)
	}
	return result, args.Error(1)
}

func (m *MockPaymentUseCase) AddTransaction(ctx context.Context, caller entity.Identity, req port.AddTransactionRequest) (*port.PaymentResult, error) {
	args := m.Called(ctx, caller, req)
	return paymentResult(args.Get(0)), args.Error(1)
}

func (m *MockPaymentUseCase) GetPayment(ctx context.Context, caller entity.Identity, paymentID, clientID string) (*port.PaymentDetails, error) {
	args := m.Called(ctx, caller, paymentID, clientID)
	var details *port.PaymentDetails
	if v := args.Get(0); v != nil {
		details = v.(*port.PaymentDetails)
	}
	return details, args.Error(1)
}

func (m *MockPaymentUseCase) ListClientPayments(ctx context.Context, caller entity.Identity, clientID string) ([]*entity.Payment, error) {
	args := m.Called(ctx, caller, clientID)
	return payments(args.Get(0)), args.Error(1)
}

func (m *MockPaymentUseCase) ListOpenPartialPayments(ctx context.Context, caller entity.Identity) ([]*entity.Payment, error) {
	args := m.Called(ctx, caller)
	return payments(args.Get(0)), args.Error(1)
}

func (m *MockPaymentUseCase) GetOpenPartialPayment(ctx context.Context, caller entity.Identity, paymentID string) (*entity.Payment, error) {
	args := m.Called(ctx, caller, paymentID)
	var p *entity.Payment
	if v := args.Get(0); v != nil {
		p = v.(*entity.Payment)
	}
	return p, args.Error(1)
}

func paymentResult(v any) *port.PaymentResult {
	if v == nil {
		return nil
	}
	return v.(*port.PaymentResult)
}

func payments(v any) []*entity.Payment {
	if v == nil {
		return nil
	}
	return v.([]*entity.Payment)
}
