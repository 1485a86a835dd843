package payment

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
)

// GetPayment returns a payment with its ledger rows. Staff may name the client
// they are reading for; clients only ever see their own payments.
func (s *Service) GetPayment(
	ctx context.Context,
	caller entity.Identity,
	paymentID string,
	clientID string,
) (*usecase.PaymentDetails, error) {
	if caller.ID == "" {
		return nil, errs.ErrUnauthorized
	}

	if clientID != "" && !caller.CanAccessClient(clientID) {
		return nil, fmt.Errorf("%w: client %s", errs.ErrForbidden, clientID)
	}

	payment, err := s.uow.GetPaymentRepository(ctx).GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if clientID != "" && payment.ClientID != clientID {
		return nil, errs.ErrPaymentNotFound
	}
	if !caller.CanAccessClient(payment.ClientID) {
		return nil, errs.ErrPaymentNotFound
	}

	transactions, err := s.uow.GetTransactionRepository(ctx).ListByPayment(ctx, payment.ID)
	if err != nil {
		return nil, err
	}

	return &usecase.PaymentDetails{
		Payment:      payment,
		Transactions: transactions,
	}, nil
}

// ListClientPayments lists a client's payments, newest first
func (s *Service) ListClientPayments(ctx context.Context, caller entity.Identity, clientID string) ([]*entity.Payment, error) {
	if caller.ID == "" {
		return nil, errs.ErrUnauthorized
	}
	if !caller.CanAccessClient(clientID) {
		return nil, fmt.Errorf("%w: client %s", errs.ErrForbidden, clientID)
	}
	return s.uow.GetPaymentRepository(ctx).ListByClient(ctx, clientID)
}

// ListOpenPartialPayments lists the caller's partial payments that can still be topped up
func (s *Service) ListOpenPartialPayments(ctx context.Context, caller entity.Identity) ([]*entity.Payment, error) {
	if caller.ID == "" {
		return nil, errs.ErrUnauthorized
	}

	payments, err := s.uow.GetPaymentRepository(ctx).ListOpenPartial(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	open := payments[:0]
	for _, p := range payments {
		if p.EligibleForTopUp() {
			open = append(open, p)
		}
	}
	return open, nil
}

// GetOpenPartialPayment returns one of the caller's payments if it can still be topped up
func (s *Service) GetOpenPartialPayment(ctx context.Context, caller entity.Identity, paymentID string) (*entity.Payment, error) {
	if caller.ID == "" {
		return nil, errs.ErrUnauthorized
	}

	payment, err := s.uow.GetPaymentRepository(ctx).GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.ClientID != caller.ID || !payment.EligibleForTopUp() {
		return nil, fmt.Errorf("%w: no open partial payment %s", errs.ErrPaymentNotFound, paymentID)
	}
	return payment, nil
}
