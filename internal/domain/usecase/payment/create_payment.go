package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
)

// CreatePayment opens a payment plan for one of the caller's service requests.
// The service price is the total; the declared amount is only checked against it.
func (s *Service) CreatePayment(
	ctx context.Context,
	caller entity.Identity,
	req usecase.CreatePaymentRequest,
) (*usecase.PaymentResult, error) {
	if err := s.validator.ValidateCreate(caller, req); err != nil {
		s.logger.Info("Payment request rejected", map[string]any{
			"client_id": caller.ID,
			"error":     err.Error(),
		})
		return nil, err
	}

	request, err := s.uow.GetServiceRequestRepository(ctx).GetByID(ctx, req.RequestServiceID)
	if err != nil {
		return nil, err
	}
	if request.ClientID != caller.ID {
		return nil, fmt.Errorf("%w: service request %s", errs.ErrForbidden, request.ID)
	}

	if err := s.validator.CheckAmount(request.Price, req.Amount, req.Type); err != nil {
		fields := map[string]any{
			"client_id":          caller.ID,
			"request_service_id": request.ID,
			"error":              err.Error(),
		}
		var ruleErr *errs.AmountRuleError
		if errors.As(err, &ruleErr) {
			for k, v := range ruleErr.LogFields() {
				fields[k] = v
			}
		}
		s.logger.Info("Payment amount rejected", fields)
		return nil, err
	}

	active, err := s.uow.GetPaymentRepository(ctx).HasActiveForRequest(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("%w: %s", errs.ErrPaymentExists, request.ID)
	}

	paymentID := s.newID()

	// A FULL plan is charged the authoritative price; the declared amount only
	// had to agree with it within a cent
	charge := req.Amount
	if req.Type == entity.PaymentTypeFull {
		charge = request.Price
	}

	// The checkout is opened before the transaction so no row lock or connection
	// is held across the gateway call. An orphaned session simply expires.
	var checkout *entity.Checkout
	if req.Method.UsesGateway() {
		checkout, err = s.gateway.CreateCheckout(ctx, gateway.CheckoutRequest{
			PaymentID:     paymentID,
			Amount:        charge,
			ClientEmail:   caller.Email,
			ClientName:    caller.Name,
			Method:        req.Method,
			InvoiceNumber: paymentID,
			BackURL:       s.config.BackURL,
			Description:   request.ServiceName,
		})
		if err != nil {
			s.logger.Error("Failed to open checkout session", map[string]any{
				"payment_id":         paymentID,
				"request_service_id": request.ID,
				"error":              err.Error(),
			})
			return nil, err
		}
	}

	now := s.timeProvider.Now()
	var payment *entity.Payment

	err = s.uow.Do(ctx, func(ctx context.Context) error {
		// Rebuilt per attempt so a retry starts from a fresh entity
		p, err := entity.NewPayment(
			paymentID, request.ID, request.ClientID, request.ServiceID,
			request.Price, req.Method, req.Type, checkout, now,
		)
		if err != nil {
			return err
		}
		payment = p

		if err := payment.CheckInvariants(); err != nil {
			return err
		}
		if err := s.uow.GetPaymentRepository(ctx).Create(ctx, payment); err != nil {
			return err
		}

		// FREE_CONSULTATION has no session to confirm. It stays PENDING with
		// nothing paid, and no ledger row exists without a confirmation.
		if checkout != nil {
			first, err := entity.NewSettlementAttempt(s.newID(), payment.ID, checkout.GatewayPaymentID, charge, now)
			if err != nil {
				return err
			}
			if err := s.uow.GetTransactionRepository(ctx).Create(ctx, first); err != nil {
				return err
			}
		}

		if err := s.notify(ctx, entity.NotificationPaymentCreated,
			createdClientMessage(payment, request.ServiceName, charge, s.config.Currency),
			payment.ID, "", payment.ClientID); err != nil {
			return err
		}
		if err := s.notify(ctx, entity.NotificationPaymentCreated,
			createdStaffMessage(payment, caller.Name, request.ServiceName, charge, s.config.Currency),
			payment.ID, payment.ClientID, s.staffRecipients(ctx, request.ID)...); err != nil {
			return err
		}

		s.publishAfterCommit(ctx, entity.NewPaymentEvent(entity.EventPaymentCreated, payment, "", entity.FormatAmount(charge), now))
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create payment", map[string]any{
			"payment_id":         paymentID,
			"request_service_id": request.ID,
			"error":              err.Error(),
		})
		return nil, err
	}

	s.logger.Info("Payment created", map[string]any{
		"payment_id":         payment.ID,
		"request_service_id": payment.RequestServiceID,
		"client_id":          payment.ClientID,
		"method":             payment.Method,
		"type":               payment.Type,
		"total_amount":       entity.FormatAmount(payment.TotalAmount),
	})

	result := &usecase.PaymentResult{
		Payment: payment,
		Summary: buildSummary(payment, charge),
	}
	if checkout != nil {
		result.CheckoutURL = checkout.URL
	}
	return result, nil
}
