package payment

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
)

// AddTransaction opens one more checkout session on an open PARTIAL payment.
// The ledger only moves once the gateway confirms the session through a webhook.
func (s *Service) AddTransaction(
	ctx context.Context,
	caller entity.Identity,
	req usecase.AddTransactionRequest,
) (*usecase.PaymentResult, error) {
	if err := s.validator.ValidateTopUp(caller, req); err != nil {
		return nil, err
	}

	current, err := s.uow.GetPaymentRepository(ctx).GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if current.ClientID != caller.ID {
		return nil, fmt.Errorf("%w: payment %s", errs.ErrForbidden, current.ID)
	}

	// Early answer for the common rejections; rechecked under the lock below
	if err := current.CheckTopUp(req.Amount); err != nil {
		s.logger.Info("Top-up rejected", map[string]any{
			"payment_id": current.ID,
			"amount":     entity.FormatAmount(req.Amount),
			"error":      err.Error(),
		})
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = current.Method
	}

	checkout, err := s.gateway.CreateCheckout(ctx, gateway.CheckoutRequest{
		PaymentID:     current.ID,
		Amount:        req.Amount,
		ClientEmail:   caller.Email,
		ClientName:    caller.Name,
		Method:        method,
		InvoiceNumber: current.ID,
		BackURL:       s.config.BackURL,
		Description:   fmt.Sprintf("Additional payment on %s", current.ID),
	})
	if err != nil {
		s.logger.Error("Failed to open top-up checkout session", map[string]any{
			"payment_id": current.ID,
			"error":      err.Error(),
		})
		return nil, err
	}

	var updated *entity.Payment
	err = s.guard.WithLockedPayment(ctx, current.ID, func(ctx context.Context, payment *entity.Payment) error {
		if err := payment.CheckTopUp(req.Amount); err != nil {
			return err
		}

		now := s.timeProvider.Now()
		if err := payment.ReplaceCheckout(*checkout, now); err != nil {
			return err
		}

		attempt, err := entity.NewSettlementAttempt(s.newID(), payment.ID, checkout.GatewayPaymentID, req.Amount, now)
		if err != nil {
			return err
		}
		if err := s.uow.GetTransactionRepository(ctx).Create(ctx, attempt); err != nil {
			return err
		}
		if err := s.uow.GetPaymentRepository(ctx).Update(ctx, payment); err != nil {
			return err
		}

		if err := s.notify(ctx, entity.NotificationTopUpInitiated,
			topUpClientMessage(payment, req.Amount, s.config.Currency),
			payment.ID, "", payment.ClientID); err != nil {
			return err
		}
		if err := s.notify(ctx, entity.NotificationTopUpInitiated,
			topUpStaffMessage(payment, req.Amount, s.config.Currency),
			payment.ID, payment.ClientID, s.staffRecipients(ctx, payment.RequestServiceID)...); err != nil {
			return err
		}

		updated = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Top-up checkout opened", map[string]any{
		"payment_id":         updated.ID,
		"gateway_payment_id": checkout.GatewayPaymentID,
		"amount":             entity.FormatAmount(req.Amount),
		"remaining_balance":  entity.FormatAmount(updated.RemainingBalance),
	})

	return &usecase.PaymentResult{
		Payment:     updated,
		CheckoutURL: checkout.URL,
		Summary:     buildSummary(updated, req.Amount),
	}, nil
}
