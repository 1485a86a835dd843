package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
)

// HandleWebhook verifies and reconciles one gateway callback. Nothing is read or
// written before the signature checks out. Replays of an applied confirmation
// are no-ops.
func (s *Service) HandleWebhook(ctx context.Context, signature string, rawBody []byte) (*usecase.WebhookResult, error) {
	if strings.TrimSpace(signature) == "" {
		s.logger.Warn("Webhook rejected: missing signature", map[string]any{
			"body_size": len(rawBody),
		})
		return nil, errs.ErrMissingSignature
	}
	if !s.gateway.VerifyWebhookSignature(signature, rawBody) {
		s.logger.Warn("Webhook rejected: signature mismatch", map[string]any{
			"body_size": len(rawBody),
		})
		return nil, errs.ErrInvalidSignature
	}

	event, err := s.gateway.ParseWebhook(rawBody)
	if err != nil {
		s.logger.Warn("Webhook rejected: malformed payload", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	if s.config.WebhookTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.WebhookTimeout)
		defer cancel()
	}

	var result *usecase.WebhookResult
	err = s.sequencer.Run(ctx, event.GatewayPaymentID, func(ctx context.Context) error {
		r, err := s.reconcile(ctx, event, rawBody)
		if errors.Is(err, errs.ErrDuplicateTransaction) {
			// Another instance recorded this transaction id between our lookup and
			// insert. The rollback undid our side; a second pass sees its row.
			s.logger.Info("Concurrent confirmation detected, reconciling again", map[string]any{
				"gateway_payment_id":     event.GatewayPaymentID,
				"gateway_transaction_id": event.GatewayTransactionID,
			})
			r, err = s.reconcile(ctx, event, rawBody)
		}
		result = r
		return err
	})
	if err != nil {
		fields := map[string]any{
			"event_id":               event.EventID,
			"gateway_payment_id":     event.GatewayPaymentID,
			"gateway_transaction_id": event.GatewayTransactionID,
			"status":                 event.RawStatus,
			"error":                  err.Error(),
		}
		if errs.IsNotFoundError(err) {
			s.logger.Warn("Webhook for unknown payment", fields)
		} else {
			s.logger.Error("Webhook reconciliation failed", fields)
		}
		return nil, err
	}

	s.logger.Info("Webhook reconciled", map[string]any{
		"event_id":               event.EventID,
		"payment_id":             result.PaymentID,
		"gateway_transaction_id": event.GatewayTransactionID,
		"outcome":                result.Outcome,
	})
	return result, nil
}

func (s *Service) reconcile(ctx context.Context, event *gateway.WebhookEvent, rawBody []byte) (*usecase.WebhookResult, error) {
	result := &usecase.WebhookResult{}

	err := s.guard.WithLockedGatewayPayment(ctx, event.GatewayPaymentID, event.PaymentID,
		func(ctx context.Context, payment *entity.Payment) error {
			now := s.timeProvider.Now()
			result.PaymentID = payment.ID
			result.Outcome = usecase.WebhookRecorded

			payment.RecordWebhook(rawBody, event.RawStatus, now)

			var err error
			switch event.Status {
			case entity.PaymentStatusCompleted:
				result.Outcome, err = s.applyConfirmation(ctx, payment, event, rawBody, now)
			case entity.PaymentStatusFailed:
				result.Outcome, err = s.applyFailure(ctx, payment, event, now)
			}
			if err != nil {
				return err
			}

			if err := payment.CheckInvariants(); err != nil {
				return err
			}
			return s.uow.GetPaymentRepository(ctx).Update(ctx, payment)
		})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyConfirmation settles a COMPLETED event against the locked payment
func (s *Service) applyConfirmation(
	ctx context.Context,
	payment *entity.Payment,
	event *gateway.WebhookEvent,
	rawBody []byte,
	now time.Time,
) (usecase.WebhookOutcome, error) {
	txns := s.uow.GetTransactionRepository(ctx)

	existing, state, err := s.idempotency.CheckSettlement(ctx, txns, payment.ID, event.GatewayTransactionID)
	if err != nil {
		return "", err
	}

	switch state {
	case settlementApplied:
		s.logger.Info("Webhook replay ignored", map[string]any{
			"payment_id":             payment.ID,
			"gateway_transaction_id": event.GatewayTransactionID,
		})
		return usecase.WebhookReplayed, nil
	case settlementClosed:
		s.logger.Warn("Confirmation cannot be applied to this payment", map[string]any{
			"payment_id":             payment.ID,
			"owner_payment_id":       existing.PaymentID,
			"gateway_transaction_id": event.GatewayTransactionID,
			"gateway_status":         existing.GatewayStatus,
		})
		return usecase.WebhookReplayed, nil
	}

	if payment.Status == entity.PaymentStatusFailed {
		return usecase.WebhookRecorded, s.recordLateConfirmation(ctx, payment, existing, event, rawBody, now)
	}

	if existing != nil {
		requested := existing.Amount
		if err := existing.MarkApplied(event.Amount, rawBody, now); err != nil {
			return "", err
		}
		if err := txns.Update(ctx, existing); err != nil {
			return "", err
		}
		if !entity.WithinEpsilon(requested, event.Amount) {
			s.logger.Warn("Gateway confirmed a different amount than requested", map[string]any{
				"payment_id":             payment.ID,
				"gateway_transaction_id": event.GatewayTransactionID,
				"requested_amount":       entity.FormatAmount(requested),
				"confirmed_amount":       entity.FormatAmount(event.Amount),
			})
		}
	} else {
		txn, err := entity.NewAppliedTransaction(s.newID(), payment.ID, event.GatewayTransactionID, event.Amount, rawBody, now)
		if err != nil {
			return "", err
		}
		if err := txns.Create(ctx, txn); err != nil {
			return "", err
		}
	}

	if err := payment.ApplySettlement(event.Amount, now); err != nil {
		return "", err
	}
	if payment.RemainingBalance.IsNegative() {
		s.logger.Warn("Payment overpaid", map[string]any{
			"payment_id":        payment.ID,
			"total_amount":      entity.FormatAmount(payment.TotalAmount),
			"paid_amount":       entity.FormatAmount(payment.PaidAmount),
			"remaining_balance": entity.FormatAmount(payment.RemainingBalance),
		})
	}

	notificationType := entity.NotificationPartialPayment
	if payment.Status == entity.PaymentStatusCompleted {
		notificationType = entity.NotificationPaymentCompleted
	}
	if err := s.notify(ctx, notificationType,
		settledClientMessage(payment, event.Amount, s.config.Currency),
		payment.ID, "", payment.ClientID); err != nil {
		return "", err
	}
	if err := s.notify(ctx, notificationType,
		settledStaffMessage(payment, event.Amount, s.config.Currency),
		payment.ID, payment.ClientID, s.staffRecipients(ctx, payment.RequestServiceID)...); err != nil {
		return "", err
	}

	s.publishAfterCommit(ctx, entity.NewPaymentEvent(entity.EventPaymentSettled, payment,
		event.GatewayTransactionID, entity.FormatAmount(event.Amount), now))
	return usecase.WebhookApplied, nil
}

// recordLateConfirmation keeps money confirmed for a FAILED payment out of the
// ledger and asks staff to settle it by hand
func (s *Service) recordLateConfirmation(
	ctx context.Context,
	payment *entity.Payment,
	existing *entity.PaymentTransaction,
	event *gateway.WebhookEvent,
	rawBody []byte,
	now time.Time,
) error {
	txns := s.uow.GetTransactionRepository(ctx)

	if existing != nil {
		if err := existing.RecordLateConfirmation(event.Amount, rawBody, now); err != nil {
			return err
		}
		if err := txns.Update(ctx, existing); err != nil {
			return err
		}
	} else {
		txn, err := entity.NewSettlementAttempt(s.newID(), payment.ID, event.GatewayTransactionID, event.Amount, now)
		if err != nil {
			return err
		}
		if err := txn.RecordLateConfirmation(event.Amount, rawBody, now); err != nil {
			return err
		}
		if err := txns.Create(ctx, txn); err != nil {
			return err
		}
	}

	s.logger.Error("Gateway confirmed a failed payment", map[string]any{
		"payment_id":             payment.ID,
		"gateway_payment_id":     event.GatewayPaymentID,
		"gateway_transaction_id": event.GatewayTransactionID,
		"amount":                 entity.FormatAmount(event.Amount),
	})

	return s.notify(ctx, entity.NotificationReviewRequired,
		reviewStaffMessage(payment, event.Amount, s.config.Currency, event.GatewayPaymentID),
		payment.ID, payment.ClientID, s.staffRecipients(ctx, payment.RequestServiceID)...)
}

// applyFailure moves an untouched payment to FAILED when its current session fails.
// Failures of older sessions, or of a plan with money on it, leave the ledger alone.
func (s *Service) applyFailure(
	ctx context.Context,
	payment *entity.Payment,
	event *gateway.WebhookEvent,
	now time.Time,
) (usecase.WebhookOutcome, error) {
	if checkout, ok := payment.Checkout(); ok && checkout.GatewayPaymentID != event.GatewayPaymentID {
		s.logger.Info("Failure of a superseded checkout session recorded", map[string]any{
			"payment_id":         payment.ID,
			"gateway_payment_id": event.GatewayPaymentID,
			"current_session":    checkout.GatewayPaymentID,
		})
		return usecase.WebhookRecorded, nil
	}
	if !payment.MarkFailed(now) {
		s.logger.Info("Gateway failure recorded without status change", map[string]any{
			"payment_id":         payment.ID,
			"gateway_payment_id": event.GatewayPaymentID,
			"status":             payment.Status,
		})
		return usecase.WebhookRecorded, nil
	}

	if err := s.notify(ctx, entity.NotificationPaymentFailed,
		failedClientMessage(payment), payment.ID, "", payment.ClientID); err != nil {
		return "", err
	}
	if err := s.notify(ctx, entity.NotificationPaymentFailed,
		failedStaffMessage(payment), payment.ID, payment.ClientID,
		s.staffRecipients(ctx, payment.RequestServiceID)...); err != nil {
		return "", err
	}

	s.publishAfterCommit(ctx, entity.NewPaymentEvent(entity.EventPaymentFailed, payment, event.GatewayTransactionID, "", now))
	return usecase.WebhookFailed, nil
}
