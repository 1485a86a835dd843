package messaging

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/messaging"
)

// LogPublisher writes ledger events to the log. Used when no brokers are configured.
type LogPublisher struct {
	logger core.Logger
}

var _ messaging.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger core.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With(map[string]any{"component": "log_publisher"})}
}

func (p *LogPublisher) PublishPaymentEvent(_ context.Context, event entity.PaymentEvent) error {
	p.logger.Info("Ledger event", map[string]any{
		"event_type":        event.Type,
		"payment_id":        event.PaymentID,
		"client_id":         event.ClientID,
		"amount":            event.Amount,
		"paid_amount":       event.PaidAmount,
		"remaining_balance": event.RemainingBalance,
		"status":            event.Status,
	})
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
