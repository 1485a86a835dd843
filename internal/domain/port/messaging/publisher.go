package messaging

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
)

// EventPublisher announces ledger changes to other systems
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event entity.PaymentEvent) error
	Close() error
}
