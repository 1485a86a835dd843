package payment

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/persistence"
)

// LockedPaymentFunc runs while the payment row is held exclusively. ctx is bound
// to the transaction holding the lock.
type LockedPaymentFunc func(ctx context.Context, payment *entity.Payment) error

// Guard is the single critical section every ledger mutation goes through:
// open a transaction, lock the payment row, read it, run fn, commit.
type Guard struct {
	uow    persistence.UnitOfWork
	logger coreport.Logger
}

// NewGuard creates a new Guard
func NewGuard(uow persistence.UnitOfWork, logger coreport.Logger) *Guard {
	return &Guard{uow: uow, logger: logger}
}

// WithLockedPayment locks the payment with the given id and runs fn
func (g *Guard) WithLockedPayment(ctx context.Context, paymentID string, fn LockedPaymentFunc) error {
	return g.uow.Do(ctx, func(ctx context.Context) error {
		payment, err := g.uow.GetPaymentRepository(ctx).LockByID(ctx, paymentID)
		if err != nil {
			return err
		}
		return fn(ctx, payment)
	})
}

// WithLockedGatewayPayment locks the payment a gateway session belongs to. When the
// session is unknown, fallbackPaymentID (our id echoed by the gateway) is tried.
func (g *Guard) WithLockedGatewayPayment(ctx context.Context, gatewayPaymentID, fallbackPaymentID string, fn LockedPaymentFunc) error {
	return g.uow.Do(ctx, func(ctx context.Context) error {
		repo := g.uow.GetPaymentRepository(ctx)

		payment, err := repo.LockByGatewayReference(ctx, gatewayPaymentID)
		if errors.Is(err, errs.ErrPaymentNotFound) && fallbackPaymentID != "" {
			g.logger.Debug("Gateway session unknown, resolving payment from metadata", map[string]any{
				"gateway_payment_id": gatewayPaymentID,
				"payment_id":         fallbackPaymentID,
			})
			payment, err = repo.LockByID(ctx, fallbackPaymentID)
		}
		if err != nil {
			return err
		}
		return fn(ctx, payment)
	})
}
