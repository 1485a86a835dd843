package persistence

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
)

// PaymentRepository stores payment ledgers
type PaymentRepository interface {
	// Create saves a new payment
	//
	// Possible errors:
	// - ErrPaymentExists: If the service request already has an active payment
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, payment *entity.Payment) error

	// Update persists the mutable ledger fields of a payment
	//
	// Possible errors:
	// - ErrPaymentNotFound: If the payment doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, payment *entity.Payment) error

	// GetByID reads a payment without locking it
	//
	// Possible errors:
	// - ErrPaymentNotFound: If the payment doesn't exist
	GetByID(ctx context.Context, id string) (*entity.Payment, error)

	// LockByID reads a payment holding an exclusive row lock until the surrounding
	// transaction ends. Must be called inside UnitOfWork.Do.
	//
	// Possible errors:
	// - ErrPaymentNotFound: If the payment doesn't exist
	LockByID(ctx context.Context, id string) (*entity.Payment, error)

	// LockByGatewayReference locks the payment a gateway session belongs to: the
	// payment whose current session it is, or the payment that recorded it as a
	// settlement attempt.
	//
	// Possible errors:
	// - ErrPaymentNotFound: If no payment knows this session
	LockByGatewayReference(ctx context.Context, gatewayPaymentID string) (*entity.Payment, error)

	// ListByClient returns a client's payments, newest first
	ListByClient(ctx context.Context, clientID string) ([]*entity.Payment, error)

	// ListOpenPartial returns a client's PARTIAL payments that are still PENDING
	ListOpenPartial(ctx context.Context, clientID string) ([]*entity.Payment, error)

	// HasActiveForRequest reports whether a PENDING or COMPLETED payment exists for the request
	HasActiveForRequest(ctx context.Context, requestServiceID string) (bool, error)

	// Iterate walks every payment in batches, oldest first
	Iterate(ctx context.Context, batchSize int, fn func(batch []*entity.Payment) error) error
}
