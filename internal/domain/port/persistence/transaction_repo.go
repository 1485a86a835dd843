package persistence

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
)

// TransactionRepository stores the settlement rows of payment ledgers
type TransactionRepository interface {
	// Create saves a new ledger row
	//
	// Possible errors:
	// - ErrDuplicateTransaction: If a row with the same gateway transaction id already exists
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, transaction *entity.PaymentTransaction) error

	// Update persists a pending attempt once the gateway confirmed it
	//
	// Possible errors:
	// - ErrTransactionNotFound: If the row doesn't exist
	Update(ctx context.Context, transaction *entity.PaymentTransaction) error

	// GetByGatewayTransactionID retrieves a row by its idempotency key
	//
	// Possible errors:
	// - ErrTransactionNotFound: If no row carries this key
	GetByGatewayTransactionID(ctx context.Context, gatewayTransactionID string) (*entity.PaymentTransaction, error)

	// ListByPayment returns the ledger rows of a payment in transaction order
	ListByPayment(ctx context.Context, paymentID string) ([]*entity.PaymentTransaction, error)
}
