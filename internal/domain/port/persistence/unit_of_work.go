package persistence

import (
	"context"
)

// UnitOfWork runs a group of repository calls inside one database transaction.
// Repositories obtained with a context returned by Do take part in that transaction.
type UnitOfWork interface {
	// Do runs fn inside a transaction, committing when fn returns nil and rolling
	// back otherwise. Transient failures (deadlocks, serialization failures) are
	// retried, so fn must not have side effects outside the database; register
	// those with AfterCommit. Nested calls join the outer transaction.
	Do(ctx context.Context, fn func(ctx context.Context) error) error

	// AfterCommit registers fn to run once the current transaction has committed.
	// Outside a transaction fn is scheduled at once. fn receives a context that
	// keeps the caller's values but not its cancellation, and carries its own
	// short deadline; it may run on another goroutine.
	AfterCommit(ctx context.Context, fn func(ctx context.Context))

	GetPaymentRepository(ctx context.Context) PaymentRepository
	GetTransactionRepository(ctx context.Context) TransactionRepository
	GetNotificationRepository(ctx context.Context) NotificationRepository
	GetConnectionRepository(ctx context.Context) ConnectionRepository
	GetServiceRequestRepository(ctx context.Context) ServiceRequestRepository
}
