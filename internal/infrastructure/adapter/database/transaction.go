package database

import (
	"context"
	"sync"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/repository"
	"gorm.io/gorm"
)

type txKey struct{}

// txState is what a running transaction leaves in its context
type txState struct {
	tx     *gorm.DB
	parent context.Context

	mu    sync.Mutex
	hooks []func(ctx context.Context)
}

func (s *txState) addHook(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// UnitOfWork implements persistence.UnitOfWork on top of gorm transactions
type UnitOfWork struct {
	db          *gorm.DB
	logger      coreport.Logger
	retry       RetryConfig
	errorMapper *ErrorMapper
	hooks       *HookRunner
}

// NewUnitOfWork creates a new UnitOfWork instance. After-commit hooks run inline
// until WithHookRunner installs another runner.
func NewUnitOfWork(db *gorm.DB, logger coreport.Logger, retry RetryConfig) *UnitOfWork {
	return &UnitOfWork{
		db:          db,
		logger:      logger,
		retry:       retry,
		errorMapper: NewErrorMapper(),
		hooks:       NewInlineHookRunner(logger, DefaultHookTimeout),
	}
}

// WithHookRunner returns a copy of the unit of work whose after-commit hooks run on r
func (u *UnitOfWork) WithHookRunner(r *HookRunner) *UnitOfWork {
	clone := *u
	clone.hooks = r
	return &clone
}

var _ persistence.UnitOfWork = (*UnitOfWork)(nil)

// Do runs fn in a transaction, retrying the whole attempt on transient errors
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	var committed *txState
	err := RetryOnTransientError(ctx, u.retry, func() error {
		state := &txState{parent: ctx}
		err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			state.tx = tx
			return fn(context.WithValue(ctx, txKey{}, state))
		})
		if err != nil {
			return err
		}
		committed = state
		return nil
	}, u.logger)
	if err != nil {
		u.logger.Debug("Transaction rolled back", map[string]any{
			"error":      err.Error(),
			"request_id": coreport.RequestIDFromContext(ctx),
		})
		return u.errorMapper.MapError(err, "transaction")
	}

	for _, hook := range committed.hooks {
		u.hooks.Run(committed.parent, hook)
	}
	return nil
}

// AfterCommit registers fn to run once the surrounding transaction commits.
// Hooks get their own deadline and never hold up the caller past it.
func (u *UnitOfWork) AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	state, ok := ctx.Value(txKey{}).(*txState)
	if !ok {
		u.hooks.Run(ctx, fn)
		return
	}
	state.addHook(fn)
}

// GetPaymentRepository returns a payment repository bound to the current transaction
func (u *UnitOfWork) GetPaymentRepository(ctx context.Context) persistence.PaymentRepository {
	return repository.NewPaymentRepository(u.getDbFromContext(ctx), u.logger)
}

// GetTransactionRepository returns a ledger repository bound to the current transaction
func (u *UnitOfWork) GetTransactionRepository(ctx context.Context) persistence.TransactionRepository {
	return repository.NewTransactionRepository(u.getDbFromContext(ctx), u.logger)
}

// GetNotificationRepository returns a notification repository bound to the current transaction
func (u *UnitOfWork) GetNotificationRepository(ctx context.Context) persistence.NotificationRepository {
	return repository.NewNotificationRepository(u.getDbFromContext(ctx), u.logger)
}

// GetConnectionRepository returns a live connection repository bound to the current transaction
func (u *UnitOfWork) GetConnectionRepository(ctx context.Context) persistence.ConnectionRepository {
	return repository.NewConnectionRepository(u.getDbFromContext(ctx), u.logger)
}

// GetServiceRequestRepository returns a service request repository bound to the current transaction
func (u *UnitOfWork) GetServiceRequestRepository(ctx context.Context) persistence.ServiceRequestRepository {
	return repository.NewServiceRequestRepository(u.getDbFromContext(ctx), u.logger)
}

func (u *UnitOfWork) getDbFromContext(ctx context.Context) *gorm.DB {
	if state, ok := ctx.Value(txKey{}).(*txState); ok && state.tx != nil {
		return state.tx.WithContext(ctx)
	}
	return u.db.WithContext(ctx)
}
