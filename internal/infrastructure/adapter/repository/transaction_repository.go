package repository

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// TransactionRepository implements persistence.TransactionRepository using GORM
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *TransactionRepository) entityToModel(t *entity.PaymentTransaction) model.PaymentTransaction {
	return model.PaymentTransaction{
		ID:                   t.ID,
		PaymentID:            t.PaymentID,
		TransactionAmount:    t.Amount,
		TransactionDate:      t.TransactionDate,
		GatewayTransactionID: t.GatewayTransactionID,
		GatewayStatus:        t.GatewayStatus,
		Applied:              t.Applied,
		RawResponse:          toJSONColumn(t.RawResponse),
		CreatedAt:            t.CreatedAt,
	}
}

func (r *TransactionRepository) modelToEntity(m *model.PaymentTransaction) *entity.PaymentTransaction {
	return &entity.PaymentTransaction{
		ID:                   m.ID,
		PaymentID:            m.PaymentID,
		Amount:               m.TransactionAmount,
		TransactionDate:      m.TransactionDate,
		GatewayTransactionID: m.GatewayTransactionID,
		GatewayStatus:        m.GatewayStatus,
		Applied:              m.Applied,
		RawResponse:          fromJSONColumn(m.RawResponse),
		CreatedAt:            m.CreatedAt,
	}
}

// Create saves a new ledger row; the unique index on gateway_transaction_id backs the idempotency check
func (r *TransactionRepository) Create(ctx context.Context, transaction *entity.PaymentTransaction) error {
	m := r.entityToModel(transaction)

	if err := r.db.WithContext(ctx).Omit("Payment").Create(&m).Error; err != nil {
		if r.errorClassifier.IsDuplicateKeyError(err) {
			r.logger.Warn("Duplicate gateway transaction detected", map[string]any{
				"gateway_transaction_id": transaction.GatewayTransactionID,
				"payment_id":             transaction.PaymentID,
			})
			return errs.ErrDuplicateTransaction
		}
		r.logger.Error("Failed to create payment transaction", map[string]any{
			"gateway_transaction_id": transaction.GatewayTransactionID,
			"error":                  err.Error(),
		})
		return r.errorClassifier.wrap(err)
	}

	r.logger.Debug("Payment transaction created", map[string]any{
		"gateway_transaction_id": transaction.GatewayTransactionID,
		"payment_id":             transaction.PaymentID,
		"applied":                transaction.Applied,
	})
	return nil
}

// Update persists a confirmed attempt
func (r *TransactionRepository) Update(ctx context.Context, transaction *entity.PaymentTransaction) error {
	m := r.entityToModel(transaction)

	result := r.db.WithContext(ctx).Model(&model.PaymentTransaction{}).
		Where("id = ?", transaction.ID).
		Updates(map[string]any{
			"transaction_amount": m.TransactionAmount,
			"transaction_date":   m.TransactionDate,
			"gateway_status":     m.GatewayStatus,
			"applied":            m.Applied,
			"raw_response":       m.RawResponse,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update payment transaction", map[string]any{
			"transaction_id": transaction.ID,
			"error":          result.Error.Error(),
		})
		return r.errorClassifier.wrap(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrTransactionNotFound
	}
	return nil
}

// GetByGatewayTransactionID retrieves a row by its idempotency key
func (r *TransactionRepository) GetByGatewayTransactionID(ctx context.Context, gatewayTransactionID string) (*entity.PaymentTransaction, error) {
	var m model.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("gateway_transaction_id = ?", gatewayTransactionID).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		return nil, r.errorClassifier.wrap(err)
	}
	return r.modelToEntity(&m), nil
}

// ListByPayment returns the ledger rows of a payment in transaction order
func (r *TransactionRepository) ListByPayment(ctx context.Context, paymentID string) ([]*entity.PaymentTransaction, error) {
	var rows []model.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("transaction_date ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, r.errorClassifier.wrap(err)
	}

	transactions := make([]*entity.PaymentTransaction, 0, len(rows))
	for i := range rows {
		transactions = append(transactions, r.modelToEntity(&rows[i]))
	}
	return transactions, nil
}
