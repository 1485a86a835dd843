package repository

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository implements persistence.PaymentRepository using GORM
type PaymentRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewPaymentRepository creates a new PaymentRepository instance
func NewPaymentRepository(db *gorm.DB, logger coreport.Logger) *PaymentRepository {
	return &PaymentRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *PaymentRepository) entityToModel(p *entity.Payment) model.Payment {
	m := model.Payment{
		ID:                 p.ID,
		RequestServiceID:   p.RequestServiceID,
		ClientID:           p.ClientID,
		ServiceID:          p.ServiceID,
		TotalAmount:        p.TotalAmount,
		PaidAmount:         p.PaidAmount,
		RemainingBalance:   p.RemainingBalance,
		PaymentMethod:      string(p.Method),
		PaymentType:        string(p.Type),
		PaymentStatus:      string(p.Status),
		GatewayStatus:      p.GatewayStatus,
		LastWebhookPayload: toJSONColumn(p.LastWebhookPayload),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if checkout, ok := p.Checkout(); ok {
		m.GatewayPaymentID = &checkout.GatewayPaymentID
		m.GatewayCheckoutURL = &checkout.URL
	}
	return m
}

func (r *PaymentRepository) modelToEntity(m *model.Payment) (*entity.Payment, error) {
	p := &entity.Payment{
		ID:                 m.ID,
		RequestServiceID:   m.RequestServiceID,
		ClientID:           m.ClientID,
		ServiceID:          m.ServiceID,
		TotalAmount:        m.TotalAmount,
		PaidAmount:         m.PaidAmount,
		RemainingBalance:   m.RemainingBalance,
		Method:             entity.PaymentMethod(m.PaymentMethod),
		Type:               entity.PaymentType(m.PaymentType),
		Status:             entity.PaymentStatus(m.PaymentStatus),
		GatewayStatus:      m.GatewayStatus,
		LastWebhookPayload: fromJSONColumn(m.LastWebhookPayload),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.GatewayPaymentID != nil && *m.GatewayPaymentID != "" {
		checkout := entity.Checkout{GatewayPaymentID: *m.GatewayPaymentID}
		if m.GatewayCheckoutURL != nil {
			checkout.URL = *m.GatewayCheckoutURL
		}
		if err := p.ReplaceCheckout(checkout, m.UpdatedAt); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Create saves a new payment
func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	m := r.entityToModel(payment)

	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if r.errorClassifier.IsDuplicateKeyError(err) {
			r.logger.Warn("Active payment already exists for service request", map[string]any{
				"request_service_id": payment.RequestServiceID,
			})
			return errs.ErrPaymentExists
		}
		r.logger.Error("Failed to create payment", map[string]any{
			"payment_id": payment.ID,
			"error":      err.Error(),
		})
		return r.errorClassifier.wrap(err)
	}

	r.logger.Debug("Payment created", map[string]any{
		"payment_id":         payment.ID,
		"request_service_id": payment.RequestServiceID,
	})
	return nil
}

// Update persists the mutable ledger fields of a payment
func (r *PaymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	m := r.entityToModel(payment)

	result := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", payment.ID).
		Updates(map[string]any{
			"paid_amount":          m.PaidAmount,
			"remaining_balance":    m.RemainingBalance,
			"payment_status":       m.PaymentStatus,
			"gateway_payment_id":   m.GatewayPaymentID,
			"gateway_checkout_url": m.GatewayCheckoutURL,
			"gateway_status":       m.GatewayStatus,
			"last_webhook_payload": m.LastWebhookPayload,
			"updated_at":           m.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update payment", map[string]any{
			"payment_id": payment.ID,
			"error":      result.Error.Error(),
		})
		return r.errorClassifier.wrap(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrPaymentNotFound
	}
	return nil
}

// GetByID reads a payment without locking it
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	return r.take(r.db.WithContext(ctx).Where("id = ?", id))
}

// LockByID reads a payment with SELECT ... FOR UPDATE
func (r *PaymentRepository) LockByID(ctx context.Context, id string) (*entity.Payment, error) {
	return r.take(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

// LockByGatewayReference locks the payment owning a gateway session
func (r *PaymentRepository) LockByGatewayReference(ctx context.Context, gatewayPaymentID string) (*entity.Payment, error) {
	payment, err := r.take(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("gateway_payment_id = ?", gatewayPaymentID))
	if err == nil || !errors.Is(err, errs.ErrPaymentNotFound) {
		return payment, err
	}

	// The payment may have moved on to a newer session; older sessions stay
	// reachable through the settlement attempt recorded for them.
	var attempt model.PaymentTransaction
	result := r.db.WithContext(ctx).
		Select("payment_id").
		Where("gateway_transaction_id = ?", gatewayPaymentID).
		Take(&attempt)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrPaymentNotFound
		}
		return nil, r.errorClassifier.wrap(result.Error)
	}

	r.logger.Debug("Resolved payment through an earlier checkout session", map[string]any{
		"gateway_payment_id": gatewayPaymentID,
		"payment_id":         attempt.PaymentID,
	})
	return r.LockByID(ctx, attempt.PaymentID)
}

// ListByClient returns a client's payments, newest first
func (r *PaymentRepository) ListByClient(ctx context.Context, clientID string) ([]*entity.Payment, error) {
	return r.find(r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC"))
}

// ListOpenPartial returns a client's PARTIAL payments that are still PENDING
func (r *PaymentRepository) ListOpenPartial(ctx context.Context, clientID string) ([]*entity.Payment, error) {
	return r.find(r.db.WithContext(ctx).
		Where("client_id = ? AND payment_type = ? AND payment_status = ?",
			clientID, string(entity.PaymentTypePartial), string(entity.PaymentStatusPending)).
		Order("created_at DESC"))
}

// HasActiveForRequest reports whether a PENDING or COMPLETED payment exists for the request
func (r *PaymentRepository) HasActiveForRequest(ctx context.Context, requestServiceID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("request_service_id = ? AND payment_status <> ?", requestServiceID, string(entity.PaymentStatusFailed)).
		Count(&count).Error
	if err != nil {
		return false, r.errorClassifier.wrap(err)
	}
	return count > 0, nil
}

// Iterate walks every payment in primary key order
func (r *PaymentRepository) Iterate(ctx context.Context, batchSize int, fn func(batch []*entity.Payment) error) error {
	var rows []model.Payment
	var fnErr error
	result := r.db.WithContext(ctx).FindInBatches(&rows, batchSize, func(tx *gorm.DB, _ int) error {
		batch := make([]*entity.Payment, 0, len(rows))
		for i := range rows {
			p, err := r.modelToEntity(&rows[i])
			if err != nil {
				fnErr = err
				return err
			}
			batch = append(batch, p)
		}
		fnErr = fn(batch)
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if result.Error != nil {
		return r.errorClassifier.wrap(result.Error)
	}
	return nil
}

func (r *PaymentRepository) take(query *gorm.DB) (*entity.Payment, error) {
	var m model.Payment
	if err := query.Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrPaymentNotFound
		}
		return nil, r.errorClassifier.wrap(err)
	}
	return r.modelToEntity(&m)
}

func (r *PaymentRepository) find(query *gorm.DB) ([]*entity.Payment, error) {
	var rows []model.Payment
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.errorClassifier.wrap(err)
	}

	payments := make([]*entity.Payment, 0, len(rows))
	for i := range rows {
		p, err := r.modelToEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}
