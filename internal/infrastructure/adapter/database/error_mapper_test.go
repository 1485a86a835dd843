package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
)

func TestErrorMapper_MapError(t *testing.T) {
	mapper := NewErrorMapper()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"domain error untouched", errs.ErrPaymentExists, errs.ErrPaymentExists},
		{"record not found", gorm.ErrRecordNotFound, errs.ErrNotFound},
		{"gateway transaction index", errors.New(`duplicate key value violates unique constraint "idx_payment_transactions_gateway_txn"`), errs.ErrDuplicateTransaction},
		{"active request index", errors.New("UNIQUE constraint failed: index 'idx_payments_active_request'"), errs.ErrPaymentExists},
		{"pg unique on gateway txn", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_payment_transactions_gateway_txn"}), errs.ErrDuplicateTransaction},
		{"pg unique on active request", &pgconn.PgError{Code: "23505", ConstraintName: "idx_payments_active_request"}, errs.ErrPaymentExists},
		{"pg unique elsewhere", &pgconn.PgError{Code: "23505", ConstraintName: "notifications_pkey"}, errs.ErrConstraintViolation},
		{"pg check", &pgconn.PgError{Code: "23514", ConstraintName: "chk_payments_paid_amount"}, errs.ErrConstraintViolation},
		{"foreign key", errors.New("violates foreign key constraint"), errs.ErrConstraintViolation},
		{"anything else", errors.New("bad connection"), errs.ErrDatabaseConnection},
		{"context canceled", context.Canceled, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapper.MapError(tt.err, "test")
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestErrorMapper_MapEntityNotFoundError(t *testing.T) {
	mapper := NewErrorMapper()

	assert.ErrorIs(t, mapper.MapEntityNotFoundError(gorm.ErrRecordNotFound, EntityTypePayment), errs.ErrPaymentNotFound)
	assert.ErrorIs(t, mapper.MapEntityNotFoundError(gorm.ErrRecordNotFound, EntityTypeServiceRequest), errs.ErrRequestNotFound)
	assert.ErrorIs(t, mapper.MapEntityNotFoundError(fmt.Errorf("wrapped: %w", gorm.ErrRecordNotFound), EntityTypeNotification), errs.ErrNotificationNotFound)
}

func TestIsTransientError(t *testing.T) {
	assert.True(t, isTransientError(errors.New("ERROR: deadlock detected (SQLSTATE 40P01)")))
	assert.True(t, isTransientError(errors.New("ERROR: could not serialize access due to concurrent update")))
	assert.True(t, isTransientError(errors.New("database is locked")))
	assert.False(t, isTransientError(errs.ErrPaymentExists))
	assert.False(t, isTransientError(nil))

	assert.True(t, isTransientError(fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40001"})))
	assert.True(t, isTransientError(&pgconn.PgError{Code: "55P03"}))
	assert.False(t, isTransientError(&pgconn.PgError{Code: "23505"}))
}
