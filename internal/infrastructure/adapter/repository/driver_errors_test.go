package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
)

func TestErrorClassifier(t *testing.T) {
	c := NewErrorClassifier()
	deadlock := &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}

	t.Run("duplicate keys", func(t *testing.T) {
		assert.True(t, c.IsDuplicateKeyError(&pgconn.PgError{Code: "23505"}))
		assert.True(t, c.IsDuplicateKeyError(fmt.Errorf("create: %w", gorm.ErrDuplicatedKey)))
		assert.True(t, c.IsDuplicateKeyError(errors.New("UNIQUE constraint failed: payment_transactions.gateway_transaction_id")))
		assert.False(t, c.IsDuplicateKeyError(deadlock))
		assert.False(t, c.IsDuplicateKeyError(nil))
	})

	t.Run("wrap keeps the driver error in the chain", func(t *testing.T) {
		wrapped := c.wrap(deadlock)

		assert.ErrorIs(t, wrapped, errs.ErrDatabaseConnection)
		var pgErr *pgconn.PgError
		assert.ErrorAs(t, wrapped, &pgErr)
		assert.Equal(t, "40P01", pgErr.Code)
	})

	t.Run("constraint violations", func(t *testing.T) {
		assert.ErrorIs(t, c.wrap(&pgconn.PgError{Code: "23514"}), errs.ErrConstraintViolation)
		assert.ErrorIs(t, c.wrap(errors.New("NOT NULL constraint failed: payments.client_id")), errs.ErrConstraintViolation)
		assert.ErrorIs(t, c.wrap(errors.New("bad connection")), errs.ErrDatabaseConnection)
	})
}
