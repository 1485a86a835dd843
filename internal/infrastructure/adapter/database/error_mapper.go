package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
)

// Postgres SQLSTATE classes the mapper distinguishes
const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateCheckViolation      = "23514"
)

// EntityType represents the type of entity for errors mapping
type EntityType string

const (
	EntityTypePayment        EntityType = "payment"
	EntityTypeTransaction    EntityType = "payment_transaction"
	EntityTypeNotification   EntityType = "notification"
	EntityTypeServiceRequest EntityType = "service_request"
)

// ErrorMapper maps raw database errors that escape the repositories (commit
// failures, driver errors) to domain errors
type ErrorMapper struct{}

// NewErrorMapper creates a new ErrorMapper
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError maps a database error to a domain error. Errors that already carry a
// domain sentinel pass through untouched.
func (m *ErrorMapper) MapError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateUniqueViolation:
			return uniqueViolation(pgErr.ConstraintName, err)
		case sqlStateForeignKeyViolation, sqlStateCheckViolation:
			return fmt.Errorf("%w: %s", errs.ErrConstraintViolation, pgErr.ConstraintName)
		}
	}

	// sqlite reports constraints only through the message
	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "unique constraint"):
		return uniqueViolation(errMsg, err)

	case strings.Contains(errMsg, "check constraint") ||
		strings.Contains(errMsg, "foreign key constraint"):
		return fmt.Errorf("%w: %s", errs.ErrConstraintViolation, err.Error())

	default:
		return fmt.Errorf("%w: %s failed: %s", errs.ErrDatabaseConnection, operation, err.Error())
	}
}

// MapEntityNotFoundError maps record-not-found to the entity's sentinel
func (m *ErrorMapper) MapEntityNotFoundError(err error, entityType EntityType) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		switch entityType {
		case EntityTypePayment:
			return errs.ErrPaymentNotFound
		case EntityTypeTransaction:
			return errs.ErrTransactionNotFound
		case EntityTypeNotification:
			return errs.ErrNotificationNotFound
		case EntityTypeServiceRequest:
			return errs.ErrRequestNotFound
		default:
			return errs.ErrNotFound
		}
	}

	return m.MapError(err, string(entityType))
}

// uniqueViolation names the ledger index that refused the row
func uniqueViolation(constraint string, err error) error {
	constraint = strings.ToLower(constraint)
	switch {
	case strings.Contains(constraint, "gateway_txn"):
		return errs.ErrDuplicateTransaction
	case strings.Contains(constraint, "active_request"):
		return errs.ErrPaymentExists
	}
	return fmt.Errorf("%w: %s", errs.ErrConstraintViolation, err.Error())
}

func isDomainError(err error) bool {
	if errs.ErrorCode(err) != errs.CodeInternalServer {
		return true
	}
	for _, sentinel := range []error{
		errs.ErrDatabaseConnection,
		errs.ErrConstraintViolation,
		errs.ErrDuplicateTransaction,
		errs.ErrTransactionNotFound,
		errs.ErrConnectionNotFound,
		errs.ErrInvariantViolation,
		errs.ErrNotFound,
		errs.ErrInternalServer,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
