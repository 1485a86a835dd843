package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
)

// ErrorClassifier turns driver errors into domain errors. Postgres errors are
// read by SQLSTATE; sqlite only offers its message text.
type ErrorClassifier struct{}

// NewErrorClassifier creates a new ErrorClassifier
func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{}
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicateKeyError reports a unique-index violation
func (c *ErrorClassifier) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || sqlState(err) == "23505" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

func (c *ErrorClassifier) isConstraintError(err error) bool {
	if state := sqlState(err); state != "" {
		// class 23: integrity constraint violation
		return strings.HasPrefix(state, "23")
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint") || strings.Contains(msg, "violates")
}

// wrap puts a domain sentinel in front of a driver error. Both stay in the
// chain so the unit of work can still read the SQLSTATE when deciding on a retry.
func (c *ErrorClassifier) wrap(err error) error {
	if c.isConstraintError(err) {
		return fmt.Errorf("%w: %w", errs.ErrConstraintViolation, err)
	}
	return fmt.Errorf("%w: %w", errs.ErrDatabaseConnection, err)
}
