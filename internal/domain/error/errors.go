package error

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInvalidRequest       = 4000
	CodeInvalidAmount        = 4001
	CodeAmountRule           = 4002
	CodeInvalidPaymentMethod = 4003
	CodeInvalidPaymentType   = 4004
	CodeAlreadySettled       = 4005
	CodeExceedsRemaining     = 4006
	CodePaymentExists        = 4007
	CodeNotPartial           = 4008
	CodeMissingSignature     = 4010
	CodeInvalidSignature     = 4011
	CodeMalformedWebhook     = 4012
	CodeUnauthorized         = 4401
	CodeForbidden            = 4403
	CodePaymentNotFound      = 4040
	CodeRequestNotFound      = 4041
	CodeNotificationNotFound = 4042

	// 5xxx - Server errors
	CodeInternalServer = 5000
	CodeGateway        = 5020
)

// Base error types
var (
	// ErrInvalidRequest is returned when a required field is missing or malformed
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidAmount is returned when an amount is missing, zero or negative
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrAmountRule is returned when an amount violates the FULL/PARTIAL rules
	ErrAmountRule = errors.New("amount does not satisfy payment type rules")

	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidPaymentType   = errors.New("invalid payment type")

	// ErrAlreadySettled is returned when a top-up targets a payment with nothing left to pay
	ErrAlreadySettled = errors.New("payment is already fully settled")

	// ErrExceedsRemaining is returned when a top-up is larger than the remaining balance
	ErrExceedsRemaining = errors.New("amount exceeds remaining balance")

	// ErrPaymentExists is returned when the service request already has an active payment
	ErrPaymentExists = errors.New("service request already has an active payment")

	// ErrNotPartial is returned when a top-up targets a FULL payment
	ErrNotPartial = errors.New("payment is not a partial payment")

	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedWebhook = errors.New("malformed webhook payload")

	ErrUnauthorized = errors.New("caller identity missing")
	ErrForbidden    = errors.New("caller does not own this resource")

	ErrPaymentNotFound       = errors.New("payment not found")
	ErrRequestNotFound       = errors.New("service request not found")
	ErrTransactionNotFound   = errors.New("payment transaction not found")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrConnectionNotFound    = errors.New("live connection not found")
	ErrNotFound              = errors.New("resource not found")
	ErrDuplicateTransaction  = errors.New("transaction with this gateway id already exists")
	ErrInvariantViolation    = errors.New("ledger invariant violated")
	ErrInvalidPaymentVariant = errors.New("checkout session does not match payment method")
	ErrGateway               = errors.New("payment gateway error")
	ErrDatabaseConnection    = errors.New("database connection error")
	ErrConstraintViolation   = errors.New("database constraint violation")
	ErrInternalServer        = errors.New("internal server error")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrAmountRule):
		return CodeAmountRule
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidPaymentMethod):
		return CodeInvalidPaymentMethod
	case errors.Is(err, ErrInvalidPaymentType):
		return CodeInvalidPaymentType
	case errors.Is(err, ErrAlreadySettled):
		return CodeAlreadySettled
	case errors.Is(err, ErrExceedsRemaining):
		return CodeExceedsRemaining
	case errors.Is(err, ErrPaymentExists):
		return CodePaymentExists
	case errors.Is(err, ErrNotPartial):
		return CodeNotPartial
	case errors.Is(err, ErrMissingSignature):
		return CodeMissingSignature
	case errors.Is(err, ErrInvalidSignature):
		return CodeInvalidSignature
	case errors.Is(err, ErrMalformedWebhook):
		return CodeMalformedWebhook
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidPaymentVariant):
		return CodeInvalidRequest
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrPaymentNotFound):
		return CodePaymentNotFound
	case errors.Is(err, ErrRequestNotFound):
		return CodeRequestNotFound
	case errors.Is(err, ErrNotificationNotFound):
		return CodeNotificationNotFound
	case errors.Is(err, ErrGateway):
		return CodeGateway
	default:
		return CodeInternalServer
	}
}

// HTTPStatus maps an error onto the status code the API answers with
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidationError(err), IsConflictError(err), IsSignatureError(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case IsNotFoundError(err):
		return http.StatusNotFound
	case errors.Is(err, ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AmountRuleError describes why a declared amount was refused
type AmountRuleError struct {
	Rule     string
	Provided string
	Required string
	Minimum  string
	Maximum  string
}

func (e *AmountRuleError) Error() string {
	switch e.Rule {
	case "full":
		return fmt.Sprintf("full payment must equal %s, got %s", e.Required, e.Provided)
	case "partial_minimum":
		return fmt.Sprintf("partial payment must be at least %s, got %s", e.Minimum, e.Provided)
	default:
		return fmt.Sprintf("partial payment must be less than %s, got %s", e.Maximum, e.Provided)
	}
}

// Is lets errors.Is match the ErrAmountRule sentinel
func (e *AmountRuleError) Is(target error) bool {
	return target == ErrAmountRule
}

// Details returns the bounds exposed to API callers
func (e *AmountRuleError) Details() map[string]any {
	details := map[string]any{"provided_amount": e.Provided}
	if e.Required != "" {
		details["required_amount"] = e.Required
	}
	if e.Minimum != "" {
		details["minimum_amount"] = e.Minimum
	}
	if e.Maximum != "" {
		details["maximum_amount"] = e.Maximum
	}
	return details
}

// LogFields returns a map of fields for structured logging
func (e *AmountRuleError) LogFields() map[string]any {
	fields := e.Details()
	fields["error_type"] = "amount_rule"
	fields["rule"] = e.Rule
	fields["error_code"] = CodeAmountRule
	return fields
}

// BalanceError is returned when a top-up does not fit the remaining balance
type BalanceError struct {
	PaymentID string
	Remaining string
	Requested string
	Err       error
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("payment %s (remaining %s, requested %s): %v", e.PaymentID, e.Remaining, e.Requested, e.Err)
}

func (e *BalanceError) Unwrap() error {
	return e.Err
}

// Details returns the balance figures exposed to API callers
func (e *BalanceError) Details() map[string]any {
	return map[string]any{
		"remaining_balance":  e.Remaining,
		"transaction_amount": e.Requested,
	}
}

// GatewayError wraps a failure talking to the payment gateway
type GatewayError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s failed with status %d: %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway %s failed: %v", e.Operation, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the ErrGateway sentinel
func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}

// LogFields returns a map of fields for structured logging
func (e *GatewayError) LogFields() map[string]any {
	return map[string]any{
		"error_type":  "gateway_error",
		"operation":   e.Operation,
		"status_code": e.StatusCode,
		"error":       e.Err.Error(),
		"error_code":  CodeGateway,
	}
}

// NewGatewayError creates a gateway error for the given operation
func NewGatewayError(operation string, statusCode int, err error) error {
	return &GatewayError{Operation: operation, StatusCode: statusCode, Err: err}
}

// Detailer is implemented by errors that carry structured details for API responses
type Detailer interface {
	Details() map[string]any
}

// DetailsOf returns the structured details of err, if any
func DetailsOf(err error) map[string]any {
	var d Detailer
	if errors.As(err, &d) {
		return d.Details()
	}
	return nil
}

// IsValidationError checks if the error is a 400-class input error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAmountRule) ||
		errors.Is(err, ErrInvalidPaymentMethod) ||
		errors.Is(err, ErrInvalidPaymentType) ||
		errors.Is(err, ErrInvalidPaymentVariant) ||
		errors.Is(err, ErrMalformedWebhook)
}

// IsConflictError checks if the error conflicts with the current ledger state
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadySettled) ||
		errors.Is(err, ErrExceedsRemaining) ||
		errors.Is(err, ErrPaymentExists) ||
		errors.Is(err, ErrNotPartial)
}

// IsSignatureError checks if the webhook was rejected before reaching storage
func IsSignatureError(err error) bool {
	return errors.Is(err, ErrMissingSignature) || errors.Is(err, ErrInvalidSignature)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrNotificationNotFound)
}
