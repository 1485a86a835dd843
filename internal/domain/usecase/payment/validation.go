package payment

import (
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
	"github.com/shopspring/decimal"
)

// PaymentValidator enforces the creation-time rules of a payment plan
type PaymentValidator struct{}

// NewPaymentValidator creates a new PaymentValidator
func NewPaymentValidator() *PaymentValidator {
	return &PaymentValidator{}
}

// ValidateCreate checks the shape of a creation request before anything is looked up
func (v *PaymentValidator) ValidateCreate(caller entity.Identity, req usecase.CreatePaymentRequest) error {
	if caller.ID == "" {
		return errs.ErrUnauthorized
	}
	if strings.TrimSpace(req.RequestServiceID) == "" {
		return fmt.Errorf("%w: request_service_id is required", errs.ErrInvalidRequest)
	}
	if err := v.validateMethod(req.Method); err != nil {
		return err
	}
	if !req.Type.Valid() {
		return fmt.Errorf("%w: %q", errs.ErrInvalidPaymentType, req.Type)
	}
	if req.Method == entity.MethodFreeConsultation && req.Type != entity.PaymentTypeFull {
		return fmt.Errorf("%w: free consultations cannot be paid in parts", errs.ErrInvalidPaymentType)
	}
	return entity.ValidateAmount(req.Amount)
}

// ValidateTopUp checks the shape of an additional transaction request
func (v *PaymentValidator) ValidateTopUp(caller entity.Identity, req usecase.AddTransactionRequest) error {
	if caller.ID == "" {
		return errs.ErrUnauthorized
	}
	if strings.TrimSpace(req.PaymentID) == "" {
		return fmt.Errorf("%w: payment id is required", errs.ErrInvalidRequest)
	}
	if req.Method != "" {
		if err := v.validateMethod(req.Method); err != nil {
			return err
		}
		if !req.Method.UsesGateway() {
			return fmt.Errorf("%w: top-ups are paid through the gateway", errs.ErrInvalidPaymentMethod)
		}
	}
	return entity.ValidateAmount(req.Amount)
}

// CheckAmount compares the declared amount with the authoritative total.
// FULL must match the total within one cent; PARTIAL must cover at least 10% of
// the total and stay strictly below it.
func (v *PaymentValidator) CheckAmount(total, amount decimal.Decimal, paymentType entity.PaymentType) error {
	if !total.IsPositive() {
		return fmt.Errorf("%w: service has no billable price", errs.ErrInvalidRequest)
	}

	switch paymentType {
	case entity.PaymentTypeFull:
		if !entity.WithinEpsilon(amount, total) {
			return &errs.AmountRuleError{
				Rule:     "full",
				Provided: entity.FormatAmount(amount),
				Required: entity.FormatAmount(total),
			}
		}
	case entity.PaymentTypePartial:
		if amount.GreaterThanOrEqual(total) {
			return &errs.AmountRuleError{
				Rule:     "partial_maximum",
				Provided: entity.FormatAmount(amount),
				Maximum:  entity.FormatAmount(total),
			}
		}
		minimum := entity.MinimumPartialAmount(total)
		if amount.LessThan(minimum) {
			return &errs.AmountRuleError{
				Rule:     "partial_minimum",
				Provided: entity.FormatAmount(amount),
				Minimum:  entity.FormatAmount(minimum),
			}
		}
	default:
		return fmt.Errorf("%w: %q", errs.ErrInvalidPaymentType, paymentType)
	}
	return nil
}

func (v *PaymentValidator) validateMethod(method entity.PaymentMethod) error {
	if method == "" {
		return fmt.Errorf("%w: payment_method is required", errs.ErrInvalidRequest)
	}
	if !method.Valid() {
		return fmt.Errorf("%w: %q", errs.ErrInvalidPaymentMethod, method)
	}
	return nil
}
