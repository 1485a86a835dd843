package entity

import (
	"fmt"
	"time"

	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the client settles a payment
type PaymentMethod string

const (
	MethodCIB              PaymentMethod = "CIB"
	MethodEdahabia         PaymentMethod = "EDAHABIYA"
	MethodFreeConsultation PaymentMethod = "FREE_CONSULTATION"
)

// Valid reports whether m is a known method
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCIB, MethodEdahabia, MethodFreeConsultation:
		return true
	}
	return false
}

// UsesGateway reports whether payments of this method are settled through checkout sessions
func (m PaymentMethod) UsesGateway() bool {
	return m == MethodCIB || m == MethodEdahabia
}

// PaymentType is the settlement plan of a payment
type PaymentType string

const (
	PaymentTypeFull    PaymentType = "FULL"
	PaymentTypePartial PaymentType = "PARTIAL"
)

// Valid reports whether t is a known payment type
func (t PaymentType) Valid() bool {
	return t == PaymentTypeFull || t == PaymentTypePartial
}

// PaymentStatus is the ledger state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Checkout is the gateway session currently attached to a payment.
// Only gateway-settled methods carry one.
type Checkout struct {
	GatewayPaymentID string
	URL              string
}

// Payment is the ledger of one service request: what is owed, what has been paid
// and what remains.
type Payment struct {
	ID               string
	RequestServiceID string
	ClientID         string
	ServiceID        string
	TotalAmount      decimal.Decimal
	PaidAmount       decimal.Decimal
	RemainingBalance decimal.Decimal
	Method           PaymentMethod
	Type             PaymentType
	Status           PaymentStatus

	// GatewayStatus is the raw status of the last webhook seen for this payment
	GatewayStatus      string
	LastWebhookPayload []byte

	CreatedAt time.Time
	UpdatedAt time.Time

	checkout *Checkout
}

// NewPayment creates a PENDING payment with nothing paid yet. Gateway methods
// must come with their checkout session; FREE_CONSULTATION must not, and can only be FULL.
func NewPayment(
	id string,
	requestServiceID string,
	clientID string,
	serviceID string,
	total decimal.Decimal,
	method PaymentMethod,
	paymentType PaymentType,
	checkout *Checkout,
	now time.Time,
) (*Payment, error) {
	if id == "" || requestServiceID == "" || clientID == "" {
		return nil, fmt.Errorf("%w: payment id, request service id and client id are required", errs.ErrInvalidRequest)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidPaymentMethod, method)
	}
	if !paymentType.Valid() {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidPaymentType, paymentType)
	}
	if method == MethodFreeConsultation && paymentType != PaymentTypeFull {
		return nil, fmt.Errorf("%w: free consultations cannot be paid in parts", errs.ErrInvalidPaymentType)
	}
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: total amount cannot be negative", errs.ErrInvalidAmount)
	}

	p := &Payment{
		ID:               id,
		RequestServiceID: requestServiceID,
		ClientID:         clientID,
		ServiceID:        serviceID,
		TotalAmount:      total,
		PaidAmount:       decimal.Zero,
		RemainingBalance: total,
		Method:           method,
		Type:             paymentType,
		Status:           PaymentStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if method.UsesGateway() {
		if checkout == nil {
			return nil, fmt.Errorf("%w: %s payments need a checkout session", errs.ErrInvalidPaymentVariant, method)
		}
		if err := p.ReplaceCheckout(*checkout, now); err != nil {
			return nil, err
		}
	} else if checkout != nil {
		return nil, fmt.Errorf("%w: %s payments have no checkout session", errs.ErrInvalidPaymentVariant, method)
	}

	return p, nil
}

// Checkout returns the gateway session attached to the payment, if any
func (p *Payment) Checkout() (Checkout, bool) {
	if p.checkout == nil {
		return Checkout{}, false
	}
	return *p.checkout, true
}

// ReplaceCheckout points the payment at a newer gateway session
func (p *Payment) ReplaceCheckout(c Checkout, now time.Time) error {
	if !p.Method.UsesGateway() {
		return fmt.Errorf("%w: %s payments have no checkout session", errs.ErrInvalidPaymentVariant, p.Method)
	}
	if c.GatewayPaymentID == "" {
		return fmt.Errorf("%w: checkout session id is required", errs.ErrInvalidPaymentVariant)
	}
	p.checkout = &c
	p.UpdatedAt = now
	return nil
}

// RecordWebhook keeps the last gateway payload and status for audit
func (p *Payment) RecordWebhook(payload []byte, rawStatus string, now time.Time) {
	p.LastWebhookPayload = payload
	p.GatewayStatus = rawStatus
	p.UpdatedAt = now
}

// ApplySettlement adds a confirmed amount to the ledger and recomputes the status.
// An amount larger than the remaining balance is accepted and leaves a negative
// remaining balance; money the gateway confirmed is never discarded. A FAILED
// payment stays failed.
func (p *Payment) ApplySettlement(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return errs.ErrInvalidAmount
	}
	if p.Status == PaymentStatusFailed {
		return fmt.Errorf("%w: payment %s has failed", errs.ErrInvalidRequest, p.ID)
	}

	p.PaidAmount = p.PaidAmount.Add(amount)
	p.RemainingBalance = p.TotalAmount.Sub(p.PaidAmount)
	if p.RemainingBalance.LessThanOrEqual(decimal.Zero) {
		p.Status = PaymentStatusCompleted
	} else {
		p.Status = PaymentStatusPending
	}
	p.UpdatedAt = now
	return nil
}

// MarkFailed moves a payment to FAILED when the gateway reports a terminal failure.
// Only a PENDING payment with nothing paid can fail; it returns whether the status changed.
func (p *Payment) MarkFailed(now time.Time) bool {
	if p.Status != PaymentStatusPending || !p.PaidAmount.IsZero() {
		return false
	}
	p.Status = PaymentStatusFailed
	p.UpdatedAt = now
	return true
}

// CheckTopUp verifies that amount can be requested as an additional transaction
func (p *Payment) CheckTopUp(amount decimal.Decimal) error {
	if p.Type != PaymentTypePartial {
		return errs.ErrNotPartial
	}
	if !p.Method.UsesGateway() {
		return fmt.Errorf("%w: %s payments cannot be topped up", errs.ErrInvalidPaymentMethod, p.Method)
	}
	if p.Status == PaymentStatusFailed {
		return fmt.Errorf("%w: payment %s has failed", errs.ErrInvalidRequest, p.ID)
	}

	remaining := p.TotalAmount.Sub(p.PaidAmount)
	if remaining.LessThanOrEqual(decimal.Zero) {
		return &errs.BalanceError{
			PaymentID: p.ID,
			Remaining: FormatAmount(remaining),
			Requested: FormatAmount(amount),
			Err:       errs.ErrAlreadySettled,
		}
	}
	if amount.GreaterThan(remaining) {
		return &errs.BalanceError{
			PaymentID: p.ID,
			Remaining: FormatAmount(remaining),
			Requested: FormatAmount(amount),
			Err:       errs.ErrExceedsRemaining,
		}
	}
	return nil
}

// EligibleForTopUp reports whether the payment is a still open partial plan
func (p *Payment) EligibleForTopUp() bool {
	return p.Type == PaymentTypePartial &&
		p.Status == PaymentStatusPending &&
		p.RemainingBalance.IsPositive()
}

// CheckInvariants verifies paid + remaining == total and COMPLETED iff remaining <= 0
func (p *Payment) CheckInvariants() error {
	if !p.isConsistent() {
		return fmt.Errorf("%w: payment %s paid %s + remaining %s != total %s", errs.ErrInvariantViolation,
			p.ID, FormatAmount(p.PaidAmount), FormatAmount(p.RemainingBalance), FormatAmount(p.TotalAmount))
	}

	settled := p.RemainingBalance.LessThanOrEqual(decimal.Zero)
	if settled != (p.Status == PaymentStatusCompleted) {
		return fmt.Errorf("%w: payment %s has status %s with remaining %s", errs.ErrInvariantViolation,
			p.ID, p.Status, FormatAmount(p.RemainingBalance))
	}
	return nil
}

func (p *Payment) isConsistent() bool {
	return WithinEpsilon(p.PaidAmount.Add(p.RemainingBalance), p.TotalAmount)
}
