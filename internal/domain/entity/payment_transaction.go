package entity

import (
	"fmt"
	"time"

	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/shopspring/decimal"
)

// Gateway statuses recorded on ledger rows
const (
	TransactionStatusPending = "pending"
	TransactionStatusPaid    = "paid"

	// TransactionStatusPaidAfterFailure marks money confirmed for a payment that had
	// already failed. The row is never applied; staff settle it by hand.
	TransactionStatusPaidAfterFailure = "paid_after_failure"
)

// PaymentTransaction is one settlement event of a payment, keyed by the gateway's
// transaction id. Rows opened for a checkout session start unapplied and become
// applied once the gateway confirms them; only applied rows count towards PaidAmount.
type PaymentTransaction struct {
	ID                   string
	PaymentID            string
	Amount               decimal.Decimal
	TransactionDate      time.Time
	GatewayTransactionID string
	GatewayStatus        string
	Applied              bool
	RawResponse          []byte
	CreatedAt            time.Time
}

// NewSettlementAttempt records a checkout session that has been opened but not yet confirmed
func NewSettlementAttempt(id, paymentID, gatewayTransactionID string, amount decimal.Decimal, now time.Time) (*PaymentTransaction, error) {
	if err := validateTransaction(id, paymentID, gatewayTransactionID, amount); err != nil {
		return nil, err
	}
	return &PaymentTransaction{
		ID:                   id,
		PaymentID:            paymentID,
		Amount:               amount,
		TransactionDate:      now,
		GatewayTransactionID: gatewayTransactionID,
		GatewayStatus:        TransactionStatusPending,
		CreatedAt:            now,
	}, nil
}

// NewAppliedTransaction records a settlement the gateway has already confirmed
func NewAppliedTransaction(
	id, paymentID, gatewayTransactionID string,
	amount decimal.Decimal,
	rawResponse []byte,
	now time.Time,
) (*PaymentTransaction, error) {
	if err := validateTransaction(id, paymentID, gatewayTransactionID, amount); err != nil {
		return nil, err
	}
	return &PaymentTransaction{
		ID:                   id,
		PaymentID:            paymentID,
		Amount:               amount,
		TransactionDate:      now,
		GatewayTransactionID: gatewayTransactionID,
		GatewayStatus:        TransactionStatusPaid,
		Applied:              true,
		RawResponse:          rawResponse,
		CreatedAt:            now,
	}, nil
}

// MarkApplied confirms a pending attempt with the amount the gateway actually settled
func (t *PaymentTransaction) MarkApplied(amount decimal.Decimal, rawResponse []byte, now time.Time) error {
	if t.Applied {
		return fmt.Errorf("%w: %s", errs.ErrDuplicateTransaction, t.GatewayTransactionID)
	}
	if !amount.IsPositive() {
		return errs.ErrInvalidAmount
	}
	t.Amount = amount
	t.Applied = true
	t.GatewayStatus = TransactionStatusPaid
	t.RawResponse = rawResponse
	t.TransactionDate = now
	return nil
}

// RecordLateConfirmation keeps a confirmation that cannot be applied to the ledger
func (t *PaymentTransaction) RecordLateConfirmation(amount decimal.Decimal, rawResponse []byte, now time.Time) error {
	if t.Applied {
		return fmt.Errorf("%w: %s", errs.ErrDuplicateTransaction, t.GatewayTransactionID)
	}
	if !amount.IsPositive() {
		return errs.ErrInvalidAmount
	}
	t.Amount = amount
	t.GatewayStatus = TransactionStatusPaidAfterFailure
	t.RawResponse = rawResponse
	t.TransactionDate = now
	return nil
}

// SumApplied totals the applied rows of a ledger
func SumApplied(transactions []*PaymentTransaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range transactions {
		if t.Applied {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

func validateTransaction(id, paymentID, gatewayTransactionID string, amount decimal.Decimal) error {
	if id == "" || paymentID == "" {
		return fmt.Errorf("%w: transaction and payment ids are required", errs.ErrInvalidRequest)
	}
	if gatewayTransactionID == "" {
		return fmt.Errorf("%w: gateway transaction id is required", errs.ErrInvalidRequest)
	}
	if !amount.IsPositive() {
		return errs.ErrInvalidAmount
	}
	return nil
}
