package usecase

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest is a client's request to start paying for a service request
type CreatePaymentRequest struct {
	RequestServiceID string
	Method           entity.PaymentMethod
	Type             entity.PaymentType
	Amount           decimal.Decimal
}

// AddTransactionRequest opens one more checkout session on a partial payment
type AddTransactionRequest struct {
	PaymentID string
	Amount    decimal.Decimal
	Method    entity.PaymentMethod
}

// PaymentSummary is informational text returned alongside a checkout
type PaymentSummary struct {
	TotalAmount           string
	PaymentAmount         string
	RemainingAfterPayment string
	PaymentType           entity.PaymentType
	NextSteps             string
}

// PaymentResult is what creation and top-up return to the caller
type PaymentResult struct {
	Payment     *entity.Payment
	CheckoutURL string
	Summary     PaymentSummary
}

// PaymentDetails is a payment with its ledger rows
type PaymentDetails struct {
	Payment      *entity.Payment
	Transactions []*entity.PaymentTransaction
}

// WebhookOutcome describes what a reconciled webhook did to the ledger
type WebhookOutcome string

const (
	WebhookApplied  WebhookOutcome = "applied"
	WebhookReplayed WebhookOutcome = "replayed"
	WebhookFailed   WebhookOutcome = "failed"
	WebhookRecorded WebhookOutcome = "recorded"
)

// WebhookResult reports the reconciliation of one gateway callback
type WebhookResult struct {
	PaymentID string
	Outcome   WebhookOutcome
}

// PaymentUseCase is the payment ledger as seen by the API layer
type PaymentUseCase interface {
	CreatePayment(ctx context.Context, caller entity.Identity, req CreatePaymentRequest) (*PaymentResult, error)
	HandleWebhook(ctx context.Context, signature string, rawBody []byte) (*WebhookResult, error)
	AddTransaction(ctx context.Context, caller entity.Identity, req AddTransactionRequest) (*PaymentResult, error)
	// GetPayment returns one payment; staff may pass clientID to read on a client's behalf
	GetPayment(ctx context.Context, caller entity.Identity, paymentID, clientID string) (*PaymentDetails, error)
	ListClientPayments(ctx context.Context, caller entity.Identity, clientID string) ([]*entity.Payment, error)
	ListOpenPartialPayments(ctx context.Context, caller entity.Identity) ([]*entity.Payment, error)
	GetOpenPartialPayment(ctx context.Context, caller entity.Identity, paymentID string) (*entity.Payment, error)
}

// AuditViolation is one ledger that breaks an invariant
type AuditViolation struct {
	PaymentID string
	Reason    string
}

// AuditReport summarizes a ledger audit run
type AuditReport struct {
	Scanned    int
	Violations []AuditViolation
}

// LedgerAuditor checks stored ledgers against their invariants
type LedgerAuditor interface {
	Audit(ctx context.Context, batchSize int) (*AuditReport, error)
}
