package gateway

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CheckoutRequest describes the checkout session to open for a payment
type CheckoutRequest struct {
	PaymentID     string
	Amount        decimal.Decimal
	ClientEmail   string
	ClientName    string
	Method        entity.PaymentMethod
	InvoiceNumber string
	BackURL       string
	Description   string
}

// WebhookEvent is a gateway callback normalized to ledger vocabulary
type WebhookEvent struct {
	EventID              string
	GatewayPaymentID     string
	GatewayTransactionID string
	// PaymentID is our payment id echoed back through session metadata, when present
	PaymentID string
	Status    entity.PaymentStatus
	RawStatus string
	Amount    decimal.Decimal
}

// Gateway is the external payment provider
type Gateway interface {
	// CreateCheckout opens a checkout session. Errors are GatewayError.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*entity.Checkout, error)

	// VerifyWebhookSignature checks signature against the raw request body
	VerifyWebhookSignature(signature string, rawBody []byte) bool

	// ParseWebhook decodes a verified callback body. Errors wrap ErrMalformedWebhook.
	ParseWebhook(rawBody []byte) (*WebhookEvent, error)
}
