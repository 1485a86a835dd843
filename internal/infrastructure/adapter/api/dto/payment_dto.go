package dto

import (
	"encoding/json"
	"time"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
)

// CreatePaymentRequest is the body of POST /payments/create.
// Amounts are accepted as JSON numbers or numeric strings.
type CreatePaymentRequest struct {
	RequestServiceID string      `json:"request_service_id" binding:"required"`
	PaymentMethod    string      `json:"payment_method" binding:"required"`
	PaymentType      string      `json:"payment_type" binding:"required"`
	Amount           json.Number `json:"amount" binding:"required"`
}

// AddTransactionRequest is the body of POST /payments/:paymentId/add-transaction
type AddTransactionRequest struct {
	TransactionAmount json.Number `json:"transaction_amount" binding:"required"`
	PaymentMethod     string      `json:"payment_method"`
}

// PaymentResponse is the API view of a payment ledger
type PaymentResponse struct {
	ID                 string    `json:"id"`
	RequestServiceID   string    `json:"request_service_id"`
	ClientID           string    `json:"client_id"`
	ServiceID          string    `json:"service_id"`
	TotalAmount        string    `json:"total_amount"`
	PaidAmount         string    `json:"paid_amount"`
	RemainingBalance   string    `json:"remaining_balance"`
	PaymentMethod      string    `json:"payment_method"`
	PaymentType        string    `json:"payment_type"`
	PaymentStatus      string    `json:"payment_status"`
	GatewayPaymentID   string    `json:"gateway_payment_id,omitempty"`
	GatewayCheckoutURL string    `json:"gateway_checkout_url,omitempty"`
	GatewayStatus      string    `json:"gateway_status,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TransactionResponse is the API view of one ledger row
type TransactionResponse struct {
	ID                   string    `json:"id"`
	TransactionAmount    string    `json:"transaction_amount"`
	TransactionDate      time.Time `json:"transaction_date"`
	GatewayTransactionID string    `json:"gateway_transaction_id"`
	GatewayStatus        string    `json:"gateway_status"`
	Applied              bool      `json:"applied"`
}

// PaymentSummaryResponse is informational text returned with a checkout
type PaymentSummaryResponse struct {
	TotalAmount           string `json:"total_amount"`
	PaymentAmount         string `json:"payment_amount"`
	RemainingAfterPayment string `json:"remaining_after_payment"`
	PaymentType           string `json:"payment_type"`
	NextSteps             string `json:"next_steps"`
}

// CheckoutResponse answers payment creation and top-ups
type CheckoutResponse struct {
	Payment        PaymentResponse        `json:"payment"`
	CheckoutURL    string                 `json:"checkout_url,omitempty"`
	PaymentSummary PaymentSummaryResponse `json:"payment_summary"`
}

// PaymentDetailsResponse is a payment with its ledger rows
type PaymentDetailsResponse struct {
	Payment      PaymentResponse       `json:"payment"`
	Transactions []TransactionResponse `json:"transactions"`
}

// WebhookResponse acknowledges a gateway callback
type WebhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}

// ToPaymentResponse maps a payment onto its API view
func ToPaymentResponse(p *entity.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:               p.ID,
		RequestServiceID: p.RequestServiceID,
		ClientID:         p.ClientID,
		ServiceID:        p.ServiceID,
		TotalAmount:      entity.FormatAmount(p.TotalAmount),
		PaidAmount:       entity.FormatAmount(p.PaidAmount),
		RemainingBalance: entity.FormatAmount(p.RemainingBalance),
		PaymentMethod:    string(p.Method),
		PaymentType:      string(p.Type),
		PaymentStatus:    string(p.Status),
		GatewayStatus:    p.GatewayStatus,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if checkout, ok := p.Checkout(); ok {
		resp.GatewayPaymentID = checkout.GatewayPaymentID
		resp.GatewayCheckoutURL = checkout.URL
	}
	return resp
}

// ToPaymentResponses maps a list of payments
func ToPaymentResponses(payments []*entity.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, ToPaymentResponse(p))
	}
	return out
}

// ToCheckoutResponse maps a creation or top-up result
func ToCheckoutResponse(result *usecase.PaymentResult) CheckoutResponse {
	return CheckoutResponse{
		Payment:     ToPaymentResponse(result.Payment),
		CheckoutURL: result.CheckoutURL,
		PaymentSummary: PaymentSummaryResponse{
			TotalAmount:           result.Summary.TotalAmount,
			PaymentAmount:         result.Summary.PaymentAmount,
			RemainingAfterPayment: result.Summary.RemainingAfterPayment,
			PaymentType:           string(result.Summary.PaymentType),
			NextSteps:             result.Summary.NextSteps,
		},
	}
}

// ToPaymentDetailsResponse maps a payment and its ledger rows
func ToPaymentDetailsResponse(details *usecase.PaymentDetails) PaymentDetailsResponse {
	transactions := make([]TransactionResponse, 0, len(details.Transactions))
	for _, t := range details.Transactions {
		transactions = append(transactions, TransactionResponse{
			ID:                   t.ID,
			TransactionAmount:    entity.FormatAmount(t.Amount),
			TransactionDate:      t.TransactionDate,
			GatewayTransactionID: t.GatewayTransactionID,
			GatewayStatus:        t.GatewayStatus,
			Applied:              t.Applied,
		})
	}
	return PaymentDetailsResponse{
		Payment:      ToPaymentResponse(details.Payment),
		Transactions: transactions,
	}
}
