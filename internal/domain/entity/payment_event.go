package entity

import "time"

// Ledger event types published after a payment changes
const (
	EventPaymentCreated = "payment.created"
	EventPaymentSettled = "payment.settled"
	EventPaymentFailed  = "payment.failed"
)

// PaymentEvent is the externally published view of a ledger change
type PaymentEvent struct {
	Type                 string    `json:"type"`
	PaymentID            string    `json:"payment_id"`
	ClientID             string    `json:"client_id"`
	RequestServiceID     string    `json:"request_service_id"`
	GatewayTransactionID string    `json:"gateway_transaction_id,omitempty"`
	Amount               string    `json:"amount,omitempty"`
	TotalAmount          string    `json:"total_amount"`
	PaidAmount           string    `json:"paid_amount"`
	RemainingBalance     string    `json:"remaining_balance"`
	Status               string    `json:"status"`
	OccurredAt           time.Time `json:"occurred_at"`
}

// NewPaymentEvent snapshots p for publishing
func NewPaymentEvent(eventType string, p *Payment, gatewayTransactionID, amount string, at time.Time) PaymentEvent {
	return PaymentEvent{
		Type:                 eventType,
		PaymentID:            p.ID,
		ClientID:             p.ClientID,
		RequestServiceID:     p.RequestServiceID,
		GatewayTransactionID: gatewayTransactionID,
		Amount:               amount,
		TotalAmount:          FormatAmount(p.TotalAmount),
		PaidAmount:           FormatAmount(p.PaidAmount),
		RemainingBalance:     FormatAmount(p.RemainingBalance),
		Status:               string(p.Status),
		OccurredAt:           at,
	}
}
