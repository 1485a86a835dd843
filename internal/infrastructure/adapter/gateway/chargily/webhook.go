package chargily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/gateway"
)

// Webhook event types sent by Chargily
const (
	EventCheckoutPaid     = "checkout.paid"
	EventCheckoutFailed   = "checkout.failed"
	EventCheckoutCanceled = "checkout.canceled"
	EventCheckoutExpired  = "checkout.expired"
)

type webhookPayload struct {
	ID   string       `json:"id"`
	Type string       `json:"type"`
	Data checkoutData `json:"data"`
}

type checkoutData struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Metadata json.RawMessage `json:"metadata"`
}

// Sign computes the signature Chargily puts in the "signature" header
func Sign(secretKey string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 of the raw body
func (c *Client) VerifyWebhookSignature(signature string, rawBody []byte) bool {
	if c.config.SecretKey == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.config.SecretKey))
	mac.Write(rawBody)
	return hmac.Equal(got, mac.Sum(nil))
}

// ParseWebhook decodes a verified Chargily event into ledger vocabulary
func (c *Client) ParseWebhook(rawBody []byte) (*gateway.WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedWebhook, err)
	}
	if payload.Type == "" {
		return nil, fmt.Errorf("%w: event type is missing", errs.ErrMalformedWebhook)
	}
	if payload.Data.ID == "" {
		return nil, fmt.Errorf("%w: checkout id is missing", errs.ErrMalformedWebhook)
	}

	status := eventStatus(payload.Type)
	if status == entity.PaymentStatusCompleted && !payload.Data.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: paid event with amount %s", errs.ErrMalformedWebhook, payload.Data.Amount)
	}

	rawStatus := payload.Data.Status
	if rawStatus == "" {
		rawStatus = payload.Type
	}

	return &gateway.WebhookEvent{
		EventID:          payload.ID,
		GatewayPaymentID: payload.Data.ID,
		// A checkout settles at most once, so its id doubles as the transaction key
		GatewayTransactionID: payload.Data.ID,
		PaymentID:            metadataString(payload.Data.Metadata, "payment_id"),
		Status:               status,
		RawStatus:            rawStatus,
		Amount:               payload.Data.Amount,
	}, nil
}

func eventStatus(eventType string) entity.PaymentStatus {
	switch eventType {
	case EventCheckoutPaid:
		return entity.PaymentStatusCompleted
	case EventCheckoutFailed, EventCheckoutCanceled, EventCheckoutExpired:
		return entity.PaymentStatusFailed
	default:
		return entity.PaymentStatusPending
	}
}

// metadataString reads key from checkout metadata. Chargily echoes metadata
// either as an object or as a list of objects.
func metadataString(raw json.RawMessage, key string) string {
	if len(raw) == 0 {
		return ""
	}
	var object map[string]any
	if err := json.Unmarshal(raw, &object); err == nil {
		if v, ok := object[key].(string); ok {
			return v
		}
		return ""
	}
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if v, ok := item[key].(string); ok {
				return v
			}
		}
	}
	return ""
}
