package chargily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/gateway"
)

const (
	DefaultBaseURL = "https://pay.chargily.net/test/api/v2"
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
)

// Config holds the Chargily Pay account settings
type Config struct {
	BaseURL    string
	SecretKey  string
	Currency   string
	SuccessURL string
	FailureURL string
	WebhookURL string
	Locale     string
	Timeout    time.Duration
}

// Client talks to the Chargily Pay v2 API
type Client struct {
	config Config
	client *http.Client
	logger core.Logger
}

var _ gateway.Gateway = (*Client)(nil)

// NewClient creates a Chargily client
func NewClient(cfg Config, logger core.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Currency == "" {
		cfg.Currency = "dzd"
	}
	if cfg.Locale == "" {
		cfg.Locale = "fr"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(map[string]any{"component": "chargily"}),
	}
}

type checkoutRequest struct {
	Amount          json.Number       `json:"amount"`
	Currency        string            `json:"currency"`
	PaymentMethod   string            `json:"payment_method"`
	SuccessURL      string            `json:"success_url"`
	FailureURL      string            `json:"failure_url,omitempty"`
	WebhookEndpoint string            `json:"webhook_endpoint,omitempty"`
	Description     string            `json:"description,omitempty"`
	Locale          string            `json:"locale,omitempty"`
	Metadata        map[string]string `json:"metadata"`
}

type checkoutResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

type apiError struct {
	Message string `json:"message"`
}

// CreateCheckout opens a checkout session sized to req.Amount
func (c *Client) CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (*entity.Checkout, error) {
	const op = "create_checkout"

	method, err := paymentMethod(req.Method)
	if err != nil {
		return nil, errs.NewGatewayError(op, 0, err)
	}
	if !req.Amount.IsPositive() {
		return nil, errs.NewGatewayError(op, 0, fmt.Errorf("amount must be positive, got %s", req.Amount))
	}

	successURL := req.BackURL
	if successURL == "" {
		successURL = c.config.SuccessURL
	}
	failureURL := c.config.FailureURL
	if failureURL == "" {
		failureURL = successURL
	}

	body, err := json.Marshal(checkoutRequest{
		Amount:          json.Number(req.Amount.StringFixed(2)),
		Currency:        strings.ToLower(c.config.Currency),
		PaymentMethod:   method,
		SuccessURL:      successURL,
		FailureURL:      failureURL,
		WebhookEndpoint: c.config.WebhookURL,
		Description:     req.Description,
		Locale:          c.config.Locale,
		Metadata: map[string]string{
			"payment_id":     req.PaymentID,
			"invoice_number": req.InvoiceNumber,
			"client_email":   req.ClientEmail,
			"client_name":    req.ClientName,
		},
	})
	if err != nil {
		return nil, errs.NewGatewayError(op, 0, fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/checkouts", bytes.NewReader(body))
	if err != nil {
		return nil, errs.NewGatewayError(op, 0, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errs.NewGatewayError(op, 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errs.NewGatewayError(op, resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		message := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			message = apiErr.Message
		}
		c.logger.Warn("Checkout creation rejected", map[string]any{
			"payment_id":  req.PaymentID,
			"status_code": resp.StatusCode,
			"message":     message,
		})
		return nil, errs.NewGatewayError(op, resp.StatusCode, fmt.Errorf("%s", message))
	}

	var checkout checkoutResponse
	if err := json.Unmarshal(respBody, &checkout); err != nil {
		return nil, errs.NewGatewayError(op, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	if checkout.ID == "" || checkout.CheckoutURL == "" {
		return nil, errs.NewGatewayError(op, resp.StatusCode, fmt.Errorf("response is missing checkout id or url"))
	}

	c.logger.Info("Checkout created", map[string]any{
		"payment_id":  req.PaymentID,
		"checkout_id": checkout.ID,
		"amount":      req.Amount.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &entity.Checkout{GatewayPaymentID: checkout.ID, URL: checkout.CheckoutURL}, nil
}

func paymentMethod(m entity.PaymentMethod) (string, error) {
	switch m {
	case entity.MethodCIB:
		return "cib", nil
	case entity.MethodEdahabia:
		return "edahabia", nil
	default:
		return "", fmt.Errorf("%w: %s has no gateway checkout", errs.ErrInvalidPaymentMethod, m)
	}
}
