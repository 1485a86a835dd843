package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/dto"
)

const (
	// SignatureHeader carries the gateway's HMAC of the raw body
	SignatureHeader = "signature"

	maxWebhookBytes = 1 << 20
)

// WebhookHandler receives gateway callbacks. Its responses only steer the
// gateway's retry logic: 2xx stops redelivery, 5xx asks for it.
type WebhookHandler struct {
	payments usecase.PaymentUseCase
	logger   coreport.Logger
}

// NewWebhookHandler creates a new webhook handler instance
func NewWebhookHandler(payments usecase.PaymentUseCase, logger coreport.Logger) *WebhookHandler {
	return &WebhookHandler{payments: payments, logger: logger}
}

// HandleWebhook handles POST /payments/webhook
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)

	// The signature covers the exact bytes received, so the body is never decoded here
	rawBody, err := c.GetRawData()
	if err != nil {
		writeError(c, h.logger, domainerr.ErrMalformedWebhook)
		return
	}

	result, err := h.payments.HandleWebhook(c.Request.Context(), c.GetHeader(SignatureHeader), rawBody)
	if err != nil {
		if domainerr.IsSignatureError(err) {
			h.logger.Warn("Webhook rejected", map[string]any{
				"error":     err.Error(),
				"client_ip": c.ClientIP(),
			})
		}
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true, Outcome: string(result.Outcome)})
}
