package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	domainerr "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/middleware"
)

// PaymentHandler handles the client-facing payment endpoints
type PaymentHandler struct {
	payments usecase.PaymentUseCase
	logger   coreport.Logger
}

// NewPaymentHandler creates a new payment handler instance
func NewPaymentHandler(payments usecase.PaymentUseCase, logger coreport.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// CreatePayment handles POST /payments/create
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	amount, err := parseAmount(req.Amount.String())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	result, err := h.payments.CreatePayment(c.Request.Context(), middleware.IdentityFrom(c), usecase.CreatePaymentRequest{
		RequestServiceID: req.RequestServiceID,
		Method:           entity.PaymentMethod(req.PaymentMethod),
		Type:             entity.PaymentType(req.PaymentType),
		Amount:           amount,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCheckoutResponse(result))
}

// GetPayment handles GET /payments/:id. Staff may pass ?client_id= to read on a client's behalf.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	details, err := h.payments.GetPayment(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), c.Query("client_id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentDetailsResponse(details))
}

// ListClientPayments handles GET /payments/client/:clientId
func (h *PaymentHandler) ListClientPayments(c *gin.Context) {
	payments, err := h.payments.ListClientPayments(c.Request.Context(), middleware.IdentityFrom(c), c.Param("clientId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponses(payments))
}

// ListOpenPartialPayments handles GET /payments/partial/all
func (h *PaymentHandler) ListOpenPartialPayments(c *gin.Context) {
	payments, err := h.payments.ListOpenPartialPayments(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponses(payments))
}

// GetOpenPartialPayment handles GET /payments/partial/:id
func (h *PaymentHandler) GetOpenPartialPayment(c *gin.Context) {
	payment, err := h.payments.GetOpenPartialPayment(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// AddTransaction handles POST /payments/:id/add-transaction
func (h *PaymentHandler) AddTransaction(c *gin.Context) {
	var req dto.AddTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	amount, err := parseAmount(req.TransactionAmount.String())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	result, err := h.payments.AddTransaction(c.Request.Context(), middleware.IdentityFrom(c), usecase.AddTransactionRequest{
		PaymentID: c.Param("id"),
		Amount:    amount,
		Method:    entity.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCheckoutResponse(result))
}

// parseAmount decodes a declared amount; range checks belong to the use case
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", domainerr.ErrInvalidAmount, raw)
	}
	return amount, nil
}
