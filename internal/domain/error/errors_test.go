package error

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"invalid amount", ErrInvalidAmount, http.StatusBadRequest},
		{"amount rule", &AmountRuleError{Rule: "full"}, http.StatusBadRequest},
		{"already settled", fmt.Errorf("top-up: %w", ErrAlreadySettled), http.StatusBadRequest},
		{"exceeds remaining", &BalanceError{Err: ErrExceedsRemaining}, http.StatusBadRequest},
		{"bad signature", ErrInvalidSignature, http.StatusBadRequest},
		{"malformed webhook", ErrMalformedWebhook, http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"payment not found", ErrPaymentNotFound, http.StatusNotFound},
		{"request not found", fmt.Errorf("lookup: %w", ErrRequestNotFound), http.StatusNotFound},
		{"gateway", NewGatewayError("create_checkout", 503, errors.New("down")), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeAmountRule, ErrorCode(&AmountRuleError{Rule: "partial_minimum"}))
	assert.Equal(t, CodeExceedsRemaining, ErrorCode(&BalanceError{Err: ErrExceedsRemaining}))
	assert.Equal(t, CodeGateway, ErrorCode(NewGatewayError("create_checkout", 0, errors.New("timeout"))))
	assert.Equal(t, CodePaymentNotFound, ErrorCode(ErrPaymentNotFound))
	assert.Equal(t, CodeInternalServer, ErrorCode(errors.New("unexpected")))
}

func TestAmountRuleError_Details(t *testing.T) {
	err := &AmountRuleError{Rule: "partial_minimum", Provided: "4000.00", Minimum: "5000.00"}

	assert.Equal(t, map[string]any{
		"provided_amount": "4000.00",
		"minimum_amount":  "5000.00",
	}, DetailsOf(fmt.Errorf("validate: %w", err)))
	assert.Contains(t, err.Error(), "at least 5000.00")
	assert.True(t, errors.Is(err, ErrAmountRule))
}

func TestDetailsOf_NoDetails(t *testing.T) {
	assert.Nil(t, DetailsOf(ErrPaymentNotFound))
}
