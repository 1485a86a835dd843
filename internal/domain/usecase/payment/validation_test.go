package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	domainerrs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
)

func TestPaymentValidator_ValidateCreate(t *testing.T) {
	caller := entity.Identity{ID: "client-1", Type: entity.UserTypeClient}

	tests := []struct {
		name          string
		caller        entity.Identity
		req           usecase.CreatePaymentRequest
		expectedError error
	}{
		{
			name:   "Valid CIB Full Payment",
			caller: caller,
			req: usecase.CreatePaymentRequest{
				RequestServiceID: "req-1", Method: entity.MethodCIB, Type: entity.PaymentTypeFull,
				Amount: decimal.RequireFromString("50000"),
			},
		},
		{
			name:   "Valid Free Consultation",
			caller: caller,
			req: usecase.CreatePaymentRequest{
				RequestServiceID: "req-1", Method: entity.MethodFreeConsultation, Type: entity.PaymentTypeFull,
				Amount: decimal.RequireFromString("3000"),
			},
		},
		{
			name: "Missing Identity",
			req: usecase.CreatePaymentRequest{
				RequestServiceID: "req-1", Method: entity.MethodCIB, Type: entity.PaymentTypeFull,
				Amount: decimal.RequireFromString("100"),
			},
			expectedError: domainerrs.ErrUnauthorized,
		},
		{
			name:   "Missing Request Service",
			caller: caller,
			req: usecase.CreatePaymentRequest{
				RequestServiceID: "  ", Method: entity.MethodCIB, Type: entity.PaymentTypeFull,
				Amount: decimal.RequireFromString("100"),
			},
			expectedError: domainerrs.ErrInvalidRequest,
		},
		{
			name:   "Missing Method",
			caller: caller,
			req: usecase.CreatePaymentRequest{
				RequestServiceID: "req-1", Type: entity.PaymentTypeFull,
				Amount: decimal.RequireFromString("100"),
			},
			expectedError: domainerrs.ErrInvalidRequest,
		},
		{
			name:   "Unknown Method",
			caller: caller,
			req: usecase.CreatePaymentRequest{
				RequestServiceID: "req-1", Method: "PAYPAL", Type: entity.PaymentTypeFull,
				Amount: decimal.RequireFromString("100"),
			},
			expectedError: domainerrs.ErrInvalidPaymentMethod,
		},
		{
			name:   "Unknown Type",
			caller: caller,
			req: usecase.CreatePaymentRequest{
				RequestServiceID: "req-1", Method: entity.MethodCIB, Type: "INSTALLMENTS",
				Amount: decimal.RequireFromString("100"),
			},
			expectedError: domainerrs.ErrInvalidPaymentType,
		},
		{
			name:   "Partial Free Consultation",
			caller: caller,
			req: usecase.CreatePaymentRequest{
				RequestServiceID: "req-1", Method: entity.MethodFreeConsultation, Type: entity.PaymentTypePartial,
				Amount: decimal.RequireFromString("100"),
			},
			expectedError: domainerrs.ErrInvalidPaymentType,
		},
		{
			name:   "Zero Amount",
			caller: caller,
			req: usecase.CreatePaymentRequest{
				RequestServiceID: "req-1", Method: entity.MethodCIB, Type: entity.PaymentTypeFull,
				Amount: decimal.Zero,
			},
			expectedError: domainerrs.ErrInvalidAmount,
		},
		{
			name:   "Negative Amount",
			caller: caller,
			req: usecase.CreatePaymentRequest{
				RequestServiceID: "req-1", Method: entity.MethodCIB, Type: entity.PaymentTypeFull,
				Amount: decimal.RequireFromString("-5"),
			},
			expectedError: domainerrs.ErrInvalidAmount,
		},
		{
			name:   "Too Many Decimal Places",
			caller: caller,
			req: usecase.CreatePaymentRequest{
				RequestServiceID: "req-1", Method: entity.MethodCIB, Type: entity.PaymentTypeFull,
				Amount: decimal.RequireFromString("100.567"),
			},
			expectedError: domainerrs.ErrInvalidAmount,
		},
	}

	validator := NewPaymentValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateCreate(tt.caller, tt.req)
			if tt.expectedError == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expectedError)
		})
	}
}

func TestPaymentValidator_ValidateTopUp(t *testing.T) {
	validator := NewPaymentValidator()
	caller := entity.Identity{ID: "client-1"}

	assert.NoError(t, validator.ValidateTopUp(caller, usecase.AddTransactionRequest{
		PaymentID: "pay-1", Amount: decimal.RequireFromString("100"),
	}))
	assert.NoError(t, validator.ValidateTopUp(caller, usecase.AddTransactionRequest{
		PaymentID: "pay-1", Amount: decimal.RequireFromString("100"), Method: entity.MethodEdahabia,
	}))
	assert.ErrorIs(t, validator.ValidateTopUp(caller, usecase.AddTransactionRequest{
		PaymentID: "pay-1", Amount: decimal.RequireFromString("100"), Method: entity.MethodFreeConsultation,
	}), domainerrs.ErrInvalidPaymentMethod)
	assert.ErrorIs(t, validator.ValidateTopUp(caller, usecase.AddTransactionRequest{
		Amount: decimal.RequireFromString("100"),
	}), domainerrs.ErrInvalidRequest)
	assert.ErrorIs(t, validator.ValidateTopUp(entity.Identity{}, usecase.AddTransactionRequest{
		PaymentID: "pay-1", Amount: decimal.RequireFromString("100"),
	}), domainerrs.ErrUnauthorized)
}

func TestPaymentValidator_CheckAmount(t *testing.T) {
	total := decimal.RequireFromString("50000")

	tests := []struct {
		name        string
		paymentType entity.PaymentType
		amount      string
		rule        string
	}{
		{"Full Exact", entity.PaymentTypeFull, "50000.00", ""},
		{"Full Within A Cent", entity.PaymentTypeFull, "49999.99", ""},
		{"Full Off By Two Cents", entity.PaymentTypeFull, "49999.98", "full"},
		{"Partial Exactly Ten Percent", entity.PaymentTypePartial, "5000.00", ""},
		{"Partial Just Below Ten Percent", entity.PaymentTypePartial, "4999.99", "partial_minimum"},
		{"Partial Equal To Total", entity.PaymentTypePartial, "50000", "partial_maximum"},
		{"Partial Above Total", entity.PaymentTypePartial, "60000", "partial_maximum"},
		{"Partial Just Below Total", entity.PaymentTypePartial, "49999.99", ""},
	}

	validator := NewPaymentValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.CheckAmount(total, decimal.RequireFromString(tt.amount), tt.paymentType)
			if tt.rule == "" {
				assert.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, domainerrs.ErrAmountRule)
			var ruleErr *domainerrs.AmountRuleError
			require.ErrorAs(t, err, &ruleErr)
			assert.Equal(t, tt.rule, ruleErr.Rule)
		})
	}

	t.Run("Service Without Price", func(t *testing.T) {
		err := validator.CheckAmount(decimal.Zero, decimal.RequireFromString("10"), entity.PaymentTypeFull)
		assert.ErrorIs(t, err, domainerrs.ErrInvalidRequest)
	})
}
