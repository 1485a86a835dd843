package handler_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/realtime"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/middleware"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/logger"
	livehub "github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/realtime"
	realtimemocks "github.com/amirhossein-jamali/client-portal/mocks/port/realtime"
	usecasemocks "github.com/amirhossein-jamali/client-portal/mocks/port/usecase"
)

const (
	jwtSecret = "handler-test-secret"
	jwtIssuer = "client-portal-test"
)

var (
	fixedNow = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	client   = entity.Identity{ID: "client-1", Type: entity.UserTypeClient, Email: "client@example.com", Name: "Client One"}
)

type apiHarness struct {
	router        *gin.Engine
	payments      *usecasemocks.MockPaymentUseCase
	notifications *usecasemocks.MockNotificationUseCase
	registry      *realtimemocks.MockLiveConnectionRegistry
	hub           *livehub.Hub
}

func newAPI(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNoopLogger()
	h := &apiHarness{
		router:        gin.New(),
		payments:      usecasemocks.NewMockPaymentUseCase(t),
		notifications: usecasemocks.NewMockNotificationUseCase(t),
		registry:      realtimemocks.NewMockLiveConnectionRegistry(t),
		hub:           livehub.NewHub(8, log),
	}

	routes.SetupMiddlewares(h.router, log, nil)
	routes.SetupRoutes(h.router, routes.Handlers{
		Payment:      handler.NewPaymentHandler(h.payments, log),
		Webhook:      handler.NewWebhookHandler(h.payments, log),
		Notification: handler.NewNotificationHandler(h.notifications, h.registry, h.hub, time.Hour, log),
	}, middleware.AuthConfig{Secret: jwtSecret, Issuer: jwtIssuer})
	return h
}

func token(t *testing.T, identity entity.Identity) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Type:  identity.Type,
		Email: identity.Email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    jwtIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

func (h *apiHarness) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, identity entity.Identity) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token(t, identity)}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func samplePayment(t *testing.T) *entity.Payment {
	t.Helper()
	p, err := entity.NewPayment("pay-1", "rs-1", client.ID, "svc-1", decimal.NewFromInt(50000),
		entity.MethodEdahabia, entity.PaymentTypePartial,
		&entity.Checkout{GatewayPaymentID: "chk_01", URL: "https://pay.example/chk_01"}, fixedNow)
	require.NoError(t, err)
	return p
}

func TestPaymentHandler_CreatePayment(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		api := newAPI(t)
		payment := samplePayment(t)
		api.payments.On("CreatePayment", mock.Anything, client, mock.MatchedBy(func(req usecase.CreatePaymentRequest) bool {
			return req.RequestServiceID == "rs-1" &&
				req.Method == entity.MethodEdahabia &&
				req.Type == entity.PaymentTypePartial &&
				req.Amount.Equal(decimal.NewFromInt(10000))
		})).Return(&usecase.PaymentResult{
			Payment:     payment,
			CheckoutURL: "https://pay.example/chk_01",
			Summary: usecase.PaymentSummary{
				TotalAmount:           "50000.00",
				PaymentAmount:         "10000.00",
				RemainingAfterPayment: "40000.00",
				PaymentType:           entity.PaymentTypePartial,
				NextSteps:             "Complete the checkout",
			},
		}, nil).Once()

		rec := api.do(t, http.MethodPost, "/payments/create",
			`{"request_service_id":"rs-1","payment_method":"EDAHABIYA","payment_type":"PARTIAL","amount":"10000"}`,
			bearer(t, client))

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.CheckoutResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "https://pay.example/chk_01", resp.CheckoutURL)
		assert.Equal(t, "pay-1", resp.Payment.ID)
		assert.Equal(t, "PENDING", resp.Payment.PaymentStatus)
		assert.Equal(t, "50000.00", resp.Payment.RemainingBalance)
		assert.Equal(t, "chk_01", resp.Payment.GatewayPaymentID)
		assert.Equal(t, "40000.00", resp.PaymentSummary.RemainingAfterPayment)
		assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("numeric amount is accepted", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("CreatePayment", mock.Anything, client, mock.MatchedBy(func(req usecase.CreatePaymentRequest) bool {
			return req.Amount.Equal(decimal.NewFromFloat(5000.5))
		})).Return(nil, errs.ErrPaymentExists).Once()

		rec := api.do(t, http.MethodPost, "/payments/create",
			`{"request_service_id":"rs-1","payment_method":"CIB","payment_type":"PARTIAL","amount":5000.50}`,
			bearer(t, client))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errs.CodePaymentExists, decodeError(t, rec).Code)
	})

	t.Run("no identity", func(t *testing.T) {
		api := newAPI(t)

		rec := api.do(t, http.MethodPost, "/payments/create",
			`{"request_service_id":"rs-1","payment_method":"CIB","payment_type":"FULL","amount":"50000"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, errs.CodeUnauthorized, decodeError(t, rec).Code)
	})

	t.Run("expired or foreign token", func(t *testing.T) {
		api := newAPI(t)
		foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   client.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("another-secret"))
		require.NoError(t, err)

		rec := api.do(t, http.MethodPost, "/payments/create", `{}`, map[string]string{"Authorization": "Bearer " + foreign})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("amount rule details", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("CreatePayment", mock.Anything, client, mock.Anything).Return(nil, &errs.AmountRuleError{
			Rule:     "partial_minimum",
			Provided: "4000.00",
			Minimum:  "5000.00",
		}).Once()

		rec := api.do(t, http.MethodPost, "/payments/create",
			`{"request_service_id":"rs-1","payment_method":"CIB","payment_type":"PARTIAL","amount":"4000"}`,
			bearer(t, client))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, errs.CodeAmountRule, resp.Code)
		assert.Equal(t, "5000.00", resp.Details["minimum_amount"])
		assert.Equal(t, "4000.00", resp.Details["provided_amount"])
	})

	t.Run("amount is not a number", func(t *testing.T) {
		api := newAPI(t)

		rec := api.do(t, http.MethodPost, "/payments/create",
			`{"request_service_id":"rs-1","payment_method":"CIB","payment_type":"FULL","amount":"lots"}`,
			bearer(t, client))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		api := newAPI(t)

		rec := api.do(t, http.MethodPost, "/payments/create", `{"payment_method":"CIB"}`, bearer(t, client))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errs.CodeInvalidRequest, decodeError(t, rec).Code)
	})

	t.Run("gateway failure hides details", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("CreatePayment", mock.Anything, client, mock.Anything).
			Return(nil, errs.NewGatewayError("create_checkout", 503, errors.New("upstream maintenance"))).Once()

		rec := api.do(t, http.MethodPost, "/payments/create",
			`{"request_service_id":"rs-1","payment_method":"CIB","payment_type":"FULL","amount":"50000"}`,
			bearer(t, client))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, errs.CodeGateway, resp.Code)
		assert.Equal(t, "Payment gateway unavailable", resp.Message)
	})
}

func TestWebhookHandler(t *testing.T) {
	body := `{"id":"evt_1","type":"checkout.paid","data":{"id":"chk_01","amount":50000}}`

	tests := []struct {
		name       string
		signature  string
		result     *usecase.WebhookResult
		err        error
		wantStatus int
		wantCode   int
	}{
		{
			name:       "applied",
			signature:  "abc123",
			result:     &usecase.WebhookResult{PaymentID: "pay-1", Outcome: usecase.WebhookApplied},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing signature",
			err:        errs.ErrMissingSignature,
			wantStatus: http.StatusBadRequest,
			wantCode:   errs.CodeMissingSignature,
		},
		{
			name:       "bad signature",
			signature:  "forged",
			err:        errs.ErrInvalidSignature,
			wantStatus: http.StatusBadRequest,
			wantCode:   errs.CodeInvalidSignature,
		},
		{
			name:       "unknown payment",
			signature:  "abc123",
			err:        fmt.Errorf("checkout chk_01: %w", errs.ErrPaymentNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   errs.CodePaymentNotFound,
		},
		{
			name:       "timeout asks for redelivery",
			signature:  "abc123",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusInternalServerError,
			wantCode:   errs.CodeInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newAPI(t)
			api.payments.On("HandleWebhook", mock.Anything, tt.signature, []byte(body)).Return(tt.result, tt.err).Once()

			headers := map[string]string{}
			if tt.signature != "" {
				headers[handler.SignatureHeader] = tt.signature
			}
			rec := api.do(t, http.MethodPost, "/payments/webhook", body, headers)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.err != nil {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
				return
			}
			var resp dto.WebhookResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.True(t, resp.Received)
			assert.Equal(t, "applied", resp.Outcome)
		})
	}
}

func TestPaymentHandler_Queries(t *testing.T) {
	staff := entity.Identity{ID: "staff-1", Type: entity.UserTypeAttorney}

	t.Run("get payment on behalf of a client", func(t *testing.T) {
		api := newAPI(t)
		payment := samplePayment(t)
		attempt, err := entity.NewSettlementAttempt("txn-1", payment.ID, "chk_01", decimal.NewFromInt(10000), fixedNow)
		require.NoError(t, err)
		api.payments.On("GetPayment", mock.Anything, staff, "pay-1", "client-1").Return(&usecase.PaymentDetails{
			Payment:      payment,
			Transactions: []*entity.PaymentTransaction{attempt},
		}, nil).Once()

		rec := api.do(t, http.MethodGet, "/payments/pay-1?client_id=client-1", "", bearer(t, staff))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.PaymentDetailsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Transactions, 1)
		assert.Equal(t, "chk_01", resp.Transactions[0].GatewayTransactionID)
		assert.Equal(t, "10000.00", resp.Transactions[0].TransactionAmount)
		assert.False(t, resp.Transactions[0].Applied)
	})

	t.Run("another client's payment", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("ListClientPayments", mock.Anything, client, "client-2").Return(nil, errs.ErrForbidden).Once()

		rec := api.do(t, http.MethodGet, "/payments/client/client-2", "", bearer(t, client))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("open partial payments", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("ListOpenPartialPayments", mock.Anything, client).
			Return([]*entity.Payment{samplePayment(t)}, nil).Once()
		api.payments.On("GetOpenPartialPayment", mock.Anything, client, "pay-9").
			Return(nil, errs.ErrPaymentNotFound).Once()

		rec := api.do(t, http.MethodGet, "/payments/partial/all", "", bearer(t, client))
		require.Equal(t, http.StatusOK, rec.Code)
		var list []dto.PaymentResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "PARTIAL", list[0].PaymentType)

		rec = api.do(t, http.MethodGet, "/payments/partial/pay-9", "", bearer(t, client))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPaymentHandler_AddTransaction(t *testing.T) {
	t.Run("exceeds remaining", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("AddTransaction", mock.Anything, client, mock.MatchedBy(func(req usecase.AddTransactionRequest) bool {
			return req.PaymentID == "pay-1" && req.Amount.Equal(decimal.NewFromInt(45000)) && req.Method == ""
		})).Return(nil, &errs.BalanceError{
			PaymentID: "pay-1",
			Remaining: "40000.00",
			Requested: "45000.00",
			Err:       errs.ErrExceedsRemaining,
		}).Once()

		rec := api.do(t, http.MethodPost, "/payments/pay-1/add-transaction", `{"transaction_amount":"45000"}`, bearer(t, client))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, errs.CodeExceedsRemaining, resp.Code)
		assert.Equal(t, "40000.00", resp.Details["remaining_balance"])
	})

	t.Run("opens a checkout", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("AddTransaction", mock.Anything, client, mock.MatchedBy(func(req usecase.AddTransactionRequest) bool {
			return req.Method == entity.MethodCIB
		})).Return(&usecase.PaymentResult{
			Payment:     samplePayment(t),
			CheckoutURL: "https://pay.example/chk_02",
		}, nil).Once()

		rec := api.do(t, http.MethodPost, "/payments/pay-1/add-transaction",
			`{"transaction_amount":7000,"payment_method":"CIB"}`, bearer(t, client))

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "chk_02")
	})
}

func TestNotificationHandler_Inbox(t *testing.T) {
	api := newAPI(t)
	n, err := entity.NewNotification("n-1", entity.NotificationPaymentCompleted, "Paid", client.ID, "pay-1", "", fixedNow)
	require.NoError(t, err)

	api.notifications.On("List", mock.Anything, client, true, 10).Return([]*entity.Notification{n}, nil).Once()
	api.notifications.On("MarkRead", mock.Anything, client, "n-1").Return(nil).Once()
	api.notifications.On("MarkRead", mock.Anything, client, "n-2").Return(errs.ErrNotificationNotFound).Once()

	rec := api.do(t, http.MethodGet, "/notifications?unread=true&limit=10", "", bearer(t, client))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []dto.NotificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "PAYMENT_COMPLETED", list[0].Type)

	rec = api.do(t, http.MethodPatch, "/notifications/n-1/read", "", bearer(t, client))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodPatch, "/notifications/n-2/read", "", bearer(t, client))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationHandler_Stream(t *testing.T) {
	api := newAPI(t)
	server := httptest.NewServer(api.router)
	defer server.Close()

	connected := make(chan string, 1)
	disconnected := make(chan struct{})
	api.registry.On("Connect", mock.Anything, client.ID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { connected <- args.String(2) }).
		Return(nil).Once()
	api.registry.On("Disconnect", mock.Anything, mock.AnythingOfType("string")).
		Run(func(mock.Arguments) { close(disconnected) }).
		Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		server.URL+"/notifications/stream?access_token="+token(t, client), nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var connectionID string
	select {
	case connectionID = <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("stream never registered its connection")
	}

	require.NoError(t, api.hub.Push(context.Background(), connectionID, realtime.Event{
		Type:      "PAYMENT_COMPLETED",
		ID:        "n-1",
		Message:   "Payment received",
		EntityID:  "pay-1",
		CreatedAt: fixedNow,
	}))

	scanner := bufio.NewScanner(resp.Body)
	var sawNotification, sawPayload bool
	for scanner.Scan() && !sawPayload {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") && strings.Contains(line, "notification") {
			sawNotification = true
		}
		if sawNotification && strings.HasPrefix(line, "data:") && strings.Contains(line, `"id":"n-1"`) {
			sawPayload = true
		}
	}
	assert.True(t, sawNotification)
	assert.True(t, sawPayload)

	cancel()
	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("closed stream was not unregistered")
	}
	assert.False(t, api.hub.Has(connectionID))
}

func TestNotificationHandler_StreamRequiresIdentity(t *testing.T) {
	api := newAPI(t)

	rec := api.do(t, http.MethodGet, "/notifications/stream", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	api := newAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/payments/create", bytes.NewReader(nil))
	req.Header.Set("Origin", "https://portal.example")
	rec := httptest.NewRecorder()

	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://portal.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
