package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/database/dbtest"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func newGatewayPayment(t *testing.T, requestID, clientID, total string, paymentType entity.PaymentType, checkoutID string) *entity.Payment {
	t.Helper()
	p, err := entity.NewPayment(
		uuid.NewString(), requestID, clientID, uuid.NewString(),
		decimal.RequireFromString(total),
		entity.MethodCIB, paymentType,
		&entity.Checkout{GatewayPaymentID: checkoutID, URL: "https://pay.example/" + checkoutID},
		testNow,
	)
	require.NoError(t, err)
	return p
}

func TestPaymentRepository_CreateAndGet(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewPaymentRepository(db.DB, db.Logger)
	ctx := context.Background()

	p := newGatewayPayment(t, uuid.NewString(), "client-1", "50000.00", entity.PaymentTypePartial, "chk_1")
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("50000").Equal(got.TotalAmount))
	assert.True(t, got.PaidAmount.IsZero())
	assert.Equal(t, entity.PaymentStatusPending, got.Status)
	checkout, ok := got.Checkout()
	require.True(t, ok)
	assert.Equal(t, "chk_1", checkout.GatewayPaymentID)
	assert.Equal(t, "https://pay.example/chk_1", checkout.URL)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, errs.ErrPaymentNotFound)
}

func TestPaymentRepository_OneActivePaymentPerRequest(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewPaymentRepository(db.DB, db.Logger)
	ctx := context.Background()
	requestID := uuid.NewString()

	first := newGatewayPayment(t, requestID, "client-1", "100.00", entity.PaymentTypeFull, "chk_a")
	require.NoError(t, repo.Create(ctx, first))

	active, err := repo.HasActiveForRequest(ctx, requestID)
	require.NoError(t, err)
	assert.True(t, active)

	second := newGatewayPayment(t, requestID, "client-1", "100.00", entity.PaymentTypeFull, "chk_b")
	assert.ErrorIs(t, repo.Create(ctx, second), errs.ErrPaymentExists)

	require.True(t, first.MarkFailed(testNow))
	require.NoError(t, repo.Update(ctx, first))

	active, err = repo.HasActiveForRequest(ctx, requestID)
	require.NoError(t, err)
	assert.False(t, active)
	assert.NoError(t, repo.Create(ctx, second))
}

func TestPaymentRepository_UpdateLedger(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewPaymentRepository(db.DB, db.Logger)
	ctx := context.Background()

	p := newGatewayPayment(t, uuid.NewString(), "client-1", "50000.00", entity.PaymentTypePartial, "chk_1")
	require.NoError(t, repo.Create(ctx, p))

	require.NoError(t, p.ApplySettlement(decimal.RequireFromString("20000.00"), testNow))
	p.RecordWebhook([]byte(`{"type":"checkout.paid"}`), "paid", testNow)
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("20000").Equal(got.PaidAmount))
	assert.True(t, decimal.RequireFromString("30000").Equal(got.RemainingBalance))
	assert.Equal(t, "paid", got.GatewayStatus)
	assert.JSONEq(t, `{"type":"checkout.paid"}`, string(got.LastWebhookPayload))
	assert.NoError(t, got.CheckInvariants())

	missing := newGatewayPayment(t, uuid.NewString(), "client-1", "10.00", entity.PaymentTypeFull, "chk_x")
	assert.ErrorIs(t, repo.Update(ctx, missing), errs.ErrPaymentNotFound)
}

func TestPaymentRepository_LockByGatewayReference(t *testing.T) {
	db := dbtest.New(t)
	payments := repository.NewPaymentRepository(db.DB, db.Logger)
	transactions := repository.NewTransactionRepository(db.DB, db.Logger)
	ctx := context.Background()

	p := newGatewayPayment(t, uuid.NewString(), "client-1", "50000.00", entity.PaymentTypePartial, "chk_old")
	require.NoError(t, payments.Create(ctx, p))
	attempt, err := entity.NewSettlementAttempt(uuid.NewString(), p.ID, "chk_old", decimal.RequireFromString("5000"), testNow)
	require.NoError(t, err)
	require.NoError(t, transactions.Create(ctx, attempt))

	require.NoError(t, p.ReplaceCheckout(entity.Checkout{GatewayPaymentID: "chk_new", URL: "https://pay.example/chk_new"}, testNow))
	require.NoError(t, payments.Update(ctx, p))

	byCurrent, err := payments.LockByGatewayReference(ctx, "chk_new")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byCurrent.ID)

	byOlder, err := payments.LockByGatewayReference(ctx, "chk_old")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byOlder.ID)

	_, err = payments.LockByGatewayReference(ctx, "chk_unknown")
	assert.ErrorIs(t, err, errs.ErrPaymentNotFound)
}

func TestPaymentRepository_Listings(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewPaymentRepository(db.DB, db.Logger)
	ctx := context.Background()

	openPartial := newGatewayPayment(t, uuid.NewString(), "client-1", "500.00", entity.PaymentTypePartial, "chk_1")
	full := newGatewayPayment(t, uuid.NewString(), "client-1", "200.00", entity.PaymentTypeFull, "chk_2")
	settledPartial := newGatewayPayment(t, uuid.NewString(), "client-1", "100.00", entity.PaymentTypePartial, "chk_3")
	require.NoError(t, settledPartial.ApplySettlement(decimal.RequireFromString("100"), testNow))
	otherClient := newGatewayPayment(t, uuid.NewString(), "client-2", "300.00", entity.PaymentTypePartial, "chk_4")

	for _, p := range []*entity.Payment{openPartial, full, settledPartial, otherClient} {
		require.NoError(t, repo.Create(ctx, p))
	}

	all, err := repo.ListByClient(ctx, "client-1")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	open, err := repo.ListOpenPartial(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, openPartial.ID, open[0].ID)

	none, err := repo.ListByClient(ctx, "client-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPaymentRepository_Iterate(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewPaymentRepository(db.DB, db.Logger)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := newGatewayPayment(t, uuid.NewString(), "client-1", "10.00", entity.PaymentTypeFull, uuid.NewString())
		require.NoError(t, repo.Create(ctx, p))
	}

	var seen, batches int
	err := repo.Iterate(ctx, 2, func(batch []*entity.Payment) error {
		batches++
		seen += len(batch)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
	assert.Equal(t, 3, batches)

	stop := assert.AnError
	err = repo.Iterate(ctx, 2, func([]*entity.Payment) error { return stop })
	assert.ErrorIs(t, err, stop)
}
