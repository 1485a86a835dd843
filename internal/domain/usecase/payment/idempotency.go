package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/persistence"
)

// settlementState is what the ledger already knows about a gateway transaction id
type settlementState int

const (
	// settlementUnknown: no row, the confirmation is new
	settlementUnknown settlementState = iota
	// settlementOpen: an attempt row exists and waits for confirmation
	settlementOpen
	// settlementApplied: the confirmation was already applied; a replay
	settlementApplied
	// settlementClosed: the row exists but can no longer be applied (late
	// confirmation already recorded, or the id belongs to another payment)
	settlementClosed
)

// IdempotencyHandler looks up a gateway transaction id in the ledger
type IdempotencyHandler struct{}

// NewIdempotencyHandler creates a new IdempotencyHandler
func NewIdempotencyHandler() *IdempotencyHandler {
	return &IdempotencyHandler{}
}

// CheckSettlement classifies gatewayTransactionID for paymentID. Must run under the
// payment's row lock so the answer stays true until commit.
func (h *IdempotencyHandler) CheckSettlement(
	ctx context.Context,
	repo persistence.TransactionRepository,
	paymentID string,
	gatewayTransactionID string,
) (*entity.PaymentTransaction, settlementState, error) {
	txn, err := repo.GetByGatewayTransactionID(ctx, gatewayTransactionID)
	if err != nil {
		if errors.Is(err, errs.ErrTransactionNotFound) {
			return nil, settlementUnknown, nil
		}
		return nil, settlementUnknown, fmt.Errorf("failed to check gateway transaction: %w", err)
	}

	switch {
	case txn.PaymentID != paymentID:
		return txn, settlementClosed, nil
	case txn.Applied:
		return txn, settlementApplied, nil
	case txn.GatewayStatus == entity.TransactionStatusPending:
		return txn, settlementOpen, nil
	default:
		return txn, settlementClosed, nil
	}
}
