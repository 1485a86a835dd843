package payment

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
)

// DefaultAuditBatchSize is used when Audit is called with a non-positive batch size
const DefaultAuditBatchSize = 200

// Auditor checks every stored ledger: paid + remaining == total, COMPLETED iff
// nothing remains, and paid equals the sum of applied transactions.
type Auditor struct {
	uow    persistence.UnitOfWork
	logger coreport.Logger
}

var _ usecase.LedgerAuditor = (*Auditor)(nil)

// NewAuditor creates a new ledger auditor
func NewAuditor(uow persistence.UnitOfWork, logger coreport.Logger) *Auditor {
	return &Auditor{uow: uow, logger: logger}
}

// Audit scans all payments and reports the ones that break an invariant
func (a *Auditor) Audit(ctx context.Context, batchSize int) (*usecase.AuditReport, error) {
	if batchSize <= 0 {
		batchSize = DefaultAuditBatchSize
	}

	report := &usecase.AuditReport{}
	payments := a.uow.GetPaymentRepository(ctx)
	transactions := a.uow.GetTransactionRepository(ctx)

	err := payments.Iterate(ctx, batchSize, func(batch []*entity.Payment) error {
		for _, p := range batch {
			report.Scanned++

			if err := p.CheckInvariants(); err != nil {
				report.Violations = append(report.Violations, usecase.AuditViolation{
					PaymentID: p.ID,
					Reason:    err.Error(),
				})
			}

			rows, err := transactions.ListByPayment(ctx, p.ID)
			if err != nil {
				return err
			}
			applied := entity.SumApplied(rows)
			if !entity.WithinEpsilon(applied, p.PaidAmount) {
				report.Violations = append(report.Violations, usecase.AuditViolation{
					PaymentID: p.ID,
					Reason: fmt.Sprintf("applied transactions sum to %s but paid amount is %s",
						entity.FormatAmount(applied), entity.FormatAmount(p.PaidAmount)),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		"scanned":    report.Scanned,
		"violations": len(report.Violations),
	}
	if len(report.Violations) > 0 {
		a.logger.Error("Ledger audit found violations", fields)
	} else {
		a.logger.Info("Ledger audit passed", fields)
	}
	return report, nil
}
