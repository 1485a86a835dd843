package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/client-portal/internal/domain/usecase/payment"
)

// ErrLedgerViolations is returned by audit when any ledger is inconsistent
var ErrLedgerViolations = errors.New("ledger audit found violations")

func auditCmd(opts *rootOptions) *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check every payment ledger for consistency",
		Long: `Scan all payments and report ledgers where paid plus remaining differs from the total,
where the status disagrees with the remaining amount, or where the applied transactions
do not add up to the paid amount. Exits non-zero when a violation is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, log, cleanup, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer cleanup()

			auditor := payment.NewAuditor(manager.CreateUnitOfWork(), log)
			return runAudit(cmd.Context(), cmd.OutOrStdout(), auditor, batchSize)
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", payment.DefaultAuditBatchSize, "payments loaded per query")
	return cmd
}

func runAudit(ctx context.Context, out io.Writer, auditor usecase.LedgerAuditor, batchSize int) error {
	report, err := auditor.Audit(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("audit aborted: %w", err)
	}

	fmt.Fprintf(out, "Scanned %d payments\n", report.Scanned)
	if len(report.Violations) == 0 {
		fmt.Fprintln(out, "No violations found")
		return nil
	}

	for _, v := range report.Violations {
		fmt.Fprintf(out, "  %s: %s\n", v.PaymentID, v.Reason)
	}
	return fmt.Errorf("%w: %d", ErrLedgerViolations, len(report.Violations))
}
