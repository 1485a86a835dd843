package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/database/migration"
	timeProvider "github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/time"
)

func migrateCmd(opts *rootOptions) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		Long: `Create or upgrade the ledger tables and indexes to the current schema version.

Examples:
  portalctl migrate
  portalctl migrate --env test --seed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, log, cleanup, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			migrator := migration.NewMigrationManager(manager.DB(), log, timeProvider.NewRealTimeProvider())
			if err := migrator.MigrateAll(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			version, err := migrator.GetCurrentVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is at version %s\n", version)

			if seed {
				if err := migration.SeedDemoData(ctx, manager.DB()); err != nil {
					return fmt.Errorf("failed to seed demo data: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Demo request %s is ready for client %s\n",
					migration.DemoRequestID, migration.DemoClientID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "insert a demo service and request")
	return cmd
}
