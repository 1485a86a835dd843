// Package cli implements portalctl, the operator command line for the payment ledger.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/logger"
	timeProvider "github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/config"
)

type rootOptions struct {
	env       string
	configDir string
	verbose   bool
}

// NewRootCommand builds the portalctl command tree
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "portalctl",
		Short: "Operator tools for the client portal payment ledger",
		Long: `portalctl runs maintenance tasks against the client portal database.

It reads the same configs/<env>.yaml and CP_ environment variables as the API server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.env, "env", "", "configuration environment (defaults to CP_ENV)")
	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "directory holding <env>.yaml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(migrateCmd(opts))
	root.AddCommand(auditCmd(opts))
	root.AddCommand(webhookLoadCmd())
	root.AddCommand(versionCmd(version))

	return root
}

// Execute runs portalctl with os.Args
func Execute(version string) error {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.env == "" && o.configDir == "" {
		return config.LoadConfig()
	}

	env := o.env
	if env == "" {
		env = os.Getenv(config.EnvPrefix + "_ENV")
	}
	if env == "" {
		env = config.Development
	}
	paths := config.ConfigPaths
	if o.configDir != "" {
		paths = []string{o.configDir}
	}
	return config.LoadConfigFor(env, paths...)
}

func (o *rootOptions) logger(cfg *config.Config) coreport.Logger {
	level := cfg.Logger.Level
	if o.verbose {
		level = "debug"
	}
	return logger.NewZapLogger(cfg.IsProduction(), level)
}

// openDatabase loads configuration and connects, returning a cleanup func
func (o *rootOptions) openDatabase() (*database.Manager, coreport.Logger, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := o.logger(cfg)
	manager := database.NewManager(database.FromAppConfig(cfg), log, timeProvider.NewRealTimeProvider())
	if _, err := manager.Connect(); err != nil {
		_ = log.Flush()
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cleanup := func() {
		_ = manager.Close()
		_ = log.Flush()
	}
	return manager, log, cleanup, nil
}
