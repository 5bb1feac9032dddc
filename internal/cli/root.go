// Package cli provides the command-line interface for leapdb.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/leapstack-labs/leapdb/internal/cli/commands"
	"github.com/leapstack-labs/leapdb/internal/config"
	"github.com/spf13/cobra"

	// Register the built-in adapters.
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/sqlite"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "leapdb",
		Short: "leapdb - transactional data access",
		Long: `leapdb is a transactional data-access layer over SQLite, PostgreSQL
and DuckDB with field encryption, mutation hooks and a small condition
language.

The CLI is an administration tool: it checks connectivity, inspects
tables, runs queries and statements, and applies migrations.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./leapdb.yaml)")
	flags.StringP("database", "d", "", "Database descriptor: path, :memory:, sqlite:<path>, duckdb:<path> or postgres://...")
	flags.String("key-file", "", "File holding the base64 encryption key")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.String("log-format", "", "Log format (text|json)")
	flags.StringP("output", "o", "", "Output format (auto|table|json|yaml)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputFormats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.LogLevels, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewKeygenCommand())
	rootCmd.AddCommand(commands.NewPingCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewExecCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())

	return rootCmd
}

// Execute runs the root command. Cancelling ctx interrupts the running
// command and rolls back its transaction.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
