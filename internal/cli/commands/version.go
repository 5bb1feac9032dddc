package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display leapdb version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "leapdb v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Transactional data access for SQLite, PostgreSQL and DuckDB (%s)\n", runtime.Version())
		},
	}
}
