package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/spf13/cobra"
)

// MigrateOptions holds options for the migrate command.
type MigrateOptions struct {
	Dir    string
	Status bool
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	opts := &MigrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending goose migrations",
		Long: `Apply every pending versioned migration from a directory of goose
SQL files (00001_name.sql with -- +goose Up / Down sections).

Migrations are supported on SQLite and PostgreSQL.`,
		Example: `  leapdb migrate --dir migrations
  leapdb migrate --dir migrations --status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "migrations", "Directory holding migration files")
	cmd.Flags().BoolVar(&opts.Status, "status", false, "Show migration status instead of applying")

	return cmd
}

var (
	migrateColumns = []string{"version", "path", "duration"}
	statusColumns  = []string{"version", "path", "state", "applied_at"}
)

func runMigrate(cmd *cobra.Command, opts *MigrateOptions) error {
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return fmt.Errorf("migrations directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("migrations directory: %s is not a directory", opts.Dir)
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	fsys := os.DirFS(opts.Dir)
	if opts.Status {
		status, err := cmdCtx.DB.MigrationStatus(cmd.Context(), fsys, ".")
		if err != nil {
			return err
		}
		rows := make([]core.Record, len(status))
		for i, s := range status {
			row := core.Record{
				"version": s.Source.Version,
				"path":    s.Source.Path,
				"state":   string(s.State),
			}
			if !s.AppliedAt.IsZero() {
				row["applied_at"] = s.AppliedAt
			}
			rows[i] = row
		}
		return cmdCtx.Renderer.Records(statusColumns, rows)
	}

	results, err := cmdCtx.DB.Migrate(cmd.Context(), fsys, ".")
	if err != nil {
		return err
	}
	rows := make([]core.Record, len(results))
	for i, r := range results {
		rows[i] = core.Record{
			"version":  r.Source.Version,
			"path":     r.Source.Path,
			"duration": r.Duration.Round(time.Millisecond).String(),
		}
	}
	return cmdCtx.Renderer.Records(migrateColumns, rows)
}
