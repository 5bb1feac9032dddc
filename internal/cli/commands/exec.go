package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/spf13/cobra"
)

// ExecOptions holds options for the exec command.
type ExecOptions struct {
	File   string
	Params []string
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	opts := &ExecOptions{}

	cmd := &cobra.Command{
		Use:   "exec [SQL]",
		Short: "Execute a statement or a SQL script",
		Long: `Execute a single statement with :name parameters, or a whole script.

A statement given as arguments (or piped on stdin) is run with the --param
bindings and the affected row count is reported. A script given with
--file runs as-is, without parameters. Either way the work runs in one
transaction and is rolled back if any statement fails.`,
		Example: `  leapdb exec "UPDATE accounts SET status = :s WHERE tenant_id = :t" -p s=closed -p t=acme
  leapdb exec --file schema.sql
  cat fix.sql | leapdb exec`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Run the SQL script in this file")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Binding name=value (repeatable)")

	return cmd
}

func runExec(cmd *cobra.Command, args []string, opts *ExecOptions) error {
	params, err := parseAssignments("param", opts.Params)
	if err != nil {
		return err
	}

	var (
		sql    string
		script bool
	)
	switch {
	case opts.File != "":
		if len(args) > 0 {
			return fmt.Errorf("give either a statement or --file, not both")
		}
		content, err := os.ReadFile(opts.File)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sql, script = string(content), true
	case len(args) > 0:
		sql = strings.Join(args, " ")
	default:
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sql = string(content)
	}
	if strings.TrimSpace(sql) == "" {
		return fmt.Errorf("no SQL to execute")
	}
	if script && len(params) > 0 {
		return fmt.Errorf("--param cannot be used with --file")
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	db := cmdCtx.DB
	if script {
		if err := db.Connection(cmd.Context(), func(ctx context.Context) error {
			return db.ExecuteScript(ctx, sql)
		}); err != nil {
			return err
		}
		cmdCtx.Logger.Info("script executed", "file", opts.File)
		return cmdCtx.Renderer.Object([]string{"file", "status"}, core.Record{"file": opts.File, "status": "ok"})
	}

	var affected int64
	if err := db.Connection(cmd.Context(), func(ctx context.Context) error {
		n, err := db.Execute(ctx, sql, params)
		affected = n
		return err
	}); err != nil {
		return err
	}
	return cmdCtx.Renderer.Object([]string{"rows_affected"}, core.Record{"rows_affected": affected})
}
