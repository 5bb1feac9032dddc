package commands

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/sqldb"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <table>",
		Short: "Show the live columns of a table",
		Long: `Show the columns of a table as the database reports them: name,
declared type, nullability and primary key membership, in table order.`,
		Example: `  leapdb inspect accounts
  leapdb inspect accounts -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}
}

var inspectColumns = []string{"position", "name", "type", "nullable", "primary_key"}

func runInspect(cmd *cobra.Command, table string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cols, err := liveColumns(cmd.Context(), cmdCtx.DB, table)
	if err != nil {
		return err
	}

	rows := make([]core.Record, len(cols))
	for i, c := range cols {
		rows[i] = core.Record{
			"position":    c.Position,
			"name":        c.Name,
			"type":        c.Type,
			"nullable":    c.Nullable,
			"primary_key": c.PrimaryKey,
		}
	}
	return cmdCtx.Renderer.Records(inspectColumns, rows)
}

// liveColumns reads the columns of table. A table without columns does
// not exist.
func liveColumns(ctx context.Context, db *sqldb.DB, table string) ([]core.TableColumn, error) {
	var cols []core.TableColumn
	err := db.Connection(ctx, func(ctx context.Context) error {
		tx, err := db.Tx(ctx)
		if err != nil {
			return err
		}
		cols, err = tx.TableColumns(ctx, table)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %q not found", table)
	}
	return cols, nil
}
