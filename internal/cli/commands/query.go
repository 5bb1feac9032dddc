package commands

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/query"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Columns []string
	Where   []string
	Conds   []string
	Params  []string
	Expr    string
	OrderBy string
	Limit   int
	Offset  int
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Select rows from a table",
		Long: `Select rows from a table with equality filters or named conditions
combined by a boolean expression.

Conditions are given as name=column,op,value and referenced in --expr as
$name. Values may reference --param bindings as :name. Rows are shown as
stored: encrypted columns are not decrypted.`,
		Example: `  # Equality filters
  leapdb query accounts --where tenant_id=acme --where status=active

  # Named conditions and an expression
  leapdb query users \
    --cond adult=age,>=,18 --cond name=name,ILIKE,:pattern \
    --param pattern=%an% --expr '$adult AND $name'

  # Ordering and paging, as YAML
  leapdb query accounts --order-by 'name, created_at DESC' --limit 10 -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Columns, "columns", "c", nil, "Columns to return (default: all)")
	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "Equality filter column=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Conds, "cond", nil, "Named condition name=column,op,value (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Binding name=value for :name references (repeatable)")
	cmd.Flags().StringVarP(&opts.Expr, "expr", "e", "", "Boolean expression over $name conditions")
	cmd.Flags().StringVar(&opts.OrderBy, "order-by", "", "Ordering, e.g. 'name, created_at DESC'")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum number of rows (0 for no limit)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Rows to skip")

	return cmd
}

func runQuery(cmd *cobra.Command, table string, opts *QueryOptions) error {
	if opts.Limit < 0 || opts.Offset < 0 {
		return fmt.Errorf("limit and offset must not be negative")
	}
	where, err := parseAssignments("where", opts.Where)
	if err != nil {
		return err
	}
	conds, params, err := parseConditions(opts.Conds, opts.Params)
	if err != nil {
		return err
	}
	order, err := query.ParseOrderBy(opts.OrderBy)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	db := cmdCtx.DB
	pred, err := query.Compile(db.Dialect(), query.Spec{
		Where:      where,
		Expr:       opts.Expr,
		Conditions: conds,
		Params:     params,
	})
	if err != nil {
		return err
	}

	var (
		cols []string
		rows []core.Record
	)
	err = db.Connection(cmd.Context(), func(ctx context.Context) error {
		live, err := liveColumns(ctx, db, table)
		if err != nil {
			return err
		}
		cols = opts.Columns
		if len(cols) == 0 {
			for _, c := range live {
				cols = append(cols, c.Name)
			}
		}

		tx, err := db.Tx(ctx)
		if err != nil {
			return err
		}
		rows, err = tx.Select(ctx, table, adapter.SelectOptions{
			Columns:   opts.Columns,
			Predicate: pred,
			OrderBy:   order,
			Limit:     opts.Limit,
			Offset:    opts.Offset,
		})
		return err
	})
	if err != nil {
		return err
	}

	cmdCtx.Logger.Debug("query finished", "table", table, "rows", len(rows))
	return cmdCtx.Renderer.Records(cols, rows)
}
