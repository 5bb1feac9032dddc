package sqldb

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/schema"
)

// CreateTableSQL renders the CREATE TABLE statement for the backend.
func (t *Table) CreateTableSQL() (string, error) {
	return schema.CreateTableSQL(t.db.Dialect(), t.tableDef())
}

// SyncSchema creates the table when it does not exist, and otherwise adds
// the schema columns the live table lacks. Existing columns are only
// checked: a live type that cannot hold the declared type is a
// *core.SchemaError, and nothing is changed. Running it twice adds nothing
// the second time.
func (t *Table) SyncSchema(ctx context.Context) (SyncResult, error) {
	res := SyncResult{Table: t.name}
	err := t.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		live, err := tx.TableColumns(ctx, t.name)
		if err != nil {
			return err
		}

		if len(live) == 0 {
			ddl, err := t.CreateTableSQL()
			if err != nil {
				return err
			}
			if err := tx.ExecuteScript(ctx, ddl); err != nil {
				return fmt.Errorf("failed to create table %s: %w", t.name, err)
			}
			res.Created = true
			t.db.logger.Info("table created", "table", t.name)
			return nil
		}

		byName := make(map[string]core.TableColumn, len(live))
		for _, c := range live {
			byName[strings.ToLower(c.Name)] = c
		}

		var missing []schema.Column
		for _, col := range t.schema.Columns() {
			lc, ok := byName[strings.ToLower(col.Name)]
			if !ok {
				if err := t.checkAddable(col); err != nil {
					return err
				}
				missing = append(missing, col)
				continue
			}
			if !schema.Compatible(col.Type, lc.Type) {
				return &core.SchemaError{
					Table:   t.name,
					Column:  col.Name,
					Message: fmt.Sprintf("live type %s is incompatible with declared type %s", lc.Type, col.Type),
				}
			}
		}

		for _, col := range missing {
			stmt, err := schema.AddColumnSQL(t.db.Dialect(), t.name, col)
			if err != nil {
				return err
			}
			if err := tx.ExecuteScript(ctx, stmt); err != nil {
				return fmt.Errorf("failed to add column %s.%s: %w", t.name, col.Name, err)
			}
			res.Added = append(res.Added, col.Name)
		}
		if len(res.Added) > 0 {
			t.db.logger.Info("table synced", "table", t.name, "added", res.Added)
		}
		return nil
	})
	if err != nil {
		return SyncResult{}, err
	}
	return res, nil
}

func (t *Table) checkAddable(col schema.Column) error {
	if col.Name == t.pk {
		return &core.SchemaError{Table: t.name, Column: col.Name, Message: "primary key column is missing from the live table"}
	}
	if !col.Nullable && col.Default == nil {
		return &core.SchemaError{Table: t.name, Column: col.Name, Message: "cannot add a NOT NULL column without a default"}
	}
	return nil
}
