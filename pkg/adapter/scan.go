package adapter

import (
	"database/sql"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// ScanRecords reads up to limit rows (0 means all) into records. Byte
// slices are converted to strings.
func ScanRecords(rows *sql.Rows, limit int) ([]core.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []core.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(core.Record, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[col] = v
		}
		out = append(out, rec)

		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
