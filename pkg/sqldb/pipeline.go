package sqldb

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/codec"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/crypt"
)

// timestampLayouts are tried in order when a timestamp column comes back as
// text. The first is what the embedded backend stores.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// encode turns a record of native values into its stored form. JSON
// columns are encoded first, then encrypted columns are encrypted, so an
// encrypted JSON column stores the ciphertext of the JSON text.
func (t *Table) encode(rec core.Record) (core.Record, error) {
	out := make(core.Record, len(rec))
	for name, v := range rec {
		col, ok := t.schema.Column(name)
		if !ok {
			return nil, &core.ValidationError{Table: t.name, Column: name, Message: "unknown column"}
		}
		if v == nil {
			out[name] = nil
			continue
		}

		if col.JSONEncoded {
			text, err := codec.Encode(v)
			if err != nil {
				return nil, &core.ValidationError{Table: t.name, Column: name, Message: "value cannot be encoded", Err: err}
			}
			v = text
		}

		if col.Encrypted {
			plain, ok := v.(string)
			if !ok {
				return nil, &core.ValidationError{Table: t.name, Column: name, Message: fmt.Sprintf("encrypted column requires a string value, got %T", v)}
			}
			if t.db.enc == nil {
				return nil, &core.EncryptionError{Table: t.name, Column: name, Err: core.ErrKeyNotConfigured}
			}
			sealed, err := t.db.enc.EncryptField(plain)
			if err != nil {
				return nil, &core.EncryptionError{Table: t.name, Column: name, Err: err}
			}
			v = sealed
		}

		out[name] = v
	}
	return out, nil
}

// decode turns a stored row into native values: decrypt, then decode JSON,
// then normalize the driver's representation of the declared type. Columns
// the schema does not declare are returned as stored.
func (t *Table) decode(row core.Record) (core.Record, error) {
	for name, v := range row {
		col, ok := t.schema.Column(name)
		if !ok || v == nil {
			continue
		}
		if b, isBytes := v.([]byte); isBytes {
			v = string(b)
		}

		if col.Encrypted {
			if s, isText := v.(string); isText && crypt.IsEncrypted(s) {
				if t.db.enc == nil {
					return nil, &core.EncryptionError{Table: t.name, Column: name, Err: core.ErrKeyNotConfigured}
				}
				plain, err := t.db.enc.DecryptField(s)
				if err != nil {
					return nil, &core.EncryptionError{Table: t.name, Column: name, Err: err}
				}
				v = plain
			}
		}

		if col.JSONEncoded {
			s, isText := v.(string)
			if !isText {
				return nil, fmt.Errorf("failed to decode %s.%s: stored value is %T, not text", t.name, name, v)
			}
			native, err := codec.Decode(s)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s.%s: %w", t.name, name, err)
			}
			row[name] = native
			continue
		}

		norm, err := normalize(col.Type, v)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s.%s: %w", t.name, name, err)
		}
		row[name] = norm
	}
	return row, nil
}

func (t *Table) decodeAll(rows []core.Record) ([]core.Record, error) {
	for i, row := range rows {
		dec, err := t.decode(row)
		if err != nil {
			return nil, err
		}
		rows[i] = dec
	}
	return rows, nil
}

// normalize maps the value a driver returned onto the Go type of the
// declared column type: time.Time in UTC, int64 or bool.
func normalize(typ core.ColumnType, v any) (any, error) {
	switch typ {
	case core.TypeTimestamp:
		switch x := v.(type) {
		case time.Time:
			return x.UTC(), nil
		case string:
			for _, layout := range timestampLayouts {
				if ts, err := time.Parse(layout, x); err == nil {
					return ts.UTC(), nil
				}
			}
			return nil, fmt.Errorf("cannot parse timestamp %q", x)
		}

	case core.TypeInteger:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case int16:
			return int64(x), nil
		case int8:
			return int64(x), nil
		case uint32:
			return int64(x), nil
		case uint64:
			if x > math.MaxInt64 {
				return nil, fmt.Errorf("integer %d overflows int64", x)
			}
			return int64(x), nil
		case float64:
			if x == math.Trunc(x) {
				return int64(x), nil
			}
		case string:
			return strconv.ParseInt(x, 10, 64)
		}

	case core.TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case int:
			return x != 0, nil
		case int32:
			return x != 0, nil
		case string:
			return strconv.ParseBool(strings.TrimSpace(x))
		}
	}
	return v, nil
}
