package sqldb

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Decode copies rec into the struct pointed to by out. Fields are matched
// by their `db` tag, or by name when untagged. Text timestamps are parsed
// as RFC 3339.
func Decode(rec core.Record, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "db",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(rec)); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

// DecodeAll decodes every record into a new T.
func DecodeAll[T any](recs []core.Record) ([]T, error) {
	out := make([]T, len(recs))
	for i, rec := range recs {
		if err := Decode(rec, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
