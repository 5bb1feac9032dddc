// Package codec converts structured column values to and from the JSON text
// stored in json-encoded columns.
//
// Plain JSON loses the type of instants and exact decimals. The codec writes
// them as single-key tagged objects so that decoding restores the native value:
//
//	time.Time        -> {"$time": "2024-05-01T10:00:00Z"}
//	decimal.Decimal  -> {"$decimal": "12.50"}
//
// Tagging applies recursively through map[string]any, core.Record and []any.
// Integral numbers decode as int64 and other numbers as float64.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/shopspring/decimal"
)

const (
	timeTag    = "$time"
	decimalTag = "$decimal"
)

// Encode renders v as JSON text, tagging instants and decimals.
func Encode(v any) (string, error) {
	b, err := json.Marshal(wrap(v))
	if err != nil {
		return "", fmt.Errorf("failed to encode value: %w", err)
	}
	return string(b), nil
}

// Decode parses JSON text produced by Encode and restores tagged values.
func Decode(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("failed to decode value: trailing data after JSON value")
	}
	return unwrap(raw)
}

func wrap(v any) any {
	switch x := v.(type) {
	case time.Time:
		return map[string]any{timeTag: x.Format(time.RFC3339Nano)}
	case *time.Time:
		if x == nil {
			return nil
		}
		return wrap(*x)
	case decimal.Decimal:
		return map[string]any{decimalTag: x.String()}
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return wrap(*x)
	case core.Record:
		return wrapMap(x)
	case map[string]any:
		return wrapMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = wrap(e)
		}
		return out
	default:
		return v
	}
}

func wrapMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = wrap(e)
	}
	return out
}

func unwrap(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		if len(x) == 1 {
			if s, ok := x[timeTag].(string); ok {
				t, err := time.Parse(time.RFC3339Nano, s)
				if err != nil {
					return nil, fmt.Errorf("failed to decode %s value %q: %w", timeTag, s, err)
				}
				return t, nil
			}
			if s, ok := x[decimalTag].(string); ok {
				d, err := decimal.NewFromString(s)
				if err != nil {
					return nil, fmt.Errorf("failed to decode %s value %q: %w", decimalTag, s, err)
				}
				return d, nil
			}
		}
		out := make(map[string]any, len(x))
		for k, e := range x {
			u, err := unwrap(e)
			if err != nil {
				return nil, err
			}
			out[k] = u
		}
		return out, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("failed to decode number %s: %w", x, err)
		}
		return f, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			u, err := unwrap(e)
			if err != nil {
				return nil, err
			}
			out[i] = u
		}
		return out, nil
	default:
		return v, nil
	}
}
