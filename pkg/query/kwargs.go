package query

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// ParseConditions extracts named conditions from loosely typed arguments,
// as received from a CLI or an HTTP query string. Two styles are accepted:
//
//	nested: {"a": {"column": "status", "op": "=", "value": "active"}}
//	flat:   {"a_column": "status", "a_op": "=", "a_value": "active"}
//
// A flat group without a column is ignored; a missing op defaults to "=".
// Entries that belong to neither style are returned unchanged in rest, to
// be used as bindings.
func ParseConditions(args map[string]any) (conds map[string]Condition, rest map[string]any, err error) {
	conds = map[string]Condition{}
	rest = map[string]any{}
	flat := map[string]map[string]any{}

	for key, v := range args {
		switch x := v.(type) {
		case Condition:
			conds[key] = x
			continue
		case map[string]any:
			c, err := conditionFromMap(key, x)
			if err != nil {
				return nil, nil, err
			}
			conds[key] = c
			continue
		}
		if name, field, ok := splitFlatKey(key); ok {
			if flat[name] == nil {
				flat[name] = map[string]any{}
			}
			flat[name][field] = v
			continue
		}
		rest[key] = v
	}

	for name, fields := range flat {
		if _, ok := fields["column"]; !ok {
			continue
		}
		c, err := conditionFromMap(name, fields)
		if err != nil {
			return nil, nil, err
		}
		conds[name] = c
	}
	return conds, rest, nil
}

func splitFlatKey(key string) (name, field string, ok bool) {
	for _, suffix := range []string{"_column", "_op", "_value"} {
		if strings.HasSuffix(key, suffix) && len(key) > len(suffix) {
			return strings.TrimSuffix(key, suffix), suffix[1:], true
		}
	}
	return "", "", false
}

func conditionFromMap(name string, m map[string]any) (Condition, error) {
	col, ok := m["column"].(string)
	if !ok || col == "" {
		return Condition{}, &core.ValidationError{Message: fmt.Sprintf("condition %q has no column", name)}
	}
	op := OpEq
	if raw, ok := m["op"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return Condition{}, &core.ValidationError{Column: col, Message: fmt.Sprintf("condition %q has a non-string operator", name)}
		}
		parsed, err := ParseOperator(s)
		if err != nil {
			return Condition{}, err
		}
		op = parsed
	}
	return Condition{Column: col, Op: op, Value: m["value"]}, nil
}
