package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/query"
	"gopkg.in/yaml.v3"
)

// parseValue types a command-line value: integers, floats, booleans and
// null are converted, a [a, b] flow sequence becomes a list (for IN and
// BETWEEN), and everything else stays a string.
func parseValue(s string) any {
	switch t := strings.TrimSpace(s); {
	case t == "null":
		return nil
	case strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]"):
		var list []any
		if err := yaml.Unmarshal([]byte(t), &list); err == nil {
			return list
		}
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.ContainsAny(s, "0123456789") {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// parseAssignments parses repeated key=value flags.
func parseAssignments(flag string, items []string) (map[string]any, error) {
	out := make(map[string]any, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --%s %q (want key=value)", flag, item)
		}
		out[key] = parseValue(value)
	}
	return out, nil
}

// parseConditions turns --cond name=column,op,value flags and --param
// bindings into named conditions. Every --cond is expanded into the flat
// name_column / name_op / name_value form understood by
// query.ParseConditions; the value is optional for IS NULL tests.
func parseConditions(conds, params []string) (map[string]query.Condition, map[string]any, error) {
	args, err := parseAssignments("param", params)
	if err != nil {
		return nil, nil, err
	}
	for _, item := range conds {
		name, spec, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("invalid --cond %q (want name=column,op,value)", item)
		}
		parts := strings.SplitN(spec, ",", 3)
		if len(parts) < 2 {
			return nil, nil, fmt.Errorf("invalid --cond %q (want name=column,op,value)", item)
		}
		args[name+"_column"] = strings.TrimSpace(parts[0])
		args[name+"_op"] = strings.TrimSpace(parts[1])
		if len(parts) == 3 {
			args[name+"_value"] = parseValue(strings.TrimSpace(parts[2]))
		}
	}
	return query.ParseConditions(args)
}
