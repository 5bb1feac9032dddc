// Package query compiles filters into SQL predicates.
//
// Two filter shapes are accepted: a flat column->value map, treated as an
// AND of equalities, and a set of named Conditions combined by a boolean
// expression such as "($active AND NOT $deleted) OR $admin". Predicates use
// :name parameters; adapters rewrite them to the backend's placeholder style.
package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Operator is a comparison operator of a Condition.
type Operator string

// Supported operators.
const (
	OpEq        Operator = "="
	OpNe        Operator = "!="
	OpNeAlt     Operator = "<>"
	OpLt        Operator = "<"
	OpGt        Operator = ">"
	OpLe        Operator = "<="
	OpGe        Operator = ">="
	OpLike      Operator = "LIKE"
	OpILike     Operator = "ILIKE"
	OpNotLike   Operator = "NOT LIKE"
	OpNotILike  Operator = "NOT ILIKE"
	OpIn        Operator = "IN"
	OpNotIn     Operator = "NOT IN"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
	OpBetween   Operator = "BETWEEN"
)

var operators = map[Operator]bool{
	OpEq: true, OpNe: true, OpNeAlt: true, OpLt: true, OpGt: true, OpLe: true, OpGe: true,
	OpLike: true, OpILike: true, OpNotLike: true, OpNotILike: true,
	OpIn: true, OpNotIn: true, OpIsNull: true, OpIsNotNull: true, OpBetween: true,
}

var operatorAliases = map[string]Operator{
	"==": OpEq,
	"≠":  OpNe,
	"≤":  OpLe,
	"≥":  OpGe,
}

// ParseOperator normalizes s (case and inner whitespace) and checks it is
// a supported operator.
func ParseOperator(s string) (Operator, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if op, ok := operatorAliases[norm]; ok {
		return op, nil
	}
	op := Operator(norm)
	if !operators[op] {
		return "", &core.ValidationError{Message: fmt.Sprintf("unknown operator %q", s)}
	}
	return op, nil
}

// Condition is a single {column, operator, value} test. Value may be a
// literal, a list (IN, NOT IN, BETWEEN), or a ":name" reference resolved
// against the bindings given at compile time.
type Condition struct {
	Column string
	Op     Operator
	Value  any
}

// Param returns the reference form of a named binding, for use as a
// Condition value.
func Param(name string) string {
	return ":" + name
}

// paramRef extracts the binding name from a ":name" value.
func paramRef(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || len(s) < 2 || s[0] != ':' {
		return "", false
	}
	name := s[1:]
	if !isIdentStart(name[0]) {
		return "", false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentStart(name[i]) && !isDigit(name[i]) {
			return "", false
		}
	}
	return name, true
}

// toList converts any slice or array value to []any.
func toList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte is a scalar blob, not a list.
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
