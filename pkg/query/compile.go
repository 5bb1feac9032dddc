package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/schema"
)

// Spec is the input of Compile. Where and Expr may be combined; their
// predicates are joined with AND. Without Expr, every Condition is ANDed
// in name order.
type Spec struct {
	Where      core.Record
	Expr       string
	Conditions map[string]Condition
	Params     map[string]any
}

// Predicate is a compiled WHERE body and its bound parameters.
type Predicate struct {
	SQL    string
	Params map[string]any
}

// Empty reports whether the predicate matches every row.
func (p Predicate) Empty() bool { return p.SQL == "" }

// And joins two predicates. Parameter names must not collide.
func (p Predicate) And(other Predicate) Predicate {
	switch {
	case p.Empty():
		return other
	case other.Empty():
		return p
	}
	params := make(map[string]any, len(p.Params)+len(other.Params))
	for k, v := range p.Params {
		params[k] = v
	}
	for k, v := range other.Params {
		params[k] = v
	}
	return Predicate{SQL: "(" + p.SQL + ") AND (" + other.SQL + ")", Params: params}
}

// Compile builds a predicate from spec. All validation happens here:
// unknown operators, value shapes that do not fit the operator, unknown
// condition references and missing bindings are reported as
// *core.ValidationError before any statement is executed.
func Compile(d core.Dialect, spec Spec) (Predicate, error) {
	c := &compiler{d: d, params: map[string]any{}, bindings: spec.Params, leaves: map[string]string{}}

	var parts []string
	if len(spec.Where) > 0 {
		sql, err := c.flat(spec.Where)
		if err != nil {
			return Predicate{}, err
		}
		parts = append(parts, sql)
	}

	switch {
	case strings.TrimSpace(spec.Expr) != "":
		tree, err := Parse(spec.Expr)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				return Predicate{}, &core.ValidationError{Message: "invalid filter expression", Err: pe}
			}
			return Predicate{}, err
		}
		for _, ref := range Refs(tree) {
			if _, ok := spec.Conditions[ref.Name]; !ok {
				return Predicate{}, &core.ValidationError{Message: fmt.Sprintf("unknown condition $%s at position %d", ref.Name, ref.Pos)}
			}
		}
		sql, err := c.render(tree, spec.Conditions)
		if err != nil {
			return Predicate{}, err
		}
		parts = append(parts, sql)
	case len(spec.Conditions) > 0:
		names := make([]string, 0, len(spec.Conditions))
		for name := range spec.Conditions {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sql, err := c.leaf(name, spec.Conditions[name])
			if err != nil {
				return Predicate{}, err
			}
			parts = append(parts, sql)
		}
	}

	if len(parts) == 0 {
		return Predicate{Params: map[string]any{}}, nil
	}
	if len(parts) == 1 {
		return Predicate{SQL: parts[0], Params: c.params}, nil
	}
	return Predicate{SQL: strings.Join(parts, " AND "), Params: c.params}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(d core.Dialect, spec Spec) Predicate {
	p, err := Compile(d, spec)
	if err != nil {
		panic(err)
	}
	return p
}

type compiler struct {
	d        core.Dialect
	params   map[string]any
	bindings map[string]any
	leaves   map[string]string
}

func (c *compiler) flat(where core.Record) (string, error) {
	parts := make([]string, 0, len(where))
	for _, col := range where.Keys() {
		if !schema.ValidIdentifier(col) {
			return "", &core.ValidationError{Column: col, Message: "invalid column name"}
		}
		v := where[col]
		if v == nil {
			parts = append(parts, c.d.QuoteIdent(col)+" IS NULL")
			continue
		}
		name := c.bind("w_"+col, v)
		parts = append(parts, c.d.QuoteIdent(col)+" = :"+name)
	}
	return strings.Join(parts, " AND "), nil
}

func (c *compiler) render(n Node, conds map[string]Condition) (string, error) {
	switch x := n.(type) {
	case *Ref:
		if sql, ok := c.leaves[x.Name]; ok {
			return sql, nil
		}
		sql, err := c.leaf(x.Name, conds[x.Name])
		if err != nil {
			return "", err
		}
		c.leaves[x.Name] = sql
		return sql, nil
	case *Not:
		inner, err := c.render(x.X, conds)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case *Binary:
		left, err := c.render(x.Left, conds)
		if err != nil {
			return "", err
		}
		right, err := c.render(x.Right, conds)
		if err != nil {
			return "", err
		}
		return "(" + left + " " + x.Op.String() + " " + right + ")", nil
	default:
		return "", fmt.Errorf("unexpected node %T", n)
	}
}

// bind registers v under base, or under base plus a numeric suffix when
// another leaf already took that name, and returns the name used.
func (c *compiler) bind(base string, v any) string {
	name := base
	for i := 2; ; i++ {
		if _, taken := c.params[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s__%d", base, i)
	}
	c.params[name] = v
	return name
}

// leaf compiles one condition. Parameter names derive from the condition
// name; a condition referenced twice binds once.
func (c *compiler) leaf(name string, cond Condition) (string, error) {
	if !schema.ValidIdentifier(name) {
		return "", &core.ValidationError{Message: fmt.Sprintf("invalid condition name %q", name)}
	}
	if !schema.ValidIdentifier(cond.Column) {
		return "", &core.ValidationError{Column: cond.Column, Message: "invalid column name"}
	}
	op, err := ParseOperator(string(cond.Op))
	if err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			ve.Column = cond.Column
		}
		return "", err
	}

	col := c.d.QuoteIdent(cond.Column)
	key := "c_" + name

	switch op {
	case OpIsNull, OpIsNotNull:
		return col + " " + string(op), nil

	case OpIn, OpNotIn:
		value, err := c.resolve(cond.Column, cond.Value)
		if err != nil {
			return "", err
		}
		list, ok := toList(value)
		if !ok {
			return "", &core.ValidationError{Column: cond.Column, Message: fmt.Sprintf("%s requires a list value, got %T", op, value)}
		}
		if len(list) == 0 {
			if op == OpIn {
				return "1=0", nil
			}
			return "1=1", nil
		}
		phs := make([]string, len(list))
		for i, v := range list {
			v, err := c.resolve(cond.Column, v)
			if err != nil {
				return "", err
			}
			phs[i] = ":" + c.bind(fmt.Sprintf("%s_%d", key, i), v)
		}
		return fmt.Sprintf("%s %s (%s)", col, op, strings.Join(phs, ", ")), nil

	case OpBetween:
		value, err := c.resolve(cond.Column, cond.Value)
		if err != nil {
			return "", err
		}
		list, ok := toList(value)
		if !ok || len(list) != 2 {
			return "", &core.ValidationError{Column: cond.Column, Message: "BETWEEN requires a two-element list value"}
		}
		low, err := c.resolve(cond.Column, list[0])
		if err != nil {
			return "", err
		}
		high, err := c.resolve(cond.Column, list[1])
		if err != nil {
			return "", err
		}
		lowName := c.bind(key+"_low", low)
		highName := c.bind(key+"_high", high)
		return fmt.Sprintf("%s BETWEEN :%s AND :%s", col, lowName, highName), nil

	default:
		value, err := c.resolve(cond.Column, cond.Value)
		if err != nil {
			return "", err
		}
		if _, isList := toList(value); isList {
			return "", &core.ValidationError{Column: cond.Column, Message: fmt.Sprintf("%s requires a scalar value", op)}
		}
		ph := ":" + c.bind(key, value)
		switch op {
		case OpILike:
			return c.d.ILike(col, ph, false), nil
		case OpNotILike:
			return c.d.ILike(col, ph, true), nil
		default:
			return fmt.Sprintf("%s %s %s", col, op, ph), nil
		}
	}
}

// resolve replaces a ":name" reference by its binding.
func (c *compiler) resolve(column string, v any) (any, error) {
	name, ok := paramRef(v)
	if !ok {
		return v, nil
	}
	bound, ok := c.bindings[name]
	if !ok {
		return nil, &core.ValidationError{Column: column, Message: fmt.Sprintf("missing binding for :%s", name)}
	}
	return bound, nil
}
