package query

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/schema"
)

// OrderTerm is one ORDER BY item.
type OrderTerm struct {
	Column string
	Desc   bool
}

// ParseOrderBy parses "col [ASC|DESC], ..." and rejects anything else.
func ParseOrderBy(s string) ([]OrderTerm, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var terms []OrderTerm
	for _, item := range strings.Split(s, ",") {
		fields := strings.Fields(item)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, &core.ValidationError{Message: fmt.Sprintf("invalid order by term %q", strings.TrimSpace(item))}
		}
		term := OrderTerm{Column: fields[0]}
		if !schema.ValidIdentifier(term.Column) {
			return nil, &core.ValidationError{Column: term.Column, Message: "invalid order by column"}
		}
		if len(fields) == 2 {
			switch strings.ToUpper(fields[1]) {
			case "ASC":
			case "DESC":
				term.Desc = true
			default:
				return nil, &core.ValidationError{Column: term.Column, Message: fmt.Sprintf("invalid order direction %q", fields[1])}
			}
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// RenderOrderBy renders terms with quoted column names.
func RenderOrderBy(d core.Dialect, terms []OrderTerm) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = d.QuoteIdent(t.Column)
		if t.Desc {
			parts[i] += " DESC"
		}
	}
	return strings.Join(parts, ", ")
}
