package adapter

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Rewrite replaces :name parameters in query with the dialect's positional
// placeholders and returns the names in placeholder order. Quoted strings,
// quoted identifiers, comments and :: casts are left untouched.
func Rewrite(query string, style core.PlaceholderStyle) (string, []string) {
	var b strings.Builder
	b.Grow(len(query))
	var names []string

	for i := 0; i < len(query); {
		c := query[i]
		switch {
		case c == '\'' || c == '"':
			j := i + 1
			for j < len(query) {
				if query[j] == c {
					if j+1 < len(query) && query[j+1] == c {
						j += 2
						continue
					}
					j++
					break
				}
				j++
			}
			b.WriteString(query[i:j])
			i = j
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			j := strings.IndexByte(query[i:], '\n')
			if j < 0 {
				j = len(query) - i
			}
			b.WriteString(query[i : i+j])
			i += j
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			j := strings.Index(query[i+2:], "*/")
			end := len(query)
			if j >= 0 {
				end = i + 2 + j + 2
			}
			b.WriteString(query[i:end])
			i = end
		case c == ':' && i+1 < len(query) && query[i+1] == ':':
			b.WriteString("::")
			i += 2
		case c == ':' && i+1 < len(query) && isNameStart(query[i+1]):
			j := i + 1
			for j < len(query) && (isNameStart(query[j]) || (query[j] >= '0' && query[j] <= '9')) {
				j++
			}
			names = append(names, query[i+1:j])
			b.WriteString(core.Placeholder(style, len(names)))
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), names
}

// Bind rewrites query for d and resolves its arguments from params.
func Bind(d core.Dialect, query string, params map[string]any) (string, []any, error) {
	text, names := Rewrite(query, d.PlaceholderStyle())
	args, err := bindArgs(d, names, params)
	if err != nil {
		return "", nil, err
	}
	return text, args, nil
}

func bindArgs(d core.Dialect, names []string, params map[string]any) ([]any, error) {
	args := make([]any, len(names))
	for i, name := range names {
		v, ok := params[name]
		if !ok {
			return nil, &core.ValidationError{Message: fmt.Sprintf("missing value for parameter :%s", name)}
		}
		args[i] = d.BindValue(v)
	}
	return args, nil
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
