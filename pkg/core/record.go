package core

import "sort"

// Record maps column names to values. It is produced by reads and consumed
// by writes; it is never persisted as a type.
type Record map[string]any

// Clone returns a shallow copy of the record. A nil record clones to nil.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// DeepClone returns a copy of the record in which nested maps and slices
// are copied too, so in-place edits of the copy never reach r.
func (r Record) DeepClone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Record:
		return x.DeepClone()
	case map[string]any:
		if x == nil {
			return x
		}
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Merge copies every entry of other into r, overwriting existing keys.
func (r Record) Merge(other Record) Record {
	for k, v := range other {
		r[k] = v
	}
	return r
}

// Keys returns the record's column names in lexical order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether the record carries a value (possibly nil) for column.
func (r Record) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// OrderedKeys returns the record's keys ordered by the given column order,
// followed by any remaining keys in lexical order.
func (r Record) OrderedKeys(order []string) []string {
	keys := make([]string, 0, len(r))
	seen := make(map[string]bool, len(r))
	for _, name := range order {
		if _, ok := r[name]; ok && !seen[name] {
			keys = append(keys, name)
			seen[name] = true
		}
	}
	for _, k := range r.Keys() {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	return keys
}
