package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatAuto  = "auto"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Renderer writes command results in the configured format.
type Renderer struct {
	w      io.Writer
	format string
}

// NewRenderer creates a renderer. The auto format resolves to a table when
// w is a terminal and to JSON otherwise.
func NewRenderer(w io.Writer, format string) *Renderer {
	return &Renderer{w: w, format: resolveFormat(w, format)}
}

// Format returns the resolved output format.
func (r *Renderer) Format() string {
	return r.format
}

func resolveFormat(w io.Writer, format string) string {
	if format != "" && format != FormatAuto {
		return format
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return FormatTable
	}
	return FormatJSON
}

// Records renders rows. cols fixes the column order; when empty the keys
// of the rows are used in sorted order.
func (r *Renderer) Records(cols []string, rows []core.Record) error {
	if len(cols) == 0 {
		cols = recordColumns(rows)
	}
	switch r.format {
	case FormatJSON:
		return r.json(normalizeRows(rows))
	case FormatYAML:
		return r.yaml(normalizeRows(rows))
	default:
		return r.table(cols, rows)
	}
}

// Object renders a single result. In table mode it is shown as
// field/value pairs.
func (r *Renderer) Object(fields []string, obj core.Record) error {
	switch r.format {
	case FormatJSON:
		return r.json(normalizeRecord(obj))
	case FormatYAML:
		return r.yaml(normalizeRecord(obj))
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)
	for _, f := range fields {
		t.AppendRow(table.Row{f, formatValue(obj[f])})
	}
	t.Render()
	return nil
}

func (r *Renderer) table(cols []string, rows []core.Record) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(r.w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, rec := range rows {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = formatValue(rec[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(r.w, "(%d rows)\n", len(rows))
	return nil
}

func (r *Renderer) json(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) yaml(v any) error {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func recordColumns(rows []core.Record) []string {
	seen := map[string]bool{}
	var cols []string
	for _, rec := range rows {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// normalizeRows makes rows safe for the JSON and YAML encoders: times are
// rendered as RFC 3339 text and empty results as an empty list.
func normalizeRows(rows []core.Record) []core.Record {
	out := make([]core.Record, len(rows))
	for i, rec := range rows {
		out[i] = normalizeRecord(rec)
	}
	return out
}

func normalizeRecord(rec core.Record) core.Record {
	out := make(core.Record, len(rec))
	for k, v := range rec {
		if ts, ok := v.(time.Time); ok {
			v = ts.UTC().Format(time.RFC3339Nano)
		}
		out[k] = v
	}
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%v", v)
}
