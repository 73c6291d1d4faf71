// Package output renders command results as tables, JSON or YAML.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format selects how results are written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --output value. The empty string means "detect".
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatTable, FormatJSON, FormatYAML, "":
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q: must be one of table, json, yaml", s)
	}
}

// Detect returns explicit when set, a table for terminals and JSON for pipes.
func Detect(explicit Format, w io.Writer) Format {
	if explicit != "" {
		return explicit
	}
	if IsTerminal(w) {
		return FormatTable
	}
	return FormatJSON
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Table is data laid out for tabular output.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Tabler is implemented by results that have a table rendering.
type Tabler interface {
	Table() Table
}

// Printer writes results in one format.
type Printer struct {
	Out    io.Writer
	Format Format
	// Color enables syntax highlighting of JSON.
	Color bool
}

// NewPrinter resolves format against out.
func NewPrinter(out io.Writer, format Format) *Printer {
	return &Printer{
		Out:    out,
		Format: Detect(format, out),
		Color:  IsTerminal(out) && os.Getenv("NO_COLOR") == "",
	}
}

// Print writes v. Values that are not Tablers fall back to JSON in table mode.
func (p *Printer) Print(v any) error {
	switch p.Format {
	case FormatYAML:
		return WriteYAML(p.Out, v)
	case FormatTable:
		if t, ok := v.(Tabler); ok {
			return WriteTable(p.Out, t.Table())
		}
	}
	if !p.Color {
		return WriteJSON(p.Out, v)
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, v); err != nil {
		return err
	}
	return Highlight(p.Out, buf.String(), "json")
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	data, err := yaml.MarshalWithOptions(v,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteTable renders t. Headers are title cased.
func WriteTable(w io.Writer, t Table) error {
	table := tablewriter.NewTable(w)

	if len(t.Headers) > 0 {
		caser := cases.Title(language.English)
		headers := make([]any, len(t.Headers))
		for i, h := range t.Headers {
			headers[i] = caser.String(strings.ReplaceAll(h, "_", " "))
		}
		table.Header(headers...)
	}

	for _, row := range t.Rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

// Highlight writes src with terminal syntax highlighting. On failure the
// source is written unchanged.
func Highlight(w io.Writer, src, lang string) error {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, src, lang, "terminal256", "monokai"); err != nil {
		_, err = io.WriteString(w, src)
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
