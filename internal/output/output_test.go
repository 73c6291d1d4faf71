package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Path    string `json:"path" yaml:"path"`
	Version string `json:"version" yaml:"version"`
}

type rows []row

func (r rows) Table() Table {
	t := Table{Headers: []string{"path", "global_id"}}
	for _, x := range r {
		t.Rows = append(t.Rows, []string{x.Path, x.Version})
	}
	return t
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": "", "JSON": FormatJSON, " yaml ": FormatYAML, "table": FormatTable} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestDetectNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, FormatJSON, Detect("", &buf))
	assert.Equal(t, FormatYAML, Detect(FormatYAML, &buf))
	assert.False(t, IsTerminal(&buf))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "")
	require.NoError(t, p.Print(rows{{Path: "a.avsc", Version: "3"}}))
	assert.Equal(t, "[\n  {\n    \"path\": \"a.avsc\",\n    \"version\": \"3\"\n  }\n]\n", buf.String())
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatYAML)
	require.NoError(t, p.Print(rows{{Path: "a.avsc", Version: "3"}}))
	assert.Equal(t, "- path: a.avsc\n  version: \"3\"\n", buf.String())
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable)
	require.NoError(t, p.Print(rows{{Path: "a.avsc", Version: "3"}}))

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "GLOBAL ID")
	assert.Contains(t, out, "a.avsc")
}

func TestPrintTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable)
	require.NoError(t, p.Print(map[string]int{"n": 1}))
	assert.Equal(t, "{\n  \"n\": 1\n}\n", buf.String())
}

func TestHighlight(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Highlight(&buf, `{"a": 1}`, "json"))
	assert.Contains(t, buf.String(), "\x1b[")
}
