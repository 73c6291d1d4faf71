package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

const exampleConfig = `registry: https://registry.example.com
push:
  - group: com.example
    artifact: orders
    path: schemas/orders.avsc
    type: avro
    name: Orders
    labels: [team-a]
    properties:
      owner: team-a
pull:
  - group: g1
    artifact: a1
    path: schemas/a1.avsc
  - group: g2
    artifact: a2
    path: schemas/a2.json
    version: "3"
`

func TestLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	if err := os.WriteFile(path, []byte(exampleConfig), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != path {
		t.Errorf("path = %q, want %q", cfg.Path, path)
	}
	if cfg.Registry != "https://registry.example.com" {
		t.Errorf("registry = %q", cfg.Registry)
	}
	if len(cfg.Push) != 1 || len(cfg.Pull) != 2 {
		t.Fatalf("push = %d, pull = %d", len(cfg.Push), len(cfg.Pull))
	}
	if cfg.Push[0].Type != registry.Avro {
		t.Errorf("type = %q, want canonical AVRO", cfg.Push[0].Type)
	}
	if cfg.Pull[0].Version != "" {
		t.Errorf("unpinned version = %q", cfg.Pull[0].Version)
	}
	if cfg.Pull[1].Version != "3" {
		t.Errorf("pinned version = %q", cfg.Pull[1].Version)
	}
}

func TestLoadEmptyConfig(t *testing.T) {
	cfg, err := Parse([]byte("push: []\npull: []\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Push) != 0 || len(cfg.Pull) != 0 {
		t.Errorf("expected empty lists, got %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/apicurio-sync.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !apierrors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist cause, got %v", err)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("push: [\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !apierrors.Is(err, apierrors.ErrInvalidInput) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestDuplicatePathsLastWins(t *testing.T) {
	cfg, err := Parse([]byte(`pull:
  - {group: g, artifact: first, path: a.avsc}
  - {group: g, artifact: other, path: b.avsc}
  - {group: g, artifact: second, path: a.avsc, version: "2"}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Pull) != 2 {
		t.Fatalf("pull = %d, want 2", len(cfg.Pull))
	}
	if cfg.Pull[0].Path != "b.avsc" {
		t.Errorf("order not kept: %+v", cfg.Pull)
	}
	if cfg.Pull[1].Artifact != "second" || cfg.Pull[1].Version != "2" {
		t.Errorf("last spec should win: %+v", cfg.Pull[1])
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing group", Config{Pull: []PullSpec{{Artifact: "a", Path: "p"}}}, "'group' is required"},
		{"missing artifact", Config{Push: []PushSpec{{Group: "g", Path: "p"}}}, "'artifact' is required"},
		{"missing path", Config{Pull: []PullSpec{{Group: "g", Artifact: "a"}}}, "'path' is required"},
		{"absolute path", Config{Pull: []PullSpec{{Group: "g", Artifact: "a", Path: "/etc/passwd"}}}, "must be relative"},
		{"escaping path", Config{Push: []PushSpec{{Group: "g", Artifact: "a", Path: "../x"}}}, "escapes"},
		{"unknown type", Config{Push: []PushSpec{{Group: "g", Artifact: "a", Path: "p", Type: "YAML"}}}, "unknown artifact type"},
		{"bad registry", Config{Registry: "registry.local"}, "not an absolute http(s) URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&tt.cfg)
			if !containsSubstring(errs, tt.want) {
				t.Errorf("expected %q, got %v", tt.want, errs)
			}
		})
	}
}

func TestWriteFileRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := WriteFile(path, []byte("pull: []\n"), false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFile(path, []byte("push: []\n"), false); err == nil {
		t.Fatal("expected error for existing file")
	}
	if err := WriteFile(path, []byte("push: []\n"), true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "push: []\n" {
		t.Errorf("content = %q", data)
	}
}

func containsSubstring(errs []string, sub string) bool {
	for _, e := range errs {
		if strings.Contains(e, sub) {
			return true
		}
	}
	return false
}
