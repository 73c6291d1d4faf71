package sandbox

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
)

func TestResolveWithinRoot(t *testing.T) {
	root := t.TempDir()

	resolved, err := Resolve(root, "schemas/a1.avsc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	realRoot, _ := filepath.EvalSymlinks(root)
	if want := filepath.Join(realRoot, "schemas/a1.avsc"); resolved != want {
		t.Errorf("got %q, want %q", resolved, want)
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	root := t.TempDir()

	for _, p := range []string{"../escape.txt", "schemas/../../escape.txt", "/etc/passwd"} {
		_, err := Resolve(root, p)
		if err == nil {
			t.Fatalf("expected error for %q", p)
		}
		if !apierrors.Is(err, apierrors.ErrInvalidInput) {
			t.Errorf("%q: unexpected error: %v", p, err)
		}
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not reliable on Windows")
	}

	root := t.TempDir()
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(root, "escape-link")); err != nil {
		t.Fatalf("creating symlink: %v", err)
	}

	_, err := Resolve(root, "escape-link/a.avsc")
	if err == nil || !strings.Contains(err.Error(), "outside the working directory") {
		t.Fatalf("expected symlink escape error, got %v", err)
	}
}

func TestResolveAllowsInternalSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not reliable on Windows")
	}

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "real"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}

	if _, err := Resolve(root, "link/a.avsc"); err != nil {
		t.Errorf("internal symlink should be allowed: %v", err)
	}
}

func TestWriteFileCreatesParents(t *testing.T) {
	root := t.TempDir()

	if err := WriteFile(root, "schemas/nested/a1.avsc", []byte("content"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "schemas", "nested", "a1.avsc"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content" {
		t.Errorf("content = %q", data)
	}

	entries, _ := os.ReadDir(filepath.Join(root, "schemas", "nested"))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestWriteFileOverwritesExisting(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.avsc")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := WriteFile(root, "a.avsc", []byte("new"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("content = %q, want new", data)
	}
}

func TestWriteFileRejectsEscape(t *testing.T) {
	if err := WriteFile(t.TempDir(), "../escape.avsc", []byte("x"), 0644); err == nil {
		t.Fatal("expected error for escape")
	}
}

func TestReadFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.avsc"), []byte("schema"), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := ReadFile(root, "a.avsc")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "schema" {
		t.Errorf("content = %q", data)
	}

	_, err = ReadFile(root, "missing.avsc")
	if !apierrors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist IO error, got %v", err)
	}
}
