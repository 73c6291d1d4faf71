package lock

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

const exampleLockfile = `{
  "push": {
    "schemas/orders.avsc": {"group": "com.example", "artifact": "orders", "type": "AVRO"}
  },
  "pull": {
    "schemas/a1.avsc": {"group": "g1", "artifact": "a1", "version": "3", "global_id": 42, "artifact_type": "AVRO"}
  }
}
`

func TestPathFor(t *testing.T) {
	tests := map[string]string{
		"apicurio-sync.yaml":            "apicurio-sync.lock",
		"/work/cfg/registry.yml":        "/work/cfg/registry.lock",
		"noext":                         "noext.lock",
		"dir.d/apicurio-sync.prod.yaml": "dir.d/apicurio-sync.prod.lock",
		"registry.lock":                 "registry.lock.lock",
		"dir/.apicurio":                 "dir/.apicurio.lock",
	}
	for in, want := range tests {
		if got := PathFor(in); got != want {
			t.Errorf("PathFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPathForNeverNamesTheConfig(t *testing.T) {
	for _, in := range []string{"x.lock", "a/b.lock", ".lock", "dir/.apicurio", "apicurio-sync.yaml"} {
		if got := PathFor(in); got == in {
			t.Errorf("PathFor(%q) returned the config path", in)
		}
	}
}

func TestRetain(t *testing.T) {
	lf := New()
	lf.Pull["kept.avsc"] = PullEntry{Group: "g", Artifact: "a", Version: "1"}
	lf.Pull["removed.avsc"] = PullEntry{Group: "g", Artifact: "old", Version: "2"}
	lf.Pull["also-removed.avsc"] = PullEntry{Group: "g", Artifact: "old", Version: "3"}
	lf.Push["api.json"] = PushEntry{Group: "g", Artifact: "api"}

	pull, push := lf.Retain([]string{"kept.avsc", "not-locked.avsc"}, nil)

	if len(pull) != 2 || pull[0] != "also-removed.avsc" || pull[1] != "removed.avsc" {
		t.Errorf("pruned pull = %v", pull)
	}
	if len(push) != 1 || push[0] != "api.json" {
		t.Errorf("pruned push = %v", push)
	}
	if len(lf.Pull) != 1 {
		t.Fatalf("pull entries = %v", lf.Pull)
	}
	if _, ok := lf.Pull["kept.avsc"]; !ok {
		t.Error("kept.avsc should remain")
	}
	if len(lf.Push) != 0 {
		t.Errorf("push entries = %v", lf.Push)
	}
}

func TestLoadValidLockfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apicurio-sync.lock")
	if err := os.WriteFile(path, []byte(exampleLockfile), 0644); err != nil {
		t.Fatal(err)
	}

	lf, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := PullEntry{Group: "g1", Artifact: "a1", Version: "3", GlobalID: 42, ArtifactType: registry.Avro}
	if got := lf.Pull["schemas/a1.avsc"]; got != want {
		t.Errorf("pull entry = %+v, want %+v", got, want)
	}
	if lf.Push["schemas/orders.avsc"].Type != registry.Avro {
		t.Errorf("push entry = %+v", lf.Push["schemas/orders.avsc"])
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/apicurio-sync.lock")
	if !apierrors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	lf, err := LoadOrEmpty("/nonexistent/apicurio-sync.lock")
	if err != nil {
		t.Fatalf("LoadOrEmpty: %v", err)
	}
	if len(lf.Pull) != 0 || len(lf.Push) != 0 {
		t.Errorf("expected empty lockfile, got %+v", lf)
	}
}

func TestLoadMalformed(t *testing.T) {
	for name, content := range map[string]string{
		"syntax":        `{"pull": {`,
		"empty version": `{"pull": {"a": {"group": "g", "artifact": "a", "version": ""}}}`,
		"wrong shape":   `{"pull": []}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "x.lock")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !apierrors.Is(err, apierrors.ErrInvalidInput) {
				t.Fatalf("expected parse error, got %v", err)
			}
			if _, err := LoadOrEmpty(path); err == nil {
				t.Error("LoadOrEmpty must not hide malformed lockfiles")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apicurio-sync.lock")

	original := New()
	original.Pull["b.avsc"] = PullEntry{Group: "g", Artifact: "b", Version: "1", GlobalID: 7, ArtifactType: registry.Avro}
	original.Pull["a.json"] = PullEntry{Group: "g", Artifact: "a", Version: "2", GlobalID: 9, ArtifactType: registry.JSON}
	original.Push["c.proto"] = PushEntry{Group: "g", Artifact: "c"}

	if err := Save(path, original); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should be gone after save")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Pull) != 2 || loaded.Pull["a.json"] != original.Pull["a.json"] {
		t.Errorf("round trip mismatch: %+v", loaded.Pull)
	}

	data, _ := os.ReadFile(path)
	text := string(data)
	if !strings.HasSuffix(text, "}\n") {
		t.Error("lockfile should end with a newline")
	}
	if strings.Index(text, `"a.json"`) > strings.Index(text, `"b.avsc"`) {
		t.Error("keys should be written in sorted order")
	}
	if strings.Contains(text, `"type"`) {
		t.Error("empty push type should be omitted")
	}
}

func TestSaveIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	lf := New()
	for _, p := range []string{"z", "m", "a"} {
		lf.Pull[p] = PullEntry{Group: "g", Artifact: p, Version: "1", GlobalID: 1, ArtifactType: registry.Avro}
	}

	a, b := filepath.Join(dir, "a.lock"), filepath.Join(dir, "b.lock")
	if err := Save(a, lf); err != nil {
		t.Fatal(err)
	}
	if err := Save(b, lf.Clone()); err != nil {
		t.Fatal(err)
	}
	da, _ := os.ReadFile(a)
	db, _ := os.ReadFile(b)
	if string(da) != string(db) {
		t.Errorf("saves differ:\n%s\n%s", da, db)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	lf := New()
	lf.Pull["a"] = PullEntry{Group: "g", Artifact: "a", Version: "1"}
	c := lf.Clone()
	delete(c.Pull, "a")
	if _, ok := lf.Pull["a"]; !ok {
		t.Error("clone shares map with original")
	}

	var nilLock *Lockfile
	if got := nilLock.Clone(); got.Pull == nil || got.Push == nil {
		t.Error("clone of nil should be an empty lockfile")
	}
}
