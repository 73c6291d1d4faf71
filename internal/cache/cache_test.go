package cache

import (
	"os"
	"path/filepath"
	"testing"
)

const testRegistry = "http://registry.test"

func TestPutGet(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok, err := c.Get(testRegistry, 42); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	content := []byte(`{"type":"record","name":"A1"}`)
	if err := c.Put(testRegistry, 42, content); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !c.Has(testRegistry, 42) {
		t.Error("Has(42) = false after Put")
	}

	got, ok, err := c.Get(testRegistry, 42)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != string(content) {
		t.Errorf("content = %q", got)
	}
}

func TestEntriesAreScopedToRegistry(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Put("http://dev.test", 1, []byte("DEV")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, _ := c.Get("http://prod.test", 1); ok {
		t.Fatal("global id 1 on another registry should miss")
	}
	if err := c.Put("http://prod.test", 1, []byte("PROD")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	for url, want := range map[string]string{"http://dev.test": "DEV", "http://prod.test/": "PROD"} {
		got, ok, err := c.Get(url, 1)
		if err != nil || !ok {
			t.Fatalf("Get(%s): ok=%v err=%v", url, ok, err)
		}
		if string(got) != want {
			t.Errorf("Get(%s) = %q, want %q", url, got, want)
		}
	}
}

func TestIdenticalContentSharesObject(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)

	_ = c.Put(testRegistry, 1, []byte("same"))
	_ = c.Put(testRegistry, 2, []byte("same"))

	var objects int
	_ = filepath.Walk(filepath.Join(dir, "objects"), func(_ string, info os.FileInfo, _ error) error {
		if info != nil && !info.IsDir() {
			objects++
		}
		return nil
	})
	if objects != 1 {
		t.Errorf("objects = %d, want 1", objects)
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)

	content := []byte("original")
	if err := c.Put(testRegistry, 7, content); err != nil {
		t.Fatal(err)
	}
	digest := Digest(content)
	if err := os.WriteFile(c.objectPath(digest), []byte("tampered"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := c.Get(testRegistry, 7); ok || err != nil {
		t.Fatalf("corrupt entry: ok=%v err=%v", ok, err)
	}
	if c.Has(testRegistry, 7) {
		t.Error("corrupt entry should be evicted")
	}
}

func TestDigest(t *testing.T) {
	// BLAKE3 of the empty input.
	const empty = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if got := Digest(nil); got != empty {
		t.Errorf("Digest(nil) = %s", got)
	}
	if Digest([]byte("a")) == Digest([]byte("b")) {
		t.Error("distinct content should have distinct digests")
	}
}

func TestDefaultDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/xdg")
	if got := DefaultDir(); got != filepath.Join("/xdg", "apicurio-sync") {
		t.Errorf("DefaultDir = %q", got)
	}
}

func TestSize(t *testing.T) {
	c, _ := New(t.TempDir())
	_ = c.Put(testRegistry, 1, []byte("12345"))
	size, err := c.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size < 5 {
		t.Errorf("size = %d, want >= 5", size)
	}
}
