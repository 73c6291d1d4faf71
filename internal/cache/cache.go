// Package cache keeps artifact content on disk keyed by registry and global
// ID.
//
// A global ID names one immutable artifact version within one registry, so
// cached content never goes stale. Content is stored by BLAKE3 digest and
// re-verified on read; a per-registry, per-ID index file points at the digest.
package cache

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// Cache is a directory of artifact content.
type Cache struct {
	dir string
}

// New opens a cache at dir, creating it if needed.
func New(dir string) (*Cache, error) {
	for _, sub := range []string{"objects", "ids"} {
		p := filepath.Join(dir, sub)
		if err := os.MkdirAll(p, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory %s: %w", p, err)
		}
	}
	return &Cache{dir: dir}, nil
}

// DefaultDir returns $XDG_CACHE_HOME/apicurio-sync, falling back to
// ~/.cache/apicurio-sync.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "apicurio-sync")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return filepath.Join(os.TempDir(), "apicurio-sync-cache")
		}
		return filepath.Join("/tmp", "apicurio-sync-cache")
	}
	return filepath.Join(home, ".cache", "apicurio-sync")
}

// Digest returns the hex BLAKE3-256 digest of content.
func Digest(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Get returns the content cached for globalID on the registry at
// registryURL. A corrupt entry is removed and reported as a miss.
func (c *Cache) Get(registryURL string, globalID int64) ([]byte, bool, error) {
	idPath := c.idPath(registryURL, globalID)
	ref, err := os.ReadFile(idPath)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache index %d: %w", globalID, err)
	}
	digest := strings.TrimSpace(string(ref))

	data, err := os.ReadFile(c.objectPath(digest))
	if os.IsNotExist(err) {
		_ = os.Remove(idPath)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s: %w", digest, err)
	}

	if Digest(data) != digest {
		_ = os.Remove(c.objectPath(digest))
		_ = os.Remove(idPath)
		return nil, false, nil
	}
	return data, true, nil
}

// Put stores content for globalID on the registry at registryURL. Existing
// objects are not rewritten.
func (c *Cache) Put(registryURL string, globalID int64, content []byte) error {
	digest := Digest(content)
	obj := c.objectPath(digest)
	if _, err := os.Stat(obj); err != nil {
		if err := writeAtomic(obj, content); err != nil {
			return fmt.Errorf("caching global id %d: %w", globalID, err)
		}
	}
	if err := writeAtomic(c.idPath(registryURL, globalID), []byte(digest+"\n")); err != nil {
		return fmt.Errorf("indexing global id %d: %w", globalID, err)
	}
	return nil
}

// Has reports whether globalID on the registry at registryURL has an index
// entry.
func (c *Cache) Has(registryURL string, globalID int64) bool {
	_, err := os.Stat(c.idPath(registryURL, globalID))
	return err == nil
}

// Size returns the total size of the cache in bytes.
func (c *Cache) Size() (int64, error) {
	var total int64
	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// Path returns the cache directory.
func (c *Cache) Path() string {
	return c.dir
}

func (c *Cache) objectPath(digest string) string {
	if len(digest) < 2 {
		return filepath.Join(c.dir, "objects", digest)
	}
	return filepath.Join(c.dir, "objects", digest[:2], digest)
}

// idPath places the index under a directory named by the registry URL's
// digest. Global IDs are only unique within one registry.
func (c *Cache) idPath(registryURL string, globalID int64) string {
	ns := Digest([]byte(strings.TrimRight(registryURL, "/")))[:16]
	return filepath.Join(c.dir, "ids", ns, strconv.FormatInt(globalID, 10))
}

func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	success = true
	return nil
}
