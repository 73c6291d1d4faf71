package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
)

// PathFor derives the lockfile path for a configuration file: same directory
// and stem, ".lock" extension. When that would name the configuration file
// itself or leave an empty stem, ".lock" is appended instead.
func PathFor(configPath string) string {
	ext := filepath.Ext(configPath)
	if ext == ".lock" || ext == filepath.Base(configPath) {
		return configPath + ".lock"
	}
	return strings.TrimSuffix(configPath, ext) + ".lock"
}

// Load reads and validates a lockfile. A missing file is an IOError
// wrapping fs.ErrNotExist; malformed content is a ParseError.
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apierrors.WrapIO("reading lockfile", path, err)
	}

	lf := New()
	if err := json.Unmarshal(data, lf); err != nil {
		return nil, apierrors.WrapParse("JSON", path, err)
	}
	if lf.Push == nil {
		lf.Push = make(map[string]PushEntry)
	}
	if lf.Pull == nil {
		lf.Pull = make(map[string]PullEntry)
	}

	if errs := Validate(lf); len(errs) > 0 {
		return nil, &apierrors.ParseError{Format: "JSON", File: path, Err: &ValidationError{Errors: errs}}
	}

	return lf, nil
}

// LoadOrEmpty is Load, except a missing file yields an empty lockfile.
func LoadOrEmpty(path string) (*Lockfile, error) {
	lf, err := Load(path)
	if err != nil && apierrors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	return lf, err
}

// Save writes a lockfile atomically using a temp file and rename.
func Save(path string, lf *Lockfile) error {
	if lf == nil {
		lf = New()
	}
	data, err := json.MarshalIndent(lf.Clone(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling lockfile: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return apierrors.WrapIO("writing temp lockfile", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return apierrors.WrapIO("renaming temp lockfile to", path, err)
	}

	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lockfile validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Lockfile for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(lf *Lockfile) []string {
	var errs []string

	for _, path := range lf.PushPaths() {
		e := lf.Push[path]
		if e.Group == "" {
			errs = append(errs, fmt.Sprintf("push '%s': 'group' is required", path))
		}
		if e.Artifact == "" {
			errs = append(errs, fmt.Sprintf("push '%s': 'artifact' is required", path))
		}
	}

	for _, path := range lf.PullPaths() {
		e := lf.Pull[path]
		if e.Group == "" {
			errs = append(errs, fmt.Sprintf("pull '%s': 'group' is required", path))
		}
		if e.Artifact == "" {
			errs = append(errs, fmt.Sprintf("pull '%s': 'artifact' is required", path))
		}
		if e.Version == "" {
			errs = append(errs, fmt.Sprintf("pull '%s': 'version' is required", path))
		}
	}

	return errs
}
