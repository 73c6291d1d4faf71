// Package regctx manages the context file: named registry connections and
// their stored credentials, plus the rules selecting which one a run uses.
package regctx

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
)

// File is the on-disk context file.
type File struct {
	CurrentContext string           `json:"current_context,omitempty"`
	Contexts       map[string]Entry `json:"contexts"`
}

// Entry is one named registry connection.
type Entry struct {
	URL  string `json:"url"`
	Auth Auth   `json:"auth"`
}

// DefaultPath returns <user config dir>/apicurio-sync/context.json.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "apicurio-sync", "context.json")
}

// Load reads a context file. Comments and trailing commas are accepted.
// A missing file is an IOError wrapping fs.ErrNotExist.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apierrors.WrapIO("reading context file", path, err)
	}

	var f File
	if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
		return nil, apierrors.WrapParse("JSON", path, err)
	}
	if f.Contexts == nil {
		f.Contexts = make(map[string]Entry)
	}
	for name, e := range f.Contexts {
		if err := e.Auth.validate(); err != nil {
			return nil, &apierrors.ParseError{Format: "JSON", File: path, Message: fmt.Sprintf("context %q: %v", name, err)}
		}
	}
	return &f, nil
}

// Save writes the context file with owner-only permissions, creating the
// parent directory.
func Save(path string, f *File) error {
	return write(path, f, true)
}

// WriteEmpty creates an empty context file. It fails if one exists.
func WriteEmpty(path string) error {
	return write(path, &File{Contexts: make(map[string]Entry)}, false)
}

func write(path string, f *File, replace bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return apierrors.WrapIO("creating context directory", filepath.Dir(path), err)
	}
	if f.Contexts == nil {
		f.Contexts = make(map[string]Entry)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling context file: %w", err)
	}
	data = append(data, '\n')

	if !replace {
		out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err != nil {
			return apierrors.WrapIO("creating context file", path, err)
		}
		if _, err := out.Write(data); err != nil {
			_ = out.Close()
			return apierrors.WrapIO("writing context file", path, err)
		}
		return apierrors.WrapIO("closing context file", path, out.Close())
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return apierrors.WrapIO("writing context file", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return apierrors.WrapIO("renaming context file to", path, err)
	}
	return nil
}

// Names returns the context names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Contexts))
	for name := range f.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set creates or updates a context. An empty rawURL keeps the existing URL
// and is an error for a new context. Credentials of an existing context are
// kept.
func (f *File) Set(name, rawURL string, current bool) error {
	if name == "" {
		return fmt.Errorf("context name is required: %w", apierrors.ErrInvalidInput)
	}
	if f.Contexts == nil {
		f.Contexts = make(map[string]Entry)
	}
	entry, exists := f.Contexts[name]
	switch {
	case rawURL != "":
		if err := validateURL(rawURL); err != nil {
			return err
		}
		entry.URL = rawURL
	case !exists:
		return fmt.Errorf("context %q does not exist; a registry URL is required: %w", name, apierrors.ErrInvalidInput)
	}
	f.Contexts[name] = entry
	if current {
		f.CurrentContext = name
	}
	return nil
}

// SetAuth replaces the credentials of an existing context.
func (f *File) SetAuth(name string, auth Auth) error {
	entry, ok := f.Contexts[name]
	if !ok {
		return fmt.Errorf("context %q does not exist: %w", name, apierrors.ErrNotConfigured)
	}
	if err := auth.validate(); err != nil {
		return err
	}
	entry.Auth = auth
	f.Contexts[name] = entry
	return nil
}

// Redacted returns a copy with secrets masked.
func (f *File) Redacted() *File {
	out := &File{CurrentContext: f.CurrentContext, Contexts: make(map[string]Entry, len(f.Contexts))}
	for name, e := range f.Contexts {
		e.Auth = e.Auth.Redacted()
		out.Contexts[name] = e
	}
	return out
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("registry URL %q must be an absolute http(s) URL: %w", raw, apierrors.ErrInvalidInput)
	}
	return nil
}
