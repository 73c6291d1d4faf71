package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

// Load reads, normalizes and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apierrors.WrapIO("reading config", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		var pe *apierrors.ParseError
		if apierrors.As(err, &pe) {
			pe.File = path
		}
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes, normalizes and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apierrors.WrapParse("YAML", "", err)
	}

	cfg.Normalize()
	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, &apierrors.ParseError{Format: "YAML", Err: &ValidationError{Errors: errs}}
	}
	return &cfg, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness and canonicalizes
// artifact type names. It returns the validation messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Registry != "" {
		u, err := url.Parse(cfg.Registry)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("registry: %q is not an absolute http(s) URL", cfg.Registry))
		}
	}

	for i := range cfg.Push {
		spec := &cfg.Push[i]
		prefix := fmt.Sprintf("push[%d]", i)
		if spec.Path != "" {
			prefix = fmt.Sprintf("push '%s'", spec.Path)
		}
		errs = append(errs, validateCoordinate(prefix, spec.Group, spec.Artifact, spec.Path)...)
		if spec.Type != "" {
			typ, err := registry.ParseArtifactType(string(spec.Type))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", prefix, err))
			} else {
				spec.Type = typ
			}
		}
	}

	for i, spec := range cfg.Pull {
		prefix := fmt.Sprintf("pull[%d]", i)
		if spec.Path != "" {
			prefix = fmt.Sprintf("pull '%s'", spec.Path)
		}
		errs = append(errs, validateCoordinate(prefix, spec.Group, spec.Artifact, spec.Path)...)
	}

	return errs
}

func validateCoordinate(prefix, group, artifact, path string) []string {
	var errs []string
	if group == "" {
		errs = append(errs, fmt.Sprintf("%s: 'group' is required", prefix))
	}
	if artifact == "" {
		errs = append(errs, fmt.Sprintf("%s: 'artifact' is required", prefix))
	}
	if path == "" {
		errs = append(errs, fmt.Sprintf("%s: 'path' is required", prefix))
		return errs
	}
	if filepath.IsAbs(path) {
		errs = append(errs, fmt.Sprintf("%s: path must be relative to the working directory", prefix))
	} else if clean := filepath.Clean(path); clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		errs = append(errs, fmt.Sprintf("%s: path escapes the working directory", prefix))
	}
	return errs
}

// WriteFile writes content to path, refusing to replace an existing file
// unless overwrite is set.
func WriteFile(path string, content []byte, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if os.IsExist(err) {
			return apierrors.WrapIO("creating config", path, fmt.Errorf("%w (use --force to overwrite)", err))
		}
		return apierrors.WrapIO("creating config", path, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return apierrors.WrapIO("writing config", path, err)
	}
	return apierrors.WrapIO("closing config", path, f.Close())
}
