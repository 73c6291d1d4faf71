// Package sandbox confines file access to the working directory.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
)

// Resolve returns the absolute location of relPath inside workdir after
// following symlinks. Paths resolving outside workdir are rejected.
func Resolve(workdir, relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", fmt.Errorf("path '%s' must be relative to the working directory: %w", relPath, apierrors.ErrInvalidInput)
	}

	absRoot, err := filepath.Abs(workdir)
	if err != nil {
		return "", apierrors.WrapIO("resolving working directory", workdir, err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", apierrors.WrapIO("resolving working directory", absRoot, err)
	}

	candidate := filepath.Clean(filepath.Join(realRoot, relPath))

	// The file may not exist yet; resolve the longest existing prefix.
	resolved, err := resolveExisting(candidate)
	if err != nil {
		return "", apierrors.WrapIO("resolving", relPath, err)
	}

	rootPrefix := realRoot + string(filepath.Separator)
	if resolved != realRoot && !strings.HasPrefix(resolved, rootPrefix) {
		return "", fmt.Errorf("path '%s' resolves to '%s' outside the working directory '%s': %w",
			relPath, resolved, realRoot, apierrors.ErrInvalidInput)
	}
	return resolved, nil
}

func resolveExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir, base := filepath.Dir(path), filepath.Base(path)
	if dir == path {
		return path, nil
	}
	resolvedDir, err := resolveExisting(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, base), nil
}

// ReadFile reads relPath from inside workdir.
func ReadFile(workdir, relPath string) ([]byte, error) {
	resolved, err := Resolve(workdir, relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, apierrors.WrapIO("reading", relPath, err)
	}
	return data, nil
}

// WriteFile atomically replaces relPath inside workdir with content,
// creating parent directories. Readers see the old or the new file, never a
// partial one.
func WriteFile(workdir, relPath string, content []byte, perm os.FileMode) error {
	resolved, err := Resolve(workdir, relPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apierrors.WrapIO("creating directory", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".apicurio-sync-*.tmp")
	if err != nil {
		return apierrors.WrapIO("creating temp file in", dir, err)
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
		return apierrors.WrapIO("writing", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return apierrors.WrapIO("syncing", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return apierrors.WrapIO("closing", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return apierrors.WrapIO("setting permissions on", tmpPath, err)
	}
	if err := os.Rename(tmpPath, resolved); err != nil {
		return apierrors.WrapIO("renaming temp file to", resolved, err)
	}

	success = true
	return nil
}
