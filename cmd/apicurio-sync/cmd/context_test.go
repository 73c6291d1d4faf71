package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
	"github.com/bianoble/apicurio-sync/internal/regctx"
	"github.com/bianoble/apicurio-sync/internal/registry"
	"github.com/bianoble/apicurio-sync/internal/registry/registrytest"
)

func TestContextLifecycle(t *testing.T) {
	t.Setenv(regctx.EnvContextName, "")
	file := filepath.Join(t.TempDir(), "ctx", "contexts.json")

	_, err := execute(t, "", "context", "init", "--context-file", file)
	require.NoError(t, err)
	_, err = execute(t, "", "context", "init", "--context-file", file)
	require.Error(t, err, "init refuses an existing file")

	_, err = execute(t, "", "context", "set", "dev", "--url", "https://dev.example.com", "--current", "--context-file", file)
	require.NoError(t, err)
	_, err = execute(t, "", "context", "set", "prod", "--url", "https://prod.example.com", "--context-file", file)
	require.NoError(t, err)

	out, err := execute(t, "", "context", "current", "--context-file", file)
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)

	out, err = execute(t, "", "context", "current", "--context", "prod", "--context-file", file)
	require.NoError(t, err)
	assert.Equal(t, "prod\n", out)

	_, err = execute(t, "s3cret\n", "context", "login", "basic", "--username", "alice", "--password-stdin", "--context-file", file)
	require.NoError(t, err)

	f, err := regctx.Load(file)
	require.NoError(t, err)
	require.NotNil(t, f.Contexts["dev"].Auth.Basic)
	assert.Equal(t, "s3cret", f.Contexts["dev"].Auth.Basic.Password)
	assert.Equal(t, "none", f.Contexts["prod"].Auth.Kind())

	out, err = execute(t, "", "context", "show", "-o", "json", "--context-file", file)
	require.NoError(t, err)
	assert.NotContains(t, out, "s3cret")

	var shown regctx.File
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "dev", shown.CurrentContext)

	out, err = execute(t, "", "context", "show", "--show-secrets", "-o", "json", "--context-file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "s3cret")
}

func TestContextSetNeedsURLForNewContext(t *testing.T) {
	file := filepath.Join(t.TempDir(), "contexts.json")
	_, err := execute(t, "", "context", "set", "dev", "--context-file", file)
	assert.ErrorIs(t, err, apierrors.ErrInvalidInput)
}

func TestLoginWithoutContext(t *testing.T) {
	t.Setenv(regctx.EnvContextName, "")
	file := filepath.Join(t.TempDir(), "contexts.json")
	_, err := execute(t, "", "context", "init", "--context-file", file)
	require.NoError(t, err)

	_, err = execute(t, "tok", "context", "login", "oidc", "--issuer-url", "https://id.example.com", "--client-id", "cli", "--token-stdin", "--context-file", file)
	assert.ErrorIs(t, err, apierrors.ErrNotConfigured)
}

func TestStoredCredentialsReachRegistry(t *testing.T) {
	t.Setenv(regctx.EnvContextName, "")
	t.Setenv(regctx.EnvRegistryURL, "")
	srv := registrytest.NewServer()
	defer srv.Close()
	srv.RequireBearer("tok-123")
	srv.Add("g1", "a1", registry.Avro, []byte("schema"))

	dir := t.TempDir()
	file := filepath.Join(dir, "contexts.json")
	require.NoError(t, writeFile(filepath.Join(dir, "apicurio-sync.yaml"), pullConfig))

	_, err := execute(t, "", "context", "set", "local", "--url", srv.URL, "--current", "--context-file", file)
	require.NoError(t, err)

	_, err = execute(t, "", "sync", "--cwd", dir, "--context-file", file, "--no-cache")
	require.Error(t, err)
	assert.True(t, apierrors.IsUnauthorized(err))

	_, err = execute(t, "tok-123\n", "context", "login", "oidc",
		"--issuer-url", "https://id.example.com", "--client-id", "cli",
		"--expires-in", "1h", "--token-stdin", "--context-file", file)
	require.NoError(t, err)

	out, err := execute(t, "", "sync", "--cwd", dir, "--context-file", file, "--no-cache", "-o", "yaml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "- direction: pull"), out)
}
