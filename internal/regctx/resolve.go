package regctx

import (
	"fmt"
	"io/fs"
	"time"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

// Environment variables consulted when selecting a context.
const (
	EnvContextName = "APICURIO_SYNC_CONTEXT_NAME"
	EnvRegistryURL = "APICURIO_SYNC_REGISTRY_URL"
)

// Selector carries the inputs that pick a context.
type Selector struct {
	// Name selects a stored context. Empty means the file's current context.
	Name string

	// URL, when set, replaces the selected context's URL.
	URL string

	// FallbackURL is used when neither the file nor URL provides one.
	FallbackURL string
}

// Context is the registry connection a run uses.
type Context struct {
	Name string
	URL  string
	Auth Auth
}

// Resolve applies the selection rules against the context file at path.
// A missing file is not an error; a malformed one is.
func Resolve(path string, sel Selector) (*Context, error) {
	f, err := Load(path)
	if err != nil {
		if !apierrors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		f = &File{}
	}

	name := sel.Name
	if name == "" {
		name = f.CurrentContext
	}

	if entry, ok := f.Contexts[name]; ok && name != "" {
		ctx := &Context{Name: name, URL: entry.URL, Auth: entry.Auth}
		if sel.URL != "" {
			ctx.URL = sel.URL
		}
		return ctx, nil
	}

	for _, u := range []string{sel.URL, sel.FallbackURL} {
		if u == "" {
			continue
		}
		ctxName := name
		if ctxName == "" {
			ctxName = u
		}
		return &Context{Name: ctxName, URL: u}, nil
	}

	if sel.Name != "" {
		return nil, apierrors.NewSetupError("context", fmt.Sprintf("context %q not found in %s", sel.Name, path), apierrors.ErrNotConfigured)
	}
	return nil, apierrors.NewSetupError("context",
		fmt.Sprintf("no registry configured: set %s, add a context to %s, or set 'registry' in the config file", EnvRegistryURL, path),
		apierrors.ErrNotConfigured)
}

// NewClient builds a registry client carrying the context's credentials.
func (c *Context) NewClient(opts ...registry.Option) (*registry.Client, error) {
	auth, err := c.Auth.Authenticator(time.Now())
	if err != nil {
		return nil, err
	}
	opts = append([]registry.Option{registry.WithAuthenticator(auth)}, opts...)
	return registry.NewClient(c.URL, opts...)
}
