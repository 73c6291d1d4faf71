package engine

import (
	"context"

	"github.com/bianoble/apicurio-sync/internal/cache"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

// InfoResult holds what the info command shows.
type InfoResult struct {
	Context      string
	URL          string
	Registry     *registry.SystemInfo
	ConfigPath   string
	LockfilePath string
	ContextFile  string
	CacheDir     string
	CacheSize    int64
}

// Info asks the registry to describe itself and adds local cache details.
func Info(ctx context.Context, provider registry.Provider, c *cache.Cache) (*InfoResult, error) {
	info, err := provider.SystemInfo(ctx)
	if err != nil {
		return nil, err
	}

	r := &InfoResult{Registry: info}
	if c != nil {
		r.CacheDir = c.Path()
		if size, err := c.Size(); err == nil {
			r.CacheSize = size
		}
	}
	return r, nil
}
