// Package apicuriosync is the Go library API for apicurio-sync.
//
// It runs the same operations as the command line tool against a config
// file, its lockfile and a registry chosen through the context file.
//
// # Basic Usage
//
//	client, err := apicuriosync.New(apicuriosync.Options{
//	    Workdir:     "/path/to/project",
//	    RegistryURL: "https://registry.example.com",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Pin new entries and write every pull path
//	result, err := client.Sync(ctx)
//
//	// Move unpinned entries to the latest registry version
//	updated, err := client.Update(ctx)
package apicuriosync

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/bianoble/apicurio-sync/internal/cache"
	"github.com/bianoble/apicurio-sync/internal/config"
	"github.com/bianoble/apicurio-sync/internal/engine"
	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
	"github.com/bianoble/apicurio-sync/internal/lock"
	"github.com/bianoble/apicurio-sync/internal/plan"
	"github.com/bianoble/apicurio-sync/internal/regctx"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

// Syncer brings the lockfile up to date and applies it.
type Syncer interface {
	Sync(ctx context.Context) (*SyncResult, error)
}

// Updater re-resolves every pull entry and rewrites the lockfile.
type Updater interface {
	Update(ctx context.Context) (*UpdateResult, error)
}

// Options configures a Client.
type Options struct {
	// Workdir is the directory pull and push paths are relative to.
	// Default: the current directory.
	Workdir string

	// ConfigPath is the config file, relative to Workdir unless absolute.
	// Default: "apicurio-sync.yaml".
	ConfigPath string

	// ContextFile is the context file. Default: regctx.DefaultPath().
	ContextFile string

	// ContextName selects a stored context instead of the current one.
	ContextName string

	// RegistryURL overrides the selected context's URL.
	RegistryURL string

	// CacheDir is the content cache directory. Default: the user cache dir.
	CacheDir string

	// NoCache disables the content cache.
	NoCache bool
}

// Client is the main entry point for the library.
// It implements Syncer and Updater.
type Client struct {
	workdir     string
	configPath  string
	contextFile string
	selector    regctx.Selector
	cache       *cache.Cache

	// provider replaces the context-selected registry when set.
	provider registry.Provider
}

// New creates a Client. It does not contact the registry.
func New(opts Options) (*Client, error) {
	workdir := opts.Workdir
	if workdir == "" {
		workdir = "."
	}
	workdir, err := filepath.Abs(workdir)
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultFileName
	}
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(workdir, configPath)
	}

	contextFile := opts.ContextFile
	if contextFile == "" {
		contextFile = regctx.DefaultPath()
	}

	var c *cache.Cache
	if !opts.NoCache {
		dir := opts.CacheDir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		if c, err = cache.New(dir); err != nil {
			return nil, fmt.Errorf("initializing cache: %w", err)
		}
	}

	return &Client{
		workdir:     workdir,
		configPath:  configPath,
		contextFile: contextFile,
		selector:    regctx.Selector{Name: opts.ContextName, URL: opts.RegistryURL},
		cache:       c,
	}, nil
}

func (c *Client) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// connect returns the registry to talk to and the target it represents.
func (c *Client) connect(cfg *config.Config) (registry.Provider, plan.Target, error) {
	sel := c.selector
	if cfg != nil {
		sel.FallbackURL = cfg.Registry
	}
	if c.provider != nil {
		return c.provider, plan.Target{Context: sel.Name, URL: sel.URL}, nil
	}
	rc, err := regctx.Resolve(c.contextFile, sel)
	if err != nil {
		return nil, plan.Target{}, err
	}
	client, err := rc.NewClient()
	if err != nil {
		return nil, plan.Target{}, err
	}
	return client, plan.Target{Context: rc.Name, URL: rc.URL}, nil
}

// Lock resolves new or changed pull entries and writes the lockfile,
// leaving entries that are already locked alone.
func (c *Client) Lock(ctx context.Context) (*UpdateResult, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	provider, _, err := c.connect(cfg)
	if err != nil {
		return nil, err
	}
	return (&engine.UpdateEngine{Provider: provider}).LoadOrCreate(ctx, cfg)
}

// Update re-resolves every pull entry and writes the lockfile.
func (c *Client) Update(ctx context.Context) (*UpdateResult, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	provider, _, err := c.connect(cfg)
	if err != nil {
		return nil, err
	}
	return (&engine.UpdateEngine{Provider: provider}).Refresh(ctx, cfg)
}

// Sync locks new entries, then pulls and pushes every entry. After a
// failure the result lists what completed before it.
func (c *Client) Sync(ctx context.Context) (*SyncResult, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	provider, target, err := c.connect(cfg)
	if err != nil {
		return nil, err
	}

	updated, err := (&engine.UpdateEngine{Provider: provider}).LoadOrCreate(ctx, cfg)
	if err != nil {
		return nil, err
	}

	eng := &engine.SyncEngine{
		Provider: provider,
		Cache:    c.cache,
		Workdir:  c.workdir,
	}
	return eng.Sync(ctx, plan.Build(target, cfg, updated.Lockfile))
}

// Status describes the plan from the config and lockfile without contacting
// the registry.
func (c *Client) Status() ([]EntryStatus, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	lf, err := lock.LoadOrEmpty(lock.PathFor(cfg.Path))
	if err != nil {
		return nil, err
	}
	eng := &engine.StatusEngine{Workdir: c.workdir}
	return eng.Status(plan.Build(plan.Target{}, cfg, engine.Prune(cfg, lf))), nil
}

// Info asks the registry to describe itself. The config file is optional.
func (c *Client) Info(ctx context.Context) (*InfoResult, error) {
	cfg, err := c.loadConfig()
	if err != nil && !apierrors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	provider, target, err := c.connect(cfg)
	if err != nil {
		return nil, err
	}
	result, err := engine.Info(ctx, provider, c.cache)
	if err != nil {
		return nil, err
	}
	result.Context = target.Context
	result.URL = target.URL
	result.ConfigPath = c.configPath
	result.LockfilePath = lock.PathFor(c.configPath)
	result.ContextFile = c.contextFile
	return result, nil
}
