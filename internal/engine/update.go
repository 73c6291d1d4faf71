package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/bianoble/apicurio-sync/internal/config"
	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
	"github.com/bianoble/apicurio-sync/internal/lock"
	"github.com/bianoble/apicurio-sync/internal/logging"
	"github.com/bianoble/apicurio-sync/internal/metrics"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

// UpdateEngine reconciles the lockfile with the configuration and the
// registry.
type UpdateEngine struct {
	Provider registry.Provider
	Metrics  *metrics.Recorder
}

// LoadOrCreate loads the lockfile next to the configuration (starting empty
// when there is none), resolves only what is missing or inconsistent, prunes
// stale entries and writes the result.
func (e *UpdateEngine) LoadOrCreate(ctx context.Context, cfg *config.Config) (*UpdateResult, error) {
	return e.run(ctx, cfg, false)
}

// Refresh is LoadOrCreate with every pull entry re-resolved.
func (e *UpdateEngine) Refresh(ctx context.Context, cfg *config.Config) (*UpdateResult, error) {
	return e.run(ctx, cfg, true)
}

func (e *UpdateEngine) run(ctx context.Context, cfg *config.Config, force bool) (*UpdateResult, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, apierrors.NewSetupError("lockfile", "configuration has no file path to derive the lockfile from", nil)
	}
	start := time.Now()
	path := lock.PathFor(cfg.Path)

	current, err := lock.LoadOrEmpty(path)
	if err != nil {
		return nil, err
	}

	result, err := e.Reconcile(ctx, cfg, current, force)
	if err != nil {
		return nil, err
	}
	if err := lock.Save(path, result.Lockfile); err != nil {
		return nil, err
	}
	result.Path = path

	e.Metrics.Observe("update", time.Since(start))
	logging.FromContext(ctx).Debug().
		Str("lockfile", path).
		Int("resolved", len(result.Resolved)).
		Int("skipped", len(result.Skipped)).
		Int("pruned", len(result.Pruned)).
		Msg("lockfile written")
	return result, nil
}

// Reconcile computes the next lockfile from current without modifying it.
// Without force, a pull entry consistent with its spec is kept as is and
// costs no registry call. Any registry failure aborts the whole pass.
func (e *UpdateEngine) Reconcile(ctx context.Context, cfg *config.Config, current *lock.Lockfile, force bool) (*UpdateResult, error) {
	log := logging.FromContext(ctx)
	next := current.Clone()
	result := &UpdateResult{Lockfile: next}

	for _, spec := range cfg.Pull {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prev, locked := next.Pull[spec.Path]
		if !force && locked && consistent(prev, spec) {
			log.Debug().Str("path", spec.Path).Str("version", prev.Version).Msg("lockfile entry up to date")
			result.Skipped = append(result.Skipped, spec.Path)
			continue
		}

		entry, err := e.resolve(ctx, spec)
		if err != nil {
			return nil, &EntryError{Direction: "pull", Path: spec.Path, Err: err}
		}
		log.Debug().
			Str("path", spec.Path).
			Str("artifact", spec.Coordinate().String()).
			Str("version", entry.Version).
			Int64("global_id", entry.GlobalID).
			Msg("resolved")

		update := EntryUpdate{Path: spec.Path, After: entry}
		if locked {
			before := prev
			update.Before = &before
		}
		result.Resolved = append(result.Resolved, update)
		next.Pull[spec.Path] = entry
	}

	for _, spec := range cfg.Push {
		next.Push[spec.Path] = lock.PushEntry{Group: spec.Group, Artifact: spec.Artifact, Type: spec.Type}
	}
	result.Pruned, result.PrunedPush = next.Retain(pullPaths(cfg), pushPaths(cfg))

	e.Metrics.Resolution("resolved", len(result.Resolved))
	e.Metrics.Resolution("skipped", len(result.Skipped))
	e.Metrics.Resolution("pruned", len(result.Pruned))
	e.Metrics.LockEntries(len(next.Push), len(next.Pull))

	return result, nil
}

// Prune is the offline part of Reconcile. It returns a copy of current
// without entries for paths the configuration no longer lists and without
// pull entries that no longer match their spec. Nothing is resolved.
func Prune(cfg *config.Config, current *lock.Lockfile) *lock.Lockfile {
	next := current.Clone()
	if cfg == nil {
		return next
	}
	next.Retain(pullPaths(cfg), pushPaths(cfg))
	for _, spec := range cfg.Pull {
		if entry, ok := next.Pull[spec.Path]; ok && !consistent(entry, spec) {
			delete(next.Pull, spec.Path)
		}
	}
	return next
}

func pullPaths(cfg *config.Config) []string {
	paths := make([]string, 0, len(cfg.Pull))
	for _, spec := range cfg.Pull {
		paths = append(paths, spec.Path)
	}
	return paths
}

func pushPaths(cfg *config.Config) []string {
	paths := make([]string, 0, len(cfg.Push))
	for _, spec := range cfg.Push {
		paths = append(paths, spec.Path)
	}
	return paths
}

// consistent reports whether a locked entry still satisfies spec.
func consistent(entry lock.PullEntry, spec config.PullSpec) bool {
	return entry.Group == spec.Group &&
		entry.Artifact == spec.Artifact &&
		(spec.Version == "" || spec.Version == entry.Version)
}

func (e *UpdateEngine) resolve(ctx context.Context, spec config.PullSpec) (lock.PullEntry, error) {
	var (
		meta *registry.ArtifactMetadata
		err  error
	)
	if spec.Version != "" {
		meta, err = e.Provider.FetchArtifactVersionMetadata(ctx, spec.Group, spec.Artifact, spec.Version)
	} else {
		meta, err = e.Provider.FetchArtifactMetadata(ctx, spec.Group, spec.Artifact)
	}
	if err != nil {
		return lock.PullEntry{}, err
	}
	if meta.Version == "" {
		return lock.PullEntry{}, fmt.Errorf("registry returned no version for %s", spec.Coordinate())
	}

	entry := lock.PullEntry{
		Group:        meta.GroupID,
		Artifact:     meta.ID,
		Version:      meta.Version,
		GlobalID:     meta.GlobalID,
		ArtifactType: meta.Type,
	}
	// The registry omits the group for artifacts in the default group.
	if entry.Group == "" {
		entry.Group = spec.Group
	}
	if entry.Artifact == "" {
		entry.Artifact = spec.Artifact
	}
	return entry, nil
}
