package engine

import (
	"context"
	"time"

	"github.com/bianoble/apicurio-sync/internal/cache"
	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
	"github.com/bianoble/apicurio-sync/internal/logging"
	"github.com/bianoble/apicurio-sync/internal/metrics"
	"github.com/bianoble/apicurio-sync/internal/plan"
	"github.com/bianoble/apicurio-sync/internal/registry"
	"github.com/bianoble/apicurio-sync/internal/sandbox"
)

// SyncEngine applies a plan: pulls write registry content to local paths,
// pushes upload local files. Entries run one at a time in path order and the
// first failure stops the run.
type SyncEngine struct {
	Provider registry.Provider
	Cache    *cache.Cache
	Workdir  string
	Metrics  *metrics.Recorder
}

// Sync pulls, then pushes.
func (e *SyncEngine) Sync(ctx context.Context, p *plan.Plan) (*SyncResult, error) {
	start := time.Now()
	defer func() { e.Metrics.Observe("sync", time.Since(start)) }()

	result := &SyncResult{}
	if err := e.pull(ctx, p, result); err != nil {
		return result, err
	}
	if err := e.push(ctx, p, result); err != nil {
		return result, err
	}
	return result, nil
}

// Pull writes every pull entry of the plan into the working directory.
func (e *SyncEngine) Pull(ctx context.Context, p *plan.Plan) (*SyncResult, error) {
	result := &SyncResult{}
	return result, e.pull(ctx, p, result)
}

// Push uploads every push entry of the plan.
func (e *SyncEngine) Push(ctx context.Context, p *plan.Plan) (*SyncResult, error) {
	result := &SyncResult{}
	return result, e.push(ctx, p, result)
}

func (e *SyncEngine) workdir() string {
	if e.Workdir == "" {
		return "."
	}
	return e.Workdir
}

func (e *SyncEngine) pull(ctx context.Context, p *plan.Plan, result *SyncResult) error {
	log := logging.FromContext(ctx)

	for _, path := range p.PullPaths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		ref := p.Pull[path]

		switch {
		case ref.Group == nil:
			return &apierrors.PlanError{Direction: "pull", Path: path, Field: "group"}
		case ref.Artifact == nil:
			return &apierrors.PlanError{Direction: "pull", Path: path, Field: "artifact"}
		case ref.Version == nil:
			return &apierrors.PlanError{Direction: "pull", Path: path, Field: "version"}
		}

		content, err := e.fetch(ctx, p.Target, ref)
		if err != nil {
			e.Metrics.Artifact("pull", "error", 0)
			return &EntryError{Direction: "pull", Path: path, Err: err}
		}

		digest := cache.Digest(content)
		action := ActionNew
		if previous, err := sandbox.ReadFile(e.workdir(), path); err == nil {
			action = ActionModified
			if cache.Digest(previous) == digest {
				action = ActionUnchanged
			}
		}

		if err := sandbox.WriteFile(e.workdir(), path, content, 0644); err != nil {
			e.Metrics.Artifact("pull", "error", 0)
			return &EntryError{Direction: "pull", Path: path, Err: err}
		}

		fa := FileAction{
			Path:     path,
			Action:   action,
			Group:    *ref.Group,
			Artifact: *ref.Artifact,
			Version:  *ref.Version,
			Digest:   digest,
			Size:     len(content),
		}
		result.Pulled = append(result.Pulled, fa)
		e.Metrics.Artifact("pull", action, len(content))
		log.Debug().Str("path", path).Str("action", action).Str("version", fa.Version).Msg("pulled")
	}
	return nil
}

// fetch prefers the cache and the global ID, which names the exact content
// the lockfile pinned. Cache entries are scoped to the plan's registry.
func (e *SyncEngine) fetch(ctx context.Context, target plan.Target, ref *plan.PullRef) ([]byte, error) {
	if ref.GlobalID == nil {
		return e.Provider.FetchArtifactVersion(ctx, *ref.Group, *ref.Artifact, *ref.Version)
	}

	gid := *ref.GlobalID
	if e.Cache != nil {
		data, ok, err := e.Cache.Get(target.URL, gid)
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Int64("global_id", gid).Msg("cache read failed")
		}
		if ok {
			return data, nil
		}
	}

	data, err := e.Provider.FetchArtifactByGlobalID(ctx, gid)
	if err != nil {
		return nil, err
	}
	if e.Cache != nil {
		if err := e.Cache.Put(target.URL, gid, data); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Int64("global_id", gid).Msg("cache write failed")
		}
	}
	return data, nil
}

func (e *SyncEngine) push(ctx context.Context, p *plan.Plan, result *SyncResult) error {
	log := logging.FromContext(ctx)

	for _, path := range p.PushPaths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		ref := p.Push[path]

		switch {
		case ref.Group == nil:
			return &apierrors.PlanError{Direction: "push", Path: path, Field: "group"}
		case ref.Artifact == nil:
			return &apierrors.PlanError{Direction: "push", Path: path, Field: "artifact"}
		}

		content, err := sandbox.ReadFile(e.workdir(), path)
		if err != nil {
			return &EntryError{Direction: "push", Path: path, Err: err}
		}

		meta := ref.PushMetadata()
		if err := e.Provider.PushArtifact(ctx, meta, content); err != nil {
			e.Metrics.Artifact("push", "error", 0)
			return &EntryError{Direction: "push", Path: path, Err: err}
		}

		result.Pushed = append(result.Pushed, FileAction{
			Path:     path,
			Action:   ActionPushed,
			Group:    meta.Group,
			Artifact: meta.Artifact,
			Digest:   cache.Digest(content),
			Size:     len(content),
		})
		e.Metrics.Artifact("push", ActionPushed, len(content))
		log.Debug().Str("path", path).Str("artifact", meta.Group+"/"+meta.Artifact).Msg("pushed")
	}
	return nil
}
