// Package plan merges the configuration and the lockfile into the set of
// per-path operations a sync applies.
package plan

import (
	"sort"

	"github.com/bianoble/apicurio-sync/internal/config"
	"github.com/bianoble/apicurio-sync/internal/lock"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

// Target is the registry a plan is applied against.
type Target struct {
	Context string
	URL     string
}

// PushRef is everything known about a path to push. Nil means unset.
type PushRef struct {
	Group        *string
	Artifact     *string
	ArtifactType *registry.ArtifactType
	Name         *string
	Description  *string
	Labels       []string
	Properties   map[string]string
}

// PullRef is everything known about a path to pull. Nil means unset.
type PullRef struct {
	Group        *string
	Artifact     *string
	ArtifactType *registry.ArtifactType
	Version      *string
	GlobalID     *int64
}

// Plan maps local paths to push and pull references.
type Plan struct {
	Target Target
	Push   map[string]*PushRef
	Pull   map[string]*PullRef
}

// New returns an empty plan bound to target.
func New(target Target) *Plan {
	return &Plan{
		Target: target,
		Push:   make(map[string]*PushRef),
		Pull:   make(map[string]*PullRef),
	}
}

// Build merges the configuration and then the lockfile into a new plan.
func Build(target Target, cfg *config.Config, lf *lock.Lockfile) *Plan {
	p := New(target)
	p.MergeConfig(cfg)
	p.MergeLockfile(lf)
	return p
}

// PullPaths returns pull paths in the order they are applied.
func (p *Plan) PullPaths() []string {
	return sortedKeys(p.Pull)
}

// PushPaths returns push paths in the order they are applied.
func (p *Plan) PushPaths() []string {
	return sortedKeys(p.Push)
}

func (p *Plan) pullRef(path string) *PullRef {
	ref, ok := p.Pull[path]
	if !ok {
		ref = &PullRef{}
		p.Pull[path] = ref
	}
	return ref
}

func (p *Plan) pushRef(path string) *PushRef {
	ref, ok := p.Push[path]
	if !ok {
		ref = &PushRef{}
		p.Push[path] = ref
	}
	return ref
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
