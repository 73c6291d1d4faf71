package plan

import (
	"github.com/bianoble/apicurio-sync/internal/config"
	"github.com/bianoble/apicurio-sync/internal/lock"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

// Merge rules, applied in this order:
//
//	config pull    group, artifact           override
//	config pull    version                   override when pinned
//	config push    every field               override when set
//	lockfile pull  group, artifact, version  fill when unset
//	lockfile pull  artifact_type, global_id  fill when the ref matches the entry
//
// The configuration therefore always wins over the lockfile, and an unpinned
// pull inherits the version resolved earlier.

// MergeConfig overlays every push and pull spec onto the plan.
func (p *Plan) MergeConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	for _, spec := range cfg.Pull {
		ref := p.pullRef(spec.Path)
		override(&ref.Group, some(spec.Group))
		override(&ref.Artifact, some(spec.Artifact))
		override(&ref.Version, some(spec.Version))
	}
	for _, spec := range cfg.Push {
		ref := p.pushRef(spec.Path)
		override(&ref.Group, some(spec.Group))
		override(&ref.Artifact, some(spec.Artifact))
		override(&ref.ArtifactType, some(spec.Type))
		override(&ref.Name, some(spec.Name))
		override(&ref.Description, some(spec.Description))
		overrideSlice(&ref.Labels, spec.Labels)
		overrideMap(&ref.Properties, spec.Properties)
	}
}

// MergeLockfile fills pull references from resolved lockfile entries.
// Push entries carry nothing the configuration does not already hold.
func (p *Plan) MergeLockfile(lf *lock.Lockfile) {
	if lf == nil {
		return
	}
	for _, path := range lf.PullPaths() {
		entry := lf.Pull[path]
		ref := p.pullRef(path)
		fill(&ref.Group, some(entry.Group))
		fill(&ref.Artifact, some(entry.Artifact))
		fill(&ref.Version, some(entry.Version))
		if describes(ref, entry) {
			fill(&ref.ArtifactType, some(entry.ArtifactType))
			fill(&ref.GlobalID, some(entry.GlobalID))
		}
	}
}

// describes reports whether the locked entry is the exact version ref points at.
func describes(ref *PullRef, entry lock.PullEntry) bool {
	return equal(ref.Group, entry.Group) &&
		equal(ref.Artifact, entry.Artifact) &&
		equal(ref.Version, entry.Version)
}

// some returns a pointer to v, or nil for the zero value.
func some[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

// override replaces dst when src is set.
func override[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// fill sets dst from src only while dst is unset.
func fill[T any](dst **T, src *T) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

func overrideSlice[T any](dst *[]T, src []T) {
	if src != nil {
		*dst = append([]T(nil), src...)
	}
}

func overrideMap[K comparable, V any](dst *map[K]V, src map[K]V) {
	if src != nil {
		m := make(map[K]V, len(src))
		for k, v := range src {
			m[k] = v
		}
		*dst = m
	}
}

func equal[T comparable](p *T, v T) bool {
	return p != nil && *p == v
}

// PushMetadata converts a complete push reference into registry metadata.
func (r *PushRef) PushMetadata() registry.PushMetadata {
	m := registry.PushMetadata{
		Name:        r.Name,
		Description: r.Description,
		Labels:      r.Labels,
		Properties:  r.Properties,
	}
	if r.Group != nil {
		m.Group = *r.Group
	}
	if r.Artifact != nil {
		m.Artifact = *r.Artifact
	}
	if r.ArtifactType != nil {
		m.Type = *r.ArtifactType
	}
	return m
}
