package lock

import (
	"maps"
	"sort"

	"github.com/bianoble/apicurio-sync/internal/registry"
)

// Lockfile pins what each configured path resolved to. Both maps are keyed
// by the local path from the configuration.
type Lockfile struct {
	Push map[string]PushEntry `json:"push"`
	Pull map[string]PullEntry `json:"pull"`
}

// PushEntry mirrors a push spec. It records intent only.
type PushEntry struct {
	Group    string                `json:"group"`
	Artifact string                `json:"artifact"`
	Type     registry.ArtifactType `json:"type,omitempty"`
}

// PullEntry records the exact registry version a pull path resolved to.
type PullEntry struct {
	Group        string                `json:"group"`
	Artifact     string                `json:"artifact"`
	Version      string                `json:"version"`
	GlobalID     int64                 `json:"global_id"`
	ArtifactType registry.ArtifactType `json:"artifact_type"`
}

// New returns an empty lockfile.
func New() *Lockfile {
	return &Lockfile{
		Push: make(map[string]PushEntry),
		Pull: make(map[string]PullEntry),
	}
}

// Clone returns a deep copy. A nil receiver yields an empty lockfile.
func (lf *Lockfile) Clone() *Lockfile {
	out := New()
	if lf == nil {
		return out
	}
	maps.Copy(out.Push, lf.Push)
	maps.Copy(out.Pull, lf.Pull)
	return out
}

// PullPaths returns the locked pull paths in sorted order.
func (lf *Lockfile) PullPaths() []string {
	return sortedKeys(lf.Pull)
}

// PushPaths returns the locked push paths in sorted order.
func (lf *Lockfile) PushPaths() []string {
	return sortedKeys(lf.Push)
}

// Retain removes the pull and push entries whose paths are not listed and
// returns the removed paths in sorted order.
func (lf *Lockfile) Retain(pull, push []string) (prunedPull, prunedPush []string) {
	return retain(lf.Pull, pull), retain(lf.Push, push)
}

func retain[V any](m map[string]V, keep []string) []string {
	kept := make(map[string]bool, len(keep))
	for _, k := range keep {
		kept[k] = true
	}
	var removed []string
	for _, k := range sortedKeys(m) {
		if !kept[k] {
			delete(m, k)
			removed = append(removed, k)
		}
	}
	return removed
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
