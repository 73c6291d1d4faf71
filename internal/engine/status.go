package engine

import (
	"os"

	"github.com/bianoble/apicurio-sync/internal/plan"
	"github.com/bianoble/apicurio-sync/internal/sandbox"
)

// Entry states reported by StatusEngine.
const (
	StatePresent = "present"
	StateMissing = "missing"
	StatePending = "pending"
)

// StatusEngine describes a plan without contacting the registry.
type StatusEngine struct {
	Workdir string
}

// EntryStatus is the local view of one plan entry.
type EntryStatus struct {
	Path      string
	Direction string
	Group     string
	Artifact  string
	Version   string
	GlobalID  int64
	State     string
}

// Status lists pull entries, then push entries, each in path order.
// A pull entry without a version is pending until the lockfile resolves it.
func (e *StatusEngine) Status(p *plan.Plan) []EntryStatus {
	workdir := e.Workdir
	if workdir == "" {
		workdir = "."
	}

	var out []EntryStatus
	for _, path := range p.PullPaths() {
		ref := p.Pull[path]
		s := EntryStatus{
			Path:      path,
			Direction: "pull",
			Group:     deref(ref.Group),
			Artifact:  deref(ref.Artifact),
			Version:   deref(ref.Version),
		}
		if ref.GlobalID != nil {
			s.GlobalID = *ref.GlobalID
		}
		switch {
		case ref.Version == nil:
			s.State = StatePending
		default:
			s.State = fileState(workdir, path)
		}
		out = append(out, s)
	}

	for _, path := range p.PushPaths() {
		ref := p.Push[path]
		out = append(out, EntryStatus{
			Path:      path,
			Direction: "push",
			Group:     deref(ref.Group),
			Artifact:  deref(ref.Artifact),
			State:     fileState(workdir, path),
		})
	}
	return out
}

func fileState(workdir, path string) string {
	resolved, err := sandbox.Resolve(workdir, path)
	if err != nil {
		return StateMissing
	}
	if info, err := os.Stat(resolved); err != nil || info.IsDir() {
		return StateMissing
	}
	return StatePresent
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
