package engine

import "github.com/bianoble/apicurio-sync/internal/lock"

// Actions reported for a file.
const (
	ActionNew       = "new"
	ActionModified  = "modified"
	ActionUnchanged = "unchanged"
	ActionPushed    = "pushed"
)

// FileAction records what happened to one local path during sync.
type FileAction struct {
	Path     string
	Action   string
	Group    string
	Artifact string
	Version  string
	Digest   string
	Size     int
}

// EntryError ties an error to the plan or lockfile entry it came from.
type EntryError struct {
	Direction string
	Path      string
	Err       error
}

func (e *EntryError) Error() string {
	return e.Direction + " " + e.Path + ": " + e.Err.Error()
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// EntryUpdate records a pull entry that reconciliation (re)resolved.
// Before is nil for a path that had no entry.
type EntryUpdate struct {
	Path   string
	Before *lock.PullEntry
	After  lock.PullEntry
}

// Changed reports whether the entry differs from what was locked before.
func (u EntryUpdate) Changed() bool {
	return u.Before == nil || *u.Before != u.After
}

// UpdateResult holds the outcome of a reconciliation pass.
type UpdateResult struct {
	Resolved   []EntryUpdate
	Skipped    []string
	Pruned     []string
	PrunedPush []string
	Lockfile   *lock.Lockfile
	Path       string
}

// SyncResult holds the outcome of a sync. After a failure it lists the
// entries that completed before it.
type SyncResult struct {
	Pulled []FileAction
	Pushed []FileAction
}
