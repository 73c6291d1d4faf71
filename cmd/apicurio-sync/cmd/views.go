package cmd

import (
	"strconv"

	"github.com/bianoble/apicurio-sync/internal/engine"
	"github.com/bianoble/apicurio-sync/internal/output"
	"github.com/bianoble/apicurio-sync/internal/regctx"
)

// fileRow is one line of sync output.
type fileRow struct {
	Direction string `json:"direction" yaml:"direction"`
	Path      string `json:"path" yaml:"path"`
	Action    string `json:"action" yaml:"action"`
	Group     string `json:"group" yaml:"group"`
	Artifact  string `json:"artifact" yaml:"artifact"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	Digest    string `json:"digest" yaml:"digest"`
	Size      int    `json:"size" yaml:"size"`
}

type syncView []fileRow

func newSyncView(r *engine.SyncResult) syncView {
	out := syncView{}
	if r == nil {
		return out
	}
	add := func(direction string, actions []engine.FileAction) {
		for _, a := range actions {
			out = append(out, fileRow{
				Direction: direction,
				Path:      a.Path,
				Action:    a.Action,
				Group:     a.Group,
				Artifact:  a.Artifact,
				Version:   a.Version,
				Digest:    a.Digest,
				Size:      a.Size,
			})
		}
	}
	add("pull", r.Pulled)
	add("push", r.Pushed)
	return out
}

func (s syncView) Table() output.Table {
	t := output.Table{Headers: []string{"direction", "path", "action", "artifact", "version", "size"}}
	for _, r := range s {
		t.Rows = append(t.Rows, []string{r.Direction, r.Path, r.Action, r.Group + "/" + r.Artifact, r.Version, humanSize(int64(r.Size))})
	}
	return t
}

// updateRow describes what update did to one lockfile entry.
type updateRow struct {
	Path     string `json:"path" yaml:"path"`
	Action   string `json:"action" yaml:"action"`
	Group    string `json:"group,omitempty" yaml:"group,omitempty"`
	Artifact string `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Previous string `json:"previous,omitempty" yaml:"previous,omitempty"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
	GlobalID int64  `json:"global_id,omitempty" yaml:"global_id,omitempty"`
}

type updateView []updateRow

func newUpdateView(r *engine.UpdateResult) updateView {
	out := updateView{}
	for _, u := range r.Resolved {
		row := updateRow{
			Path:     u.Path,
			Action:   "added",
			Group:    u.After.Group,
			Artifact: u.After.Artifact,
			Version:  u.After.Version,
			GlobalID: u.After.GlobalID,
		}
		if u.Before != nil {
			row.Previous = u.Before.Version
			row.Action = "unchanged"
			if u.Changed() {
				row.Action = "updated"
			}
		}
		out = append(out, row)
	}
	for _, path := range r.Pruned {
		out = append(out, updateRow{Path: path, Action: "pruned"})
	}
	return out
}

func (u updateView) Table() output.Table {
	t := output.Table{Headers: []string{"path", "action", "artifact", "previous", "version", "global_id"}}
	for _, r := range u {
		artifact, gid := "", ""
		if r.Artifact != "" {
			artifact = r.Group + "/" + r.Artifact
		}
		if r.GlobalID != 0 {
			gid = strconv.FormatInt(r.GlobalID, 10)
		}
		t.Rows = append(t.Rows, []string{r.Path, r.Action, artifact, r.Previous, r.Version, gid})
	}
	return t
}

// statusRow is the offline view of a plan entry.
type statusRow struct {
	Direction string `json:"direction" yaml:"direction"`
	Path      string `json:"path" yaml:"path"`
	Group     string `json:"group" yaml:"group"`
	Artifact  string `json:"artifact" yaml:"artifact"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	GlobalID  int64  `json:"global_id,omitempty" yaml:"global_id,omitempty"`
	State     string `json:"state" yaml:"state"`
}

type statusView []statusRow

func newStatusView(entries []engine.EntryStatus) statusView {
	out := statusView{}
	for _, e := range entries {
		out = append(out, statusRow{
			Direction: e.Direction,
			Path:      e.Path,
			Group:     e.Group,
			Artifact:  e.Artifact,
			Version:   e.Version,
			GlobalID:  e.GlobalID,
			State:     e.State,
		})
	}
	return out
}

func (s statusView) Table() output.Table {
	t := output.Table{Headers: []string{"direction", "path", "artifact", "version", "state"}}
	for _, r := range s {
		t.Rows = append(t.Rows, []string{r.Direction, r.Path, r.Group + "/" + r.Artifact, r.Version, r.State})
	}
	return t
}

// infoView is the info command's output.
type infoView struct {
	Context         string `json:"context" yaml:"context"`
	URL             string `json:"url" yaml:"url"`
	RegistryName    string `json:"registry_name" yaml:"registry_name"`
	RegistryVersion string `json:"registry_version" yaml:"registry_version"`
	ConfigFile      string `json:"config_file" yaml:"config_file"`
	Lockfile        string `json:"lockfile" yaml:"lockfile"`
	ContextFile     string `json:"context_file" yaml:"context_file"`
	CacheDir        string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
	CacheSize       int64  `json:"cache_size" yaml:"cache_size"`
}

func newInfoView(r *engine.InfoResult) infoView {
	view := infoView{
		Context:     r.Context,
		URL:         r.URL,
		ConfigFile:  r.ConfigPath,
		Lockfile:    r.LockfilePath,
		ContextFile: r.ContextFile,
		CacheDir:    r.CacheDir,
		CacheSize:   r.CacheSize,
	}
	if r.Registry != nil {
		view.RegistryName = r.Registry.Name
		view.RegistryVersion = r.Registry.Version
	}
	return view
}

func (i infoView) Table() output.Table {
	cacheDir := i.CacheDir
	if cacheDir == "" {
		cacheDir = "(disabled)"
	}
	return output.Table{
		Headers: []string{"setting", "value"},
		Rows: [][]string{
			{"context", i.Context},
			{"url", i.URL},
			{"registry", i.RegistryName + " " + i.RegistryVersion},
			{"config file", i.ConfigFile},
			{"lockfile", i.Lockfile},
			{"context file", i.ContextFile},
			{"cache dir", cacheDir},
			{"cache size", humanSize(i.CacheSize)},
		},
	}
}

// contextsView lists stored contexts.
type contextsView struct {
	file *regctx.File
}

func (c contextsView) Table() output.Table {
	t := output.Table{Headers: []string{"current", "name", "url", "auth"}}
	for _, name := range c.file.Names() {
		e := c.file.Contexts[name]
		current := ""
		if name == c.file.CurrentContext {
			current = "*"
		}
		t.Rows = append(t.Rows, []string{current, name, e.URL, e.Auth.Kind()})
	}
	return t
}
