package config

import "github.com/bianoble/apicurio-sync/internal/registry"

// DefaultFileName is the configuration file looked up when none is given.
const DefaultFileName = "apicurio-sync.yaml"

// Config is the root of an apicurio-sync.yaml file.
type Config struct {
	// Registry is an optional registry URL used when no context supplies one.
	Registry string     `yaml:"registry,omitempty"`
	Push     []PushSpec `yaml:"push"`
	Pull     []PullSpec `yaml:"pull"`

	// Path is the file the configuration was loaded from.
	Path string `yaml:"-"`
}

// PushSpec declares a local file to upload as a registry artifact.
type PushSpec struct {
	Group       string                `yaml:"group"`
	Artifact    string                `yaml:"artifact"`
	Path        string                `yaml:"path"`
	Type        registry.ArtifactType `yaml:"type,omitempty"`
	Name        string                `yaml:"name,omitempty"`
	Description string                `yaml:"description,omitempty"`
	Labels      []string              `yaml:"labels,omitempty"`
	Properties  map[string]string     `yaml:"properties,omitempty"`
}

// PullSpec declares a registry artifact to download. An empty Version
// tracks the latest version.
type PullSpec struct {
	Group    string `yaml:"group"`
	Artifact string `yaml:"artifact"`
	Path     string `yaml:"path"`
	Version  string `yaml:"version,omitempty"`
}

// Coordinate returns the artifact the spec refers to.
func (s PushSpec) Coordinate() registry.Coordinate {
	return registry.Coordinate{Group: s.Group, Artifact: s.Artifact}
}

// Coordinate returns the artifact the spec refers to.
func (s PullSpec) Coordinate() registry.Coordinate {
	return registry.Coordinate{Group: s.Group, Artifact: s.Artifact}
}

// Normalize drops all but the last spec for each path in both lists,
// keeping the position of the surviving entry.
func (c *Config) Normalize() {
	c.Push = lastPerPath(c.Push, func(s PushSpec) string { return s.Path })
	c.Pull = lastPerPath(c.Pull, func(s PullSpec) string { return s.Path })
}

func lastPerPath[T any](specs []T, path func(T) string) []T {
	if len(specs) == 0 {
		return specs
	}
	last := make(map[string]int, len(specs))
	for i, s := range specs {
		last[path(s)] = i
	}
	out := make([]T, 0, len(last))
	for i, s := range specs {
		if last[path(s)] == i {
			out = append(out, s)
		}
	}
	return out
}
