// Package registry talks to an Apicurio-compatible schema registry.
//
// Provider is the seam between the reconciliation engines and the network:
// Client implements it over HTTP against the v2 REST API, Noop backs
// commands that never reach the registry, and registrytest serves an
// in-memory registry for tests.
package registry

import (
	"context"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
)

// Provider is the set of registry operations apicurio-sync needs.
// Credentials are bound when the provider is constructed.
type Provider interface {
	SystemInfo(ctx context.Context) (*SystemInfo, error)
	FetchArtifactMetadata(ctx context.Context, group, artifact string) (*ArtifactMetadata, error)
	FetchArtifactVersionMetadata(ctx context.Context, group, artifact, version string) (*ArtifactMetadata, error)
	FetchArtifactVersion(ctx context.Context, group, artifact, version string) ([]byte, error)
	FetchArtifactByGlobalID(ctx context.Context, globalID int64) ([]byte, error)
	PushArtifact(ctx context.Context, meta PushMetadata, content []byte) error
}

// Noop fails every operation. It lets lockfile operations run for a
// configuration that needs no registry access.
type Noop struct{}

var _ Provider = Noop{}

func (Noop) err(op string) error {
	return apierrors.NewSetupError("registry", "no registry configured for "+op, apierrors.ErrNotImplemented)
}

func (n Noop) SystemInfo(context.Context) (*SystemInfo, error) {
	return nil, n.err("system info")
}

func (n Noop) FetchArtifactMetadata(context.Context, string, string) (*ArtifactMetadata, error) {
	return nil, n.err("fetch artifact metadata")
}

func (n Noop) FetchArtifactVersionMetadata(context.Context, string, string, string) (*ArtifactMetadata, error) {
	return nil, n.err("fetch artifact version metadata")
}

func (n Noop) FetchArtifactVersion(context.Context, string, string, string) ([]byte, error) {
	return nil, n.err("fetch artifact version")
}

func (n Noop) FetchArtifactByGlobalID(context.Context, int64) ([]byte, error) {
	return nil, n.err("fetch artifact by global id")
}

func (n Noop) PushArtifact(context.Context, PushMetadata, []byte) error {
	return n.err("push artifact")
}
