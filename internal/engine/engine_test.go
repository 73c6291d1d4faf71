package engine

import (
	"context"
	"fmt"
	"sync"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

// fakeProvider serves fixed metadata and content and counts calls.
type fakeProvider struct {
	mu       sync.Mutex
	latest   map[string]registry.ArtifactMetadata // key group/artifact
	versions map[string]registry.ArtifactMetadata // key group/artifact@version
	content  map[int64][]byte
	pushed   []registry.PushMetadata
	calls    map[string]int
	failOn   string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		latest:   make(map[string]registry.ArtifactMetadata),
		versions: make(map[string]registry.ArtifactMetadata),
		content:  make(map[int64][]byte),
		calls:    make(map[string]int),
	}
}

// add registers a version and makes it the latest.
func (f *fakeProvider) add(group, artifact, version string, globalID int64, content string) {
	meta := registry.ArtifactMetadata{GroupID: group, ID: artifact, Version: version, GlobalID: globalID, Type: registry.Avro}
	f.latest[group+"/"+artifact] = meta
	f.versions[group+"/"+artifact+"@"+version] = meta
	f.content[globalID] = []byte(content)
}

func (f *fakeProvider) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if f.failOn == op {
		return &apierrors.TransportError{Operation: op, URL: "fake", StatusCode: 503}
	}
	return nil
}

func (f *fakeProvider) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeProvider) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func notFound(what string) error {
	return &apierrors.TransportError{Operation: "fetch", URL: what, StatusCode: 404}
}

func (f *fakeProvider) SystemInfo(context.Context) (*registry.SystemInfo, error) {
	if err := f.record("SystemInfo"); err != nil {
		return nil, err
	}
	return &registry.SystemInfo{Name: "fake", Version: "2.5.0"}, nil
}

func (f *fakeProvider) FetchArtifactMetadata(_ context.Context, group, artifact string) (*registry.ArtifactMetadata, error) {
	if err := f.record("FetchArtifactMetadata"); err != nil {
		return nil, err
	}
	meta, ok := f.latest[group+"/"+artifact]
	if !ok {
		return nil, notFound(group + "/" + artifact)
	}
	return &meta, nil
}

func (f *fakeProvider) FetchArtifactVersionMetadata(_ context.Context, group, artifact, version string) (*registry.ArtifactMetadata, error) {
	if err := f.record("FetchArtifactVersionMetadata"); err != nil {
		return nil, err
	}
	meta, ok := f.versions[group+"/"+artifact+"@"+version]
	if !ok {
		return nil, notFound(group + "/" + artifact + "@" + version)
	}
	return &meta, nil
}

func (f *fakeProvider) FetchArtifactVersion(_ context.Context, group, artifact, version string) ([]byte, error) {
	if err := f.record("FetchArtifactVersion"); err != nil {
		return nil, err
	}
	meta, ok := f.versions[group+"/"+artifact+"@"+version]
	if !ok {
		return nil, notFound(group + "/" + artifact + "@" + version)
	}
	return f.content[meta.GlobalID], nil
}

func (f *fakeProvider) FetchArtifactByGlobalID(_ context.Context, globalID int64) ([]byte, error) {
	if err := f.record("FetchArtifactByGlobalID"); err != nil {
		return nil, err
	}
	data, ok := f.content[globalID]
	if !ok {
		return nil, notFound(fmt.Sprint(globalID))
	}
	return data, nil
}

func (f *fakeProvider) PushArtifact(_ context.Context, meta registry.PushMetadata, _ []byte) error {
	if err := f.record("PushArtifact"); err != nil {
		return err
	}
	f.mu.Lock()
	f.pushed = append(f.pushed, meta)
	f.mu.Unlock()
	return nil
}
