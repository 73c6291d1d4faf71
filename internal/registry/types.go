package registry

import (
	"fmt"
	"strings"
)

// ArtifactType is the registry's classification of artifact content.
type ArtifactType string

// Artifact types understood by the registry.
const (
	Avro     ArtifactType = "AVRO"
	Protobuf ArtifactType = "PROTOBUF"
	JSON     ArtifactType = "JSON"
	KConnect ArtifactType = "KCONNECT"
	OpenAPI  ArtifactType = "OPENAPI"
	AsyncAPI ArtifactType = "ASYNCAPI"
	GraphQL  ArtifactType = "GRAPHQL"
	WSDL     ArtifactType = "WSDL"
	XSD      ArtifactType = "XSD"
)

// ArtifactTypes lists every known type in declaration order.
var ArtifactTypes = []ArtifactType{Avro, Protobuf, JSON, KConnect, OpenAPI, AsyncAPI, GraphQL, WSDL, XSD}

// Valid reports whether t is a known artifact type.
func (t ArtifactType) Valid() bool {
	for _, known := range ArtifactTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseArtifactType accepts any case and returns the canonical type.
func ParseArtifactType(s string) (ArtifactType, error) {
	t := ArtifactType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown artifact type %q", s)
	}
	return t, nil
}

// Coordinate identifies an artifact within the registry.
type Coordinate struct {
	Group    string
	Artifact string
}

func (c Coordinate) String() string {
	return c.Group + "/" + c.Artifact
}

// SystemInfo describes the registry server.
type SystemInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	BuiltOn     string `json:"builtOn"`
}

// ArtifactMetadata is the metadata of one artifact version.
type ArtifactMetadata struct {
	GroupID     string            `json:"groupId,omitempty"`
	ID          string            `json:"id"`
	Version     string            `json:"version"`
	GlobalID    int64             `json:"globalId"`
	ContentID   int64             `json:"contentId,omitempty"`
	Type        ArtifactType      `json:"type"`
	State       string            `json:"state,omitempty"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      []string          `json:"labels,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	CreatedBy   string            `json:"createdBy,omitempty"`
	CreatedOn   string            `json:"createdOn,omitempty"`
	ModifiedBy  string            `json:"modifiedBy,omitempty"`
	ModifiedOn  string            `json:"modifiedOn,omitempty"`
}

// PushMetadata describes an artifact to create or update. Nil and empty
// fields are left untouched on the registry.
type PushMetadata struct {
	Group       string
	Artifact    string
	Type        ArtifactType
	Name        *string
	Description *string
	Labels      []string
	Properties  map[string]string
}

// HasEditableMetadata reports whether any of name, description, labels or
// properties is set.
func (m PushMetadata) HasEditableMetadata() bool {
	return m.Name != nil || m.Description != nil || m.Labels != nil || m.Properties != nil
}

// EditableMetadata is the body of a metadata update.
type EditableMetadata struct {
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      []string          `json:"labels,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// Editable returns the metadata update body for m.
func (m PushMetadata) Editable() EditableMetadata {
	var e EditableMetadata
	if m.Name != nil {
		e.Name = *m.Name
	}
	if m.Description != nil {
		e.Description = *m.Description
	}
	e.Labels = m.Labels
	e.Properties = m.Properties
	return e
}
