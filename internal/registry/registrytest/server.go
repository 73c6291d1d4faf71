// Package registrytest provides an in-memory registry speaking the subset of
// the v2 REST API that apicurio-sync uses.
package registrytest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/bianoble/apicurio-sync/internal/registry"
)

// Server is a fake registry. Create it with NewServer and Close it when done.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	artifacts    map[registry.Coordinate][]*version
	byGlobalID   map[int64]*version
	nextGlobalID int64
	requests     []string
	authHeader   string
	info         registry.SystemInfo
}

type version struct {
	meta    registry.ArtifactMetadata
	content []byte
}

// NewServer starts a fake registry.
func NewServer() *Server {
	s := &Server{
		artifacts:    make(map[registry.Coordinate][]*version),
		byGlobalID:   make(map[int64]*version),
		nextGlobalID: 1,
		info: registry.SystemInfo{
			Name:        "Apicurio Registry (In Memory)",
			Description: "fake registry",
			Version:     "2.5.0.Final",
			BuiltOn:     "2024-01-01T00:00:00Z",
		},
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record, s.authorize)
	r.Route("/apis/registry/v2", func(r chi.Router) {
		r.Get("/system/info", s.handleSystemInfo)
		r.Get("/ids/globalIds/{globalID}", s.handleGlobalID)
		r.Post("/groups/{group}/artifacts", s.handleCreate)
		r.Get("/groups/{group}/artifacts/{artifact}/meta", s.handleLatestMeta)
		r.Put("/groups/{group}/artifacts/{artifact}/meta", s.handleUpdateMeta)
		r.Get("/groups/{group}/artifacts/{artifact}/versions/{version}/meta", s.handleVersionMeta)
		r.Get("/groups/{group}/artifacts/{artifact}/versions/{version}", s.handleVersionContent)
	})
	return r
}

// RequireBasic makes every request fail with 401 unless it carries these
// basic credentials.
func (s *Server) RequireBasic(username, password string) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth(username, password)
	s.mu.Lock()
	s.authHeader = req.Header.Get("Authorization")
	s.mu.Unlock()
}

// RequireBearer makes every request fail with 401 unless it carries token.
func (s *Server) RequireBearer(token string) {
	s.mu.Lock()
	s.authHeader = "Bearer " + token
	s.mu.Unlock()
}

// Put stores content under explicit metadata. Group, ID and Version must be
// set; a zero GlobalID is assigned.
func (s *Server) Put(meta registry.ArtifactMetadata, content []byte) registry.ArtifactMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(meta, content)
}

// Add appends a new version of group/artifact, numbering versions from 1.
func (s *Server) Add(group, artifact string, typ registry.ArtifactType, content []byte) registry.ArtifactMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := registry.Coordinate{Group: group, Artifact: artifact}
	return s.putLocked(registry.ArtifactMetadata{
		GroupID: group,
		ID:      artifact,
		Version: strconv.Itoa(len(s.artifacts[c]) + 1),
		Type:    typ,
	}, content)
}

func (s *Server) putLocked(meta registry.ArtifactMetadata, content []byte) registry.ArtifactMetadata {
	if meta.GlobalID == 0 {
		meta.GlobalID = s.nextGlobalID
	}
	if meta.GlobalID >= s.nextGlobalID {
		s.nextGlobalID = meta.GlobalID + 1
	}
	if meta.State == "" {
		meta.State = "ENABLED"
	}
	v := &version{meta: meta, content: append([]byte(nil), content...)}
	c := registry.Coordinate{Group: meta.GroupID, Artifact: meta.ID}
	s.artifacts[c] = append(s.artifacts[c], v)
	s.byGlobalID[meta.GlobalID] = v
	return meta
}

// Latest returns the newest version of group/artifact.
func (s *Server) Latest(group, artifact string) (registry.ArtifactMetadata, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.latestLocked(group, artifact)
	if v == nil {
		return registry.ArtifactMetadata{}, nil, false
	}
	return v.meta, append([]byte(nil), v.content...), true
}

// Versions returns how many versions group/artifact has.
func (s *Server) Versions(group, artifact string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.artifacts[registry.Coordinate{Group: group, Artifact: artifact}])
}

// Requests returns "METHOD path" for every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// ResetRequests clears the request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}

func (s *Server) latestLocked(group, artifact string) *version {
	versions := s.artifacts[registry.Coordinate{Group: group, Artifact: artifact}]
	if len(versions) == 0 {
		return nil
	}
	return versions[len(versions)-1]
}

func (s *Server) findLocked(group, artifact, ver string) *version {
	if ver == "latest" {
		return s.latestLocked(group, artifact)
	}
	for _, v := range s.artifacts[registry.Coordinate{Group: group, Artifact: artifact}] {
		if v.meta.Version == ver {
			return v
		}
	}
	return nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.EscapedPath())
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		want := s.authHeader
		s.mu.Unlock()
		if want != "" && r.Header.Get("Authorization") != want {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.info)
}

func (s *Server) handleGlobalID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "globalID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid global id")
		return
	}
	s.mu.Lock()
	v := s.byGlobalID[id]
	s.mu.Unlock()
	if v == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No artifact with ID '%d' was found.", id))
		return
	}
	_, _ = w.Write(v.content)
}

func (s *Server) handleLatestMeta(w http.ResponseWriter, r *http.Request) {
	group, artifact := param(r, "group"), param(r, "artifact")
	s.mu.Lock()
	v := s.latestLocked(group, artifact)
	s.mu.Unlock()
	if v == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No artifact with ID '%s' in group '%s' was found.", artifact, group))
		return
	}
	writeJSON(w, http.StatusOK, v.meta)
}

func (s *Server) handleVersionMeta(w http.ResponseWriter, r *http.Request) {
	group, artifact, ver := param(r, "group"), param(r, "artifact"), param(r, "version")
	s.mu.Lock()
	v := s.findLocked(group, artifact, ver)
	s.mu.Unlock()
	if v == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No version '%s' found for artifact with ID '%s' in group '%s'.", ver, artifact, group))
		return
	}
	writeJSON(w, http.StatusOK, v.meta)
}

func (s *Server) handleVersionContent(w http.ResponseWriter, r *http.Request) {
	group, artifact, ver := param(r, "group"), param(r, "artifact"), param(r, "version")
	s.mu.Lock()
	v := s.findLocked(group, artifact, ver)
	s.mu.Unlock()
	if v == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No version '%s' found for artifact with ID '%s' in group '%s'.", ver, artifact, group))
		return
	}
	_, _ = w.Write(v.content)
}

// handleCreate implements ifExists=RETURN_OR_UPDATE: identical content
// returns the current version, anything else becomes a new version.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	group := param(r, "group")
	artifact := r.Header.Get("X-Registry-ArtifactId")
	if artifact == "" {
		writeError(w, http.StatusBadRequest, "missing X-Registry-ArtifactId")
		return
	}
	if mode := r.URL.Query().Get("ifExists"); mode != "" && mode != "RETURN_OR_UPDATE" {
		writeError(w, http.StatusBadRequest, "unsupported ifExists "+mode)
		return
	}
	content, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	typ := registry.ArtifactType(r.Header.Get("X-Registry-ArtifactType"))

	s.mu.Lock()
	defer s.mu.Unlock()
	latest := s.latestLocked(group, artifact)
	if latest != nil && bytes.Equal(latest.content, content) {
		writeJSON(w, http.StatusOK, latest.meta)
		return
	}
	meta := registry.ArtifactMetadata{GroupID: group, ID: artifact, Version: "1", Type: typ}
	if latest != nil {
		meta = latest.meta
		meta.GlobalID = 0
		meta.Version = strconv.Itoa(len(s.artifacts[registry.Coordinate{Group: group, Artifact: artifact}]) + 1)
		if typ != "" {
			meta.Type = typ
		}
	}
	if meta.Type == "" {
		meta.Type = registry.Avro
	}
	writeJSON(w, http.StatusOK, s.putLocked(meta, content))
}

func (s *Server) handleUpdateMeta(w http.ResponseWriter, r *http.Request) {
	group, artifact := param(r, "group"), param(r, "artifact")
	var body registry.EditableMetadata
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.latestLocked(group, artifact)
	if v == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No artifact with ID '%s' in group '%s' was found.", artifact, group))
		return
	}
	v.meta.Name = body.Name
	v.meta.Description = body.Description
	v.meta.Labels = body.Labels
	v.meta.Properties = body.Properties
	w.WriteHeader(http.StatusNoContent)
}

func param(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg, "error_code": status})
}
