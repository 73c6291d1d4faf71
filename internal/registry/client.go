package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
)

// DefaultTimeout bounds every registry request.
const DefaultTimeout = 60 * time.Second

const (
	apiPrefix    = "apis/registry/v2"
	tracerName   = "github.com/bianoble/apicurio-sync/internal/registry"
	maxErrorBody = 64 << 10
)

// Client is a Provider backed by the registry's v2 REST API.
type Client struct {
	base      *url.URL
	http      *http.Client
	auth      Authenticator
	userAgent string
	tracer    trace.Tracer
}

var _ Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAuthenticator sets the credentials applied to every request.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) {
		if a != nil {
			c.auth = a
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client for the registry at baseURL, which must be an
// absolute http or https URL. A path prefix in baseURL is kept.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, apierrors.NewSetupError("registry client", fmt.Sprintf("invalid registry URL %q", baseURL), err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apierrors.NewSetupError("registry client", fmt.Sprintf("registry URL %q must be an absolute http(s) URL", baseURL), apierrors.ErrInvalidInput)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	c := &Client{
		base:      u,
		http:      &http.Client{Timeout: DefaultTimeout},
		auth:      NoAuth{},
		userAgent: "apicurio-sync",
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the registry URL the client was built with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// endpoint joins escaped path segments under the v2 API prefix.
func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.base.String() + "/" + apiPrefix + "/" + strings.Join(escaped, "/")
}

// SystemInfo implements Provider.
func (c *Client) SystemInfo(ctx context.Context) (info *SystemInfo, err error) {
	ctx, span := c.startSpan(ctx, "registry.SystemInfo")
	defer func() { endSpan(span, err) }()

	info = &SystemInfo{}
	if err := c.getJSON(ctx, "fetch system info", c.endpoint("system", "info"), info); err != nil {
		return nil, err
	}
	return info, nil
}

// FetchArtifactMetadata implements Provider. It describes the latest version.
func (c *Client) FetchArtifactMetadata(ctx context.Context, group, artifact string) (meta *ArtifactMetadata, err error) {
	ctx, span := c.startSpan(ctx, "registry.FetchArtifactMetadata",
		attribute.String("registry.group", group),
		attribute.String("registry.artifact", artifact))
	defer func() { endSpan(span, err) }()

	meta = &ArtifactMetadata{}
	if err := c.getJSON(ctx, "fetch artifact metadata", c.endpoint("groups", group, "artifacts", artifact, "meta"), meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// FetchArtifactVersionMetadata implements Provider.
func (c *Client) FetchArtifactVersionMetadata(ctx context.Context, group, artifact, version string) (meta *ArtifactMetadata, err error) {
	ctx, span := c.startSpan(ctx, "registry.FetchArtifactVersionMetadata",
		attribute.String("registry.group", group),
		attribute.String("registry.artifact", artifact),
		attribute.String("registry.version", version))
	defer func() { endSpan(span, err) }()

	meta = &ArtifactMetadata{}
	u := c.endpoint("groups", group, "artifacts", artifact, "versions", version, "meta")
	if err := c.getJSON(ctx, "fetch artifact version metadata", u, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// FetchArtifactVersion implements Provider.
func (c *Client) FetchArtifactVersion(ctx context.Context, group, artifact, version string) (content []byte, err error) {
	ctx, span := c.startSpan(ctx, "registry.FetchArtifactVersion",
		attribute.String("registry.group", group),
		attribute.String("registry.artifact", artifact),
		attribute.String("registry.version", version))
	defer func() { endSpan(span, err) }()

	return c.getBytes(ctx, "fetch artifact version", c.endpoint("groups", group, "artifacts", artifact, "versions", version))
}

// FetchArtifactByGlobalID implements Provider.
func (c *Client) FetchArtifactByGlobalID(ctx context.Context, globalID int64) (content []byte, err error) {
	ctx, span := c.startSpan(ctx, "registry.FetchArtifactByGlobalID",
		attribute.Int64("registry.global_id", globalID))
	defer func() { endSpan(span, err) }()

	return c.getBytes(ctx, "fetch artifact by global id", c.endpoint("ids", "globalIds", strconv.FormatInt(globalID, 10)))
}

// PushArtifact implements Provider. Content is created or appended as a new
// version; editable metadata, when any is set, is updated afterwards.
func (c *Client) PushArtifact(ctx context.Context, meta PushMetadata, content []byte) (err error) {
	ctx, span := c.startSpan(ctx, "registry.PushArtifact",
		attribute.String("registry.group", meta.Group),
		attribute.String("registry.artifact", meta.Artifact),
		attribute.Int("registry.content_bytes", len(content)))
	defer func() { endSpan(span, err) }()

	u := c.endpoint("groups", meta.Group, "artifacts") + "?ifExists=RETURN_OR_UPDATE"
	headers := http.Header{}
	headers.Set("X-Registry-ArtifactId", meta.Artifact)
	if meta.Type != "" {
		headers.Set("X-Registry-ArtifactType", string(meta.Type))
	}
	headers.Set("Content-Type", contentTypeFor(meta.Type))

	resp, err := c.do(ctx, "push artifact", http.MethodPost, u, bytes.NewReader(content), headers)
	if err != nil {
		return err
	}
	if err := drain(resp); err != nil {
		return err
	}

	if !meta.HasEditableMetadata() {
		return nil
	}

	body, err := json.Marshal(meta.Editable())
	if err != nil {
		return fmt.Errorf("encoding metadata for %s/%s: %w", meta.Group, meta.Artifact, err)
	}
	headers = http.Header{}
	headers.Set("Content-Type", "application/json")
	resp, err = c.do(ctx, "update artifact metadata", http.MethodPut,
		c.endpoint("groups", meta.Group, "artifacts", meta.Artifact, "meta"), bytes.NewReader(body), headers)
	if err != nil {
		return err
	}
	return drain(resp)
}

func contentTypeFor(t ArtifactType) string {
	switch t {
	case Protobuf:
		return "application/x-protobuf"
	case GraphQL:
		return "application/graphql"
	case WSDL, XSD:
		return "application/xml"
	}
	return "application/json"
}

func (c *Client) getJSON(ctx context.Context, op, u string, v any) error {
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	resp, err := c.do(ctx, op, http.MethodGet, u, nil, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return apierrors.WrapParse("JSON", u, err)
	}
	return nil
}

func (c *Client) getBytes(ctx context.Context, op, u string) ([]byte, error) {
	resp, err := c.do(ctx, op, http.MethodGet, u, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apierrors.TransportError{Operation: op, URL: u, Err: err}
	}
	return data, nil
}

// do sends a request and turns anything but a 2xx response into a
// TransportError. The caller owns the returned body.
func (c *Client) do(ctx context.Context, op, method, u string, body io.Reader, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &apierrors.TransportError{Operation: op, URL: u, Err: err}
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	c.auth.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apierrors.TransportError{Operation: op, URL: u, Err: err}
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &apierrors.TransportError{
			Operation:  op,
			URL:        u,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}
	return resp, nil
}

// errorMessage extracts the message from a registry error body, falling back
// to the raw text.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var apiErr struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return strings.TrimSpace(string(data))
}

func drain(resp *http.Response) error {
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("registry.url", c.base.String()))
	return c.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
