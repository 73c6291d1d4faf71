package registry

import "net/http"

// Authenticator adds credentials to an outgoing request.
type Authenticator interface {
	Apply(req *http.Request)
	Method() string
}

// NoAuth sends requests without credentials.
type NoAuth struct{}

func (NoAuth) Apply(*http.Request) {}
func (NoAuth) Method() string      { return "none" }

// BasicAuth sends HTTP basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Apply(req *http.Request) {
	req.SetBasicAuth(a.Username, a.Password)
}

func (BasicAuth) Method() string { return "basic" }

// BearerAuth sends an OAuth2 access token.
type BearerAuth struct {
	Token string
}

func (a BearerAuth) Apply(req *http.Request) {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
}

func (BearerAuth) Method() string { return "oidc" }
