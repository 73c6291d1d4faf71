package regctx

import (
	"errors"
	"fmt"
	"time"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

const redacted = "********"

// Auth holds at most one credential kind. Neither set means no auth.
type Auth struct {
	OIDC  *OIDCAuth  `json:"oidc,omitempty"`
	Basic *BasicAuth `json:"basic,omitempty"`
}

// OIDCAuth is a token obtained from an OpenID Connect provider.
type OIDCAuth struct {
	IssuerURL    string    `json:"issuer_url"`
	ClientID     string    `json:"client_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// BasicAuth is a username and password.
type BasicAuth struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Kind names the credential kind: oidc, basic or none.
func (a Auth) Kind() string {
	switch {
	case a.OIDC != nil:
		return "oidc"
	case a.Basic != nil:
		return "basic"
	}
	return "none"
}

func (a Auth) validate() error {
	if a.OIDC != nil && a.Basic != nil {
		return errors.New("auth must be either oidc or basic, not both")
	}
	if a.Basic != nil && a.Basic.Username == "" {
		return errors.New("basic auth requires a username")
	}
	if a.OIDC != nil && a.OIDC.AccessToken == "" {
		return errors.New("oidc auth requires an access token")
	}
	return nil
}

// Authenticator converts stored credentials into a request authenticator.
// An OIDC token that expired before now is an AuthError.
func (a Auth) Authenticator(now time.Time) (registry.Authenticator, error) {
	switch {
	case a.OIDC != nil:
		if !a.OIDC.ExpiresAt.IsZero() && !now.Before(a.OIDC.ExpiresAt) {
			return nil, apierrors.NewAuthError("oidc",
				fmt.Sprintf("access token expired at %s; run 'apicurio-sync context login oidc' again", a.OIDC.ExpiresAt.Format(time.RFC3339)))
		}
		return registry.BearerAuth{Token: a.OIDC.AccessToken}, nil
	case a.Basic != nil:
		return registry.BasicAuth{Username: a.Basic.Username, Password: a.Basic.Password}, nil
	}
	return registry.NoAuth{}, nil
}

// Redacted returns a copy with passwords and tokens masked.
func (a Auth) Redacted() Auth {
	var out Auth
	if a.OIDC != nil {
		o := *a.OIDC
		o.AccessToken = mask(o.AccessToken)
		o.RefreshToken = mask(o.RefreshToken)
		out.OIDC = &o
	}
	if a.Basic != nil {
		b := *a.Basic
		b.Password = mask(b.Password)
		out.Basic = &b
	}
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return redacted
}
