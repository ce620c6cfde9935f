package tenant

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultTenantName is used for tenants configured without an explicit
// name and for the synthesized single-tenant setup.
const DefaultTenantName = "default"

// AuthMode identifies how a tenant authenticates against its backend. It
// is resolved once when the descriptor is built and never re-derived from
// the raw credential fields afterwards.
type AuthMode int

const (
	// AuthNone sends requests without credentials.
	AuthNone AuthMode = iota
	// AuthBasic sends an Authorization header with basic credentials.
	AuthBasic
	// AuthBearer sends an Authorization header with a bearer token.
	AuthBearer
)

// String returns the mode name used in startup summaries and logs.
func (m AuthMode) String() string {
	switch m {
	case AuthBasic:
		return "basic_auth"
	case AuthBearer:
		return "bearer_token"
	default:
		return "none"
	}
}

// Descriptor describes one Prometheus-compatible backend. Descriptors are
// immutable once the registry is built. The JSON tags match the entry
// format of the PROMETHEUS_TENANTS environment variable.
type Descriptor struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
	OrgID    string `json:"org_id,omitempty"`

	// Auth is derived from the credential fields at build time.
	Auth AuthMode `json:"-"`
}

// HasAuth reports whether the descriptor carries any credentials.
func (d Descriptor) HasAuth() bool {
	return d.Auth != AuthNone
}

// normalize fills defaults, validates the URL and resolves the auth mode.
func (d *Descriptor) normalize() error {
	if d.Name == "" {
		d.Name = DefaultTenantName
	}
	if d.URL == "" {
		return fmt.Errorf("%w: tenant %q", ErrMissingURL, d.Name)
	}
	d.URL = strings.TrimRight(d.URL, "/")
	u, err := url.Parse(d.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: tenant %q has %q", ErrInvalidURL, d.Name, d.URL)
	}

	// A bearer token wins over basic credentials when both are configured.
	switch {
	case d.Token != "":
		d.Auth = AuthBearer
	case d.Username != "" && d.Password != "":
		d.Auth = AuthBasic
	case d.Username != "" || d.Password != "":
		return fmt.Errorf("%w: tenant %q", ErrPartialBasicAuth, d.Name)
	default:
		d.Auth = AuthNone
	}

	return nil
}
