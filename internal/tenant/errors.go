package tenant

import "errors"

// Configuration errors returned by BuildRegistry and Registry.Resolve.
// They are wrapped with tenant detail; test for them with errors.Is.
var (
	ErrNoTenants            = errors.New("no tenants configured")
	ErrMissingURL           = errors.New("prometheus URL is required")
	ErrInvalidURL           = errors.New("prometheus URL must be an absolute http(s) URL")
	ErrDuplicateTenant      = errors.New("duplicate tenant name")
	ErrPartialBasicAuth     = errors.New("basic auth requires both username and password")
	ErrUnknownDefaultTenant = errors.New("default tenant not found")
	ErrUnknownTenant        = errors.New("tenant not found")
)
