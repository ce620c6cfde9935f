package tenant

import "os"

// Config carries the raw tenant configuration as read from the process
// environment. Loading is deliberately dumb; BuildRegistry performs all
// validation.
type Config struct {
	// TenantsJSON is the raw PROMETHEUS_TENANTS value, a JSON array of
	// tenant objects. When set it takes precedence over the single-tenant
	// fields below.
	TenantsJSON string

	// DefaultTenant optionally names the tenant used when a call does not
	// specify one. It must match a configured tenant.
	DefaultTenant string

	// Single-tenant settings, used when TenantsJSON is empty.
	URL      string
	Username string
	Password string
	Token    string
	OrgID    string
}

// FromEnv reads the tenant configuration from the environment.
func FromEnv() Config {
	return Config{
		TenantsJSON:   os.Getenv("PROMETHEUS_TENANTS"),
		DefaultTenant: os.Getenv("PROMETHEUS_DEFAULT_TENANT"),
		URL:           os.Getenv("PROMETHEUS_URL"),
		Username:      os.Getenv("PROMETHEUS_USERNAME"),
		Password:      os.Getenv("PROMETHEUS_PASSWORD"),
		Token:         os.Getenv("PROMETHEUS_TOKEN"),
		OrgID:         os.Getenv("ORG_ID"),
	}
}
