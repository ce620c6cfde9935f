// Package tenant implements the multi-tenant configuration model for the
// MCP Prometheus server.
//
// A tenant is one Prometheus-compatible backend (Prometheus, Cortex, Mimir,
// Thanos) with its own URL, authentication and optional organization
// scoping. Tenants are configured through environment variables:
//
//   - PROMETHEUS_TENANTS: JSON array of tenant objects, e.g.
//     [{"name":"prod","url":"http://prometheus:9090","org_id":"team-a"}]
//   - PROMETHEUS_DEFAULT_TENANT: name of the tenant used when a tool call
//     does not specify one (default: first entry)
//   - PROMETHEUS_URL, PROMETHEUS_USERNAME, PROMETHEUS_PASSWORD,
//     PROMETHEUS_TOKEN, ORG_ID: single-tenant fallback used when
//     PROMETHEUS_TENANTS is not set
//
// The configuration is validated once at startup by BuildRegistry, which
// produces an immutable Registry. Any validation failure is a fatal
// startup error; after that the registry is read-only and safe for
// concurrent use without locking.
package tenant
