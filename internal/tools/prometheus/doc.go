// Package prometheus provides MCP tools for querying one or more Prometheus
// tenants.
//
// This package implements the following MCP tools:
//
// Tenant Tools:
//   - list_tenants: List configured tenants and the default tenant
//   - execute_query_all_tenants: Run an instant query on every tenant concurrently
//
// Query Tools:
//   - execute_query: Execute PromQL instant queries
//   - execute_range_query: Execute PromQL range queries with time bounds
//
// Discovery Tools:
//   - list_metrics: List all available metrics
//   - get_metric_metadata: Get metadata for one metric or all metrics
//   - get_targets: Get information about scrape targets
//
// Every query and discovery tool accepts an optional "tenant" parameter
// naming the backend to route to; when omitted the default tenant is used.
// An unknown tenant name is an error, never a silent fallback.
//
// Authentication is configured per tenant and applied automatically:
//   - Basic authentication via username/password
//   - Bearer token authentication
//   - Organization ID headers (X-Scope-OrgID) for Cortex/Mimir style backends
//
// Example tool usage:
//
//	list_tenants: {}
//	execute_query: {"query": "up", "tenant": "production"}
//	execute_range_query: {"query": "rate(http_requests_total[5m])", "start": "2023-01-01T00:00:00Z", "end": "2023-01-01T01:00:00Z", "step": "1m"}
//	execute_query_all_tenants: {"query": "up"}
//	get_metric_metadata: {"metric": "http_requests_total"}
package prometheus
