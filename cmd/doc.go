// Package cmd provides the command-line interface for the MCP Prometheus server.
//
// This package implements the Cobra CLI framework to provide commands for:
// - Starting the MCP server with various transport options (stdio, sse, http)
// - Managing server configuration and lifecycle
//
// The main entry point is the serve command which starts the MCP server and
// registers all Prometheus-related tools for querying metrics, discovering
// metrics metadata, and retrieving target information across the configured
// tenants.
//
// Environment Variables:
//   - PROMETHEUS_TENANTS: JSON array of tenant configurations
//   - PROMETHEUS_DEFAULT_TENANT: Optional name of the default tenant
//   - PROMETHEUS_URL: Single-tenant mode Prometheus server URL
//   - PROMETHEUS_USERNAME: Optional basic auth username
//   - PROMETHEUS_PASSWORD: Optional basic auth password
//   - PROMETHEUS_TOKEN: Optional bearer token for authentication
//   - ORG_ID: Optional organization ID for multi-tenant backends
//   - PROMETHEUS_MCP_SERVER_TRANSPORT: Optional default transport
//   - PROMETHEUS_MCP_BIND_HOST / PROMETHEUS_MCP_BIND_PORT: Optional HTTP bind address
//   - PROMETHEUS_MCP_OTLP_ENDPOINT: Optional OTLP endpoint for trace export
//
// Example usage:
//
//	mcp-prometheus-multitenant serve --transport stdio
//	mcp-prometheus-multitenant serve --transport sse --http-addr :8080
package cmd
