package cmd

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcp-prometheus-multitenant/internal/server"
	"github.com/giantswarm/mcp-prometheus-multitenant/internal/tools/prometheus"
	"github.com/giantswarm/mcp-prometheus-multitenant/internal/tracing"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// simpleLogger provides basic logging for the server
type simpleLogger struct{}

func (l *simpleLogger) Debug(msg string, args ...interface{}) {
	log.Printf("[DEBUG] %s %v", msg, args)
}

func (l *simpleLogger) Info(msg string, args ...interface{}) {
	log.Printf("[INFO] %s %v", msg, args)
}

func (l *simpleLogger) Warn(msg string, args ...interface{}) {
	log.Printf("[WARN] %s %v", msg, args)
}

func (l *simpleLogger) Error(msg string, args ...interface{}) {
	log.Printf("[ERROR] %s %v", msg, args)
}

// envOr returns the value of the environment variable or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// defaultHTTPAddr derives the HTTP bind address from the environment,
// falling back to :8080.
func defaultHTTPAddr() string {
	host := os.Getenv("PROMETHEUS_MCP_BIND_HOST")
	port := os.Getenv("PROMETHEUS_MCP_BIND_PORT")
	if host == "" && port == "" {
		return ":8080"
	}
	if port == "" {
		port = "8080"
	}
	return net.JoinHostPort(host, port)
}

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	var (
		debugMode bool

		// Transport options
		transport       string
		httpAddr        string
		sseEndpoint     string
		messageEndpoint string
		httpEndpoint    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP Prometheus server",
		Long: `Start the MCP Prometheus server to provide tools for querying one
or more Prometheus tenants via the Model Context Protocol.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

Environment Variables:
  PROMETHEUS_TENANTS        - JSON array of tenant configurations (multi-tenant mode)
  PROMETHEUS_DEFAULT_TENANT - Optional: name of the default tenant
  PROMETHEUS_URL            - Single-tenant mode: Prometheus server URL
  PROMETHEUS_USERNAME       - Optional: Basic auth username
  PROMETHEUS_PASSWORD       - Optional: Basic auth password
  PROMETHEUS_TOKEN          - Optional: Bearer token for authentication
  ORG_ID                    - Optional: Organization ID for multi-tenant backends

  PROMETHEUS_MCP_SERVER_TRANSPORT - Optional: default for --transport ("http" is
                                    accepted as an alias for streamable-http)
  PROMETHEUS_MCP_BIND_HOST        - Optional: HTTP bind host
  PROMETHEUS_MCP_BIND_PORT        - Optional: HTTP bind port
  PROMETHEUS_MCP_OTLP_ENDPOINT    - Optional: OTLP HTTP endpoint for trace export

Either PROMETHEUS_TENANTS or PROMETHEUS_URL must be set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(transport, debugMode,
				httpAddr, sseEndpoint, messageEndpoint, httpEndpoint)
		},
	}

	// Add flags for configuring the server
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging (default: false)")

	// Transport flags
	cmd.Flags().StringVar(&transport, "transport", envOr("PROMETHEUS_MCP_SERVER_TRANSPORT", "stdio"), "Transport type: stdio, sse, or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", defaultHTTPAddr(), "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&sseEndpoint, "sse-endpoint", "/sse", "SSE endpoint path (for sse transport)")
	cmd.Flags().StringVar(&messageEndpoint, "message-endpoint", "/message", "Message endpoint path (for sse transport)")
	cmd.Flags().StringVar(&httpEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for streamable-http transport)")

	return cmd
}

// runServe contains the main server logic with support for multiple transports
func runServe(transport string, debugMode bool,
	httpAddr, sseEndpoint, messageEndpoint, httpEndpoint string) error {

	// Setup graceful shutdown - listen for both SIGINT and SIGTERM
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create server context
	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithDebugMode(debugMode),
		server.WithLogger(&simpleLogger{}),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			log.Printf("Error during server context shutdown: %v", err)
		}
	}()

	// Optional trace export
	tracingShutdown, err := tracing.Setup(shutdownCtx, os.Getenv("PROMETHEUS_MCP_OTLP_ENDPOINT"), rootCmd.Version)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		// shutdownCtx is already cancelled once a signal arrived
		if err := tracingShutdown(context.Background()); err != nil {
			log.Printf("Error during tracing shutdown: %v", err)
		}
	}()

	// Log tenant configuration, never credentials
	registry := serverContext.Registry()
	logger := serverContext.Logger()
	logger.Info("Prometheus configuration", "tenants", registry.Len(), "default_tenant", registry.DefaultName())
	for _, desc := range registry.All() {
		if desc.OrgID != "" {
			logger.Info("Tenant configured", "tenant", desc.Name, "url", desc.URL, "auth_method", desc.Auth.String(), "org_id", desc.OrgID)
		} else {
			logger.Info("Tenant configured", "tenant", desc.Name, "url", desc.URL, "auth_method", desc.Auth.String())
		}
	}

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("mcp-prometheus-multitenant", rootCmd.Version,
		mcpserver.WithToolCapabilities(true),
	)

	// Register Prometheus tools
	if err := prometheus.RegisterPrometheusTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register Prometheus tools: %w", err)
	}

	logger.Info("Starting MCP Prometheus server", "transport", transport)

	// Start the appropriate server based on transport type
	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "sse":
		return runSSEServer(mcpSrv, httpAddr, sseEndpoint, messageEndpoint, shutdownCtx, debugMode)
	case "streamable-http", "http":
		return runStreamableHTTPServer(mcpSrv, httpAddr, httpEndpoint, shutdownCtx, debugMode)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", transport)
	}
}

// runStdioServer runs the server with STDIO transport
func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	// Start the server in a goroutine so we can handle shutdown signals
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	// Wait for server completion
	if err := <-serverDone; err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}

	log.Println("Server gracefully stopped")
	return nil
}

// runSSEServer runs the server with SSE transport
func runSSEServer(mcpSrv *mcpserver.MCPServer, addr, sseEndpoint, messageEndpoint string, ctx context.Context, debugMode bool) error {
	if debugMode {
		log.Printf("[DEBUG] Initializing SSE server with configuration:")
		log.Printf("[DEBUG]   Address: %s", addr)
		log.Printf("[DEBUG]   SSE Endpoint: %s", sseEndpoint)
		log.Printf("[DEBUG]   Message Endpoint: %s", messageEndpoint)
	}

	// Create SSE server with custom endpoints
	sseServer := mcpserver.NewSSEServer(mcpSrv,
		mcpserver.WithSSEEndpoint(sseEndpoint),
		mcpserver.WithMessageEndpoint(messageEndpoint),
	)

	fmt.Printf("SSE server starting on %s\n", addr)
	fmt.Printf("  SSE endpoint: %s\n", sseEndpoint)
	fmt.Printf("  Message endpoint: %s\n", messageEndpoint)

	// Start server in goroutine
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := sseServer.Start(addr); err != nil {
			serverDone <- err
		}
	}()

	// Wait for either shutdown signal or server completion
	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping SSE server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down SSE server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("SSE server stopped with error: %w", err)
		}
		fmt.Println("SSE server stopped normally")
	}

	fmt.Println("SSE server gracefully stopped")
	return nil
}

// runStreamableHTTPServer runs the server with Streamable HTTP transport
func runStreamableHTTPServer(mcpSrv *mcpserver.MCPServer, addr, endpoint string, ctx context.Context, debugMode bool) error {
	if debugMode {
		log.Printf("[DEBUG] Initializing Streamable HTTP server on %s with endpoint %s", addr, endpoint)
	}

	// Create Streamable HTTP server with custom endpoint
	httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(endpoint),
	)

	fmt.Printf("Streamable HTTP server starting on %s\n", addr)
	fmt.Printf("  HTTP endpoint: %s\n", endpoint)

	// Start server in goroutine
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil {
			serverDone <- err
		}
	}()

	// Wait for either shutdown signal or server completion
	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		fmt.Println("HTTP server stopped normally")
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}
