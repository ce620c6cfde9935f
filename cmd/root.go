package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mcp-prometheus-multitenant",
	Short: "MCP server for querying multiple Prometheus tenants",
	Long: `mcp-prometheus-multitenant is a Model Context Protocol (MCP) server that
provides access to one or more Prometheus backends through standardized
MCP interfaces.

This allows AI assistants to execute PromQL queries, discover metrics,
and analyze metrics data across all of your Prometheus tenants - each
with its own URL and credentials - and to fan a single query out to
every tenant at once.

The server supports various authentication methods per tenant including
basic auth and bearer tokens, and is configured through environment
variables.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version for the root command
func SetVersion(version string) {
	rootCmd.Version = version
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
