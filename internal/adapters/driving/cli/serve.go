package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/mathnb/internal/adapters/driving/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so assistants can read and edit
notebooks.

By default, the server communicates over stdio using JSON-RPC. Use --http
to serve the streamable HTTP transport instead; engine metrics are then
exposed in Prometheus format on /metrics.

Examples:
  # Stdio mode
  mathnb serve

  # HTTP mode
  mathnb serve --http :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("http", "", "HTTP listen address (empty = use stdio)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	addr, err := cmd.Flags().GetString("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{Notebook: notebookService})
	if err != nil {
		return err
	}

	if addr != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", addr)
		return mcp.RunHTTP(cmd.Context(), addr, serveMux(server.Handler()))
	}

	return server.Run(cmd.Context())
}

// serveMux routes /metrics to the Prometheus handler and everything else
// to the MCP transport.
func serveMux(mcpHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", mcpHandler)
	return mux
}
