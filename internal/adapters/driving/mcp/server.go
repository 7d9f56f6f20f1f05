// Package mcp exposes notebooks to MCP (Model Context Protocol) clients,
// letting assistants read notebooks and edit cells through the
// propagation engine.
//
// Tools: list_notebooks, create_notebook, list_cells, insert_cell,
// change_cell, delete_cell and use_tool. Every editing tool runs the
// providers until the notebook settles and returns the resulting changes.
// A rule cycle is reported as a warning alongside the applied changes.
//
// Resources: mathnb://notebooks lists stored notebooks and
// mathnb://notebooks/{name} returns a notebook snapshot.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/mathnb/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// shutdownTimeout bounds how long RunHTTP waits for open sessions.
const shutdownTimeout = 5 * time.Second

const instructions = `Cells are identified by numeric ids. Top-level cells hold user formulas;
providers attach derived cells (simplified forms, LaTeX, recognised ink) and
relationships between definitions and their uses. Call list_cells after an
edit to see the settled notebook.`

// Server serves one notebook service over MCP.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a server and registers the notebook tools and resources.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports: ports,
		server: mcp.NewServer(&mcp.Implementation{Name: "mathnb", Version: Version}, &mcp.ServerOptions{
			Instructions: instructions,
		}),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves a single client over stdio until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP transport. All HTTP sessions share
// the same notebook service.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves handler on addr until ctx is cancelled, then shuts the
// listener down and waits up to shutdownTimeout for requests in flight.
func RunHTTP(ctx context.Context, addr string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan error, 1)
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdown <- httpServer.Shutdown(sctx)
	}()

	logger.Info("serving MCP on http://%s", addr)
	err := httpServer.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdown; err != nil {
		return fmt.Errorf("shutting down MCP server: %w", err)
	}
	return nil
}
