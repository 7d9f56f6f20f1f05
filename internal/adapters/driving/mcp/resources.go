package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for mathnb resources.
	uriScheme = "mathnb://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "notebooks",
		Name:        "notebooks",
		Description: "List of all stored notebooks",
		MIMEType:    "application/json",
	}, s.handleNotebooksResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "notebooks/{name}",
		Name:        "notebook-snapshot",
		Description: "Snapshot of a notebook: every style, relationship and the display order",
		MIMEType:    "application/json",
	}, s.handleNotebookResource)
}

// handleNotebooksResource returns a list of all stored notebooks.
func (s *Server) handleNotebooksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos, err := s.ports.Notebook.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing notebooks: %w", err)
	}

	type notebookInfo struct {
		Name       string `json:"name"`
		StyleCount int    `json:"styleCount"`
		URI        string `json:"uri"`
	}

	list := make([]notebookInfo, len(infos))
	for i, info := range infos {
		list[i] = notebookInfo{
			Name:       info.Name,
			StyleCount: info.StyleCount,
			URI:        uriScheme + "notebooks/" + info.Name,
		}
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling notebooks: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleNotebookResource returns the exported snapshot of one notebook.
func (s *Server) handleNotebookResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractNotebookName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	var buf bytes.Buffer
	if err := s.ports.Notebook.Export(ctx, name, &buf); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("exporting notebook: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     buf.String(),
		}},
	}, nil
}

// extractNotebookName extracts the name from a URI like mathnb://notebooks/{name}.
func extractNotebookName(uri string) string {
	const prefix = uriScheme + "notebooks/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	name := strings.TrimPrefix(uri, prefix)
	if strings.Contains(name, "/") {
		return ""
	}
	return name
}
