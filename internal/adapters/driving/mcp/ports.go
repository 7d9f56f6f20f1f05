package mcp

import (
	"github.com/custodia-labs/mathnb/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
type Ports struct {
	// Notebook manages notebooks and their cells.
	Notebook driving.NotebookService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Notebook == nil {
		return ErrMissingNotebookService
	}
	return nil
}
