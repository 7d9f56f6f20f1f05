// Package tui provides an interactive terminal editor for a notebook.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/mathnb/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Notebook reads and edits notebooks.
	Notebook driving.NotebookService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Notebook == nil {
		return ErrMissingNotebookService
	}
	return nil
}
