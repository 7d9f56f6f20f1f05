// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// NotebookLoaded carries the current content of the notebook.
type NotebookLoaded struct {
	Styles        []*domain.Style
	Relationships []*domain.Relationship
	Err           error
}

// ChangesApplied carries the outcome of an edit or a tool use.
type ChangesApplied struct {
	Result *domain.ChangeResult
	Err    error
}
