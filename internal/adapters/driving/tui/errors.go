package tui

import "errors"

// ErrMissingNotebookService is returned when the notebook service is not provided.
var ErrMissingNotebookService = errors.New("tui: notebook service is required")

// ErrMissingNotebook is returned when no notebook name is given.
var ErrMissingNotebook = errors.New("tui: notebook name is required")
