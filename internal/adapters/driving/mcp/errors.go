package mcp

import "errors"

// ErrMissingNotebookService is returned when the notebook service is not provided.
var ErrMissingNotebookService = errors.New("mcp: notebook service is required")
