package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// NotebookService manages named notebooks and routes edits through the
// propagation engine.
type NotebookService interface {
	// Create makes an empty notebook. Returns ErrAlreadyExists if the name is taken.
	Create(ctx context.Context, name string) error

	// Open loads a notebook and starts its providers. Opening an open
	// notebook is a no-op. Returns ErrNotFound for unknown names.
	Open(ctx context.Context, name string) error

	// List returns all stored notebooks.
	List(ctx context.Context) ([]domain.NotebookInfo, error)

	// Delete closes and removes a notebook.
	Delete(ctx context.Context, name string) error

	// Snapshot returns the current persisted shape of a notebook.
	Snapshot(ctx context.Context, name string) (*domain.Snapshot, error)

	// Styles returns every style of a notebook in document order.
	Styles(ctx context.Context, name string) ([]*domain.Style, error)

	// Relationships returns every relationship of a notebook, ordered by id.
	Relationships(ctx context.Context, name string) ([]*domain.Relationship, error)

	// RequestChanges applies requests on behalf of source and runs
	// propagation to quiescence. On a rule cycle the partial result is
	// returned together with a *domain.RuleCycleError.
	RequestChanges(ctx context.Context, name string, source domain.StyleSource, requests []domain.ChangeRequest) (*domain.ChangeResult, error)

	// UseTool activates the tool of the provider owning a style.
	UseTool(ctx context.Context, name string, styleID domain.StyleID) (*domain.ChangeResult, error)

	// Import stores a JSON snapshot read from r under name, replacing any
	// existing notebook of that name.
	Import(ctx context.Context, name string, r io.Reader) error

	// Export writes the notebook as a JSON snapshot to w.
	Export(ctx context.Context, name string, w io.Writer) error

	// Close closes every open notebook.
	Close() error
}
