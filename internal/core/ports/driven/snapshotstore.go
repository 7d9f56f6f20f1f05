package driven

import (
	"context"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// SnapshotStore persists notebooks by name.
type SnapshotStore interface {
	// Save creates or replaces the named notebook.
	Save(ctx context.Context, name string, snap *domain.Snapshot) error

	// Load returns the named notebook. Returns ErrNotFound if it does not exist.
	Load(ctx context.Context, name string) (*domain.Snapshot, error)

	// Delete removes the named notebook. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, name string) error

	// List returns summaries of all stored notebooks, ordered by name.
	List(ctx context.Context) ([]domain.NotebookInfo, error)
}
