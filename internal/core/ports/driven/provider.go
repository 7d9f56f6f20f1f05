package driven

import (
	"context"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// Provider is a plug-in that observes applied changes and answers with
// further change requests. Each open notebook owns its own provider
// instances, created in registration order.
type Provider interface {
	// Source returns the provider's source name. Styles created from the
	// provider's requests are attributed to it.
	Source() domain.StyleSource

	// OnChanges is called once per propagation round with every change
	// applied in the previous round. The notebook already reflects them.
	// Returning an invariant violation aborts the whole call; any other
	// error drops this provider's output for the round.
	OnChanges(ctx context.Context, changes []domain.Change) ([]domain.ChangeRequest, error)

	// UseTool is invoked when a user activates a style this provider owns.
	// Providers without tools return (nil, nil).
	UseTool(ctx context.Context, style *domain.Style) ([]domain.ChangeRequest, error)

	// Close releases resources held by the provider.
	Close() error
}

// ProviderFactory creates a provider bound to one notebook.
type ProviderFactory func(reader NotebookReader) (Provider, error)
