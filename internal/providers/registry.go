package providers

import (
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
	"github.com/custodia-labs/mathnb/internal/logger"
)

// Deps holds the collaborators providers may need. Nil fields disable the
// providers that depend on them.
type Deps struct {
	Engine     driven.ComputationEngine
	Recognizer driven.InkRecognizer
}

// BuilderFunc creates a provider factory from the available collaborators.
// It returns ErrEngineUnavailable or ErrRecognizerUnavailable when a
// required collaborator is missing.
type BuilderFunc func(deps Deps) (driven.ProviderFactory, error)

// Registry maps provider names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a provider builder under name.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Has returns true if a provider with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the factory for one provider.
func (r *Registry) Build(name string, deps Deps) (driven.ProviderFactory, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, name)
	}
	return builder(deps)
}

// Factories builds the factories for names, in order. Providers whose
// collaborators are missing are skipped with a warning; unknown names
// are an error.
func (r *Registry) Factories(names []string, deps Deps) ([]driven.ProviderFactory, error) {
	factories := make([]driven.ProviderFactory, 0, len(names))
	for _, name := range names {
		factory, err := r.Build(name, deps)
		switch {
		case errors.Is(err, domain.ErrEngineUnavailable), errors.Is(err, domain.ErrRecognizerUnavailable):
			logger.Warn("provider %s disabled: %v", name, err)
			continue
		case err != nil:
			return nil, fmt.Errorf("build provider %s: %w", name, err)
		}
		factories = append(factories, factory)
	}
	return factories, nil
}
