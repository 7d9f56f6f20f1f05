package providers

import (
	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
	"github.com/custodia-labs/mathnb/internal/providers/algebra"
	"github.com/custodia-labs/mathnb/internal/providers/ink"
	"github.com/custodia-labs/mathnb/internal/providers/notation"
	"github.com/custodia-labs/mathnb/internal/providers/symbols"
)

// RegisterDefaults registers all built-in providers with the registry.
// Call this during application initialisation to enable standard providers.
func RegisterDefaults(r *Registry) {
	r.Register("symbols", buildSymbols)
	r.Register("algebra", buildAlgebra)
	r.Register("notation", buildNotation)
	r.Register("ink", buildInk)
}

func buildSymbols(_ Deps) (driven.ProviderFactory, error) {
	return symbols.Factory(), nil
}

// buildAlgebra requires a computation engine.
func buildAlgebra(deps Deps) (driven.ProviderFactory, error) {
	if deps.Engine == nil {
		return nil, domain.ErrEngineUnavailable
	}
	return algebra.Factory(deps.Engine), nil
}

// buildNotation uses the embedded rewrite rules.
func buildNotation(_ Deps) (driven.ProviderFactory, error) {
	rules, err := notation.DefaultRules()
	if err != nil {
		return nil, err
	}
	return notation.Factory(rules), nil
}

// buildInk requires a handwriting recognizer.
func buildInk(deps Deps) (driven.ProviderFactory, error) {
	if deps.Recognizer == nil {
		return nil, domain.ErrRecognizerUnavailable
	}
	return ink.Factory(deps.Recognizer), nil
}
