// Package algebra provides the ALGEBRA provider: every EXPR formula gets a
// DERIVED child holding the simplified form computed by the computation
// engine. Its tool copies a derived result into a new formula cell.
package algebra

import (
	"context"
	"errors"
	"strings"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
	"github.com/custodia-labs/mathnb/internal/core/rules"
)

// Source is the provider's source name.
const Source domain.StyleSource = "ALGEBRA"

// RuleSimplify names the simplification rule.
const RuleSimplify = "simplify"

// Factory returns a provider factory evaluating formulas with engine.
func Factory(engine driven.ComputationEngine) driven.ProviderFactory {
	return func(reader driven.NotebookReader) (driven.Provider, error) {
		return New(reader, engine)
	}
}

// New creates the provider for one notebook.
func New(reader driven.NotebookReader, engine driven.ComputationEngine) (*rules.Table, error) {
	if engine == nil {
		return nil, domain.ErrEngineUnavailable
	}
	return rules.New(Source, reader, []rules.Rule{{
		Name:         RuleSimplify,
		Parent:       domain.StylePattern{Role: domain.RoleFormula, Type: domain.TypeExpr},
		Role:         domain.RoleDerived,
		Type:         domain.TypeExpr,
		ComputeAsync: simplify(engine),
	}}, rules.WithTool(promote))
}

// simplify evaluates the formula text. Blank formulas, unsupported
// expressions and results identical to the input produce no child.
func simplify(engine driven.ComputationEngine) rules.AsyncComputeFunc {
	return func(ctx context.Context, data domain.Payload) (domain.Payload, error) {
		text, _ := domain.PayloadText(data)
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil
		}

		result, err := engine.Evaluate(ctx, text)
		if errors.Is(err, domain.ErrUnsupportedExpression) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if result == text {
			return nil, nil
		}
		return domain.TextPayload(result), nil
	}
}

// promote inserts a derived result as a new formula after the cell it
// was derived from.
func promote(_ context.Context, reader driven.NotebookReader, style *domain.Style) ([]domain.ChangeRequest, error) {
	if style.Role != domain.RoleDerived {
		return nil, nil
	}
	top, err := reader.TopLevelStyleOf(style.ID)
	if err != nil {
		return nil, err
	}
	return []domain.ChangeRequest{domain.InsertStyle{
		AfterID: domain.StylePosition(top.ID),
		Props: domain.StyleProps{
			Role: domain.RoleFormula,
			Type: domain.TypeExpr,
			Data: style.Data,
		},
	}}, nil
}
