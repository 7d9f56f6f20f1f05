// Package ink provides the INK provider: formulas drawn as strokes get a
// RECOGNIZED child holding the recognised text. Using the tool on that
// child turns the drawing into a typed EXPR formula.
package ink

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
	"github.com/custodia-labs/mathnb/internal/core/rules"
)

// Source is the provider's source name.
const Source domain.StyleSource = "INK"

// RuleRecognize names the recognition rule.
const RuleRecognize = "recognize"

// Factory returns a provider factory recognising strokes with recognizer.
func Factory(recognizer driven.InkRecognizer) driven.ProviderFactory {
	return func(reader driven.NotebookReader) (driven.Provider, error) {
		return New(reader, recognizer)
	}
}

// New creates the provider for one notebook.
func New(reader driven.NotebookReader, recognizer driven.InkRecognizer) (*rules.Table, error) {
	if recognizer == nil {
		return nil, domain.ErrRecognizerUnavailable
	}
	return rules.New(Source, reader, []rules.Rule{{
		Name:         RuleRecognize,
		Parent:       domain.StylePattern{Role: domain.RoleFormula, Type: domain.TypeStrokes},
		Role:         domain.RoleRecognized,
		Type:         domain.TypeText,
		ComputeAsync: recognize(recognizer),
	}}, rules.WithTool(convert))
}

func recognize(recognizer driven.InkRecognizer) rules.AsyncComputeFunc {
	return func(ctx context.Context, data domain.Payload) (domain.Payload, error) {
		if data == nil {
			return nil, nil
		}
		strokes, ok := data.(domain.StrokesPayload)
		if !ok {
			return nil, fmt.Errorf("%w: expected strokes, got %T", domain.ErrInvalidInput, data)
		}
		if len(strokes.Strokes) == 0 {
			return nil, nil
		}

		text, err := recognizer.Recognize(ctx, strokes)
		if err != nil {
			return nil, err
		}
		if text = strings.TrimSpace(text); text == "" {
			return nil, nil
		}
		return domain.TextPayload(text), nil
	}
}

// convert replaces the drawing the recognised child belongs to with an
// EXPR formula holding the recognised text.
func convert(_ context.Context, _ driven.NotebookReader, style *domain.Style) ([]domain.ChangeRequest, error) {
	if style.Role != domain.RoleRecognized || style.ParentID == 0 {
		return nil, nil
	}
	return []domain.ChangeRequest{domain.ConvertStyle{
		StyleID: style.ParentID,
		Type:    domain.TypeExpr,
		Data:    style.Data,
	}}, nil
}
