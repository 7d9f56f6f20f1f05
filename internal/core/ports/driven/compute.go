package driven

import (
	"context"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// ComputationEngine evaluates or simplifies a textual expression.
// Returns ErrUnsupportedExpression when the engine cannot handle the input.
type ComputationEngine interface {
	Evaluate(ctx context.Context, expr string) (string, error)
}

// InkRecognizer turns handwritten strokes into text.
type InkRecognizer interface {
	Recognize(ctx context.Context, strokes domain.StrokesPayload) (string, error)
}
