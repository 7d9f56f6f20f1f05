package algebra

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/notebook"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
	"github.com/custodia-labs/mathnb/internal/core/services"
)

// mockEngine answers from a fixed table.
type mockEngine struct {
	results map[string]string
	err     error
}

func (m *mockEngine) Evaluate(_ context.Context, expr string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if r, ok := m.results[expr]; ok {
		return r, nil
	}
	return "", domain.ErrUnsupportedExpression
}

func newSession(t *testing.T, engine driven.ComputationEngine) *services.Session {
	t.Helper()
	s, err := services.NewSession("test", notebook.New(), []driven.ProviderFactory{Factory(engine)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func insert(t *testing.T, s *services.Session, text string) domain.StyleID {
	t.Helper()
	result, err := s.RequestChanges(context.Background(), domain.SourceUser, []domain.ChangeRequest{domain.InsertStyle{
		AfterID: domain.PositionBottom,
		Props:   domain.StyleProps{Role: domain.RoleFormula, Type: domain.TypeExpr, Data: domain.TextPayload(text)},
	}})
	require.NoError(t, err)
	return result.Changes[0].(domain.StyleInserted).Style.ID
}

func children(t *testing.T, s *services.Session, id domain.StyleID) []*domain.Style {
	t.Helper()
	c, err := s.Reader().ChildStyles(id)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresEngine(t *testing.T) {
	_, err := New(notebook.New(), nil)
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
}

func TestAlgebra_Simplifies(t *testing.T) {
	s := newSession(t, &mockEngine{results: map[string]string{"x+x": "2x"}})

	id := insert(t, s, "x+x")
	c := children(t, s, id)
	require.Len(t, c, 1)
	assert.Equal(t, domain.RoleDerived, c[0].Role)
	assert.Equal(t, Source, c[0].Source)
	assert.Equal(t, domain.TextPayload("2x"), c[0].Data)
}

func TestAlgebra_NoChildWhenNothingToSay(t *testing.T) {
	s := newSession(t, &mockEngine{results: map[string]string{"y": "y"}})

	assert.Empty(t, children(t, s, insert(t, s, "y")), "result equal to input")
	assert.Empty(t, children(t, s, insert(t, s, "sin(x)")), "unsupported expression")
	assert.Empty(t, children(t, s, insert(t, s, "   ")), "blank formula")
}

func TestAlgebra_EngineFailure(t *testing.T) {
	s := newSession(t, &mockEngine{err: errors.New("division by zero")})

	c := children(t, s, insert(t, s, "1/0"))
	require.Len(t, c, 1)
	assert.Equal(t, domain.RoleEvaluationError, c[0].Role)
	assert.Equal(t, domain.StyleSubrole(RuleSimplify), c[0].Subrole)
	assert.Equal(t, domain.ErrorPayload{Message: "division by zero"}, c[0].Data)
}

func TestAlgebra_ToolPromotesResult(t *testing.T) {
	s := newSession(t, &mockEngine{results: map[string]string{"x+x": "2x"}})
	first := insert(t, s, "x+x")
	last := insert(t, s, "z")
	derived := children(t, s, first)[0]

	result, err := s.UseTool(context.Background(), derived.ID)
	require.NoError(t, err)

	promoted := result.Changes[0].(domain.StyleInserted).Style
	assert.Equal(t, domain.RoleFormula, promoted.Role)
	assert.Equal(t, domain.TextPayload("2x"), promoted.Data)
	assert.Equal(t, []domain.StyleID{first, promoted.ID, last}, s.Reader().StyleOrder())
}

func TestAlgebra_ToolIgnoresOtherStyles(t *testing.T) {
	table, err := New(notebook.New(), &mockEngine{})
	require.NoError(t, err)

	reqs, err := table.UseTool(context.Background(), &domain.Style{ID: 3, ParentID: 1, Role: domain.RoleEvaluationError})
	require.NoError(t, err)
	assert.Empty(t, reqs)
}
