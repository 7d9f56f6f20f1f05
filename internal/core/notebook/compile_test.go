package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

func TestCompile_InsertDepthFirst(t *testing.T) {
	nb := New()
	a := insertFormula(t, nb, domain.PositionBottom, "a")

	changes, err := Compile(nb, domain.SourceUser, domain.InsertStyle{
		AfterID: domain.StylePosition(a),
		Props: domain.StyleProps{
			Role: domain.RoleFormula, Type: domain.TypeExpr, Data: domain.TextPayload("b"),
			RelationsFrom: map[domain.StyleID]domain.RelationshipProps{
				a: {Role: domain.RelationshipDependency},
			},
			Children: []domain.StyleProps{
				{Role: domain.RoleDerived, Type: domain.TypeExpr},
				{Role: domain.RoleText, Type: domain.TypeText},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, changes, 4)

	cell := changes[0].(domain.StyleInserted)
	rel := changes[1].(domain.RelationshipInserted)
	first := changes[2].(domain.StyleInserted)
	second := changes[3].(domain.StyleInserted)

	assert.Equal(t, domain.StylePosition(a), cell.AfterID)
	assert.Equal(t, a, rel.Relationship.FromID)
	assert.Equal(t, cell.Style.ID, rel.Relationship.ToID)
	assert.Equal(t, cell.Style.ID, first.Style.ParentID)
	assert.Equal(t, cell.Style.ID, second.Style.ParentID)

	// Ids continue from the notebook counter in emission order.
	assert.Equal(t, domain.StyleID(nb.NextID()), cell.Style.ID)
	assert.Equal(t, domain.RelationshipID(cell.Style.ID+1), rel.Relationship.ID)
	assert.Equal(t, cell.Style.ID+2, first.Style.ID)
	assert.Equal(t, cell.Style.ID+3, second.Style.ID)

	// Compilation does not touch the notebook.
	assert.Equal(t, 1, nb.Len())

	require.NoError(t, nb.ApplyAll(changes))
	assert.Equal(t, 4, nb.Len())
	assert.Equal(t, int64(second.Style.ID)+1, nb.NextID())
}

func TestCompile_InsertRequiresRoleAndType(t *testing.T) {
	_, err := Compile(New(), domain.SourceUser, domain.InsertStyle{AfterID: domain.PositionTop})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCompile_DeleteCascade(t *testing.T) {
	nb := New()
	a := insertFormula(t, nb, domain.PositionBottom, "x = 1")
	b := insertFormula(t, nb, domain.PositionBottom, "x + 1")

	changes := request(t, nb, domain.InsertStyle{
		ParentID: b,
		Props: domain.StyleProps{
			Role: domain.RoleDerived, Type: domain.TypeExpr,
			Children: []domain.StyleProps{{Role: domain.RolePresentation, Type: domain.TypeLatex}},
		},
	})
	derived := changes[0].(domain.StyleInserted).Style.ID
	latex := changes[1].(domain.StyleInserted).Style.ID

	// One relationship from outside the subtree, one inside it.
	outside := request(t, nb, domain.InsertRelationship{FromID: a, ToID: b})[0].(domain.RelationshipInserted).Relationship.ID
	inside := request(t, nb, domain.InsertRelationship{FromID: derived, ToID: latex})[0].(domain.RelationshipInserted).Relationship.ID

	cascade, err := Compile(nb, domain.SourceUser, domain.DeleteStyle{StyleID: b})
	require.NoError(t, err)

	var deletedRels []domain.RelationshipID
	var deletedStyles []domain.StyleID
	sawStyle := false
	for _, c := range cascade {
		switch ch := c.(type) {
		case domain.RelationshipDeleted:
			assert.False(t, sawStyle, "relationships are deleted before styles")
			deletedRels = append(deletedRels, ch.Relationship.ID)
		case domain.StyleDeleted:
			sawStyle = true
			deletedStyles = append(deletedStyles, ch.Style.ID)
		default:
			t.Fatalf("unexpected change %T in cascade", c)
		}
	}

	assert.ElementsMatch(t, []domain.RelationshipID{outside, inside}, deletedRels)
	assert.Equal(t, []domain.StyleID{latex, derived, b}, deletedStyles)

	require.NoError(t, nb.ApplyAll(cascade))
	assert.Equal(t, []domain.StyleID{a}, nb.StyleOrder())
	assert.Equal(t, 1, nb.Len())
	assert.Empty(t, nb.RelationshipsOf(a))
	_, err = nb.GetStyle(latex)
	assert.ErrorIs(t, err, domain.ErrUnknownStyle)
}

func TestCompile_DeleteUnknown(t *testing.T) {
	_, err := Compile(New(), domain.SourceUser, domain.DeleteStyle{StyleID: 5})
	assert.ErrorIs(t, err, domain.ErrUnknownStyle)
}

func TestApply_DeleteWithChildrenIsDangling(t *testing.T) {
	nb := New()
	a := insertFormula(t, nb, domain.PositionBottom, "a")
	request(t, nb, domain.InsertStyle{
		ParentID: a,
		Props:    domain.StyleProps{Role: domain.RoleDerived, Type: domain.TypeExpr},
	})

	s, err := nb.GetStyle(a)
	require.NoError(t, err)
	err = nb.Apply(domain.StyleDeleted{Style: *s})
	assert.ErrorIs(t, err, domain.ErrDanglingReference)
	assert.True(t, domain.IsInvariantViolation(err))
}

func TestApply_DuplicateID(t *testing.T) {
	nb := New()
	a := insertFormula(t, nb, domain.PositionBottom, "a")

	err := nb.Apply(domain.StyleInserted{Style: domain.Style{ID: a, Role: domain.RoleFormula, Type: domain.TypeExpr}})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
}

func TestCompile_ChangeStyle(t *testing.T) {
	nb := New()
	a := insertFormula(t, nb, domain.PositionBottom, "a")

	t.Run("equal data is a no-op", func(t *testing.T) {
		changes, err := Compile(nb, domain.SourceUser, domain.ChangeStyle{StyleID: a, Data: domain.TextPayload("a")})
		require.NoError(t, err)
		assert.Empty(t, changes)
	})

	t.Run("new data", func(t *testing.T) {
		changes := request(t, nb, domain.ChangeStyle{StyleID: a, Data: domain.TextPayload("b")})
		require.Len(t, changes, 1)
		ch := changes[0].(domain.StyleChanged)
		assert.Equal(t, domain.TextPayload("a"), ch.PreviousData)

		s, err := nb.GetStyle(a)
		require.NoError(t, err)
		assert.Equal(t, domain.TextPayload("b"), s.Data)
	})

	t.Run("unknown style", func(t *testing.T) {
		_, err := Compile(nb, domain.SourceUser, domain.ChangeStyle{StyleID: 404})
		assert.ErrorIs(t, err, domain.ErrUnknownStyle)
	})
}

func TestCompile_ConvertStyle(t *testing.T) {
	nb := New()
	changes := request(t, nb, domain.InsertStyle{
		AfterID: domain.PositionBottom,
		Props: domain.StyleProps{
			Role: domain.RoleFormula, Type: domain.TypeStrokes,
			Data: domain.StrokesPayload{Strokes: [][]domain.Point{{{X: 1, Y: 2}}}},
		},
	})
	id := changes[0].(domain.StyleInserted).Style.ID

	noop, err := Compile(nb, domain.SourceUser, domain.ConvertStyle{StyleID: id, Role: domain.RoleFormula})
	require.NoError(t, err)
	assert.Empty(t, noop)

	converted := request(t, nb, domain.ConvertStyle{StyleID: id, Type: domain.TypeExpr, Data: domain.TextPayload("x+1")})
	require.Len(t, converted, 1)
	ch := converted[0].(domain.StyleConverted)
	assert.Empty(t, ch.Role)
	assert.Equal(t, domain.TypeExpr, ch.Type)

	s, err := nb.GetStyle(id)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFormula, s.Role)
	assert.Equal(t, domain.TypeExpr, s.Type)
	assert.Equal(t, domain.TextPayload("x+1"), s.Data)
}

func TestCompile_MoveStyle(t *testing.T) {
	nb := New()
	a := insertFormula(t, nb, domain.PositionBottom, "a")
	b := insertFormula(t, nb, domain.PositionBottom, "b")
	c := insertFormula(t, nb, domain.PositionBottom, "c")

	changes := request(t, nb, domain.MoveStyle{StyleID: c, AfterID: domain.PositionTop})
	require.Len(t, changes, 1)
	moved := changes[0].(domain.StyleMoved)
	assert.Equal(t, 2, moved.OldPosition)
	assert.Equal(t, 0, moved.NewPosition)
	assert.Equal(t, []domain.StyleID{c, a, b}, nb.StyleOrder())

	// Re-applying the same move changes nothing.
	require.NoError(t, nb.Apply(moved))
	assert.Equal(t, []domain.StyleID{c, a, b}, nb.StyleOrder())

	changes = request(t, nb, domain.MoveStyle{StyleID: c, AfterID: domain.StylePosition(b)})
	require.Len(t, changes, 1)
	assert.Equal(t, []domain.StyleID{a, b, c}, nb.StyleOrder())

	t.Run("already in place", func(t *testing.T) {
		changes, err := Compile(nb, domain.SourceUser, domain.MoveStyle{StyleID: c, AfterID: domain.PositionBottom})
		require.NoError(t, err)
		assert.Empty(t, changes)
	})

	t.Run("after itself", func(t *testing.T) {
		_, err := Compile(nb, domain.SourceUser, domain.MoveStyle{StyleID: c, AfterID: domain.StylePosition(c)})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("child style", func(t *testing.T) {
		child := request(t, nb, domain.InsertStyle{
			ParentID: a,
			Props:    domain.StyleProps{Role: domain.RoleDerived, Type: domain.TypeExpr},
		})[0].(domain.StyleInserted).Style.ID
		_, err := Compile(nb, domain.SourceUser, domain.MoveStyle{StyleID: child, AfterID: domain.PositionTop})
		assert.ErrorIs(t, err, domain.ErrNotTopLevel)
	})

	t.Run("unknown reference", func(t *testing.T) {
		_, err := Compile(nb, domain.SourceUser, domain.MoveStyle{StyleID: a, AfterID: 999})
		assert.ErrorIs(t, err, domain.ErrUnknownPositionReference)
	})
}

func TestCompile_NilRequest(t *testing.T) {
	_, err := Compile(New(), domain.SourceUser, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
