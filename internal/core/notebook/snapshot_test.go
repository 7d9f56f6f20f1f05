package notebook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

func buildSample(t *testing.T) *Notebook {
	t.Helper()
	nb := New()
	a := insertFormula(t, nb, domain.PositionBottom, "x = 2")
	b := insertFormula(t, nb, domain.PositionBottom, "x + x")
	request(t, nb, domain.InsertStyle{
		ParentID: b,
		Props:    domain.StyleProps{Role: domain.RoleDerived, Type: domain.TypeExpr, Data: domain.TextPayload("2x")},
	})
	request(t, nb, domain.InsertRelationship{
		FromID: a, ToID: b,
		Props: domain.RelationshipProps{Role: domain.RelationshipDependency},
	})
	request(t, nb, domain.MoveStyle{StyleID: b, AfterID: domain.PositionTop})
	return nb
}

func TestSnapshot_RoundTrip(t *testing.T) {
	nb := buildSample(t)

	raw, err := json.Marshal(nb.Snapshot())
	require.NoError(t, err)

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	restored, err := FromSnapshot(&snap)
	require.NoError(t, err)

	assert.Equal(t, nb.NextID(), restored.NextID())
	assert.Equal(t, nb.StyleOrder(), restored.StyleOrder())

	want, err := nb.FindStyles(domain.StylePattern{Recursive: true}, 0)
	require.NoError(t, err)
	got, err := restored.FindStyles(domain.StylePattern{Recursive: true}, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, nb.FindRelationships(domain.RelationshipPattern{}), restored.FindRelationships(domain.RelationshipPattern{}))
}

func TestFromSnapshot_VersionMismatch(t *testing.T) {
	snap := buildSample(t).Snapshot()
	snap.Version = "9.9.9"

	_, err := FromSnapshot(snap)
	assert.ErrorIs(t, err, domain.ErrIncompatibleVersion)
}

func TestFromSnapshot_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Snapshot)
	}{
		{
			name: "missing parent",
			mutate: func(s *domain.Snapshot) {
				s.StyleMap[50] = &domain.Style{ID: 50, ParentID: 49, Role: domain.RoleDerived}
			},
		},
		{
			name:   "order omits a top-level style",
			mutate: func(s *domain.Snapshot) { s.StyleOrder = s.StyleOrder[:1] },
		},
		{
			name:   "order repeats a style",
			mutate: func(s *domain.Snapshot) { s.StyleOrder = append(s.StyleOrder, s.StyleOrder[0]) },
		},
		{
			name:   "next id too low",
			mutate: func(s *domain.Snapshot) { s.NextID = 1 },
		},
		{
			name: "dangling relationship",
			mutate: func(s *domain.Snapshot) {
				for _, r := range s.RelationshipMap {
					r.ToID = 999
				}
			},
		},
		{
			name:   "nil snapshot",
			mutate: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var snap *domain.Snapshot
			if tt.mutate != nil {
				snap = buildSample(t).Snapshot()
				tt.mutate(snap)
			}
			_, err := FromSnapshot(snap)
			assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
		})
	}
}

func TestNotebook_CloneAndRestore(t *testing.T) {
	nb := buildSample(t)
	backup := nb.Clone()
	order := nb.StyleOrder()
	next := nb.NextID()

	insertFormula(t, nb, domain.PositionBottom, "later")
	request(t, nb, domain.DeleteStyle{StyleID: order[0]})
	assert.NotEqual(t, order, nb.StyleOrder())

	// The clone is unaffected by edits to the original.
	assert.Equal(t, order, backup.StyleOrder())

	nb.Restore(backup)
	assert.Equal(t, order, nb.StyleOrder())
	assert.Equal(t, next, nb.NextID())
	assert.Len(t, nb.RelationshipsOf(order[0]), 1)
}
