package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/mathnb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mathnb/internal/core/domain"
)

func TestStylesFor_NonTerminalIsPlain(t *testing.T) {
	st := stylesFor(new(bytes.Buffer))

	assert.Equal(t, "#1 FORMULA", st.Cell.Render("#1 FORMULA"))
}

func TestRenderNotebook(t *testing.T) {
	cells := []*domain.Style{
		{ID: 1, Role: domain.RoleFormula, Type: domain.TypeExpr, Source: domain.SourceUser, Data: domain.TextPayload("a = 2")},
		{ID: 2, ParentID: 1, Role: domain.RolePresentation, Type: domain.TypeLatex, Source: "NOTATION", Data: domain.TextPayload("a = 2")},
		{ID: 3, Role: domain.RoleFormula, Subrole: "file:a.txt", Type: domain.TypeStrokes, Source: domain.SourceUser,
			Data: domain.StrokesPayload{Strokes: [][]domain.Point{{{X: 0, Y: 0}}, {{X: 1, Y: 1}}}}},
		{ID: 4, ParentID: 3, Role: domain.RoleEvaluationError, Subrole: "recognize", Type: domain.TypeError, Source: "INK",
			Data: domain.ErrorPayload{Message: "recognizer offline"}},
		{ID: 5, ParentID: 4, Role: "NOTE", Type: domain.TypeNone, Source: domain.SourceUser},
	}
	rels := []*domain.Relationship{
		{ID: 6, Role: domain.RelationshipDependency, FromID: 1, ToID: 3, Source: "SYMBOLS"},
	}

	buf := new(bytes.Buffer)
	renderNotebook(buf, styles.PlainStyles(), "demo", cells, rels)
	out := buf.String()

	assert.Contains(t, out, "Notebook: demo\n")
	assert.Contains(t, out, "  #1 FORMULA EXPR [USER]  \"a = 2\"\n")
	assert.Contains(t, out, "  └─ #2 PRESENTATION LATEX [NOTATION]  \"a = 2\"\n")
	assert.Contains(t, out, "  #3 FORMULA/file:a.txt STROKES [USER]  <2 strokes>\n")
	assert.Contains(t, out, "  └─ #4 EVALUATION-ERROR/recognize ERROR [INK]  recognizer offline\n")
	assert.Contains(t, out, "     └─ #5 NOTE NONE [USER]\n")
	assert.Contains(t, out, "Relationships:\n  #6 DEPENDENCY 1 -> 3 [SYMBOLS]\n")
}

func TestDescribeChange(t *testing.T) {
	pos := 2
	tests := []struct {
		name    string
		summary domain.ChangeSummary
		want    string
	}{
		{
			name: "relationship",
			summary: domain.ChangeSummary{
				Type: domain.ChangeRelationshipInserted, RelationshipID: 7,
				Role: "DEPENDENCY", FromID: 1, ToID: 3, Source: "SYMBOLS",
			},
			want: "relationshipInserted  #7 DEPENDENCY 1 -> 3 [SYMBOLS]",
		},
		{
			name:    "move",
			summary: domain.ChangeSummary{Type: domain.ChangeStyleMoved, StyleID: 4, Position: &pos},
			want:    "styleMoved            #4 to position 2",
		},
		{
			name: "annotation",
			summary: domain.ChangeSummary{
				Type: domain.ChangeStyleInserted, StyleID: 2, ParentID: 1, Role: "DERIVED",
				StyleType: domain.TypeExpr, Source: "ALGEBRA", Data: json.RawMessage(`"2x"`),
			},
			want: `styleInserted         #2 under #1 DERIVED EXPR [ALGEBRA] "2x"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeChange(tt.summary))
		})
	}
}

func TestPrintResult(t *testing.T) {
	buf := new(bytes.Buffer)

	printResult(buf, styles.PlainStyles(), &domain.ChangeResult{})
	assert.Equal(t, "No changes.\n", buf.String())

	buf.Reset()
	printResult(buf, styles.PlainStyles(), nil)
	assert.Empty(t, buf.String())
}
