package tui

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/mathnb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// Row is a style with its nesting depth. Depth 0 is a top-level cell.
type Row struct {
	Style *domain.Style
	Depth int
}

// Rows computes nesting depths for styles given in document order.
func Rows(cells []*domain.Style) []Row {
	depth := make(map[domain.StyleID]int, len(cells))
	rows := make([]Row, 0, len(cells))
	for _, s := range cells {
		d := 0
		if !s.IsTopLevel() {
			d = depth[s.ParentID] + 1
		}
		depth[s.ID] = d
		rows = append(rows, Row{Style: s, Depth: d})
	}
	return rows
}

// CellLine renders one row: id, role, type, source and a payload summary,
// indented under its parent.
func CellLine(st *styles.Styles, row Row) string {
	s := row.Style

	indent := ""
	if row.Depth > 0 {
		indent = strings.Repeat("   ", row.Depth-1) + "└─ "
	}

	head := fmt.Sprintf("#%d %s", s.ID, s.Role)
	if s.Subrole != "" {
		head += "/" + string(s.Subrole)
	}
	head += " " + string(s.Type)

	style := st.Annotation
	switch {
	case s.Type == domain.TypeError:
		style = st.Error
	case row.Depth == 0:
		style = st.Cell
	}

	line := indent + style.Render(head) + " " + st.Muted.Render("["+string(s.Source)+"]")
	if text := PayloadSummary(s.Data); text != "" {
		line += "  " + text
	}
	return line
}

// PayloadSummary returns a one-line description of a payload.
func PayloadSummary(p domain.Payload) string {
	switch v := p.(type) {
	case nil:
		return ""
	case domain.TextPayload:
		return fmt.Sprintf("%q", string(v))
	case domain.StrokesPayload:
		return fmt.Sprintf("<%d strokes>", len(v.Strokes))
	case domain.ErrorPayload:
		return v.Message
	case domain.OpaquePayload:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
