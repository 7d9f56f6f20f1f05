package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/custodia-labs/mathnb/internal/adapters/driving/tui"
	"github.com/custodia-labs/mathnb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// stylesFor returns coloured styles when w is a terminal.
func stylesFor(w io.Writer) *styles.Styles {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return styles.DefaultStyles()
	}
	return styles.PlainStyles()
}

// renderNotebook writes the cell tree and the relationships of a notebook.
// cells must be in document order.
func renderNotebook(w io.Writer, st *styles.Styles, name string, cells []*domain.Style, rels []*domain.Relationship) {
	fmt.Fprintln(w, st.Title.Render("Notebook: "+name))
	if len(cells) == 0 {
		fmt.Fprintln(w, st.Muted.Render("  (empty)"))
		return
	}

	for _, row := range tui.Rows(cells) {
		fmt.Fprintln(w, "  "+tui.CellLine(st, row))
	}

	if len(rels) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Title.Render("Relationships:"))
	for _, r := range rels {
		line := fmt.Sprintf("  #%d %s %d -> %d", r.ID, r.Role, r.FromID, r.ToID)
		fmt.Fprintf(w, "%s %s\n", st.Relationship.Render(line), st.Muted.Render("["+string(r.Source)+"]"))
	}
}

// printResult writes the changes a request produced.
func printResult(w io.Writer, st *styles.Styles, result *domain.ChangeResult) {
	if result == nil {
		return
	}
	if len(result.Changes) == 0 {
		fmt.Fprintln(w, st.Muted.Render("No changes."))
		return
	}
	for _, c := range result.Changes {
		fmt.Fprintf(w, "  %s\n", describeChange(domain.Summarize(c)))
	}
	fmt.Fprintln(w, st.Muted.Render(fmt.Sprintf("%d changes, %d provider rounds", len(result.Changes), result.Rounds)))
}

func describeChange(s domain.ChangeSummary) string {
	switch s.Type {
	case domain.ChangeRelationshipInserted, domain.ChangeRelationshipDeleted:
		return fmt.Sprintf("%-21s #%d %s %d -> %d [%s]", s.Type, s.RelationshipID, s.Role, s.FromID, s.ToID, s.Source)
	case domain.ChangeStyleMoved:
		pos := 0
		if s.Position != nil {
			pos = *s.Position
		}
		return fmt.Sprintf("%-21s #%d to position %d", s.Type, s.StyleID, pos)
	}

	line := fmt.Sprintf("%-21s #%d", s.Type, s.StyleID)
	if s.ParentID != 0 {
		line += fmt.Sprintf(" under #%d", s.ParentID)
	}
	if s.Role != "" {
		line += " " + s.Role
	}
	if s.StyleType != "" {
		line += " " + string(s.StyleType)
	}
	if s.Source != "" {
		line += " [" + string(s.Source) + "]"
	}
	if len(s.Data) > 0 {
		line += " " + string(s.Data)
	}
	return line
}
