package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/mathnb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/mathnb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/mathnb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// Mode is what the keyboard currently drives.
type Mode int

const (
	// ModeBrowse moves the selection and runs single-key commands.
	ModeBrowse Mode = iota
	// ModeInsert edits the text of a new formula.
	ModeInsert
	// ModeEdit edits the text of the selected cell.
	ModeEdit
)

// App is the notebook editor following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports    *Ports
	ctx      context.Context
	notebook string

	styles *styles.Styles
	keys   *keymap.KeyMap
	input  textinput.Model

	rows     []Row
	rels     []*domain.Relationship
	selected int
	mode     Mode

	// status describes the outcome of the last edit.
	status  string
	warning string
	err     error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates an editor for the named notebook.
func NewApp(ports *Ports, notebook string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if notebook == "" {
		return nil, ErrMissingNotebook
	}

	ti := textinput.New()
	ti.Placeholder = "x + x"
	ti.CharLimit = 1024
	ti.Width = 60

	return &App{
		ports:    ports,
		ctx:      context.Background(),
		notebook: notebook,
		styles:   styles.DefaultStyles(),
		keys:     keymap.DefaultKeyMap(),
		input:    ti,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// WithStyles replaces the default styles.
func (a *App) WithStyles(s *styles.Styles) *App {
	a.styles = s
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("mathnb - "+a.notebook),
		a.load(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case messages.NotebookLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.rows = Rows(msg.Styles)
		a.rels = msg.Relationships
		a.selected = min(a.selected, max(len(a.rows)-1, 0))
		return a, nil

	case messages.ChangesApplied:
		a.handleResult(msg)
		return a, a.load()

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		if a.mode == ModeBrowse {
			return a.updateBrowse(msg)
		}
		return a.updateEditor(msg)
	}

	if a.mode != ModeBrowse {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleResult(msg messages.ChangesApplied) {
	a.err = nil
	a.warning = ""

	var cycle *domain.RuleCycleError
	switch {
	case errors.As(msg.Err, &cycle):
		a.warning = cycle.Error()
	case msg.Err != nil:
		a.err = msg.Err
		a.status = ""
		return
	}

	a.status = "No changes"
	if msg.Result != nil && len(msg.Result.Changes) > 0 {
		a.status = fmt.Sprintf("%d changes, %d provider rounds", len(msg.Result.Changes), msg.Result.Rounds)
	}
}

func (a *App) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keys.Quit):
		return a, tea.Quit

	case keymap.Matches(k, a.keys.Up):
		if a.selected > 0 {
			a.selected--
		}

	case keymap.Matches(k, a.keys.Down):
		if a.selected < len(a.rows)-1 {
			a.selected++
		}

	case keymap.Matches(k, a.keys.Insert):
		a.mode = ModeInsert
		a.input.SetValue("")
		return a, a.input.Focus()

	case keymap.Matches(k, a.keys.Edit):
		s := a.selectedStyle()
		if s == nil {
			return a, nil
		}
		text, ok := domain.PayloadText(s.Data)
		if !ok && s.Data != nil {
			a.err = fmt.Errorf("cell #%d holds %s data and cannot be edited as text", s.ID, s.Type)
			return a, nil
		}
		a.mode = ModeEdit
		a.input.SetValue(text)
		a.input.CursorEnd()
		return a, a.input.Focus()

	case keymap.Matches(k, a.keys.Delete):
		if s := a.selectedStyle(); s != nil {
			return a, a.apply(domain.DeleteStyle{StyleID: s.ID})
		}

	case keymap.Matches(k, a.keys.Tool):
		if s := a.selectedStyle(); s != nil {
			return a, a.useTool(s.ID)
		}

	case keymap.Matches(k, a.keys.MoveUp):
		return a, a.move(-1)

	case keymap.Matches(k, a.keys.MoveDown):
		return a, a.move(1)

	case keymap.Matches(k, a.keys.Reload):
		return a, a.load()
	}
	return a, nil
}

func (a *App) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keys.Cancel):
		a.closeEditor()
		return a, nil

	case keymap.Matches(k, a.keys.Submit):
		text := strings.TrimSpace(a.input.Value())
		mode := a.mode
		a.closeEditor()
		if text == "" {
			return a, nil
		}
		if mode == ModeInsert {
			return a, a.apply(domain.InsertStyle{
				AfterID: a.insertPosition(),
				Props: domain.StyleProps{
					Role: domain.RoleFormula,
					Type: domain.TypeExpr,
					Data: domain.TextPayload(text),
				},
			})
		}
		if s := a.selectedStyle(); s != nil {
			return a, a.apply(domain.ChangeStyle{StyleID: s.ID, Data: domain.TextPayload(text)})
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) closeEditor() {
	a.mode = ModeBrowse
	a.input.Blur()
	a.input.SetValue("")
}

// insertPosition places a new formula after the selected top-level cell,
// or at the bottom of an empty notebook.
func (a *App) insertPosition() domain.StylePosition {
	if top := a.topLevelIndex(a.selected); top >= 0 {
		return domain.StylePosition(a.rows[top].Style.ID)
	}
	return domain.PositionBottom
}

// move swaps the selected top-level cell with its neighbour in direction dir.
func (a *App) move(dir int) tea.Cmd {
	cur := a.topLevelIndex(a.selected)
	if cur < 0 {
		return nil
	}
	var tops []int
	for i, r := range a.rows {
		if r.Depth == 0 {
			tops = append(tops, i)
		}
	}
	pos := -1
	for i, idx := range tops {
		if idx == cur {
			pos = i
		}
	}

	id := a.rows[cur].Style.ID
	var after domain.StylePosition
	switch {
	case dir < 0 && pos > 0:
		after = domain.PositionTop
		if pos > 1 {
			after = domain.StylePosition(a.rows[tops[pos-2]].Style.ID)
		}
	case dir > 0 && pos < len(tops)-1:
		after = domain.StylePosition(a.rows[tops[pos+1]].Style.ID)
	default:
		return nil
	}
	return a.apply(domain.MoveStyle{StyleID: id, AfterID: after})
}

// topLevelIndex returns the row index of the top-level cell containing row i.
func (a *App) topLevelIndex(i int) int {
	if i >= len(a.rows) {
		return -1
	}
	for ; i >= 0; i-- {
		if a.rows[i].Depth == 0 {
			return i
		}
	}
	return -1
}

func (a *App) selectedStyle() *domain.Style {
	if a.selected < 0 || a.selected >= len(a.rows) {
		return nil
	}
	return a.rows[a.selected].Style
}

func (a *App) load() tea.Cmd {
	return func() tea.Msg {
		cells, err := a.ports.Notebook.Styles(a.ctx, a.notebook)
		if err != nil {
			return messages.NotebookLoaded{Err: err}
		}
		rels, err := a.ports.Notebook.Relationships(a.ctx, a.notebook)
		return messages.NotebookLoaded{Styles: cells, Relationships: rels, Err: err}
	}
}

func (a *App) apply(req domain.ChangeRequest) tea.Cmd {
	return func() tea.Msg {
		result, err := a.ports.Notebook.RequestChanges(a.ctx, a.notebook, domain.SourceUser, []domain.ChangeRequest{req})
		return messages.ChangesApplied{Result: result, Err: err}
	}
}

func (a *App) useTool(id domain.StyleID) tea.Cmd {
	return func() tea.Msg {
		result, err := a.ports.Notebook.UseTool(a.ctx, a.notebook, id)
		return messages.ChangesApplied{Result: result, Err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("mathnb · " + a.notebook))
	b.WriteString("\n\n")

	if len(a.rows) == 0 {
		b.WriteString(a.styles.Muted.Render("  (empty, press i to add a formula)"))
		b.WriteString("\n")
	}
	for i, row := range a.rows {
		line := CellLine(a.styles, row)
		if i == a.selected {
			b.WriteString(a.styles.Selected.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if len(a.rels) > 0 {
		b.WriteString("\n")
		b.WriteString(a.styles.Muted.Render(fmt.Sprintf("  %d relationships", len(a.rels))))
		b.WriteString("\n")
	}

	if a.mode != ModeBrowse {
		label := "Insert: "
		if a.mode == ModeEdit {
			label = "Edit: "
		}
		b.WriteString("\n")
		b.WriteString(a.styles.Title.Render(label))
		b.WriteString(a.styles.InputField.Render(a.input.View()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case a.err != nil:
		b.WriteString(a.styles.Error.Render("Error: " + a.err.Error()))
		b.WriteString("\n")
	case a.warning != "":
		b.WriteString(a.styles.Warning.Render("Warning: " + a.warning))
		b.WriteString("\n")
	case a.status != "":
		b.WriteString(a.styles.Muted.Render(a.status))
		b.WriteString("\n")
	}
	b.WriteString(a.styles.StatusBar.Render(a.helpLine()))
	return b.String()
}

func (a *App) helpLine() string {
	bindings := a.keys.BrowseHelp()
	if a.mode != ModeBrowse {
		bindings = a.keys.EditHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && a.ctx.Err() != nil {
		return nil
	}
	return err
}

// Mode returns what the keyboard currently drives.
func (a *App) Mode() Mode {
	return a.mode
}

// Rows returns the loaded rows.
func (a *App) Rows() []Row {
	return a.rows
}

// Selected returns the selected row index.
func (a *App) Selected() int {
	return a.selected
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
}
