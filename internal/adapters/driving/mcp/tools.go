package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// NotebookInput names a notebook.
type NotebookInput struct {
	Notebook string `json:"notebook" jsonschema:"name of the notebook"`
}

// ListNotebooksInput is the (empty) input of list_notebooks.
type ListNotebooksInput struct{}

// ListNotebooksOutput is the output schema for the list_notebooks tool.
type ListNotebooksOutput struct {
	Notebooks []NotebookOutput `json:"notebooks"`
	Count     int              `json:"count"`
}

// NotebookOutput describes a stored notebook.
type NotebookOutput struct {
	Name       string    `json:"name"`
	StyleCount int       `json:"style_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListCellsOutput is the output schema for the list_cells tool.
type ListCellsOutput struct {
	Cells         []CellOutput         `json:"cells"`
	Relationships []RelationshipOutput `json:"relationships,omitempty"`
}

// CellOutput is a style in document order.
type CellOutput struct {
	ID       int64  `json:"id"`
	ParentID int64  `json:"parent_id,omitempty"`
	Role     string `json:"role"`
	Subrole  string `json:"subrole,omitempty"`
	Type     string `json:"type"`
	Source   string `json:"source"`
	Text     string `json:"text,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// RelationshipOutput is a relationship between two cells.
type RelationshipOutput struct {
	ID     int64  `json:"id"`
	Role   string `json:"role"`
	FromID int64  `json:"from_id"`
	ToID   int64  `json:"to_id"`
	Source string `json:"source"`
}

// InsertCellInput is the input schema for the insert_cell tool.
type InsertCellInput struct {
	Notebook string `json:"notebook" jsonschema:"name of the notebook"`
	Text     string `json:"text" jsonschema:"formula or text of the new cell"`
	AfterID  *int64 `json:"after_id,omitempty" jsonschema:"id of the top-level cell to insert after; 0 inserts first, omitted appends"`
	Role     string `json:"role,omitempty" jsonschema:"cell role (default FORMULA)"`
	Type     string `json:"type,omitempty" jsonschema:"cell type, EXPR or TEXT (default EXPR)"`
}

// ChangeCellInput is the input schema for the change_cell tool.
type ChangeCellInput struct {
	Notebook string `json:"notebook" jsonschema:"name of the notebook"`
	CellID   int64  `json:"cell_id" jsonschema:"id of the cell to edit"`
	Text     string `json:"text" jsonschema:"new text of the cell"`
}

// CellInput names a cell of a notebook.
type CellInput struct {
	Notebook string `json:"notebook" jsonschema:"name of the notebook"`
	CellID   int64  `json:"cell_id" jsonschema:"id of the cell"`
}

// ChangeOutput is the output schema for tools that edit a notebook.
type ChangeOutput struct {
	BatchID string                 `json:"batch_id"`
	Rounds  int                    `json:"rounds"`
	Changes []domain.ChangeSummary `json:"changes"`
	Warning string                 `json:"warning,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_notebooks",
		Description: "List all stored notebooks",
	}, s.handleListNotebooks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_notebook",
		Description: "Create an empty notebook",
	}, s.handleCreateNotebook)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_cells",
		Description: "List every cell of a notebook in document order, with derived cells and relationships",
	}, s.handleListCells)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "insert_cell",
		Description: "Insert a top-level cell and run providers until the notebook settles",
	}, s.handleInsertCell)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "change_cell",
		Description: "Replace the text of a cell and run providers until the notebook settles",
	}, s.handleChangeCell)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_cell",
		Description: "Delete a cell with everything attached to it",
	}, s.handleDeleteCell)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "use_tool",
		Description: "Activate the tool of the provider that created a cell",
	}, s.handleUseTool)
}

func (s *Server) handleListNotebooks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListNotebooksInput,
) (*mcp.CallToolResult, ListNotebooksOutput, error) {
	infos, err := s.ports.Notebook.List(ctx)
	if err != nil {
		return nil, ListNotebooksOutput{}, err
	}

	output := ListNotebooksOutput{
		Notebooks: make([]NotebookOutput, len(infos)),
		Count:     len(infos),
	}
	for i, info := range infos {
		output.Notebooks[i] = NotebookOutput{
			Name:       info.Name,
			StyleCount: info.StyleCount,
			UpdatedAt:  info.UpdatedAt,
		}
	}
	return nil, output, nil
}

func (s *Server) handleCreateNotebook(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NotebookInput,
) (*mcp.CallToolResult, NotebookOutput, error) {
	if err := s.ports.Notebook.Create(ctx, input.Notebook); err != nil {
		return nil, NotebookOutput{}, err
	}
	return nil, NotebookOutput{Name: input.Notebook}, nil
}

func (s *Server) handleListCells(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NotebookInput,
) (*mcp.CallToolResult, ListCellsOutput, error) {
	styles, err := s.ports.Notebook.Styles(ctx, input.Notebook)
	if err != nil {
		return nil, ListCellsOutput{}, err
	}
	rels, err := s.ports.Notebook.Relationships(ctx, input.Notebook)
	if err != nil {
		return nil, ListCellsOutput{}, err
	}

	output := ListCellsOutput{Cells: make([]CellOutput, len(styles))}
	for i, st := range styles {
		text, _ := domain.PayloadText(st.Data)
		output.Cells[i] = CellOutput{
			ID:       int64(st.ID),
			ParentID: int64(st.ParentID),
			Role:     string(st.Role),
			Subrole:  string(st.Subrole),
			Type:     string(st.Type),
			Source:   string(st.Source),
			Text:     text,
		}
		if _, isText := st.Data.(domain.TextPayload); !isText && st.Data != nil {
			output.Cells[i].Data = st.Data
		}
	}
	for _, r := range rels {
		output.Relationships = append(output.Relationships, RelationshipOutput{
			ID:     int64(r.ID),
			Role:   string(r.Role),
			FromID: int64(r.FromID),
			ToID:   int64(r.ToID),
			Source: string(r.Source),
		})
	}
	return nil, output, nil
}

func (s *Server) handleInsertCell(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input InsertCellInput,
) (*mcp.CallToolResult, ChangeOutput, error) {
	role := domain.StyleRole(input.Role)
	if role == "" {
		role = domain.RoleFormula
	}
	styleType := domain.StyleType(input.Type)
	if styleType == "" {
		styleType = domain.TypeExpr
	}
	after := domain.PositionBottom
	if input.AfterID != nil {
		after = domain.StylePosition(*input.AfterID)
	}

	req := domain.InsertStyle{
		AfterID: after,
		Props:   domain.StyleProps{Role: role, Type: styleType, Data: domain.TextPayload(input.Text)},
	}
	return s.requestChanges(ctx, input.Notebook, req)
}

func (s *Server) handleChangeCell(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChangeCellInput,
) (*mcp.CallToolResult, ChangeOutput, error) {
	req := domain.ChangeStyle{
		StyleID: domain.StyleID(input.CellID),
		Data:    domain.TextPayload(input.Text),
	}
	return s.requestChanges(ctx, input.Notebook, req)
}

func (s *Server) handleDeleteCell(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CellInput,
) (*mcp.CallToolResult, ChangeOutput, error) {
	return s.requestChanges(ctx, input.Notebook, domain.DeleteStyle{StyleID: domain.StyleID(input.CellID)})
}

func (s *Server) handleUseTool(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CellInput,
) (*mcp.CallToolResult, ChangeOutput, error) {
	result, err := s.ports.Notebook.UseTool(ctx, input.Notebook, domain.StyleID(input.CellID))
	return changeOutput(result, err)
}

func (s *Server) requestChanges(ctx context.Context, notebook string, req domain.ChangeRequest) (*mcp.CallToolResult, ChangeOutput, error) {
	result, err := s.ports.Notebook.RequestChanges(ctx, notebook, domain.SourceUser, []domain.ChangeRequest{req})
	return changeOutput(result, err)
}

// changeOutput reports a rule cycle as a warning, since the changes it
// carries were kept.
func changeOutput(result *domain.ChangeResult, err error) (*mcp.CallToolResult, ChangeOutput, error) {
	var cycle *domain.RuleCycleError
	if err != nil && !errors.As(err, &cycle) {
		return nil, ChangeOutput{}, err
	}

	var output ChangeOutput
	if result != nil {
		output.BatchID = result.BatchID
		output.Rounds = result.Rounds
		output.Changes = make([]domain.ChangeSummary, len(result.Changes))
		for i, c := range result.Changes {
			output.Changes[i] = domain.Summarize(c)
		}
	}
	if cycle != nil {
		output.Warning = cycle.Error()
	}
	return nil, output, nil
}
