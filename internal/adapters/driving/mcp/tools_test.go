package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mathnb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/services"
)

func newServer(t *testing.T, svc *mockNotebookService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Notebook: svc})
	require.NoError(t, err)
	return server
}

// newEngineServer serves a real notebook service without providers.
func newEngineServer(t *testing.T) *Server {
	t.Helper()
	svc := services.NewNotebookService(memory.NewSnapshotStore(), nil)
	t.Cleanup(func() { _ = svc.Close() })

	server, err := NewServer(&Ports{Notebook: svc})
	require.NoError(t, err)
	return server
}

func TestServer_handleListNotebooks(t *testing.T) {
	ctx := context.Background()

	t.Run("returns notebooks", func(t *testing.T) {
		now := time.Now()
		server := newServer(t, &mockNotebookService{infos: []domain.NotebookInfo{
			{Name: "algebra", StyleCount: 3, UpdatedAt: now},
		}})

		_, output, err := server.handleListNotebooks(ctx, nil, ListNotebooksInput{})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, NotebookOutput{Name: "algebra", StyleCount: 3, UpdatedAt: now}, output.Notebooks[0])
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server := newServer(t, &mockNotebookService{err: errors.New("store down")})

		_, _, err := server.handleListNotebooks(ctx, nil, ListNotebooksInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "store down")
	})
}

func TestServer_CellLifecycle(t *testing.T) {
	ctx := context.Background()
	server := newEngineServer(t)

	_, created, err := server.handleCreateNotebook(ctx, nil, NotebookInput{Notebook: "nb"})
	require.NoError(t, err)
	assert.Equal(t, "nb", created.Name)

	_, inserted, err := server.handleInsertCell(ctx, nil, InsertCellInput{Notebook: "nb", Text: "x + 1"})
	require.NoError(t, err)
	require.Len(t, inserted.Changes, 1)
	assert.Equal(t, domain.ChangeStyleInserted, inserted.Changes[0].Type)
	assert.NotEmpty(t, inserted.BatchID)
	first := int64(inserted.Changes[0].StyleID)

	top := int64(0)
	_, inserted, err = server.handleInsertCell(ctx, nil, InsertCellInput{
		Notebook: "nb", Text: "a note", AfterID: &top, Role: "TEXT", Type: "TEXT",
	})
	require.NoError(t, err)
	second := int64(inserted.Changes[0].StyleID)

	_, cells, err := server.handleListCells(ctx, nil, NotebookInput{Notebook: "nb"})
	require.NoError(t, err)
	require.Len(t, cells.Cells, 2)
	assert.Equal(t, second, cells.Cells[0].ID)
	assert.Equal(t, "a note", cells.Cells[0].Text)
	assert.Equal(t, first, cells.Cells[1].ID)
	assert.Equal(t, "FORMULA", cells.Cells[1].Role)
	assert.Equal(t, "EXPR", cells.Cells[1].Type)
	assert.Equal(t, "USER", cells.Cells[1].Source)

	_, changed, err := server.handleChangeCell(ctx, nil, ChangeCellInput{Notebook: "nb", CellID: first, Text: "x + 2"})
	require.NoError(t, err)
	require.Len(t, changed.Changes, 1)
	assert.Equal(t, domain.ChangeStyleChanged, changed.Changes[0].Type)

	_, deleted, err := server.handleDeleteCell(ctx, nil, CellInput{Notebook: "nb", CellID: first})
	require.NoError(t, err)
	require.Len(t, deleted.Changes, 1)
	assert.Equal(t, domain.ChangeStyleDeleted, deleted.Changes[0].Type)

	_, cells, err = server.handleListCells(ctx, nil, NotebookInput{Notebook: "nb"})
	require.NoError(t, err)
	assert.Len(t, cells.Cells, 1)
}

func TestServer_handleDeleteCell_Unknown(t *testing.T) {
	ctx := context.Background()
	server := newEngineServer(t)
	_, _, err := server.handleCreateNotebook(ctx, nil, NotebookInput{Notebook: "nb"})
	require.NoError(t, err)

	_, _, err = server.handleDeleteCell(ctx, nil, CellInput{Notebook: "nb", CellID: 42})

	assert.ErrorIs(t, err, domain.ErrUnknownStyle)
}

func TestServer_handleListCells_NonTextData(t *testing.T) {
	strokes := domain.StrokesPayload{Strokes: [][]domain.Point{{{X: 1, Y: 1}}}}
	server := newServer(t, &mockNotebookService{
		styles: []*domain.Style{
			{ID: 1, Role: domain.RoleFormula, Type: domain.TypeStrokes, Source: domain.SourceUser, Data: strokes},
		},
		rels: []*domain.Relationship{
			{ID: 2, Role: domain.RelationshipDependency, FromID: 1, ToID: 1, Source: "SYMBOLS"},
		},
	})

	_, output, err := server.handleListCells(context.Background(), nil, NotebookInput{Notebook: "nb"})

	require.NoError(t, err)
	assert.Empty(t, output.Cells[0].Text)
	assert.Equal(t, strokes, output.Cells[0].Data)
	assert.Equal(t, []RelationshipOutput{{ID: 2, Role: "DEPENDENCY", FromID: 1, ToID: 1, Source: "SYMBOLS"}}, output.Relationships)
}

func TestServer_RuleCycleIsAWarning(t *testing.T) {
	svc := &mockNotebookService{
		result: &domain.ChangeResult{BatchID: "b1", Rounds: 9, Changes: []domain.Change{
			domain.StyleChanged{Style: domain.Style{ID: 1, Type: domain.TypeExpr, Data: domain.TextPayload("y")}},
		}},
		err: &domain.RuleCycleError{Rounds: 10},
	}
	server := newServer(t, svc)

	_, output, err := server.handleUseTool(context.Background(), nil, CellInput{Notebook: "nb", CellID: 1})

	require.NoError(t, err)
	assert.Equal(t, "b1", output.BatchID)
	assert.Equal(t, 9, output.Rounds)
	assert.Len(t, output.Changes, 1)
	assert.Contains(t, output.Warning, "rule cycle exceeded")
}

func TestServer_handleUseTool_Error(t *testing.T) {
	server := newServer(t, &mockNotebookService{err: domain.ErrNoToolProvider})

	_, _, err := server.handleUseTool(context.Background(), nil, CellInput{Notebook: "nb", CellID: 1})

	assert.ErrorIs(t, err, domain.ErrNoToolProvider)
}

func TestServer_handleInsertCell_Defaults(t *testing.T) {
	svc := &mockNotebookService{result: &domain.ChangeResult{}}
	server := newServer(t, svc)

	_, _, err := server.handleInsertCell(context.Background(), nil, InsertCellInput{Notebook: "nb", Text: "y = 2"})

	require.NoError(t, err)
	require.Len(t, svc.requests, 1)
	req, ok := svc.requests[0].(domain.InsertStyle)
	require.True(t, ok)
	assert.Equal(t, domain.PositionBottom, req.AfterID)
	assert.Equal(t, domain.RoleFormula, req.Props.Role)
	assert.Equal(t, domain.TypeExpr, req.Props.Type)
	assert.Equal(t, domain.TextPayload("y = 2"), req.Props.Data)
}
