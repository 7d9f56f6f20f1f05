package mcp

import (
	"context"
	"io"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driving"
)

// mockNotebookService is a mock implementation of driving.NotebookService.
type mockNotebookService struct {
	infos    []domain.NotebookInfo
	styles   []*domain.Style
	rels     []*domain.Relationship
	result   *domain.ChangeResult
	exported string
	err      error

	requests []domain.ChangeRequest
}

var _ driving.NotebookService = (*mockNotebookService)(nil)

func (m *mockNotebookService) Create(_ context.Context, _ string) error { return m.err }

func (m *mockNotebookService) Open(_ context.Context, _ string) error { return m.err }

func (m *mockNotebookService) List(_ context.Context) ([]domain.NotebookInfo, error) {
	return m.infos, m.err
}

func (m *mockNotebookService) Delete(_ context.Context, _ string) error { return m.err }

func (m *mockNotebookService) Snapshot(_ context.Context, _ string) (*domain.Snapshot, error) {
	return domain.NewSnapshot(), m.err
}

func (m *mockNotebookService) Styles(_ context.Context, _ string) ([]*domain.Style, error) {
	return m.styles, m.err
}

func (m *mockNotebookService) Relationships(_ context.Context, _ string) ([]*domain.Relationship, error) {
	return m.rels, m.err
}

func (m *mockNotebookService) RequestChanges(
	_ context.Context,
	_ string,
	_ domain.StyleSource,
	requests []domain.ChangeRequest,
) (*domain.ChangeResult, error) {
	m.requests = append(m.requests, requests...)
	return m.result, m.err
}

func (m *mockNotebookService) UseTool(_ context.Context, _ string, _ domain.StyleID) (*domain.ChangeResult, error) {
	return m.result, m.err
}

func (m *mockNotebookService) Import(_ context.Context, _ string, _ io.Reader) error { return m.err }

func (m *mockNotebookService) Export(_ context.Context, _ string, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, m.exported)
	return err
}

func (m *mockNotebookService) Close() error { return nil }
