package tui

import (
	"context"
	"io"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driving"
)

// mockNotebookService returns canned content and records edits.
type mockNotebookService struct {
	styles []*domain.Style
	rels   []*domain.Relationship
	result *domain.ChangeResult
	err    error

	requests []domain.ChangeRequest
	toolIDs  []domain.StyleID
}

var _ driving.NotebookService = (*mockNotebookService)(nil)

func (m *mockNotebookService) Create(_ context.Context, _ string) error { return nil }

func (m *mockNotebookService) Open(_ context.Context, _ string) error { return nil }

func (m *mockNotebookService) List(_ context.Context) ([]domain.NotebookInfo, error) {
	return nil, nil
}

func (m *mockNotebookService) Delete(_ context.Context, _ string) error { return nil }

func (m *mockNotebookService) Snapshot(_ context.Context, _ string) (*domain.Snapshot, error) {
	return domain.NewSnapshot(), nil
}

func (m *mockNotebookService) Styles(_ context.Context, _ string) ([]*domain.Style, error) {
	return m.styles, nil
}

func (m *mockNotebookService) Relationships(_ context.Context, _ string) ([]*domain.Relationship, error) {
	return m.rels, nil
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

func (m *mockNotebookService) UseTool(_ context.Context, _ string, id domain.StyleID) (*domain.ChangeResult, error) {
	m.toolIDs = append(m.toolIDs, id)
	return m.result, m.err
}

func (m *mockNotebookService) Import(_ context.Context, _ string, _ io.Reader) error { return nil }

func (m *mockNotebookService) Export(_ context.Context, _ string, _ io.Writer) error { return nil }

func (m *mockNotebookService) Close() error { return nil }
