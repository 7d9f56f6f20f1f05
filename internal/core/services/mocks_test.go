package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
)

// mockProvider is a configurable driven.Provider.
type mockProvider struct {
	source    domain.StyleSource
	onChanges func(ctx context.Context, changes []domain.Change) ([]domain.ChangeRequest, error)
	useTool   func(ctx context.Context, style *domain.Style) ([]domain.ChangeRequest, error)
	closeErr  error
	onClose   func()

	mu     sync.Mutex
	rounds int
	closed bool
}

func (m *mockProvider) Source() domain.StyleSource {
	return m.source
}

func (m *mockProvider) OnChanges(ctx context.Context, changes []domain.Change) ([]domain.ChangeRequest, error) {
	m.mu.Lock()
	m.rounds++
	m.mu.Unlock()
	if m.onChanges == nil {
		return nil, nil
	}
	return m.onChanges(ctx, changes)
}

func (m *mockProvider) UseTool(ctx context.Context, style *domain.Style) ([]domain.ChangeRequest, error) {
	if m.useTool == nil {
		return nil, nil
	}
	return m.useTool(ctx, style)
}

func (m *mockProvider) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	if m.onClose != nil {
		m.onClose()
	}
	return m.closeErr
}

func (m *mockProvider) Rounds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rounds
}

func (m *mockProvider) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// factoryOf returns a factory that always yields p.
func factoryOf(p driven.Provider) driven.ProviderFactory {
	return func(driven.NotebookReader) (driven.Provider, error) {
		return p, nil
	}
}

// userInserts returns the styles inserted by the user in changes.
func userInserts(changes []domain.Change) []domain.Style {
	var out []domain.Style
	for _, c := range changes {
		if ins, ok := c.(domain.StyleInserted); ok && ins.Style.Source == domain.SourceUser {
			out = append(out, ins.Style)
		}
	}
	return out
}

func formula(text string) domain.InsertStyle {
	return domain.InsertStyle{
		AfterID: domain.PositionBottom,
		Props:   domain.StyleProps{Role: domain.RoleFormula, Type: domain.TypeExpr, Data: domain.TextPayload(text)},
	}
}
