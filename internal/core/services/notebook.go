package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/notebook"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
	"github.com/custodia-labs/mathnb/internal/core/ports/driving"
	"github.com/custodia-labs/mathnb/internal/logger"
)

// Ensure NotebookService implements the interface.
var _ driving.NotebookService = (*NotebookService)(nil)

// NotebookService manages named notebooks and their open sessions.
type NotebookService struct {
	store     driven.SnapshotStore
	factories []driven.ProviderFactory
	opts      []SessionOption

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewNotebookService creates a notebook service. Every opened notebook gets
// one provider per factory, in the given order.
func NewNotebookService(store driven.SnapshotStore, factories []driven.ProviderFactory, opts ...SessionOption) *NotebookService {
	return &NotebookService{
		store:     store,
		factories: factories,
		opts:      opts,
		sessions:  make(map[string]*Session),
	}
}

// Create makes an empty notebook.
func (s *NotebookService) Create(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	_, err := s.store.Load(ctx, name)
	switch {
	case err == nil:
		return fmt.Errorf("%w: notebook %q", domain.ErrAlreadyExists, name)
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("check notebook: %w", err)
	}

	if err := s.store.Save(ctx, name, domain.NewSnapshot()); err != nil {
		return fmt.Errorf("save notebook: %w", err)
	}
	logger.Info("created notebook %s", name)
	return nil
}

// Open loads a notebook and starts its providers.
func (s *NotebookService) Open(ctx context.Context, name string) error {
	_, err := s.session(ctx, name)
	return err
}

// session returns the open session for name, opening it if needed.
func (s *NotebookService) session(ctx context.Context, name string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[name]; ok {
		return sess, nil
	}

	snap, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load notebook %q: %w", name, err)
	}
	nb, err := notebook.FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("open notebook %q: %w", name, err)
	}

	opts := append([]SessionOption{WithCommit(s.commitFunc(name))}, s.opts...)
	sess, err := NewSession(name, nb, s.factories, opts...)
	if err != nil {
		return nil, fmt.Errorf("open notebook %q: %w", name, err)
	}
	s.sessions[name] = sess
	return sess, nil
}

func (s *NotebookService) commitFunc(name string) CommitFunc {
	return func(ctx context.Context, snap *domain.Snapshot) error {
		return s.store.Save(ctx, name, snap)
	}
}

// List returns all stored notebooks.
func (s *NotebookService) List(ctx context.Context) ([]domain.NotebookInfo, error) {
	infos, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete closes and removes a notebook.
func (s *NotebookService) Delete(ctx context.Context, name string) error {
	closeErr := s.closeSession(name)
	if err := s.store.Delete(ctx, name); err != nil {
		return errors.Join(fmt.Errorf("delete notebook %q: %w", name, err), closeErr)
	}
	return closeErr
}

func (s *NotebookService) closeSession(name string) error {
	s.mu.Lock()
	sess, ok := s.sessions[name]
	delete(s.sessions, name)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return sess.Close()
}

// Snapshot returns the notebook's persisted shape.
func (s *NotebookService) Snapshot(ctx context.Context, name string) (*domain.Snapshot, error) {
	sess, err := s.session(ctx, name)
	if err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// Styles returns every style of the notebook in document order.
func (s *NotebookService) Styles(ctx context.Context, name string) ([]*domain.Style, error) {
	sess, err := s.session(ctx, name)
	if err != nil {
		return nil, err
	}
	return sess.Styles()
}

// Relationships returns every relationship of the notebook.
func (s *NotebookService) Relationships(ctx context.Context, name string) ([]*domain.Relationship, error) {
	sess, err := s.session(ctx, name)
	if err != nil {
		return nil, err
	}
	return sess.Relationships(), nil
}

// RequestChanges applies requests to the notebook and persists the result.
func (s *NotebookService) RequestChanges(ctx context.Context, name string, source domain.StyleSource, requests []domain.ChangeRequest) (*domain.ChangeResult, error) {
	sess, err := s.session(ctx, name)
	if err != nil {
		return nil, err
	}
	return sess.RequestChanges(ctx, source, requests)
}

// UseTool activates the tool of the provider owning a style.
func (s *NotebookService) UseTool(ctx context.Context, name string, styleID domain.StyleID) (*domain.ChangeResult, error) {
	sess, err := s.session(ctx, name)
	if err != nil {
		return nil, err
	}
	return sess.UseTool(ctx, styleID)
}

// Import validates a JSON snapshot and stores it under name. An open
// session of that name is closed so the next call sees the import.
func (s *NotebookService) Import(ctx context.Context, name string, r io.Reader) error {
	if err := validateName(name); err != nil {
		return err
	}

	var snap domain.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("%w: decode snapshot: %w", domain.ErrInvalidSnapshot, err)
	}
	// Validate before replacing anything.
	if _, err := notebook.FromSnapshot(&snap); err != nil {
		return err
	}

	if err := s.closeSession(name); err != nil {
		logger.Warn("close notebook %s before import: %v", name, err)
	}
	if err := s.store.Save(ctx, name, &snap); err != nil {
		return fmt.Errorf("save notebook: %w", err)
	}
	return nil
}

// Export writes the notebook as an indented JSON snapshot.
func (s *NotebookService) Export(ctx context.Context, name string, w io.Writer) error {
	snap, err := s.Snapshot(ctx, name)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Close closes every open session.
func (s *NotebookService) Close() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	var errs []error
	for name, sess := range sessions {
		if err := sess.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close notebook %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: notebook name is required", domain.ErrInvalidInput)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: notebook name %q contains a path separator", domain.ErrInvalidInput, name)
	}
	return nil
}
