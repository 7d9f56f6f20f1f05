package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// storedSnapshot is an encoded snapshot and its bookkeeping.
type storedSnapshot struct {
	data       []byte
	styleCount int
	updatedAt  time.Time
}

// SnapshotStore is an in-memory implementation of driven.SnapshotStore.
// Snapshots are kept JSON-encoded so callers never share state with the store.
type SnapshotStore struct {
	mu        sync.RWMutex
	notebooks map[string]storedSnapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		notebooks: make(map[string]storedSnapshot),
	}
}

// Save stores or replaces a notebook.
func (s *SnapshotStore) Save(_ context.Context, name string, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notebooks[name] = storedSnapshot{
		data:       data,
		styleCount: len(snap.StyleMap),
		updatedAt:  time.Now(),
	}
	return nil
}

// Load retrieves a notebook by name.
func (s *SnapshotStore) Load(_ context.Context, name string) (*domain.Snapshot, error) {
	s.mu.RLock()
	stored, ok := s.notebooks[name]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(stored.data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes a notebook.
func (s *SnapshotStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notebooks[name]; !ok {
		return domain.ErrNotFound
	}
	delete(s.notebooks, name)
	return nil
}

// List returns all notebooks ordered by name.
func (s *SnapshotStore) List(_ context.Context) ([]domain.NotebookInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.NotebookInfo, 0, len(s.notebooks))
	for name, stored := range s.notebooks {
		infos = append(infos, domain.NotebookInfo{
			Name:       name,
			StyleCount: stored.styleCount,
			UpdatedAt:  stored.updatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}
