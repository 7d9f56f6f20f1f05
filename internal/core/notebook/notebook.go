package notebook

import (
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
)

// Ensure Notebook implements the reader port handed to providers.
var _ driven.NotebookReader = (*Notebook)(nil)

// Notebook is the graph of styles and relationships of one document.
type Notebook struct {
	mu sync.RWMutex

	nextID        int64
	styles        map[domain.StyleID]*domain.Style
	relationships map[domain.RelationshipID]*domain.Relationship
	order         []domain.StyleID

	// children holds each style's children in insertion order.
	children map[domain.StyleID][]domain.StyleID
	// links holds the relationships touching each style.
	links map[domain.StyleID][]domain.RelationshipID
}

// New creates an empty notebook.
func New() *Notebook {
	return &Notebook{
		nextID:        1,
		styles:        make(map[domain.StyleID]*domain.Style),
		relationships: make(map[domain.RelationshipID]*domain.Relationship),
		children:      make(map[domain.StyleID][]domain.StyleID),
		links:         make(map[domain.StyleID][]domain.RelationshipID),
	}
}

// NextID returns the next id that will be allocated.
func (n *Notebook) NextID() int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.nextID
}

// Len returns the number of styles.
func (n *Notebook) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.styles)
}

// GetStyle returns a copy of the style with the given id.
func (n *Notebook) GetStyle(id domain.StyleID) (*domain.Style, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	s, ok := n.styles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownStyle, id)
	}
	return s.Clone(), nil
}

// GetRelationship returns a copy of the relationship with the given id.
func (n *Notebook) GetRelationship(id domain.RelationshipID) (*domain.Relationship, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	r, ok := n.relationships[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownRelationship, id)
	}
	return r.Clone(), nil
}

// StyleOrder returns the ids of the top-level styles in display order.
func (n *Notebook) StyleOrder() []domain.StyleID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.order)
}

// ChildStyles returns copies of the immediate children of id.
func (n *Notebook) ChildStyles(id domain.StyleID) ([]*domain.Style, error) {
	return n.FindStyles(domain.StylePattern{}, id)
}

// FindStyles returns the styles matching pattern in document order.
// With rootID 0 the search starts at the top level; otherwise it starts at
// the children of rootID. Pattern.Recursive extends it to whole subtrees.
func (n *Notebook) FindStyles(pattern domain.StylePattern, rootID domain.StyleID) ([]*domain.Style, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	start, err := n.roots(rootID)
	if err != nil {
		return nil, err
	}

	var result []*domain.Style
	n.walk(start, pattern.Recursive, func(s *domain.Style) bool {
		if pattern.Matches(s) {
			result = append(result, s.Clone())
		}
		return true
	})
	return result, nil
}

// FindStyle returns the first style matching pattern in document order,
// or nil if none matches.
func (n *Notebook) FindStyle(pattern domain.StylePattern, rootID domain.StyleID) (*domain.Style, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	start, err := n.roots(rootID)
	if err != nil {
		return nil, err
	}

	var found *domain.Style
	n.walk(start, pattern.Recursive, func(s *domain.Style) bool {
		if pattern.Matches(s) {
			found = s.Clone()
			return false
		}
		return true
	})
	return found, nil
}

// HasStyle reports whether any style matches pattern.
func (n *Notebook) HasStyle(pattern domain.StylePattern, rootID domain.StyleID) (bool, error) {
	s, err := n.FindStyle(pattern, rootID)
	return s != nil, err
}

// TopLevelStyleOf walks parent links up to the top-level ancestor of id.
func (n *Notebook) TopLevelStyleOf(id domain.StyleID) (*domain.Style, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	s, ok := n.styles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownStyle, id)
	}
	for steps := 0; !s.IsTopLevel(); steps++ {
		parent, ok := n.styles[s.ParentID]
		if !ok || steps > len(n.styles) {
			return nil, fmt.Errorf("%w: style %d has missing parent %d", domain.ErrOrphanedStyle, s.ID, s.ParentID)
		}
		s = parent
	}
	return s.Clone(), nil
}

// FindRelationships returns the relationships matching pattern, ordered by id.
func (n *Notebook) FindRelationships(pattern domain.RelationshipPattern) []*domain.Relationship {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var ids []domain.RelationshipID
	if pattern.StyleID != 0 {
		ids = slices.Clone(n.links[pattern.StyleID])
	} else {
		ids = make([]domain.RelationshipID, 0, len(n.relationships))
		for id := range n.relationships {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	var result []*domain.Relationship
	for _, id := range ids {
		r := n.relationships[id]
		if pattern.Matches(r) {
			result = append(result, r.Clone())
		}
	}
	return result
}

// RelationshipsOf returns the relationships with id at either end.
func (n *Notebook) RelationshipsOf(id domain.StyleID) []*domain.Relationship {
	return n.FindRelationships(domain.RelationshipPattern{StyleID: id})
}

// roots returns the ids a search starts from (caller must hold lock).
func (n *Notebook) roots(rootID domain.StyleID) ([]domain.StyleID, error) {
	if rootID == 0 {
		return n.order, nil
	}
	if _, ok := n.styles[rootID]; !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownStyle, rootID)
	}
	return n.children[rootID], nil
}

// walk visits ids in pre-order until visit returns false (caller must hold lock).
func (n *Notebook) walk(ids []domain.StyleID, recursive bool, visit func(*domain.Style) bool) bool {
	for _, id := range ids {
		s := n.styles[id]
		if !visit(s) {
			return false
		}
		if recursive && !n.walk(n.children[id], true, visit) {
			return false
		}
	}
	return true
}

// subtree returns id and all its descendants in pre-order (caller must hold lock).
func (n *Notebook) subtree(id domain.StyleID) []domain.StyleID {
	ids := []domain.StyleID{id}
	for _, child := range n.children[id] {
		ids = append(ids, n.subtree(child)...)
	}
	return ids
}

// orderIndex returns the display position of a top-level style, or -1.
func (n *Notebook) orderIndex(id domain.StyleID) int {
	return slices.Index(n.order, id)
}

// insertIndex resolves a position to an index in the display order.
func (n *Notebook) insertIndex(order []domain.StyleID, after domain.StylePosition) (int, error) {
	switch after {
	case domain.PositionTop:
		return 0, nil
	case domain.PositionBottom:
		return len(order), nil
	}
	i := slices.Index(order, domain.StyleID(after))
	if i < 0 {
		return 0, fmt.Errorf("%w: %d", domain.ErrUnknownPositionReference, after)
	}
	return i + 1, nil
}
