package notebook

import (
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// FromSnapshot reconstitutes a notebook, rebuilding its indices and
// checking every invariant. A version mismatch is not recoverable.
func FromSnapshot(snap *domain.Snapshot) (*Notebook, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", domain.ErrInvalidSnapshot)
	}
	if snap.Version != domain.SnapshotVersion {
		return nil, fmt.Errorf("%w: snapshot version %q, expected %q",
			domain.ErrIncompatibleVersion, snap.Version, domain.SnapshotVersion)
	}

	n := New()
	n.nextID = snap.NextID

	var maxID int64
	for id, s := range snap.StyleMap {
		if s == nil || s.ID != id {
			return nil, fmt.Errorf("%w: style map entry %d", domain.ErrInvalidSnapshot, id)
		}
		n.styles[id] = s.Clone()
		maxID = max(maxID, int64(id))
	}

	// Children are ordered by id, which is their insertion order.
	ids := slices.Sorted(maps.Keys(n.styles))
	topLevel := 0
	for _, id := range ids {
		s := n.styles[id]
		if s.IsTopLevel() {
			topLevel++
			continue
		}
		if _, ok := n.styles[s.ParentID]; !ok {
			return nil, fmt.Errorf("%w: style %d has missing parent %d", domain.ErrInvalidSnapshot, id, s.ParentID)
		}
		n.children[s.ParentID] = append(n.children[s.ParentID], id)
	}

	seen := make(map[domain.StyleID]bool, len(snap.StyleOrder))
	for _, id := range snap.StyleOrder {
		s, ok := n.styles[id]
		if !ok || !s.IsTopLevel() || seen[id] {
			return nil, fmt.Errorf("%w: style order entry %d", domain.ErrInvalidSnapshot, id)
		}
		seen[id] = true
	}
	if len(seen) != topLevel {
		return nil, fmt.Errorf("%w: style order lists %d of %d top-level styles",
			domain.ErrInvalidSnapshot, len(seen), topLevel)
	}
	n.order = slices.Clone(snap.StyleOrder)

	relIDs := slices.Sorted(maps.Keys(snap.RelationshipMap))
	for _, id := range relIDs {
		r := snap.RelationshipMap[id]
		if r == nil || r.ID != id {
			return nil, fmt.Errorf("%w: relationship map entry %d", domain.ErrInvalidSnapshot, id)
		}
		if _, ok := n.styles[r.FromID]; !ok {
			return nil, fmt.Errorf("%w: relationship %d from missing style %d", domain.ErrInvalidSnapshot, id, r.FromID)
		}
		if _, ok := n.styles[r.ToID]; !ok {
			return nil, fmt.Errorf("%w: relationship %d to missing style %d", domain.ErrInvalidSnapshot, id, r.ToID)
		}
		if _, ok := n.styles[domain.StyleID(id)]; ok {
			return nil, fmt.Errorf("%w: id %d used by a style and a relationship", domain.ErrInvalidSnapshot, id)
		}
		n.relationships[id] = r.Clone()
		n.links[r.FromID] = append(n.links[r.FromID], id)
		if r.ToID != r.FromID {
			n.links[r.ToID] = append(n.links[r.ToID], id)
		}
		maxID = max(maxID, int64(id))
	}

	if n.nextID <= maxID {
		return nil, fmt.Errorf("%w: nextId %d not above highest id %d", domain.ErrInvalidSnapshot, n.nextID, maxID)
	}
	return n, nil
}

// Snapshot returns the persisted shape of the notebook.
func (n *Notebook) Snapshot() *domain.Snapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()

	snap := domain.NewSnapshot()
	snap.NextID = n.nextID
	for id, s := range n.styles {
		snap.StyleMap[id] = s.Clone()
	}
	for id, r := range n.relationships {
		snap.RelationshipMap[id] = r.Clone()
	}
	snap.StyleOrder = slices.Clone(n.order)
	return snap
}

// Clone returns an independent deep copy of the notebook.
func (n *Notebook) Clone() *Notebook {
	n.mu.RLock()
	defer n.mu.RUnlock()

	c := New()
	c.nextID = n.nextID
	for id, s := range n.styles {
		c.styles[id] = s.Clone()
	}
	for id, r := range n.relationships {
		c.relationships[id] = r.Clone()
	}
	c.order = slices.Clone(n.order)
	for id, ids := range n.children {
		c.children[id] = slices.Clone(ids)
	}
	for id, ids := range n.links {
		c.links[id] = slices.Clone(ids)
	}
	return c
}

// Restore replaces the notebook's content with that of from, which must
// not be used afterwards.
func (n *Notebook) Restore(from *Notebook) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID = from.nextID
	n.styles = from.styles
	n.relationships = from.relationships
	n.order = from.order
	n.children = from.children
	n.links = from.links
}
