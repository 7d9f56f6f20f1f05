package notebook

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// ApplyAll applies changes in order and stops at the first failure.
// Changes applied before the failure stay applied; callers that need
// all-or-nothing semantics Clone first and Restore on error.
func (n *Notebook) ApplyAll(changes []domain.Change) error {
	for i, c := range changes {
		if err := n.Apply(c); err != nil {
			return fmt.Errorf("change %d (%s): %w", i, c.ChangeType(), err)
		}
	}
	return nil
}

// Apply applies a single change.
func (n *Notebook) Apply(c domain.Change) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch ch := c.(type) {
	case domain.StyleInserted:
		return n.applyStyleInserted(ch)
	case domain.StyleChanged:
		return n.applyStyleChanged(ch)
	case domain.StyleConverted:
		return n.applyStyleConverted(ch)
	case domain.StyleDeleted:
		return n.applyStyleDeleted(ch)
	case domain.StyleMoved:
		return n.applyStyleMoved(ch)
	case domain.RelationshipInserted:
		return n.applyRelationshipInserted(ch)
	case domain.RelationshipDeleted:
		return n.applyRelationshipDeleted(ch)
	default:
		return fmt.Errorf("%w: unsupported change %T", domain.ErrInvalidInput, c)
	}
}

func (n *Notebook) applyStyleInserted(ch domain.StyleInserted) error {
	style := ch.Style.Clone()
	if err := n.claimID(int64(style.ID)); err != nil {
		return err
	}

	if style.IsTopLevel() {
		i, err := n.insertIndex(n.order, ch.AfterID)
		if err != nil {
			return err
		}
		n.order = slices.Insert(n.order, i, style.ID)
	} else {
		if _, ok := n.styles[style.ParentID]; !ok {
			return fmt.Errorf("%w: parent %d of style %d", domain.ErrUnknownStyle, style.ParentID, style.ID)
		}
		n.children[style.ParentID] = append(n.children[style.ParentID], style.ID)
	}

	n.styles[style.ID] = style
	return nil
}

func (n *Notebook) applyStyleChanged(ch domain.StyleChanged) error {
	s, ok := n.styles[ch.Style.ID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownStyle, ch.Style.ID)
	}
	s.Data = ch.Style.Data
	return nil
}

func (n *Notebook) applyStyleConverted(ch domain.StyleConverted) error {
	s, ok := n.styles[ch.StyleID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownStyle, ch.StyleID)
	}
	if ch.Role != "" {
		s.Role = ch.Role
	}
	if ch.Subrole != "" {
		s.Subrole = ch.Subrole
	}
	if ch.Type != "" {
		s.Type = ch.Type
	}
	if ch.Data != nil {
		s.Data = ch.Data
	}
	return nil
}

func (n *Notebook) applyStyleDeleted(ch domain.StyleDeleted) error {
	id := ch.Style.ID
	s, ok := n.styles[id]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownStyle, id)
	}
	if len(n.children[id]) > 0 || len(n.links[id]) > 0 {
		return fmt.Errorf("%w: style %d still has children or relationships", domain.ErrDanglingReference, id)
	}

	if s.IsTopLevel() {
		if i := n.orderIndex(id); i >= 0 {
			n.order = slices.Delete(n.order, i, i+1)
		}
	} else {
		siblings := n.children[s.ParentID]
		if i := slices.Index(siblings, id); i >= 0 {
			n.children[s.ParentID] = slices.Delete(siblings, i, i+1)
		}
		if len(n.children[s.ParentID]) == 0 {
			delete(n.children, s.ParentID)
		}
	}

	delete(n.children, id)
	delete(n.links, id)
	delete(n.styles, id)
	return nil
}

func (n *Notebook) applyStyleMoved(ch domain.StyleMoved) error {
	s, ok := n.styles[ch.StyleID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownStyle, ch.StyleID)
	}
	if !s.IsTopLevel() {
		return fmt.Errorf("%w: %d", domain.ErrNotTopLevel, ch.StyleID)
	}

	current := n.orderIndex(ch.StyleID)
	if current == ch.NewPosition {
		// Already applied.
		return nil
	}
	if ch.NewPosition < 0 || ch.NewPosition >= len(n.order) {
		return fmt.Errorf("%w: position %d out of range", domain.ErrUnknownPositionReference, ch.NewPosition)
	}

	n.order = slices.Delete(n.order, current, current+1)
	n.order = slices.Insert(n.order, ch.NewPosition, ch.StyleID)
	return nil
}

func (n *Notebook) applyRelationshipInserted(ch domain.RelationshipInserted) error {
	r := ch.Relationship.Clone()
	if _, ok := n.styles[r.FromID]; !ok {
		return fmt.Errorf("%w: relationship %d from %d", domain.ErrUnknownStyle, r.ID, r.FromID)
	}
	if _, ok := n.styles[r.ToID]; !ok {
		return fmt.Errorf("%w: relationship %d to %d", domain.ErrUnknownStyle, r.ID, r.ToID)
	}
	if err := n.claimID(int64(r.ID)); err != nil {
		return err
	}

	n.relationships[r.ID] = r
	n.links[r.FromID] = append(n.links[r.FromID], r.ID)
	if r.ToID != r.FromID {
		n.links[r.ToID] = append(n.links[r.ToID], r.ID)
	}
	return nil
}

func (n *Notebook) applyRelationshipDeleted(ch domain.RelationshipDeleted) error {
	r, ok := n.relationships[ch.Relationship.ID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownRelationship, ch.Relationship.ID)
	}
	n.unlink(r.FromID, r.ID)
	n.unlink(r.ToID, r.ID)
	delete(n.relationships, r.ID)
	return nil
}

// claimID checks that id is unused and advances nextID past it.
func (n *Notebook) claimID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id %d", domain.ErrInvalidInput, id)
	}
	if _, ok := n.styles[domain.StyleID(id)]; ok {
		return fmt.Errorf("%w: %d", domain.ErrDuplicateID, id)
	}
	if _, ok := n.relationships[domain.RelationshipID(id)]; ok {
		return fmt.Errorf("%w: %d", domain.ErrDuplicateID, id)
	}
	if id >= n.nextID {
		n.nextID = id + 1
	}
	return nil
}

func (n *Notebook) unlink(styleID domain.StyleID, relID domain.RelationshipID) {
	ids := n.links[styleID]
	if i := slices.Index(ids, relID); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	}
	if len(ids) == 0 {
		delete(n.links, styleID)
		return
	}
	n.links[styleID] = ids
}
