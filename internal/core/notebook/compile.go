package notebook

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// Compile translates a change request into the changes it produces,
// allocating fresh ids from nb.NextID() onward. It does not modify nb.
// Styles and relationships created by the request are attributed to source.
func Compile(nb *Notebook, source domain.StyleSource, req domain.ChangeRequest) ([]domain.Change, error) {
	nb.mu.RLock()
	defer nb.mu.RUnlock()

	c := &compiler{nb: nb, source: source, next: nb.nextID}

	switch r := req.(type) {
	case domain.InsertStyle:
		return c.insertStyle(r)
	case domain.DeleteStyle:
		return c.deleteStyle(r)
	case domain.ChangeStyle:
		return c.changeStyle(r)
	case domain.ConvertStyle:
		return c.convertStyle(r)
	case domain.MoveStyle:
		return c.moveStyle(r)
	case domain.InsertRelationship:
		return c.insertRelationship(r)
	case domain.DeleteRelationship:
		return c.deleteRelationship(r)
	case nil:
		return nil, fmt.Errorf("%w: nil request", domain.ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unsupported request %T", domain.ErrInvalidInput, req)
	}
}

// compiler holds the id counter for one request. It reads the notebook
// under the caller's read lock.
type compiler struct {
	nb      *Notebook
	source  domain.StyleSource
	next    int64
	changes []domain.Change
}

func (c *compiler) allocate() int64 {
	id := c.next
	c.next++
	return id
}

func (c *compiler) insertStyle(r domain.InsertStyle) ([]domain.Change, error) {
	if r.ParentID != 0 {
		if _, ok := c.nb.styles[r.ParentID]; !ok {
			return nil, fmt.Errorf("%w: parent %d", domain.ErrUnknownStyle, r.ParentID)
		}
	} else if _, err := c.nb.insertIndex(c.nb.order, r.AfterID); err != nil {
		return nil, err
	}

	if err := c.insertProps(r.ParentID, r.AfterID, r.Props); err != nil {
		return nil, err
	}
	return c.changes, nil
}

// insertProps emits the style, then its relationships, then its children.
func (c *compiler) insertProps(parentID domain.StyleID, after domain.StylePosition, props domain.StyleProps) error {
	if props.Role == "" || props.Type == "" {
		return fmt.Errorf("%w: style needs role and type", domain.ErrInvalidInput)
	}

	id := domain.StyleID(c.allocate())
	style := domain.Style{
		ID:       id,
		ParentID: parentID,
		Role:     props.Role,
		Subrole:  props.Subrole,
		Type:     props.Type,
		Source:   c.source,
		Data:     props.Data,
	}
	inserted := domain.StyleInserted{Style: style}
	if parentID == 0 {
		inserted.AfterID = after
	}
	c.changes = append(c.changes, inserted)

	for _, fromID := range sortedKeys(props.RelationsFrom) {
		if err := c.relate(fromID, id, props.RelationsFrom[fromID]); err != nil {
			return err
		}
	}
	for _, toID := range sortedKeys(props.RelationsTo) {
		if err := c.relate(id, toID, props.RelationsTo[toID]); err != nil {
			return err
		}
	}

	for _, child := range props.Children {
		if err := c.insertProps(id, domain.PositionBottom, child); err != nil {
			return err
		}
	}
	return nil
}

// relate emits a relationship between an existing style and the style being inserted.
func (c *compiler) relate(from, to domain.StyleID, props domain.RelationshipProps) error {
	for _, end := range []domain.StyleID{from, to} {
		if _, ok := c.nb.styles[end]; !ok && !c.inserting(end) {
			return fmt.Errorf("%w: relationship endpoint %d", domain.ErrUnknownStyle, end)
		}
	}
	c.changes = append(c.changes, domain.RelationshipInserted{Relationship: domain.Relationship{
		ID:     domain.RelationshipID(c.allocate()),
		Role:   props.Role,
		FromID: from,
		ToID:   to,
		Source: c.source,
		Data:   props.Data,
	}})
	return nil
}

// inserting reports whether id was allocated to a style by this request.
func (c *compiler) inserting(id domain.StyleID) bool {
	for _, ch := range c.changes {
		if ins, ok := ch.(domain.StyleInserted); ok && ins.Style.ID == id {
			return true
		}
	}
	return false
}

// deleteStyle emits the deletion cascade: relationships touching the
// subtree, then the subtree's styles children first.
func (c *compiler) deleteStyle(r domain.DeleteStyle) ([]domain.Change, error) {
	if _, ok := c.nb.styles[r.StyleID]; !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownStyle, r.StyleID)
	}

	ids := c.nb.subtree(r.StyleID)

	seen := make(map[domain.RelationshipID]bool)
	for _, id := range ids {
		for _, relID := range c.nb.links[id] {
			if seen[relID] {
				continue
			}
			seen[relID] = true
			c.changes = append(c.changes, domain.RelationshipDeleted{Relationship: *c.nb.relationships[relID].Clone()})
		}
	}

	for i := len(ids) - 1; i >= 0; i-- {
		c.changes = append(c.changes, domain.StyleDeleted{Style: *c.nb.styles[ids[i]].Clone()})
	}
	return c.changes, nil
}

func (c *compiler) changeStyle(r domain.ChangeStyle) ([]domain.Change, error) {
	s, ok := c.nb.styles[r.StyleID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownStyle, r.StyleID)
	}
	if domain.PayloadEqual(s.Data, r.Data) {
		return nil, nil
	}
	updated := *s.Clone()
	updated.Data = r.Data
	return []domain.Change{domain.StyleChanged{Style: updated, PreviousData: s.Data}}, nil
}

func (c *compiler) convertStyle(r domain.ConvertStyle) ([]domain.Change, error) {
	s, ok := c.nb.styles[r.StyleID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownStyle, r.StyleID)
	}

	ch := domain.StyleConverted{StyleID: r.StyleID}
	if r.Role != "" && r.Role != s.Role {
		ch.Role = r.Role
	}
	if r.Subrole != "" && r.Subrole != s.Subrole {
		ch.Subrole = r.Subrole
	}
	if r.Type != "" && r.Type != s.Type {
		ch.Type = r.Type
	}
	if r.Data != nil && !domain.PayloadEqual(r.Data, s.Data) {
		ch.Data = r.Data
	}
	if ch.Role == "" && ch.Subrole == "" && ch.Type == "" && ch.Data == nil {
		return nil, nil
	}
	return []domain.Change{ch}, nil
}

func (c *compiler) moveStyle(r domain.MoveStyle) ([]domain.Change, error) {
	s, ok := c.nb.styles[r.StyleID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownStyle, r.StyleID)
	}
	if !s.IsTopLevel() {
		return nil, fmt.Errorf("%w: %d", domain.ErrNotTopLevel, r.StyleID)
	}
	if domain.StyleID(r.AfterID) == r.StyleID {
		return nil, fmt.Errorf("%w: style %d cannot follow itself", domain.ErrInvalidInput, r.StyleID)
	}

	oldPos := c.nb.orderIndex(r.StyleID)
	if oldPos < 0 {
		return nil, fmt.Errorf("%w: top-level style %d missing from order", domain.ErrOrphanedStyle, r.StyleID)
	}
	rest := slices.Delete(slices.Clone(c.nb.order), oldPos, oldPos+1)
	newPos, err := c.nb.insertIndex(rest, r.AfterID)
	if err != nil {
		return nil, err
	}
	if newPos == oldPos {
		return nil, nil
	}
	return []domain.Change{domain.StyleMoved{
		StyleID:     r.StyleID,
		AfterID:     r.AfterID,
		OldPosition: oldPos,
		NewPosition: newPos,
	}}, nil
}

func (c *compiler) insertRelationship(r domain.InsertRelationship) ([]domain.Change, error) {
	if err := c.relate(r.FromID, r.ToID, r.Props); err != nil {
		return nil, err
	}
	return c.changes, nil
}

func (c *compiler) deleteRelationship(r domain.DeleteRelationship) ([]domain.Change, error) {
	rel, ok := c.nb.relationships[r.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownRelationship, r.ID)
	}
	return []domain.Change{domain.RelationshipDeleted{Relationship: *rel.Clone()}}, nil
}

func sortedKeys(m map[domain.StyleID]domain.RelationshipProps) []domain.StyleID {
	keys := make([]domain.StyleID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
