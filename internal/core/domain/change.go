package domain

import "encoding/json"

// ChangeType discriminates changes.
type ChangeType string

// Change types.
const (
	ChangeStyleInserted        ChangeType = "styleInserted"
	ChangeStyleChanged         ChangeType = "styleChanged"
	ChangeStyleConverted       ChangeType = "styleConverted"
	ChangeStyleDeleted         ChangeType = "styleDeleted"
	ChangeStyleMoved           ChangeType = "styleMoved"
	ChangeRelationshipInserted ChangeType = "relationshipInserted"
	ChangeRelationshipDeleted  ChangeType = "relationshipDeleted"
)

// Change is a primitive modification that has been, or is about to be,
// applied to a notebook. Changes are what providers observe.
type Change interface {
	ChangeType() ChangeType
}

// StyleInserted records a new style. AfterID is where a top-level style
// was placed.
type StyleInserted struct {
	Style   Style
	AfterID StylePosition
}

// StyleChanged records new data on a style.
type StyleChanged struct {
	Style        Style
	PreviousData Payload
}

// StyleConverted records an in-place change of role, subrole, type or data.
// Zero values mean the field was left unchanged.
type StyleConverted struct {
	StyleID StyleID
	Role    StyleRole
	Subrole StyleSubrole
	Type    StyleType
	Data    Payload
}

// StyleDeleted records the removal of a style.
type StyleDeleted struct {
	Style Style
}

// StyleMoved records a move within the display order. Both ordinal
// positions are carried so the change can be applied idempotently.
type StyleMoved struct {
	StyleID     StyleID
	AfterID     StylePosition
	OldPosition int
	NewPosition int
}

// RelationshipInserted records a new relationship.
type RelationshipInserted struct {
	Relationship Relationship
}

// RelationshipDeleted records the removal of a relationship.
type RelationshipDeleted struct {
	Relationship Relationship
}

func (StyleInserted) ChangeType() ChangeType        { return ChangeStyleInserted }
func (StyleChanged) ChangeType() ChangeType         { return ChangeStyleChanged }
func (StyleConverted) ChangeType() ChangeType       { return ChangeStyleConverted }
func (StyleDeleted) ChangeType() ChangeType         { return ChangeStyleDeleted }
func (StyleMoved) ChangeType() ChangeType           { return ChangeStyleMoved }
func (RelationshipInserted) ChangeType() ChangeType { return ChangeRelationshipInserted }
func (RelationshipDeleted) ChangeType() ChangeType  { return ChangeRelationshipDeleted }

// ChangeResult is everything a request produced, across all rounds.
type ChangeResult struct {
	// BatchID identifies the request in logs.
	BatchID string

	// Changes holds every applied change, round by round.
	Changes []Change

	// Rounds is the number of rounds whose provider requests were applied.
	// Zero means the providers had nothing to add.
	Rounds int
}

// ChangeSummary is a flat, serialisable description of a change, used by
// the CLI and MCP adapters.
type ChangeSummary struct {
	Type           ChangeType      `json:"type"`
	StyleID        StyleID         `json:"styleId,omitempty"`
	ParentID       StyleID         `json:"parentId,omitempty"`
	RelationshipID RelationshipID  `json:"relationshipId,omitempty"`
	Role           string          `json:"role,omitempty"`
	StyleType      StyleType       `json:"styleType,omitempty"`
	Source         StyleSource     `json:"source,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	FromID         StyleID         `json:"fromId,omitempty"`
	ToID           StyleID         `json:"toId,omitempty"`
	Position       *int            `json:"position,omitempty"`
}

// Summarize flattens a change into a ChangeSummary.
func Summarize(c Change) ChangeSummary {
	s := ChangeSummary{Type: c.ChangeType()}
	switch ch := c.(type) {
	case StyleInserted:
		fillStyle(&s, &ch.Style)
	case StyleChanged:
		fillStyle(&s, &ch.Style)
	case StyleDeleted:
		fillStyle(&s, &ch.Style)
	case StyleConverted:
		s.StyleID = ch.StyleID
		s.Role = string(ch.Role)
		s.StyleType = ch.Type
		s.Data = marshalPayload(ch.Data)
	case StyleMoved:
		s.StyleID = ch.StyleID
		pos := ch.NewPosition
		s.Position = &pos
	case RelationshipInserted:
		fillRelationship(&s, &ch.Relationship)
	case RelationshipDeleted:
		fillRelationship(&s, &ch.Relationship)
	}
	return s
}

func fillStyle(s *ChangeSummary, style *Style) {
	s.StyleID = style.ID
	s.ParentID = style.ParentID
	s.Role = string(style.Role)
	s.StyleType = style.Type
	s.Source = style.Source
	s.Data = marshalPayload(style.Data)
}

func fillRelationship(s *ChangeSummary, r *Relationship) {
	s.RelationshipID = r.ID
	s.Role = string(r.Role)
	s.Source = r.Source
	s.FromID = r.FromID
	s.ToID = r.ToID
}

func marshalPayload(p Payload) json.RawMessage {
	if p == nil {
		return nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return b
}
