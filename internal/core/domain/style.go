package domain

import "encoding/json"

// StyleID identifies a style. Ids are allocated from a single per-notebook
// counter shared with relationships and are never reused.
type StyleID int64

// RelationshipID identifies a relationship.
type RelationshipID int64

// StylePosition names where a top-level style goes in the display order.
// Positive values name the top-level sibling to insert after.
type StylePosition int64

const (
	// PositionTop places a style first in the display order.
	PositionTop StylePosition = 0
	// PositionBottom places a style last in the display order.
	PositionBottom StylePosition = -1
)

// StyleSource identifies who created a style or relationship.
type StyleSource string

const (
	// SourceUser marks content entered by a user.
	SourceUser StyleSource = "USER"
	// SourceSystem marks content created by the engine itself.
	SourceSystem StyleSource = "SYSTEM"
)

// StyleRole describes what a style means to its parent or the notebook.
type StyleRole string

// Built-in roles. Providers may define their own.
const (
	RoleFormula         StyleRole = "FORMULA"
	RoleText            StyleRole = "TEXT"
	RoleDerived         StyleRole = "DERIVED"
	RoleRecognized      StyleRole = "RECOGNIZED"
	RolePresentation    StyleRole = "PRESENTATION"
	RoleEvaluationError StyleRole = "EVALUATION-ERROR"
)

// StyleSubrole refines a role. It is optional.
type StyleSubrole string

// StyleType determines the shape of a style's data.
type StyleType string

// Known style types. See DecodePayload for the payload each one carries.
const (
	TypeNone    StyleType = "NONE"
	TypeText    StyleType = "TEXT"
	TypeExpr    StyleType = "EXPR"
	TypeLatex   StyleType = "LATEX"
	TypeStrokes StyleType = "STROKES"
	TypeError   StyleType = "ERROR"
)

// Style is a cell of the notebook graph. A style with ParentID 0 is a
// top-level cell; any other style annotates its parent.
type Style struct {
	// ID is unique within the notebook.
	ID StyleID `json:"id"`

	// ParentID is 0 for top-level styles.
	ParentID StyleID `json:"parentId"`

	Role    StyleRole    `json:"role"`
	Subrole StyleSubrole `json:"subrole,omitempty"`
	Type    StyleType    `json:"type"`

	// Source is the provider that created the style, or USER/SYSTEM.
	Source StyleSource `json:"source"`

	// Data is the payload. Its variant follows Type.
	Data Payload `json:"data"`
}

// IsTopLevel reports whether the style sits in the display order.
func (s *Style) IsTopLevel() bool {
	return s.ParentID == 0
}

// Clone returns a copy of the style. Payloads are treated as immutable
// values and are shared.
func (s *Style) Clone() *Style {
	c := *s
	return &c
}

// UnmarshalJSON decodes the data field according to the style type.
func (s *Style) UnmarshalJSON(b []byte) error {
	type plain Style
	var wire struct {
		plain
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	data, err := DecodePayload(wire.Type, wire.Data)
	if err != nil {
		return err
	}
	*s = Style(wire.plain)
	s.Data = data
	return nil
}

// RelationshipRole names the kind of edge a relationship represents.
type RelationshipRole string

const (
	// RelationshipDependency links a definition to a style that uses it.
	RelationshipDependency RelationshipRole = "DEPENDENCY"
)

// Relationship is a directed edge between two styles, distinct from
// parent/child containment.
type Relationship struct {
	ID     RelationshipID   `json:"id"`
	Role   RelationshipRole `json:"role"`
	FromID StyleID          `json:"fromId"`
	ToID   StyleID          `json:"toId"`
	Source StyleSource      `json:"source"`

	// Data is opaque to the engine.
	Data json.RawMessage `json:"data,omitempty"`
}

// Touches reports whether the relationship has id as an endpoint.
func (r *Relationship) Touches(id StyleID) bool {
	return r.FromID == id || r.ToID == id
}

// Clone returns a copy of the relationship.
func (r *Relationship) Clone() *Relationship {
	c := *r
	if r.Data != nil {
		c.Data = append(json.RawMessage(nil), r.Data...)
	}
	return &c
}
