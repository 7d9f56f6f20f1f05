package domain

import "encoding/json"

// RequestType discriminates change requests.
type RequestType string

// Change request types.
const (
	RequestInsertStyle        RequestType = "insertStyle"
	RequestDeleteStyle        RequestType = "deleteStyle"
	RequestChangeStyle        RequestType = "changeStyle"
	RequestConvertStyle       RequestType = "convertStyle"
	RequestMoveStyle          RequestType = "moveStyle"
	RequestInsertRelationship RequestType = "insertRelationship"
	RequestDeleteRelationship RequestType = "deleteRelationship"
)

// ChangeRequest is a declarative request to modify a notebook. Requests
// are compiled into Changes by the engine; nothing else mutates a notebook.
type ChangeRequest interface {
	RequestType() RequestType
}

// StyleProps describes a style to insert, with nested annotations and the
// relationships the new style takes part in.
type StyleProps struct {
	Role    StyleRole
	Subrole StyleSubrole
	Type    StyleType
	Data    Payload

	// Children are inserted under the new style, depth first.
	Children []StyleProps

	// RelationsFrom declares relationships from existing styles to the new style.
	RelationsFrom map[StyleID]RelationshipProps

	// RelationsTo declares relationships from the new style to existing styles.
	RelationsTo map[StyleID]RelationshipProps
}

// RelationshipProps describes a relationship to insert.
type RelationshipProps struct {
	Role RelationshipRole
	Data json.RawMessage
}

// InsertStyle inserts a style, and its nested children, into the notebook.
// AfterID is only meaningful when ParentID is 0.
type InsertStyle struct {
	ParentID StyleID
	AfterID  StylePosition
	Props    StyleProps
}

// DeleteStyle deletes a style, its descendants and every relationship touching them.
type DeleteStyle struct {
	StyleID StyleID
}

// ChangeStyle replaces a style's data.
type ChangeStyle struct {
	StyleID StyleID
	Data    Payload
}

// ConvertStyle changes a style's role, subrole, type and/or data in place.
// Zero values leave the corresponding field unchanged.
type ConvertStyle struct {
	StyleID StyleID
	Role    StyleRole
	Subrole StyleSubrole
	Type    StyleType
	Data    Payload
}

// MoveStyle repositions a top-level style in the display order.
type MoveStyle struct {
	StyleID StyleID
	AfterID StylePosition
}

// InsertRelationship links two existing styles.
type InsertRelationship struct {
	FromID StyleID
	ToID   StyleID
	Props  RelationshipProps
}

// DeleteRelationship removes a relationship.
type DeleteRelationship struct {
	ID RelationshipID
}

func (InsertStyle) RequestType() RequestType        { return RequestInsertStyle }
func (DeleteStyle) RequestType() RequestType        { return RequestDeleteStyle }
func (ChangeStyle) RequestType() RequestType        { return RequestChangeStyle }
func (ConvertStyle) RequestType() RequestType       { return RequestConvertStyle }
func (MoveStyle) RequestType() RequestType          { return RequestMoveStyle }
func (InsertRelationship) RequestType() RequestType { return RequestInsertRelationship }
func (DeleteRelationship) RequestType() RequestType { return RequestDeleteRelationship }
