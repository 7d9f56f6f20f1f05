package domain

import (
	"encoding/json"
	"fmt"
)

// WireStyle is the serialisable form of StyleProps used by request files
// and remote callers. Data is decoded according to Type.
type WireStyle struct {
	Role     StyleRole    `json:"role" yaml:"role"`
	Subrole  StyleSubrole `json:"subrole,omitempty" yaml:"subrole,omitempty"`
	Type     StyleType    `json:"type" yaml:"type"`
	Data     any          `json:"data,omitempty" yaml:"data,omitempty"`
	Children []WireStyle  `json:"children,omitempty" yaml:"children,omitempty"`
}

// WireRequest is the serialisable form of a ChangeRequest, discriminated by Type.
type WireRequest struct {
	Type           RequestType      `json:"type" yaml:"type"`
	StyleID        StyleID          `json:"styleId,omitempty" yaml:"styleId,omitempty"`
	ParentID       StyleID          `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	AfterID        StylePosition    `json:"afterId,omitempty" yaml:"afterId,omitempty"`
	RelationshipID RelationshipID   `json:"relationshipId,omitempty" yaml:"relationshipId,omitempty"`
	FromID         StyleID          `json:"fromId,omitempty" yaml:"fromId,omitempty"`
	ToID           StyleID          `json:"toId,omitempty" yaml:"toId,omitempty"`
	RelationRole   RelationshipRole `json:"relationRole,omitempty" yaml:"relationRole,omitempty"`
	Role           StyleRole        `json:"role,omitempty" yaml:"role,omitempty"`
	Subrole        StyleSubrole     `json:"subrole,omitempty" yaml:"subrole,omitempty"`
	StyleType      StyleType        `json:"styleType,omitempty" yaml:"styleType,omitempty"`
	Data           any              `json:"data,omitempty" yaml:"data,omitempty"`
	Style          *WireStyle       `json:"style,omitempty" yaml:"style,omitempty"`
}

// ToRequest converts the wire form into a ChangeRequest.
func (w *WireRequest) ToRequest() (ChangeRequest, error) {
	switch w.Type {
	case RequestInsertStyle:
		if w.Style == nil {
			return nil, fmt.Errorf("%w: insertStyle without style", ErrInvalidInput)
		}
		props, err := w.Style.ToProps()
		if err != nil {
			return nil, err
		}
		return InsertStyle{ParentID: w.ParentID, AfterID: w.AfterID, Props: props}, nil
	case RequestDeleteStyle:
		return DeleteStyle{StyleID: w.StyleID}, nil
	case RequestChangeStyle:
		// The payload variant depends on the target style's type, which
		// only the notebook knows; styleType must be supplied.
		data, err := encodeAny(w.StyleType, w.Data)
		if err != nil {
			return nil, err
		}
		return ChangeStyle{StyleID: w.StyleID, Data: data}, nil
	case RequestConvertStyle:
		data, err := encodeAny(w.StyleType, w.Data)
		if err != nil {
			return nil, err
		}
		return ConvertStyle{StyleID: w.StyleID, Role: w.Role, Subrole: w.Subrole, Type: w.StyleType, Data: data}, nil
	case RequestMoveStyle:
		return MoveStyle{StyleID: w.StyleID, AfterID: w.AfterID}, nil
	case RequestInsertRelationship:
		return InsertRelationship{FromID: w.FromID, ToID: w.ToID, Props: RelationshipProps{Role: w.RelationRole}}, nil
	case RequestDeleteRelationship:
		return DeleteRelationship{ID: w.RelationshipID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown request type %q", ErrInvalidInput, w.Type)
	}
}

// ToProps converts the wire form into StyleProps.
func (w *WireStyle) ToProps() (StyleProps, error) {
	if w.Role == "" || w.Type == "" {
		return StyleProps{}, fmt.Errorf("%w: style needs role and type", ErrInvalidInput)
	}
	data, err := encodeAny(w.Type, w.Data)
	if err != nil {
		return StyleProps{}, err
	}
	props := StyleProps{Role: w.Role, Subrole: w.Subrole, Type: w.Type, Data: data}
	for i := range w.Children {
		child, err := w.Children[i].ToProps()
		if err != nil {
			return StyleProps{}, err
		}
		props.Children = append(props.Children, child)
	}
	return props, nil
}

func encodeAny(t StyleType, v any) (Payload, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding data: %v", ErrInvalidInput, err)
	}
	return DecodePayload(t, raw)
}
