package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Payload is the data carried by a style. The concrete variant is
// determined by the style's type:
//
//   - TEXT, EXPR, LATEX: TextPayload
//   - STROKES: StrokesPayload
//   - ERROR: ErrorPayload
//   - anything else: OpaquePayload, passed through unvalidated
//
// A nil Payload means the style carries no data.
type Payload interface {
	isPayload()
}

// TextPayload holds plain text, an expression or markup.
type TextPayload string

func (TextPayload) isPayload() {}

// Point is a sampled pen position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StrokesPayload holds handwritten ink, one slice of points per stroke.
type StrokesPayload struct {
	Strokes [][]Point `json:"strokes"`
}

func (StrokesPayload) isPayload() {}

// ErrorPayload holds the message of a failed computation.
type ErrorPayload struct {
	Message string `json:"message"`
}

func (ErrorPayload) isPayload() {}

// OpaquePayload holds data of a type the engine does not know.
type OpaquePayload json.RawMessage

func (OpaquePayload) isPayload() {}

// MarshalJSON returns the raw bytes unchanged.
func (p OpaquePayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// DecodePayload decodes raw JSON into the payload variant for t.
// Empty or null input decodes to a nil Payload.
func DecodePayload(t StyleType, raw json.RawMessage) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch t {
	case TypeText, TypeExpr, TypeLatex:
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("%w: %s data: %v", ErrInvalidInput, t, err)
		}
		return TextPayload(s), nil
	case TypeStrokes:
		var p StrokesPayload
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("%w: %s data: %v", ErrInvalidInput, t, err)
		}
		return p, nil
	case TypeError:
		var p ErrorPayload
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("%w: %s data: %v", ErrInvalidInput, t, err)
		}
		return p, nil
	default:
		return OpaquePayload(append([]byte(nil), trimmed...)), nil
	}
}

// PayloadEqual reports whether two payloads carry the same data.
func PayloadEqual(a, b Payload) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if oa, ok := a.(OpaquePayload); ok {
		ob, ok := b.(OpaquePayload)
		return ok && bytes.Equal(oa, ob)
	}
	return reflect.DeepEqual(a, b)
}

// PayloadText returns the text of a TextPayload and false for any other variant.
func PayloadText(p Payload) (string, bool) {
	t, ok := p.(TextPayload)
	return string(t), ok
}
